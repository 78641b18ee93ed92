package nodegraph

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/goliatone/go-nodegraph/graph"
	"github.com/goliatone/go-nodegraph/schema"
)

// SchemaSource delivers the node schemas the engine currently exposes.
type SchemaSource interface {
	FetchNodeSchemas(ctx context.Context) (*schema.Catalog, error)
}

// Submitter hands a serialized graph document to the engine.
type Submitter interface {
	Submit(ctx context.Context, graphName string, payload []byte) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, graphName string, payload []byte) error

func (f SubmitterFunc) Submit(ctx context.Context, graphName string, payload []byte) error {
	return f(ctx, graphName, payload)
}

// Workspace is the state owned by a Session: the type registry and the
// open graphs. It is only reachable from inside Session.Do.
type Workspace struct {
	Registry *Registry

	graphs map[string]*graph.Graph
	order  []string
}

func newWorkspace(registry *Registry) *Workspace {
	return &Workspace{
		Registry: registry,
		graphs:   make(map[string]*graph.Graph),
	}
}

// Graph returns the named graph, creating an empty one on first use.
func (w *Workspace) Graph(name string) *graph.Graph {
	if g, ok := w.graphs[name]; ok {
		return g
	}
	g := graph.New(name)
	w.graphs[name] = g
	w.order = append(w.order, name)
	return g
}

func (w *Workspace) Lookup(name string) (*graph.Graph, bool) {
	g, ok := w.graphs[name]
	return g, ok
}

// Graphs lists open graphs in creation order.
func (w *Workspace) Graphs() []*graph.Graph {
	out := make([]*graph.Graph, 0, len(w.order))
	for _, name := range w.order {
		out = append(out, w.graphs[name])
	}
	return out
}

func (w *Workspace) RemoveGraph(name string) bool {
	if _, ok := w.graphs[name]; !ok {
		return false
	}
	delete(w.graphs, name)
	for i, n := range w.order {
		if n == name {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return true
}

// SessionOption configures a Session.
type SessionOption func(*Session)

func WithLogger(logger Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

func WithSchemaSource(source SchemaSource) SessionOption {
	return func(s *Session) {
		s.source = source
	}
}

func WithSubmitter(submitter Submitter) SessionOption {
	return func(s *Session) {
		s.submitter = submitter
	}
}

func WithRegistry(registry *Registry) SessionOption {
	return func(s *Session) {
		s.registry = registry
	}
}

// WithSubmitErrorHandler receives failures of fire and forget submissions.
func WithSubmitErrorHandler(fn func(graphName string, err error)) SessionOption {
	return func(s *Session) {
		s.onSubmitError = fn
	}
}

func WithPanicLogger(logger PanicLogger) SessionOption {
	return func(s *Session) {
		s.panicLogger = logger
	}
}

type request struct {
	name  string
	fn    func(*Workspace) error
	reply chan error
}

// Session serializes every access to the registry and the graphs through
// a single owner goroutine. Network and disk work happens off the owner;
// only the resulting mutations are applied on it.
type Session struct {
	logger        Logger
	source        SchemaSource
	submitter     Submitter
	registry      *Registry
	onSubmitError func(string, error)
	panicLogger   PanicLogger

	workspace *Workspace
	requests  chan request
	quit      chan struct{}
	done      chan struct{}

	running   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once

	mu       sync.Mutex
	closed   bool
	baseCtx  context.Context
	inflight sync.WaitGroup
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		baseCtx:  context.Background(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = normalizeLogger(s.logger)
	if s.registry == nil {
		s.registry = NewRegistry(WithRegistryLogger(s.logger))
	}
	if s.panicLogger == nil {
		s.panicLogger = LoggerPanicLogger(s.logger)
	}
	s.workspace = newWorkspace(s.registry)
	return s
}

// Start launches the owner goroutine. The session closes itself when ctx
// is done. Starting twice is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cloneError(ErrSessionClosed, "", nil, nil)
	}
	s.mu.Unlock()

	s.startOnce.Do(func() {
		s.mu.Lock()
		s.baseCtx = context.WithoutCancel(ctx)
		s.mu.Unlock()
		s.running.Store(true)
		go s.run(ctx)
	})
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			s.stop()
			return
		case <-s.quit:
			return
		case req := <-s.requests:
			req.reply <- s.exec(req)
		}
	}
}

func (s *Session) exec(req request) (err error) {
	defer recoverPanic(req.name, s.panicLogger, &err, map[string]any{"operation": req.name})
	return req.fn(s.workspace)
}

func (s *Session) stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
}

// Close stops the owner and waits for in flight submissions.
func (s *Session) Close() error {
	s.stop()
	if s.running.Load() {
		<-s.done
	}
	s.inflight.Wait()
	return nil
}

// Do runs fn on the owner goroutine and returns its error. If ctx ends
// first Do returns ctx.Err(); an accepted fn still runs to completion.
func (s *Session) Do(ctx context.Context, fn func(*Workspace) error) error {
	return s.do(ctx, "do", fn)
}

func (s *Session) do(ctx context.Context, name string, fn func(*Workspace) error) error {
	if !s.running.Load() {
		return cloneError(ErrSessionClosed, "session is not started", nil, nil)
	}
	req := request{name: name, fn: fn, reply: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-s.quit:
		return cloneError(ErrSessionClosed, "", nil, nil)
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshReport summarizes a schema refresh.
type RefreshReport struct {
	Registered []string
	Replaced   []string
	Rejected   []error
	// Nodes maps graph name to the reconcile report of every node that
	// was refreshed in it.
	Nodes map[string]map[string]graph.Report
}

// Changed reports whether any live node gained or lost sockets.
func (r RefreshReport) Changed() bool {
	for _, nodes := range r.Nodes {
		for _, report := range nodes {
			if report.Changed() {
				return true
			}
		}
	}
	return false
}

// Refresh fetches the current schemas from the source off the owner and
// applies them on it. A failed fetch leaves the registry untouched.
func (s *Session) Refresh(ctx context.Context) (RefreshReport, error) {
	if s.source == nil {
		return RefreshReport{}, cloneError(ErrNoSchemaSource, "", nil, nil)
	}
	catalog, err := s.source.FetchNodeSchemas(ctx)
	if err != nil {
		s.logger.Error("fetch node schemas: %v", err)
		return RefreshReport{}, cloneError(ErrSourceFailed, "", err, nil)
	}
	if catalog == nil {
		return RefreshReport{}, cloneError(ErrSourceFailed, "schema source returned no catalog", nil, nil)
	}
	for _, diag := range catalog.Diagnostics {
		s.logger.Warn("catalog diagnostic: %v", diag)
	}
	return s.ApplySchemas(ctx, catalog.Schemas)
}

// ApplySchemas registers schemas and reconciles every live node of a
// registered type against them.
func (s *Session) ApplySchemas(ctx context.Context, schemas []*schema.NodeSchema) (RefreshReport, error) {
	report := RefreshReport{Nodes: make(map[string]map[string]graph.Report)}
	err := s.do(ctx, "apply_schemas", func(ws *Workspace) error {
		for _, sc := range schemas {
			replaced, err := ws.Registry.Register(sc)
			if err != nil {
				report.Rejected = append(report.Rejected, err)
				continue
			}
			if replaced {
				report.Replaced = append(report.Replaced, sc.TypeName())
			} else {
				report.Registered = append(report.Registered, sc.TypeName())
			}
		}
		for _, g := range ws.Graphs() {
			report.Nodes[g.Name()] = ws.Registry.RefreshGraph(g)
		}
		return nil
	})
	if err != nil {
		return RefreshReport{}, err
	}
	s.logger.Info("applied node schemas registered=%d replaced=%d rejected=%d",
		len(report.Registered), len(report.Replaced), len(report.Rejected))
	return report, nil
}

// Export serializes the named graph on the owner and submits it without
// waiting for the engine. Submission failures are logged and passed to the
// submit error handler.
func (s *Session) Export(ctx context.Context, graphName string) (*graph.Document, error) {
	if s.submitter == nil {
		return nil, cloneError(ErrNoSubmitter, "", nil, nil)
	}
	doc, payload, err := s.serialize(ctx, graphName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, cloneError(ErrSessionClosed, "", nil, nil)
	}
	s.inflight.Add(1)
	base := s.baseCtx
	s.mu.Unlock()

	base = ContextWithLogFields(base, map[string]any{"graph": graphName})
	go func() {
		defer s.inflight.Done()
		logger := s.logger.WithContext(base)
		if err := s.submitter.Submit(base, graphName, payload); err != nil {
			logger.Error("submit graph failed: %v", err)
			if s.onSubmitError != nil {
				s.onSubmitError(graphName, err)
			}
			return
		}
		logger.Info("submitted graph bytes=%d", len(payload))
	}()
	return doc, nil
}

// Serialize returns the engine document of the named graph without
// submitting it.
func (s *Session) Serialize(ctx context.Context, graphName string) (*graph.Document, []byte, error) {
	return s.serialize(ctx, graphName)
}

func (s *Session) serialize(ctx context.Context, graphName string) (*graph.Document, []byte, error) {
	var (
		doc     *graph.Document
		payload []byte
	)
	err := s.do(ctx, "serialize", func(ws *Workspace) error {
		g, ok := ws.Lookup(graphName)
		if !ok {
			return cloneError(ErrGraphNotFound, "", nil, map[string]any{"graph": graphName})
		}
		var report graph.SerializeReport
		doc, report = graph.Serialize(g)
		for _, skipped := range report.Skipped {
			s.logger.Warn("serialize graph %s skipped: %v", graphName, skipped)
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		payload = raw
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return doc, payload, nil
}
