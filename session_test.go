package nodegraph

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-nodegraph/graph"
	"github.com/goliatone/go-nodegraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type staticSource struct {
	catalog *schema.Catalog
	err     error
	calls   int
}

func (s *staticSource) FetchNodeSchemas(context.Context) (*schema.Catalog, error) {
	s.calls++
	return s.catalog, s.err
}

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads map[string][]byte
	err      error
}

func (r *recordingSubmitter) Submit(_ context.Context, graphName string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.payloads == nil {
		r.payloads = make(map[string][]byte)
	}
	r.payloads[graphName] = payload
	return r.err
}

func startSession(t *testing.T, opts ...SessionOption) *Session {
	t.Helper()
	opts = append([]SessionOption{WithLogger(NopLogger{})}, opts...)
	s := NewSession(opts...)
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionDoRequiresStart(t *testing.T) {
	s := NewSession(WithLogger(NopLogger{}))
	err := s.Do(context.Background(), func(*Workspace) error { return nil })
	assert.Equal(t, ErrCodeSessionClosed, ErrorCode(err))
}

func TestSessionSerializesAccess(t *testing.T) {
	s := startSession(t)
	ctx := context.Background()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Do(ctx, func(ws *Workspace) error {
				ws.Graph("main")
				counter++
				return nil
			}))
		}()
	}
	wg.Wait()

	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		assert.Len(t, ws.Graphs(), 1)
		return nil
	}))
	assert.Equal(t, 50, counter)
}

func TestSessionRecoversPanics(t *testing.T) {
	var recovered []string
	s := startSession(t, WithPanicLogger(func(funcName string, _ any, _ []byte, _ ...map[string]any) {
		recovered = append(recovered, funcName)
	}))

	err := s.Do(context.Background(), func(*Workspace) error { panic("boom") })
	require.Error(t, err)
	assert.Equal(t, ErrCodeOwnerPanic, ErrorCode(err))
	assert.Equal(t, []string{"do"}, recovered)

	assert.NoError(t, s.Do(context.Background(), func(*Workspace) error { return nil }))
}

func TestSessionClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(WithLogger(NopLogger{}))
	require.NoError(t, s.Start(ctx))
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("owner did not stop")
	}
	err := s.Do(context.Background(), func(*Workspace) error { return nil })
	assert.Equal(t, ErrCodeSessionClosed, ErrorCode(err))
	assert.Error(t, s.Start(context.Background()))
}

func TestSessionRefreshReconcilesLiveNodes(t *testing.T) {
	source := &staticSource{catalog: &schema.Catalog{Schemas: []*schema.NodeSchema{
		schema.MustNodeSchema("Mover", "", `{"in_speed": 1.0, "in_old": 0}`),
	}}}
	s := startSession(t, WithSchemaSource(source))
	ctx := context.Background()

	report, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mover"}, report.Registered)

	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		_, err := ws.Registry.NewNode(ws.Graph("main"), "Mover", "m")
		return err
	}))

	source.catalog = &schema.Catalog{Schemas: []*schema.NodeSchema{
		schema.MustNodeSchema("Mover", "", `{"in_speed": 1.0, "in_new": true}`),
	}}
	report, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mover"}, report.Replaced)
	assert.True(t, report.Changed())
	assert.Equal(t, []string{"old"}, report.Nodes["main"]["m"].Inputs.Removed)

	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		n, _ := ws.Graph("main").Node("m")
		assert.Equal(t, []string{"speed", "new"}, n.Inputs().Names())
		return nil
	}))
}

func TestSessionRefreshFailureKeepsRegistry(t *testing.T) {
	source := &staticSource{catalog: &schema.Catalog{Schemas: []*schema.NodeSchema{
		schema.MustNodeSchema("Kept", "", `{}`),
	}}}
	s := startSession(t, WithSchemaSource(source))
	ctx := context.Background()
	_, err := s.Refresh(ctx)
	require.NoError(t, err)

	source.err = stderrors.New("engine offline")
	_, err = s.Refresh(ctx)
	require.Error(t, err)
	assert.Equal(t, ErrCodeSourceFailed, ErrorCode(err))

	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		_, ok := ws.Registry.Lookup("Kept")
		assert.True(t, ok)
		return nil
	}))

	_, err = startSession(t).Refresh(ctx)
	assert.Equal(t, ErrCodeNoSchemaSource, ErrorCode(err))
}

func TestSessionExportSubmitsDocument(t *testing.T) {
	sub := &recordingSubmitter{}
	s := NewSession(WithLogger(NopLogger{}), WithSubmitter(sub))
	require.NoError(t, s.Start(context.Background()))
	ctx := context.Background()

	_, err := s.ApplySchemas(ctx, []*schema.NodeSchema{
		schema.MustNodeSchema("Src", "", `{"out_v": 2}`),
		schema.MustNodeSchema("Dst", "", `{"in_v": 0.0}`),
	})
	require.NoError(t, err)
	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		g := ws.Graph("main")
		if _, err := ws.Registry.NewNode(g, "Src", "a"); err != nil {
			return err
		}
		if _, err := ws.Registry.NewNode(g, "Dst", "b"); err != nil {
			return err
		}
		return g.Connect(graph.Link{FromNode: "a", FromPin: "v", ToNode: "b", ToPin: "v"})
	}))

	doc, err := s.Export(ctx, "main")
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)

	require.NoError(t, s.Close())
	payload := sub.payloads["main"]
	require.NotEmpty(t, payload)
	assert.Equal(t, 2.0, gjson.GetBytes(payload, "nodes.b.in_v").Float())
	assert.Equal(t, "a", gjson.GetBytes(payload, "links.0.from_node").String())
}

func TestSessionExportErrors(t *testing.T) {
	ctx := context.Background()
	_, err := startSession(t).Export(ctx, "main")
	assert.Equal(t, ErrCodeNoSubmitter, ErrorCode(err))

	failures := make(chan string, 1)
	s := startSession(t,
		WithSubmitter(&recordingSubmitter{err: stderrors.New("refused")}),
		WithSubmitErrorHandler(func(graphName string, _ error) { failures <- graphName }),
	)
	_, err = s.Export(ctx, "missing")
	assert.Equal(t, ErrCodeGraphNotFound, ErrorCode(err))

	require.NoError(t, s.Do(ctx, func(ws *Workspace) error {
		ws.Graph("empty")
		return nil
	}))
	_, err = s.Export(ctx, "empty")
	require.NoError(t, err)

	select {
	case name := <-failures:
		assert.Equal(t, "empty", name)
	case <-time.After(time.Second):
		t.Fatal("expected submit failure callback")
	}
}
