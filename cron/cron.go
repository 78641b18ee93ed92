package cron

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/goliatone/go-nodegraph/runner"
	rcron "github.com/robfig/cron/v3"
)

// Logger interface shared across packages
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Job is the unit of scheduled work, for example a schema refresh.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron expressions or after a delay.
type Scheduler struct {
	mu           sync.Mutex
	cron         *rcron.Cron
	location     *time.Location
	errorHandler func(error)
	runner       *runner.Handler

	logger   Logger
	parser   Parser
	logLevel LogLevel

	ctx    context.Context
	cancel context.CancelFunc

	nextID  int64
	handles map[int64]*handle
}

func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.Local,
		parser:   StandardParser,
		logLevel: LogLevelError,
		errorHandler: func(err error) {
			log.Printf("scheduled job error: %v\n", err)
		},
		handles: make(map[int64]*handle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.runner == nil {
		s.runner = runner.NewHandler()
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.cron = rcron.New(s.build()...)
	return s
}

// Validate reports whether expr is accepted by the configured parser.
func (s *Scheduler) Validate(expr string) error {
	return ValidateExpression(expr, s.parser)
}

// ValidateExpression reports whether expr is accepted by parser p.
func ValidateExpression(expr string, p Parser) error {
	_, err := expressionParser(p).Parse(expr)
	return err
}

// Schedule runs job every time expr fires until the handle is canceled or
// the scheduler stops. A run that is still going when the next one fires
// is skipped.
func (s *Scheduler) Schedule(expr string, job Job) (Handle, error) {
	if expr == "" {
		return nil, fmt.Errorf("cron expression cannot be empty")
	}
	if job == nil {
		return nil, fmt.Errorf("job cannot be nil")
	}

	h := s.newHandle()
	entry := rcron.NewChain(rcron.SkipIfStillRunning(s.cronLogger())).Then(rcron.FuncJob(func() {
		if !h.begin() {
			return
		}
		err := s.run(job)
		h.settle(err, ScheduleStatusIdle)
		if err != nil {
			s.errorHandler(err)
		}
	}))

	entryID, err := s.cron.AddJob(expr, entry)
	if err != nil {
		s.forget(h.id)
		return nil, fmt.Errorf("failed to add job: %w", err)
	}
	s.mu.Lock()
	h.entryID = int(entryID)
	s.mu.Unlock()
	return h, nil
}

// ScheduleAfter runs job once after delay.
func (s *Scheduler) ScheduleAfter(delay time.Duration, job Job) (Handle, error) {
	if job == nil {
		return nil, fmt.Errorf("job cannot be nil")
	}
	if delay < 0 {
		delay = 0
	}
	h := s.newHandle()

	go func() {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-h.Done():
			return
		}
		if !h.begin() {
			return
		}
		err := s.run(job)
		s.forget(h.id)
		status := ScheduleStatusCompleted
		if err != nil {
			status = ScheduleStatusFailed
			s.errorHandler(err)
		}
		h.settle(err, status)
		h.finish(status, err)
	}()
	return h, nil
}

func (s *Scheduler) run(job Job) error {
	return s.runner.Run(s.ctx, func(ctx context.Context) error {
		return job(ctx)
	})
}

// Start begins executing scheduled cron jobs.
func (s *Scheduler) Start(_ context.Context) error {
	s.cron.Start()
	return nil
}

// Stop halts the scheduler, cancels running jobs and marks every handle
// stopped. It waits for running cron jobs to return.
func (s *Scheduler) Stop(_ context.Context) error {
	s.cancel()
	<-s.cron.Stop().Done()

	s.mu.Lock()
	handles := make([]*handle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	s.handles = make(map[int64]*handle)
	s.mu.Unlock()

	for _, h := range handles {
		if h.entryID > 0 {
			s.cron.Remove(rcron.EntryID(h.entryID))
		}
		h.finish(ScheduleStatusStopped, nil)
	}
	return nil
}

// Len is the number of active handles.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

func (s *Scheduler) newHandle() *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h := &handle{
		scheduler: s,
		id:        s.nextID,
		status:    ScheduleStatusScheduled,
		done:      make(chan struct{}),
	}
	s.handles[h.id] = h
	return h
}

func (s *Scheduler) remove(id int64) {
	h := s.forget(id)
	if h != nil && h.entryID > 0 {
		s.cron.Remove(rcron.EntryID(h.entryID))
	}
}

func (s *Scheduler) forget(id int64) *handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.handles[id]
	delete(s.handles, id)
	return h
}

func (s *Scheduler) expressionParser() rcron.Parser {
	return expressionParser(s.parser)
}

func expressionParser(p Parser) rcron.Parser {
	if p == SecondsParser {
		return rcron.NewParser(rcron.Second | rcron.Minute | rcron.Hour | rcron.Dom | rcron.Month | rcron.Dow | rcron.Descriptor)
	}
	return rcron.NewParser(rcron.Minute | rcron.Hour | rcron.Dom | rcron.Month | rcron.Dow | rcron.Descriptor)
}

func (s *Scheduler) cronLogger() rcron.Logger {
	if s.logger == nil || s.logLevel == LogLevelSilent {
		return rcron.DiscardLogger
	}
	return &loggerAdapter{logger: s.logger, level: s.logLevel}
}

// build converts scheduler options to cron engine options.
func (s *Scheduler) build() []rcron.Option {
	opts := []rcron.Option{
		rcron.WithParser(s.expressionParser()),
		rcron.WithLogger(s.cronLogger()),
		rcron.WithChain(rcron.Recover(&errorHandlerAdapter{handler: s.errorHandler})),
	}
	if s.location != nil {
		opts = append(opts, rcron.WithLocation(s.location))
	}
	return opts
}
