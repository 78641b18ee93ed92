package cron

import "sync"

// ScheduleStatus reports a schedule handle state.
type ScheduleStatus string

const (
	ScheduleStatusScheduled ScheduleStatus = "scheduled"
	ScheduleStatusRunning   ScheduleStatus = "running"
	ScheduleStatusIdle      ScheduleStatus = "idle"
	ScheduleStatusCompleted ScheduleStatus = "completed"
	ScheduleStatusCanceled  ScheduleStatus = "canceled"
	ScheduleStatusFailed    ScheduleStatus = "failed"
	ScheduleStatusStopped   ScheduleStatus = "stopped"
)

func (s ScheduleStatus) terminal() bool {
	switch s {
	case ScheduleStatusCompleted, ScheduleStatusCanceled, ScheduleStatusFailed, ScheduleStatusStopped:
		return true
	}
	return false
}

// Handle controls one scheduled job.
type Handle interface {
	Cancel()
	Status() ScheduleStatus
	// Err is the error of the latest run, if it failed.
	Err() error
	// Runs counts completed runs, failed or not.
	Runs() int
	Done() <-chan struct{}
	ID() int64
}

type handle struct {
	scheduler *Scheduler
	id        int64
	entryID   int
	done      chan struct{}

	mu     sync.RWMutex
	status ScheduleStatus
	err    error
	runs   int
	once   sync.Once
}

func (h *handle) Cancel() {
	h.once.Do(func() {
		if h.scheduler != nil {
			h.scheduler.remove(h.id)
		}
		h.finish(ScheduleStatusCanceled, nil)
	})
}

func (h *handle) Status() ScheduleStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

func (h *handle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

func (h *handle) Runs() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.runs
}

func (h *handle) Done() <-chan struct{} { return h.done }

func (h *handle) ID() int64 { return h.id }

// begin marks the handle running unless it already finished.
func (h *handle) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status.terminal() {
		return false
	}
	h.status = ScheduleStatusRunning
	return true
}

// settle records a run result. Recurring jobs go back to idle.
func (h *handle) settle(err error, next ScheduleStatus) {
	h.mu.Lock()
	h.runs++
	h.err = err
	if !h.status.terminal() {
		h.status = next
	}
	h.mu.Unlock()
}

func (h *handle) finish(status ScheduleStatus, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.status.terminal() {
		h.status = status
		if err != nil {
			h.err = err
		}
	}
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}
