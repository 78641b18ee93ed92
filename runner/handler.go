package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

const ErrCodeRunFailed = "RUN_FAILED"

type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Handler runs a function with retries, a per attempt timeout and a
// backoff strategy. It holds no per run state and can be shared.
type Handler struct {
	logger        Logger
	errorHandler  func(error)
	retryStrategy RetryStrategy

	maxRetries int
	timeout    time.Duration
}

// NewHandler constructs a Handler from options, applying defaults if unset.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		errorHandler:  func(error) {},
		retryStrategy: NoDelayStrategy{},
	}
	for _, o := range opts {
		if o != nil {
			o(h)
		}
	}
	return h
}

// Run calls fn until it succeeds, the retries are exhausted, the strategy
// refuses to retry or ctx is done. Intermediate failures go to the error
// handler; the final failure is returned wrapped.
func (h *Handler) Run(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("runner function cannot be nil", errors.CategoryBadInput).
			WithTextCode(ErrCodeRunFailed)
	}

	var (
		err      error
		attempts int
	)
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		attempts = attempt + 1
		if cerr := ctx.Err(); cerr != nil {
			if err == nil {
				err = cerr
			}
			break
		}

		err = h.attempt(ctx, fn)
		if err == nil {
			h.logInfo("run succeeded attempt=%d", attempts)
			return nil
		}
		if attempt == h.maxRetries {
			break
		}

		decision := DecideRetry(h.retryStrategy, attempt, err)
		if !decision.ShouldRetry {
			break
		}
		h.errorHandler(errors.Wrap(err, errors.CategoryExternal,
			fmt.Sprintf("run failed, attempt %d of %d", attempts, h.maxRetries+1),
		).WithTextCode(ErrCodeRunFailed))

		if !sleep(ctx, decision.Delay) {
			break
		}
	}

	h.logError("run failed after %d attempt(s): %v", attempts, err)
	return errors.Wrap(err, errors.CategoryExternal,
		fmt.Sprintf("run failed after %d attempt(s)", attempts),
	).WithTextCode(ErrCodeRunFailed).WithMetadata(map[string]any{"attempts": attempts})
}

func (h *Handler) attempt(ctx context.Context, fn func(context.Context) error) error {
	if h.timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return fn(ctx)
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (h *Handler) logInfo(format string, args ...any) {
	if h.logger != nil {
		h.logger.Info(format, args...)
	}
}

func (h *Handler) logError(format string, args ...any) {
	if h.logger != nil {
		h.logger.Error(format, args...)
	}
}
