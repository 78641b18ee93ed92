package runner

import "time"

type Option func(*Handler)

// WithTimeout bounds each attempt. Zero leaves attempts unbounded.
func WithTimeout(t time.Duration) Option {
	return func(h *Handler) {
		h.timeout = t
	}
}

func WithMaxRetries(max int) Option {
	return func(h *Handler) {
		if max < 0 {
			max = 0
		}
		h.maxRetries = max
	}
}

func WithErrorHandler(fn func(error)) Option {
	return func(h *Handler) {
		if fn == nil {
			fn = func(error) {}
		}
		h.errorHandler = fn
	}
}

func WithLogger(l Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithRetryStrategy lets you define a custom retry/backoff approach.
func WithRetryStrategy(s RetryStrategy) Option {
	return func(h *Handler) {
		h.retryStrategy = s
	}
}
