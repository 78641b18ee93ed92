package runner

import (
	"math"
	"time"
)

// RetryStrategy encapsulates the delay between retries.
type RetryStrategy interface {
	// SleepDuration returns how long to wait before the next retry attempt.
	// The attempt index starts at 0, incrementing after each failure.
	SleepDuration(attempt int, err error) time.Duration
}

// RetryDecision is the outcome of evaluating a failed attempt.
type RetryDecision struct {
	ShouldRetry bool
	Delay       time.Duration
}

// RetryDecider is implemented by strategies that can refuse a retry, for
// example when the error is permanent.
type RetryDecider interface {
	DecideRetry(attempt int, err error) RetryDecision
}

// DecideRetry asks s for a decision, falling back to SleepDuration for
// strategies that always retry.
func DecideRetry(s RetryStrategy, attempt int, err error) RetryDecision {
	if s == nil {
		return RetryDecision{ShouldRetry: true}
	}
	if d, ok := s.(RetryDecider); ok {
		return d.DecideRetry(attempt, err)
	}
	return RetryDecision{ShouldRetry: true, Delay: s.SleepDuration(attempt, err)}
}

// NoDelayStrategy performs all retries immediately.
type NoDelayStrategy struct{}

func (NoDelayStrategy) SleepDuration(_ int, _ error) time.Duration {
	return 0
}

// ExponentialBackoffStrategy waits Base*Factor^attempt, capped at Max.
//
//	WithRetryStrategy(ExponentialBackoffStrategy{
//	    Base:   100 * time.Millisecond,
//	    Factor: 2,
//	    Max:    5 * time.Second,
//	})
type ExponentialBackoffStrategy struct {
	Base   time.Duration
	Factor float64
	Max    time.Duration
}

func (e ExponentialBackoffStrategy) SleepDuration(attempt int, _ error) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	factor := e.Factor
	if factor <= 0 {
		factor = 1
	}
	delay := float64(e.Base) * math.Pow(factor, float64(attempt))
	if e.Max > 0 && time.Duration(delay) > e.Max {
		return e.Max
	}
	return time.Duration(delay)
}

// StopOn wraps a strategy and refuses retries when stop reports true for
// the failing error.
type StopOn struct {
	Strategy RetryStrategy
	Stop     func(error) bool
}

func (s StopOn) SleepDuration(attempt int, err error) time.Duration {
	if s.Strategy == nil {
		return 0
	}
	return s.Strategy.SleepDuration(attempt, err)
}

func (s StopOn) DecideRetry(attempt int, err error) RetryDecision {
	if s.Stop != nil && s.Stop(err) {
		return RetryDecision{}
	}
	return RetryDecision{ShouldRetry: true, Delay: s.SleepDuration(attempt, err)}
}
