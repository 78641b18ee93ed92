package runner

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRetriesUntilSuccess(t *testing.T) {
	var reported []error
	h := NewHandler(
		WithMaxRetries(3),
		WithErrorHandler(func(err error) { reported = append(reported, err) }),
	)

	calls := 0
	err := h.Run(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return stderrors.New("connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, reported, 2)
}

func TestHandlerReturnsWrappedFinalError(t *testing.T) {
	boom := stderrors.New("boom")
	h := NewHandler(WithMaxRetries(1))

	calls := 0
	err := h.Run(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.ErrorIs(t, err, boom)

	var ge *errors.Error
	require.True(t, stderrors.As(err, &ge))
	assert.Equal(t, ErrCodeRunFailed, ge.TextCode)
}

func TestHandlerAppliesPerAttemptTimeout(t *testing.T) {
	h := NewHandler(WithTimeout(20 * time.Millisecond))
	err := h.Run(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandlerStopsWhenStrategyRefuses(t *testing.T) {
	permanent := stderrors.New("permanent")
	h := NewHandler(
		WithMaxRetries(5),
		WithRetryStrategy(StopOn{
			Strategy: NoDelayStrategy{},
			Stop:     func(err error) bool { return stderrors.Is(err, permanent) },
		}),
	)

	calls := 0
	err := h.Run(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestHandlerHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHandler(
		WithMaxRetries(10),
		WithRetryStrategy(ExponentialBackoffStrategy{Base: time.Hour, Factor: 2}),
	)

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- h.Run(ctx, func(context.Context) error {
			calls++
			return stderrors.New("down")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestHandlerRejectsNilFunc(t *testing.T) {
	err := NewHandler().Run(context.Background(), nil)
	require.Error(t, err)
}
