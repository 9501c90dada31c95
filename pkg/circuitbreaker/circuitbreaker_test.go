package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func failingCall(ctx context.Context) error { return errBoom }
func okCall(ctx context.Context) error      { return nil }

func TestExecute_ClosedPassesThrough(t *testing.T) {
	cb := New("test")

	err := cb.Execute(context.Background(), okCall)

	require.NoError(t, err)
	assert.True(t, cb.IsClosed())
	assert.Equal(t, 1, cb.Counts().TotalSuccesses)
}

func TestExecute_OpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(context.Background(), failingCall), errBoom)
	}

	assert.True(t, cb.IsOpen())

	// While open, calls are rejected without reaching the dependency.
	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestExecute_SuccessResetsFailureStreak(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))

	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)
	require.NoError(t, cb.Execute(context.Background(), okCall))
	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)

	assert.True(t, cb.IsClosed())
}

func TestExecute_HalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.True(t, cb.IsOpen())

	time.Sleep(15 * time.Millisecond)

	// First call after the timeout probes the dependency and closes the circuit.
	require.NoError(t, cb.Execute(context.Background(), okCall))
	assert.True(t, cb.IsClosed())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	require.Error(t, cb.Execute(context.Background(), failingCall))
	time.Sleep(15 * time.Millisecond)

	require.Error(t, cb.Execute(context.Background(), failingCall))
	assert.True(t, cb.IsOpen())
}

func TestExecute_IsFailurePredicate(t *testing.T) {
	errExpected := errors.New("expected miss")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool { return !errors.Is(err, errExpected) }),
	)

	// Errors the predicate excuses do not trip the breaker.
	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error {
			return errExpected
		})
	}
	assert.True(t, cb.IsClosed())

	_ = cb.Execute(context.Background(), failingCall)
	assert.True(t, cb.IsOpen())
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.True(t, cb.IsOpen())

	fallbackUsed := false
	err := cb.ExecuteWithFallback(context.Background(), okCall, func(err error) error {
		fallbackUsed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, fallbackUsed)
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))
	require.Error(t, cb.Execute(context.Background(), failingCall))
	require.True(t, cb.IsOpen())

	cb.Reset()

	assert.True(t, cb.IsClosed())
	assert.Equal(t, Counts{}, cb.Counts())
}

func TestOnStateChangeCallback(t *testing.T) {
	var transitions []string
	cb := New("test",
		WithFailureThreshold(1),
		WithOnStateChange(func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	_ = cb.Execute(context.Background(), failingCall)

	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}
