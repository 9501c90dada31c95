package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(attempts int) *Retrier {
	return New(
		WithMaxAttempts(attempts),
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2*time.Millisecond),
		WithJitter(0),
	)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	errConflict := errors.New("version conflict")
	calls := 0

	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errConflict)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_UnwrapsOnExhaustion(t *testing.T) {
	errConflict := errors.New("version conflict")
	calls := 0

	err := fastRetrier(3).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Retryable(errConflict)
	})

	// The caller gets the underlying error, not the retry wrapper.
	require.Error(t, err)
	assert.Equal(t, errConflict, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	errFatal := errors.New("constraint violation")
	calls := 0

	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(errFatal)
	})

	require.Error(t, err)
	assert.Equal(t, errFatal, err)
	assert.Equal(t, 1, calls)
}

func TestDo_UnwrappedErrorIsNotRetried(t *testing.T) {
	errPlain := errors.New("plain failure")
	calls := 0

	err := fastRetrier(5).Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errPlain
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryIfOverridesWrapping(t *testing.T) {
	errConflict := errors.New("conflict")
	calls := 0

	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithRetryIf(func(err error) bool { return errors.Is(err, errConflict) }),
	)

	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errConflict
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ContextCancellationEndsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errConflict := errors.New("conflict")
	calls := 0

	r := New(
		WithMaxAttempts(10),
		WithInitialDelay(50*time.Millisecond),
		WithJitter(0),
	)

	err := r.Do(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return Retryable(errConflict)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_OnRetryCallbackFires(t *testing.T) {
	var attempts []int

	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithJitter(0),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return Retryable(errors.New("again"))
	})

	// Called before every retry, not before the final failing attempt.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestCalculateDelay_ExponentialGrowthCappedAtMax(t *testing.T) {
	r := New(
		WithInitialDelay(10*time.Millisecond),
		WithMaxDelay(40*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	assert.Equal(t, 10*time.Millisecond, r.calculateDelay(1))
	assert.Equal(t, 20*time.Millisecond, r.calculateDelay(2))
	assert.Equal(t, 40*time.Millisecond, r.calculateDelay(3))
	assert.Equal(t, 40*time.Millisecond, r.calculateDelay(4))
}

func TestIsRetryableAndIsPermanent(t *testing.T) {
	base := errors.New("boom")

	assert.True(t, IsRetryable(Retryable(base)))
	assert.False(t, IsRetryable(base))
	assert.True(t, IsPermanent(Permanent(base)))
	assert.False(t, IsPermanent(Retryable(base)))

	assert.NoError(t, Retryable(nil))
	assert.NoError(t, Permanent(nil))
}

func TestDoWithData(t *testing.T) {
	calls := 0
	value, err := DoWithData(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, Retryable(errors.New("again"))
		}
		return 42, nil
	}, WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0))

	require.NoError(t, err)
	assert.Equal(t, 42, value)
	assert.Equal(t, 2, calls)
}
