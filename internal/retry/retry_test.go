package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingPolicy(attempts int, slept *[]time.Duration) retry.Policy {
	p := retry.DefaultPolicy()
	p.Attempts = attempts
	p.Sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return p
}

func TestDoRetriesWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	calls := 0
	err := retry.Do(context.Background(), recordingPolicy(3, &slept), func(context.Context, int) error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, slept)
}

func TestDoStopsOnSuccess(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	err := retry.Do(context.Background(), recordingPolicy(3, &slept), func(_ context.Context, attempt int) error {
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Len(t, slept, 1)
}

func TestDoStopsOnPermanent(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("conflict")
	var slept []time.Duration
	calls := 0
	err := retry.Do(context.Background(), recordingPolicy(5, &slept), func(context.Context, int) error {
		calls++
		return retry.Permanent(sentinel)
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
	assert.Empty(t, slept)
}

func TestDoHonoursContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := retry.Policy{Attempts: 3, Initial: time.Hour}
	err := retry.Do(ctx, p, func(context.Context, int) error {
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	p := retry.Policy{Initial: 100 * time.Millisecond, Multiplier: 3}
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 900*time.Millisecond, p.Backoff(3))
}
