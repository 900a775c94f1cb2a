package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	boom := eris.New("boom")

	for i := 0; i < 3; i++ {
		err := b.Execute(context.Background(), func(ctx context.Context) error { return boom })
		assert.Error(t, err)
	}
	assert.Equal(t, BreakerOpen, b.State())

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreaker_HalfOpenProbeClosesOnSuccess(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	base := time.Now()
	now := base
	b.now = func() time.Time { return now }

	require.Error(t, b.Execute(context.Background(), func(ctx context.Context) error {
		return eris.New("down")
	}))
	assert.Equal(t, BreakerOpen, b.State())

	now = base.Add(20 * time.Millisecond)
	assert.Equal(t, BreakerHalfOpen, b.State())

	val, err := ExecuteVal(context.Background(), b, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, val)
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, ResetTimeout: 10 * time.Millisecond})
	base := time.Now()
	now := base
	b.now = func() time.Time { return now }

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return eris.New("down") })

	now = base.Add(20 * time.Millisecond)
	_ = b.Execute(context.Background(), func(ctx context.Context) error { return eris.New("still down") })

	err := b.Execute(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrBreakerOpen)
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})

	_ = b.Execute(context.Background(), func(ctx context.Context) error { return eris.New("one") })
	require.NoError(t, b.Execute(context.Background(), func(ctx context.Context) error { return nil }))
	_ = b.Execute(context.Background(), func(ctx context.Context) error { return eris.New("two") })

	// Counter was reset by the success, so one more failure is still allowed.
	assert.Equal(t, BreakerClosed, b.State())
}
