package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}
}

func TestDoVal_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewStatusError(503, "https://example.com")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoVal_NoRetryOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "", NewStatusError(404, "https://example.com")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoVal_ExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewStatusError(500, "https://example.com")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, fastPolicy(5), func(ctx context.Context) error {
		calls++
		cancel()
		return NewStatusError(502, "https://example.com")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_CustomRetryablePredicate(t *testing.T) {
	sentinel := eris.New("always retry me")
	p := fastPolicy(2)
	p.Retryable = func(err error) bool { return eris.Is(err, sentinel) }

	calls := 0
	err := Do(context.Background(), p, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewStatusError(429, "u")))
	assert.True(t, IsTransient(NewStatusError(503, "u")))
	assert.True(t, IsTransient(&RateLimitError{URL: "u"}))
	assert.True(t, IsTransient(eris.New("dial tcp: i/o timeout")))
	assert.False(t, IsTransient(NewStatusError(404, "u")))
	assert.False(t, IsTransient(NewStatusError(403, "u")))
	assert.False(t, IsTransient(eris.New("parse failure")))
	assert.False(t, IsTransient(nil))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, IsRateLimited(&RateLimitError{URL: "u"}))
	assert.True(t, IsRateLimited(NewStatusError(429, "u")))
	assert.False(t, IsRateLimited(NewStatusError(500, "u")))
}

func TestPolicy_BackoffGrowsAndCaps(t *testing.T) {
	p := Policy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     300 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0,
	}.withDefaults()

	assert.Equal(t, 100*time.Millisecond, p.backoff(0))
	assert.Equal(t, 200*time.Millisecond, p.backoff(1))
	assert.Equal(t, 300*time.Millisecond, p.backoff(2))
	assert.Equal(t, 300*time.Millisecond, p.backoff(8))
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 400*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 15*time.Second, p.MaxBackoff)
	assert.Equal(t, 2.0, p.Multiplier)
}

func TestLogRetries(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	onRetry := LogRetries("feed fetch")
	onRetry(1, eris.New("connection reset"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "retrying operation", entry.Message)
	assert.Equal(t, "feed fetch", entry.ContextMap()["operation"])
	assert.EqualValues(t, 1, entry.ContextMap()["attempt"])
}
