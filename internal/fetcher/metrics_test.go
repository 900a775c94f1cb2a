package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

func TestMetrics_CountsOutcomes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte("ok"))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c := testClient().WithMetrics(NewMetrics(reg))

	res := c.Get(context.Background(), srv.URL, nil)
	require.True(t, res.IsSuccess())

	res = c.Get(context.Background(), srv.URL, nil)
	assert.Equal(t, model.StatusRateLimited, res.Status)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RateLimitsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["insights_fetch_requests_total"])
	assert.True(t, names["insights_fetch_duration_seconds"])
}

func TestMetrics_NilReceiverIsNoOp(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRequest("success")
		m.ObserveDuration(0)
		m.IncRetry()
		m.IncRateLimit()
	})
}
