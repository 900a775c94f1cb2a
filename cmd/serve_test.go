package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/monitoring"
	"github.com/sells-group/insights-cli/internal/pipeline"
	"github.com/sells-group/insights-cli/internal/store"
)

// fakeExtractor returns a canned pipeline result.
type fakeExtractor struct {
	res     model.Result[*model.BrandInsights]
	summary pipeline.MetricsSummary
	gotURL  string
}

func (f *fakeExtractor) ExtractInsights(_ context.Context, rawURL string) (model.Result[*model.BrandInsights], pipeline.MetricsSummary) {
	f.gotURL = rawURL
	return f.res, f.summary
}

// memStore is a minimal in-memory store for handler tests.
type memStore struct {
	insights map[string]*model.BrandInsights
	brands   []store.BrandSummary
}

func (s *memStore) SaveInsights(context.Context, *model.BrandInsights) (string, error) {
	return "", nil
}

func (s *memStore) GetInsights(_ context.Context, websiteURL string) (*model.BrandInsights, error) {
	return s.insights[model.NormalizeURL(websiteURL)], nil
}

func (s *memStore) ListBrands(context.Context, int, int) ([]store.BrandSummary, error) {
	return s.brands, nil
}

func (s *memStore) RecordRun(context.Context, store.Run) error        { return nil }
func (s *memStore) ListRuns(context.Context, int) ([]store.Run, error) { return nil, nil }
func (s *memStore) Migrate(context.Context) error                      { return nil }
func (s *memStore) Close() error                                       { return nil }

func testDeps(extractor insightsExtractor, st store.Store) serverDeps {
	registry := prometheus.NewRegistry()
	return serverDeps{
		extractor: extractor,
		store:     st,
		checker:   monitoring.NewChecker(st, false, nil, nil, config.MonitoringConfig{}),
		metrics:   monitoring.NewMetrics(registry),
		registry:  registry,
	}
}

func TestHandleExtract(t *testing.T) {
	ins := model.NewBrandInsights("https://shop.example.com")
	ins.ExtractionSuccess = true
	ins.TotalProductsFound = 7
	ext := &fakeExtractor{res: model.Ok(ins)}

	router := newRouter(testDeps(ext, nil))

	body := bytes.NewBufferString(`{"url":"shop.example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shop.example.com", ext.gotURL)

	var resp struct {
		Insights model.BrandInsights `json:"insights"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 7, resp.Insights.TotalProductsFound)
}

func TestHandleExtractBadRequests(t *testing.T) {
	router := newRouter(testDeps(&fakeExtractor{}, nil))

	for name, body := range map[string]string{
		"invalid json": `{not json`,
		"missing url":  `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/extract", bytes.NewBufferString(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleExtractStatusMapping(t *testing.T) {
	cases := []struct {
		status model.Status
		want   int
	}{
		{model.StatusInvalidInput, http.StatusBadRequest},
		{model.StatusRateLimited, http.StatusServiceUnavailable},
		{model.StatusFailure, http.StatusBadGateway},
		{model.StatusTimeout, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			ext := &fakeExtractor{res: model.Fail[*model.BrandInsights](tc.status, "nope")}
			router := newRouter(testDeps(ext, nil))

			req := httptest.NewRequest(http.MethodPost, "/extract",
				bytes.NewBufferString(`{"url":"shop.example.com"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleGetInsights(t *testing.T) {
	st := &memStore{insights: map[string]*model.BrandInsights{
		"https://shop.example.com": model.NewBrandInsights("https://shop.example.com"),
	}}
	router := newRouter(testDeps(&fakeExtractor{}, st))

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insights?url=shop.example.com", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insights?url=other.example.com", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing url", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/insights", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store disabled", func(t *testing.T) {
		disabled := newRouter(testDeps(&fakeExtractor{}, nil))
		req := httptest.NewRequest(http.MethodGet, "/insights?url=shop.example.com", nil)
		rec := httptest.NewRecorder()
		disabled.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotImplemented, rec.Code)
	})
}

func TestHandleListBrands(t *testing.T) {
	st := &memStore{brands: []store.BrandSummary{
		{WebsiteURL: "https://shop.example.com", BrandName: "Shop Example", TotalProducts: 5, UpdatedAt: time.Now()},
	}}
	router := newRouter(testDeps(&fakeExtractor{}, st))

	req := httptest.NewRequest(http.MethodGet, "/brands?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Brands []store.BrandSummary `json:"brands"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Brands, 1)
	assert.Equal(t, "Shop Example", resp.Brands[0].BrandName)
}

func TestHandleHealth(t *testing.T) {
	router := newRouter(testDeps(&fakeExtractor{}, &memStore{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var h monitoring.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	deps := testDeps(&fakeExtractor{}, nil)
	deps.metrics.ObserveRun(true, 3, time.Second)
	router := newRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "insights_extractions_total")
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/brands?limit=25&offset=junk", nil)
	assert.Equal(t, 25, queryInt(req, "limit", 50))
	assert.Equal(t, 0, queryInt(req, "offset", 0))
	assert.Equal(t, 50, queryInt(req, "missing", 50))
}
