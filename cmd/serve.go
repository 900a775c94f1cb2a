package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/monitoring"
	"github.com/sells-group/insights-cli/internal/pipeline"
	"github.com/sells-group/insights-cli/internal/store"
)

var servePort int

// insightsExtractor is the slice of the pipeline the HTTP layer needs.
type insightsExtractor interface {
	ExtractInsights(ctx context.Context, rawURL string) (model.Result[*model.BrandInsights], pipeline.MetricsSummary)
}

// serverDeps bundles what the router serves from.
type serverDeps struct {
	extractor insightsExtractor
	store     store.Store
	checker   *monitoring.Checker
	metrics   *monitoring.Metrics
	registry  *prometheus.Registry
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		registry := prometheus.NewRegistry()

		env, err := initPipeline(ctx, false, registry)
		if err != nil {
			return err
		}
		defer env.Close()

		collector := monitoring.NewCollector(env.Store)
		alerter := monitoring.NewAlerter(cfg.Monitoring)
		checker := monitoring.NewChecker(env.Store, env.AIEnabled, collector, alerter, cfg.Monitoring)
		if env.Store != nil {
			go checker.Run(ctx)
		}

		deps := serverDeps{
			extractor: env.Pipeline,
			store:     env.Store,
			checker:   checker,
			metrics:   monitoring.NewMetrics(registry),
			registry:  registry,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(deps),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(deps serverDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Post("/extract", deps.handleExtract)
	r.Get("/insights", deps.handleGetInsights)
	r.Get("/brands", deps.handleListBrands)
	r.Get("/health", deps.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{}))

	return r
}

// handleExtract runs one extraction synchronously and returns the record.
func (d serverDeps) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	start := time.Now()
	res, summary := d.extractor.ExtractInsights(r.Context(), req.URL)
	if !res.IsUsable() {
		if d.metrics != nil {
			d.metrics.ObserveRun(false, 0, time.Since(start))
		}
		switch res.Status {
		case model.StatusInvalidInput:
			writeError(w, http.StatusBadRequest, res.ErrorMessage)
		case model.StatusRateLimited:
			writeError(w, http.StatusServiceUnavailable, res.ErrorMessage)
		default:
			writeError(w, http.StatusBadGateway, res.ErrorMessage)
		}
		return
	}

	ins := res.Data
	if d.metrics != nil {
		d.metrics.ObserveRun(ins.ExtractionSuccess, ins.TotalProductsFound, time.Since(start))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"insights": ins,
		"metrics":  summary,
	})
}

func (d serverDeps) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	if d.store == nil {
		writeError(w, http.StatusNotImplemented, "persistence is disabled")
		return
	}
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	ins, err := d.store.GetInsights(r.Context(), rawURL)
	if err != nil {
		zap.L().Error("api: get insights", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if ins == nil {
		writeError(w, http.StatusNotFound, "no insights stored for this url")
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (d serverDeps) handleListBrands(w http.ResponseWriter, r *http.Request) {
	if d.store == nil {
		writeError(w, http.StatusNotImplemented, "persistence is disabled")
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	brands, err := d.store.ListBrands(r.Context(), limit, offset)
	if err != nil {
		zap.L().Error("api: list brands", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brands": brands})
}

func (d serverDeps) handleHealth(w http.ResponseWriter, r *http.Request) {
	h := d.checker.Check(r.Context())
	status := http.StatusOK
	if h.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n < 0 {
		return fallback
	}
	return n
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
