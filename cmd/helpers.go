package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/ai"
	"github.com/sells-group/insights-cli/internal/competitor"
	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/pipeline"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/internal/store"
	anthropicpkg "github.com/sells-group/insights-cli/pkg/anthropic"
)

// initStore builds the configured persistence backend, or nil when the
// driver is "none".
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "insights.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: int32(cfg.Store.MaxConns),
			MinConns: int32(cfg.Store.MinConns),
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// env bundles the wired collaborators of one command invocation.
type env struct {
	Store     store.Store
	Pipeline  *pipeline.Pipeline
	AIEnabled bool
}

// Close releases the environment's resources.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initPipeline wires the fetcher, validator, analyzer, and store into a
// ready pipeline, migrating the store on the way. A non-nil registerer
// attaches the fetch instruments for the serve mode's /metrics endpoint.
func initPipeline(ctx context.Context, noSave bool, reg prometheus.Registerer) (*env, error) {
	var st store.Store
	if !noSave {
		var err error
		st, err = initStore(ctx)
		if err != nil {
			return nil, err
		}
		if st != nil {
			if err := st.Migrate(ctx); err != nil {
				_ = st.Close()
				return nil, eris.Wrap(err, "migrate store")
			}
		}
	}

	retry := resilience.DefaultPolicy()
	if cfg.Fetch.MaxRetries > 0 {
		retry.MaxAttempts = cfg.Fetch.MaxRetries
	}
	retry.OnRetry = resilience.LogRetries("storefront fetch")

	fetch := fetcher.New(fetcher.Options{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		RatePerSec: cfg.Fetch.RatePerSec,
		Burst:      cfg.Fetch.Burst,
		Retry:      retry,
	})
	if reg != nil {
		fetch = fetch.WithMetrics(fetcher.NewMetrics(reg))
	}

	var validator pipeline.Validator
	aiEnabled := cfg.Anthropic.Key != ""
	if aiEnabled {
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		validator = ai.NewValidator(client,
			ai.WithModel(cfg.Anthropic.Model),
			ai.WithMaxTokens(int64(cfg.Anthropic.MaxTokens)),
		)
	} else {
		zap.L().Info("no anthropic key configured, ai validation disabled")
	}

	var analyzer pipeline.CompetitorAnalyzer
	if cfg.Competitor.Enabled && len(cfg.Competitor.Candidates) > 0 {
		analyzer = competitor.NewAnalyzer(fetch,
			competitor.WithCandidates(cfg.Competitor.Candidates),
			competitor.WithMaxCompetitors(cfg.Competitor.MaxCompetitors),
		)
	}

	p := pipeline.New(pipelineConfig(cfg), fetch, st, validator, analyzer)

	return &env{Store: st, Pipeline: p, AIEnabled: aiEnabled}, nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		MaxProductPages:     cfg.Extract.MaxProductPages,
		ProductsPerPage:     cfg.Extract.ProductsPerPage,
		MaxHeroProducts:     cfg.Extract.MaxHeroProducts,
		FAQLimit:            cfg.Extract.FAQLimit,
		SubtaskAttempts:     cfg.Extract.SubtaskAttempts,
		ConfidenceThreshold: cfg.Extract.ConfidenceThreshold,
	}
}
