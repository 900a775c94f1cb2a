package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/pipeline"
)

func TestCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"extract", "batch", "serve", "migrate", "brands", "runs"} {
		assert.True(t, names[want], "command %q not registered", want)
	}
}

func TestPipelineConfigMapping(t *testing.T) {
	c := &config.Config{}
	c.Extract = config.ExtractConfig{
		MaxProductPages:     4,
		ProductsPerPage:     100,
		MaxHeroProducts:     6,
		FAQLimit:            12,
		SubtaskAttempts:     3,
		ConfidenceThreshold: 0.8,
	}

	got := pipelineConfig(c)
	assert.Equal(t, pipeline.Config{
		MaxProductPages:     4,
		ProductsPerPage:     100,
		MaxHeroProducts:     6,
		FAQLimit:            12,
		SubtaskAttempts:     3,
		ConfidenceThreshold: 0.8,
	}, got)
}

func TestInitStoreUnsupportedDriver(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Store.Driver = "oracle"

	_, err := initStore(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStoreNoneDriver(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Store.Driver = "none"

	st, err := initStore(t.Context())
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestInitPipelineRegistersFetchMetrics(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Store.Driver = "none"

	registry := prometheus.NewRegistry()
	env, err := initPipeline(t.Context(), true, registry)
	require.NoError(t, err)
	t.Cleanup(env.Close)

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["insights_fetch_retries_total"])
	assert.True(t, names["insights_fetch_duration_seconds"])
}
