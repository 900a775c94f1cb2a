package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/config"
	"github.com/sells-group/insights-cli/internal/store"
)

// ComponentStatus is the health of one dependency.
type ComponentStatus struct {
	Status string `json:"status"` // ok, down, disabled
	Detail string `json:"detail,omitempty"`
}

// Health is the aggregate health report served by the API.
type Health struct {
	Status     string                     `json:"status"` // ok, degraded
	Components map[string]ComponentStatus `json:"components"`
	CheckedAt  time.Time                  `json:"checked_at"`
}

// Checker reports dependency health and runs periodic alert checks in the
// background.
type Checker struct {
	store     store.Store
	aiEnabled bool
	collector *Collector
	alerter   *Alerter
	cfg       config.MonitoringConfig
}

// NewChecker creates a Checker. store may be nil when persistence is
// disabled; aiEnabled reflects whether an Anthropic key is configured.
func NewChecker(st store.Store, aiEnabled bool, collector *Collector, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		store:     st,
		aiEnabled: aiEnabled,
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
	}
}

// Check probes every dependency and aggregates the result. A disabled
// component never degrades overall health; a down one does.
func (c *Checker) Check(ctx context.Context) Health {
	h := Health{
		Status:     "ok",
		Components: make(map[string]ComponentStatus),
		CheckedAt:  time.Now().UTC(),
	}

	if c.store == nil {
		h.Components["store"] = ComponentStatus{Status: "disabled"}
	} else if _, err := c.store.ListRuns(ctx, 1); err != nil {
		h.Components["store"] = ComponentStatus{Status: "down", Detail: err.Error()}
		h.Status = "degraded"
	} else {
		h.Components["store"] = ComponentStatus{Status: "ok"}
	}

	if c.aiEnabled {
		h.Components["ai_validation"] = ComponentStatus{Status: "ok"}
	} else {
		h.Components["ai_validation"] = ComponentStatus{Status: "disabled"}
	}

	return h
}

// Run starts the periodic alert loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_runs", c.cfg.LookbackRuns),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger) {
	if c.store == nil || c.collector == nil || c.alerter == nil {
		return
	}

	snap, err := c.collector.Collect(ctx, c.cfg.LookbackRuns)
	if err != nil {
		log.Error("monitoring: failed to collect metrics", zap.Error(err))
		return
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered")
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
}
