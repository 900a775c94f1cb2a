package pipeline

import (
	"sync"
	"time"
)

// OperationRecord captures one completed subtask.
type OperationRecord struct {
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Details   string        `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// LogEntry is one timestamped error or warning.
type LogEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsSummary is the read-once view of a finished run.
type MetricsSummary struct {
	Elapsed         time.Duration              `json:"elapsed"`
	TotalOperations int                        `json:"total_operations"`
	SuccessRate     float64                    `json:"success_rate"`
	Operations      map[string]OperationRecord `json:"operations"`
	Errors          []LogEntry                 `json:"errors"`
	Warnings        []LogEntry                 `json:"warnings"`
}

// ExtractionMetrics accumulates per-run observability. It is append-only:
// nothing removes or rewrites a prior entry, and the whole object lives and
// dies with one run. Safe for concurrent use during the fan-out phase.
type ExtractionMetrics struct {
	mu         sync.Mutex
	startTime  time.Time
	operations map[string]OperationRecord
	errors     []LogEntry
	warnings   []LogEntry
}

// NewExtractionMetrics starts the clock for one run.
func NewExtractionMetrics() *ExtractionMetrics {
	return &ExtractionMetrics{
		startTime:  time.Now(),
		operations: make(map[string]OperationRecord),
	}
}

// RecordOperation stores the outcome of one completed subtask.
func (m *ExtractionMetrics) RecordOperation(name string, duration time.Duration, success bool, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[name] = OperationRecord{
		Duration:  duration,
		Success:   success,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// AddError appends a timestamped error entry.
func (m *ExtractionMetrics) AddError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, LogEntry{Message: msg, Timestamp: time.Now().UTC()})
}

// AddWarning appends a timestamped warning entry.
func (m *ExtractionMetrics) AddWarning(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnings = append(m.warnings, LogEntry{Message: msg, Timestamp: time.Now().UTC()})
}

// Summary computes the end-of-run view. An empty run reports a success rate
// of zero rather than dividing by zero.
func (m *ExtractionMetrics) Summary() MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]OperationRecord, len(m.operations))
	successful := 0
	for name, rec := range m.operations {
		ops[name] = rec
		if rec.Success {
			successful++
		}
	}

	rate := 0.0
	if len(ops) > 0 {
		rate = float64(successful) / float64(len(ops))
	}

	return MetricsSummary{
		Elapsed:         time.Since(m.startTime),
		TotalOperations: len(ops),
		SuccessRate:     rate,
		Operations:      ops,
		Errors:          append([]LogEntry(nil), m.errors...),
		Warnings:        append([]LogEntry(nil), m.warnings...),
	}
}
