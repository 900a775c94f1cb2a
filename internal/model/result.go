package model

import "fmt"

// Status classifies the outcome of a single extraction operation.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFailure        Status = "failure"
	StatusTimeout        Status = "timeout"
	StatusInvalidInput   Status = "invalid_input"
	StatusRateLimited    Status = "rate_limited"
)

// Result is the uniform contract between every extractor and the pipeline.
// Data is populated only for Success and PartialSuccess; ErrorMessage is
// populated for everything except Success. Warnings carry non-fatal issues
// encountered while producing Data.
type Result[T any] struct {
	Status       Status         `json:"status"`
	Data         T              `json:"data,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Ok returns a successful result carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{Status: StatusSuccess, Data: data}
}

// Partial returns a partial-success result: data is usable but some
// sub-steps failed along the way.
func Partial[T any](data T, warnings ...string) Result[T] {
	return Result[T]{
		Status:       StatusPartialSuccess,
		Data:         data,
		ErrorMessage: "completed with warnings",
		Warnings:     warnings,
	}
}

// Fail returns a failed result with the given status and message.
// Success and PartialSuccess are not valid failure statuses.
func Fail[T any](status Status, msg string) Result[T] {
	return Result[T]{Status: status, ErrorMessage: msg}
}

// Failf returns a generic Failure with a formatted message.
func Failf[T any](format string, args ...any) Result[T] {
	return Result[T]{Status: StatusFailure, ErrorMessage: fmt.Sprintf(format, args...)}
}

// Invalid returns an InvalidInput result.
func Invalid[T any](msg string) Result[T] {
	return Result[T]{Status: StatusInvalidInput, ErrorMessage: msg}
}

// IsSuccess reports a fully successful operation.
func (r Result[T]) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// IsUsable reports whether Data may be consumed (Success or PartialSuccess).
func (r Result[T]) IsUsable() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartialSuccess
}

// WithMeta attaches a metadata entry and returns the result.
func (r Result[T]) WithMeta(key string, value any) Result[T] {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
	return r
}

// WithWarnings appends warnings and returns the result.
func (r Result[T]) WithWarnings(warnings ...string) Result[T] {
	r.Warnings = append(r.Warnings, warnings...)
	return r
}
