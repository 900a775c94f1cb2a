// Package store persists extracted brand insights. Saves are keyed by the
// normalized store URL: the brand row is upserted and the child collections
// (products, faqs, competitors) are fully replaced on every save.
package store

import (
	"context"
	"time"

	"github.com/sells-group/insights-cli/internal/model"
)

// BrandSummary is one row of the brand listing.
type BrandSummary struct {
	WebsiteURL        string    `json:"website_url"`
	BrandName         string    `json:"brand_name,omitempty"`
	TotalProducts     int       `json:"total_products"`
	ExtractionSuccess bool      `json:"extraction_success"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Run records the bookkeeping for one extraction run.
type Run struct {
	ID           string        `json:"id"`
	WebsiteURL   string        `json:"website_url"`
	Success      bool          `json:"success"`
	ProductCount int           `json:"product_count"`
	Duration     time.Duration `json:"duration"`
	StartedAt    time.Time     `json:"started_at"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// SaveInsights upserts the record keyed by its normalized website URL
	// and returns the brand row id. Child rows are replaced, not merged.
	SaveInsights(ctx context.Context, ins *model.BrandInsights) (string, error)

	// GetInsights loads the latest saved record for a normalized URL.
	// Returns (nil, nil) when the brand has never been saved.
	GetInsights(ctx context.Context, websiteURL string) (*model.BrandInsights, error)

	// ListBrands pages through saved brands, most recently updated first.
	ListBrands(ctx context.Context, limit, offset int) ([]BrandSummary, error)

	// RecordRun appends one run bookkeeping row.
	RecordRun(ctx context.Context, run Run) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
