package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insights-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Ping checks database connectivity for health reporting.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id                 UUID PRIMARY KEY,
	website_url        TEXT NOT NULL UNIQUE,
	brand_name         TEXT NOT NULL DEFAULT '',
	brand_context      JSONB NOT NULL DEFAULT '{}',
	policies           JSONB NOT NULL DEFAULT '{}',
	social_handles     JSONB NOT NULL DEFAULT '{}',
	contact_details    JSONB NOT NULL DEFAULT '{}',
	important_links    JSONB NOT NULL DEFAULT '{}',
	ai_validation      JSONB NOT NULL DEFAULT '{}',
	competitor_summary JSONB NOT NULL DEFAULT '{}',
	detected_currency  TEXT NOT NULL DEFAULT '',
	currency_symbol    TEXT NOT NULL DEFAULT '',
	total_products     INTEGER NOT NULL DEFAULT 0,
	extraction_success BOOLEAN NOT NULL DEFAULT FALSE,
	errors             JSONB NOT NULL DEFAULT '[]',
	extracted_at       TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_products (
	id       UUID PRIMARY KEY,
	brand_id UUID NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	is_hero  BOOLEAN NOT NULL DEFAULT FALSE,
	data     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_faqs (
	id       UUID PRIMARY KEY,
	brand_id UUID NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_competitors (
	id       UUID PRIMARY KEY,
	brand_id UUID NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	data     JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id            UUID PRIMARY KEY,
	website_url   TEXT NOT NULL,
	success       BOOLEAN NOT NULL,
	product_count INTEGER NOT NULL,
	duration_ms   BIGINT NOT NULL,
	started_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_brand_products_brand_id ON brand_products(brand_id);
CREATE INDEX IF NOT EXISTS idx_brand_faqs_brand_id ON brand_faqs(brand_id);
CREATE INDEX IF NOT EXISTS idx_brand_competitors_brand_id ON brand_competitors(brand_id);
CREATE INDEX IF NOT EXISTS idx_runs_website_url ON runs(website_url);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveInsights(ctx context.Context, ins *model.BrandInsights) (string, error) {
	websiteURL := model.NormalizeURL(ins.WebsiteURL)
	now := time.Now().UTC()

	cols, err := marshalBrandColumns(ins)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal insights")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	var brandID string
	err = tx.QueryRow(ctx, `
		INSERT INTO brands (
			id, website_url, brand_name, brand_context, policies, social_handles,
			contact_details, important_links, ai_validation, competitor_summary,
			detected_currency, currency_symbol, total_products, extraction_success,
			errors, extracted_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (website_url) DO UPDATE SET
			brand_name = excluded.brand_name,
			brand_context = excluded.brand_context,
			policies = excluded.policies,
			social_handles = excluded.social_handles,
			contact_details = excluded.contact_details,
			important_links = excluded.important_links,
			ai_validation = excluded.ai_validation,
			competitor_summary = excluded.competitor_summary,
			detected_currency = excluded.detected_currency,
			currency_symbol = excluded.currency_symbol,
			total_products = excluded.total_products,
			extraction_success = excluded.extraction_success,
			errors = excluded.errors,
			extracted_at = excluded.extracted_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		uuid.New().String(), websiteURL, cols.brandName, cols.brandContext,
		cols.policies, cols.socialHandles, cols.contactDetails, cols.importantLinks,
		cols.aiValidation, cols.competitorSummary, ins.DetectedCurrency,
		ins.CurrencySymbol, ins.TotalProductsFound, ins.ExtractionSuccess,
		cols.errors, ins.ExtractionTimestamp.UTC(), now,
	).Scan(&brandID)
	if err != nil {
		return "", eris.Wrap(err, "postgres: upsert brand")
	}

	for _, table := range []string{"brand_products", "brand_faqs", "brand_competitors"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE brand_id = $1`, brandID); err != nil {
			return "", eris.Wrapf(err, "postgres: clear %s", table)
		}
	}

	insertProduct := func(p model.Product, position int, hero bool) error {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal product")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO brand_products (id, brand_id, position, is_hero, data) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), brandID, position, hero, string(data),
		)
		return eris.Wrap(err, "postgres: insert product")
	}
	for i, p := range ins.ProductCatalog {
		if err := insertProduct(p, i, false); err != nil {
			return "", err
		}
	}
	for i, p := range ins.HeroProducts {
		if err := insertProduct(p, i, true); err != nil {
			return "", err
		}
	}

	for i, f := range ins.FAQs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO brand_faqs (id, brand_id, position, question, answer) VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), brandID, i, f.Question, f.Answer,
		); err != nil {
			return "", eris.Wrap(err, "postgres: insert faq")
		}
	}

	if ins.CompetitorAnalysis != nil {
		for i, c := range ins.CompetitorAnalysis.CompetitorInsights {
			data, err := json.Marshal(c)
			if err != nil {
				return "", eris.Wrap(err, "postgres: marshal competitor")
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO brand_competitors (id, brand_id, position, data) VALUES ($1, $2, $3, $4)`,
				uuid.New().String(), brandID, i, string(data),
			); err != nil {
				return "", eris.Wrap(err, "postgres: insert competitor")
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "postgres: commit")
	}
	return brandID, nil
}

func (s *PostgresStore) GetInsights(ctx context.Context, websiteURL string) (*model.BrandInsights, error) {
	websiteURL = model.NormalizeURL(websiteURL)

	var (
		brandID string
		cols    brandColumns
		ins     = model.NewBrandInsights(websiteURL)
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, brand_name, brand_context, policies, social_handles,
		       contact_details, important_links, ai_validation, competitor_summary,
		       detected_currency, currency_symbol, total_products,
		       extraction_success, errors, extracted_at
		FROM brands WHERE website_url = $1`, websiteURL,
	).Scan(
		&brandID, &cols.brandName, &cols.brandContext, &cols.policies,
		&cols.socialHandles, &cols.contactDetails, &cols.importantLinks,
		&cols.aiValidation, &cols.competitorSummary, &ins.DetectedCurrency,
		&ins.CurrencySymbol, &ins.TotalProductsFound, &ins.ExtractionSuccess,
		&cols.errors, &ins.ExtractionTimestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get brand %s", websiteURL)
	}

	if err := unmarshalBrandColumns(cols, ins); err != nil {
		return nil, eris.Wrap(err, "postgres: decode brand")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT is_hero, data FROM brand_products WHERE brand_id = $1 ORDER BY is_hero, position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load products")
	}
	defer rows.Close()
	for rows.Next() {
		var hero bool
		var data string
		if err := rows.Scan(&hero, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan product")
		}
		var p model.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "postgres: decode product")
		}
		if hero {
			ins.HeroProducts = append(ins.HeroProducts, p)
		} else {
			ins.ProductCatalog = append(ins.ProductCatalog, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate products")
	}

	faqRows, err := s.pool.Query(ctx,
		`SELECT question, answer FROM brand_faqs WHERE brand_id = $1 ORDER BY position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load faqs")
	}
	defer faqRows.Close()
	for faqRows.Next() {
		var f model.FAQ
		if err := faqRows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, eris.Wrap(err, "postgres: scan faq")
		}
		ins.FAQs = append(ins.FAQs, f)
	}
	if err := faqRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate faqs")
	}

	compRows, err := s.pool.Query(ctx,
		`SELECT data FROM brand_competitors WHERE brand_id = $1 ORDER BY position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load competitors")
	}
	defer compRows.Close()
	for compRows.Next() {
		var data string
		if err := compRows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan competitor")
		}
		var c model.CompetitorInfo
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "postgres: decode competitor")
		}
		if ins.CompetitorAnalysis == nil {
			ins.CompetitorAnalysis = &model.CompetitorAnalysis{}
		}
		ins.CompetitorAnalysis.CompetitorInsights = append(ins.CompetitorAnalysis.CompetitorInsights, c)
	}
	if err := compRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate competitors")
	}
	if ins.CompetitorAnalysis != nil {
		ins.CompetitorAnalysis.CompetitorsFound = len(ins.CompetitorAnalysis.CompetitorInsights)
	}

	return ins, nil
}

func (s *PostgresStore) ListBrands(ctx context.Context, limit, offset int) ([]BrandSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT website_url, brand_name, total_products, extraction_success, updated_at
		FROM brands ORDER BY updated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list brands")
	}
	defer rows.Close()

	var out []BrandSummary
	for rows.Next() {
		var b BrandSummary
		if err := rows.Scan(&b.WebsiteURL, &b.BrandName, &b.TotalProducts, &b.ExtractionSuccess, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan brand summary")
		}
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate brands")
}

func (s *PostgresStore) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO runs (id, website_url, success, product_count, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, model.NormalizeURL(run.WebsiteURL), run.Success, run.ProductCount,
		run.Duration.Milliseconds(), run.StartedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: record run")
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, website_url, success, product_count, duration_ms, started_at
		FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.WebsiteURL, &r.Success, &r.ProductCount, &durationMs, &r.StartedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
