package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/insights-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS brands (
	id                 TEXT PRIMARY KEY,
	website_url        TEXT NOT NULL UNIQUE,
	brand_name         TEXT NOT NULL DEFAULT '',
	brand_context      TEXT NOT NULL DEFAULT '{}',
	policies           TEXT NOT NULL DEFAULT '{}',
	social_handles     TEXT NOT NULL DEFAULT '{}',
	contact_details    TEXT NOT NULL DEFAULT '{}',
	important_links    TEXT NOT NULL DEFAULT '{}',
	ai_validation      TEXT NOT NULL DEFAULT '{}',
	competitor_summary TEXT NOT NULL DEFAULT '{}',
	detected_currency  TEXT NOT NULL DEFAULT '',
	currency_symbol    TEXT NOT NULL DEFAULT '',
	total_products     INTEGER NOT NULL DEFAULT 0,
	extraction_success INTEGER NOT NULL DEFAULT 0,
	errors             TEXT NOT NULL DEFAULT '[]',
	extracted_at       DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_products (
	id       TEXT PRIMARY KEY,
	brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	is_hero  INTEGER NOT NULL DEFAULT 0,
	data     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_faqs (
	id       TEXT PRIMARY KEY,
	brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	question TEXT NOT NULL,
	answer   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brand_competitors (
	id       TEXT PRIMARY KEY,
	brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	data     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	website_url   TEXT NOT NULL,
	success       INTEGER NOT NULL,
	product_count INTEGER NOT NULL,
	duration_ms   INTEGER NOT NULL,
	started_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_brand_products_brand_id ON brand_products(brand_id);
CREATE INDEX IF NOT EXISTS idx_brand_faqs_brand_id ON brand_faqs(brand_id);
CREATE INDEX IF NOT EXISTS idx_brand_competitors_brand_id ON brand_competitors(brand_id);
CREATE INDEX IF NOT EXISTS idx_runs_website_url ON runs(website_url);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveInsights(ctx context.Context, ins *model.BrandInsights) (string, error) {
	websiteURL := model.NormalizeURL(ins.WebsiteURL)
	now := time.Now().UTC()

	cols, err := marshalBrandColumns(ins)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal insights")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	brandID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO brands (
			id, website_url, brand_name, brand_context, policies, social_handles,
			contact_details, important_links, ai_validation, competitor_summary,
			detected_currency, currency_symbol, total_products, extraction_success,
			errors, extracted_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(website_url) DO UPDATE SET
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
			updated_at = excluded.updated_at`,
		brandID, websiteURL, cols.brandName, cols.brandContext, cols.policies,
		cols.socialHandles, cols.contactDetails, cols.importantLinks,
		cols.aiValidation, cols.competitorSummary, ins.DetectedCurrency,
		ins.CurrencySymbol, ins.TotalProductsFound, ins.ExtractionSuccess,
		cols.errors, ins.ExtractionTimestamp.UTC(), now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: upsert brand")
	}

	// The conflict path keeps the existing row id.
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM brands WHERE website_url = ?`, websiteURL,
	).Scan(&brandID); err != nil {
		return "", eris.Wrap(err, "sqlite: resolve brand id")
	}

	for _, table := range []string{"brand_products", "brand_faqs", "brand_competitors"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE brand_id = ?`, brandID); err != nil {
			return "", eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}

	insertProduct := func(p model.Product, position int, hero bool) error {
		data, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal product")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO brand_products (id, brand_id, position, is_hero, data) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), brandID, position, hero, string(data),
		)
		return eris.Wrap(err, "sqlite: insert product")
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
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO brand_faqs (id, brand_id, position, question, answer) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), brandID, i, f.Question, f.Answer,
		); err != nil {
			return "", eris.Wrap(err, "sqlite: insert faq")
		}
	}

	if ins.CompetitorAnalysis != nil {
		for i, c := range ins.CompetitorAnalysis.CompetitorInsights {
			data, err := json.Marshal(c)
			if err != nil {
				return "", eris.Wrap(err, "sqlite: marshal competitor")
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO brand_competitors (id, brand_id, position, data) VALUES (?, ?, ?, ?)`,
				uuid.New().String(), brandID, i, string(data),
			); err != nil {
				return "", eris.Wrap(err, "sqlite: insert competitor")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit")
	}
	return brandID, nil
}

func (s *SQLiteStore) GetInsights(ctx context.Context, websiteURL string) (*model.BrandInsights, error) {
	websiteURL = model.NormalizeURL(websiteURL)

	var (
		brandID string
		cols    brandColumns
		ins     = model.NewBrandInsights(websiteURL)
		success int
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, brand_name, brand_context, policies, social_handles,
		       contact_details, important_links, ai_validation, competitor_summary,
		       detected_currency, currency_symbol, total_products,
		       extraction_success, errors, extracted_at
		FROM brands WHERE website_url = ?`, websiteURL,
	).Scan(
		&brandID, &cols.brandName, &cols.brandContext, &cols.policies,
		&cols.socialHandles, &cols.contactDetails, &cols.importantLinks,
		&cols.aiValidation, &cols.competitorSummary, &ins.DetectedCurrency,
		&ins.CurrencySymbol, &ins.TotalProductsFound, &success,
		&cols.errors, &ins.ExtractionTimestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get brand %s", websiteURL)
	}
	ins.ExtractionSuccess = success != 0

	if err := unmarshalBrandColumns(cols, ins); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode brand")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT is_hero, data FROM brand_products WHERE brand_id = ? ORDER BY is_hero, position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load products")
	}
	defer rows.Close()
	for rows.Next() {
		var hero int
		var data string
		if err := rows.Scan(&hero, &data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan product")
		}
		var p model.Product
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode product")
		}
		if hero != 0 {
			ins.HeroProducts = append(ins.HeroProducts, p)
		} else {
			ins.ProductCatalog = append(ins.ProductCatalog, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate products")
	}

	faqRows, err := s.db.QueryContext(ctx,
		`SELECT question, answer FROM brand_faqs WHERE brand_id = ? ORDER BY position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load faqs")
	}
	defer faqRows.Close()
	for faqRows.Next() {
		var f model.FAQ
		if err := faqRows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan faq")
		}
		ins.FAQs = append(ins.FAQs, f)
	}
	if err := faqRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate faqs")
	}

	compRows, err := s.db.QueryContext(ctx,
		`SELECT data FROM brand_competitors WHERE brand_id = ? ORDER BY position`, brandID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load competitors")
	}
	defer compRows.Close()
	for compRows.Next() {
		var data string
		if err := compRows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan competitor")
		}
		var c model.CompetitorInfo
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode competitor")
		}
		if ins.CompetitorAnalysis == nil {
			ins.CompetitorAnalysis = &model.CompetitorAnalysis{}
		}
		ins.CompetitorAnalysis.CompetitorInsights = append(ins.CompetitorAnalysis.CompetitorInsights, c)
	}
	if err := compRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate competitors")
	}
	if ins.CompetitorAnalysis != nil {
		ins.CompetitorAnalysis.CompetitorsFound = len(ins.CompetitorAnalysis.CompetitorInsights)
	}

	return ins, nil
}

func (s *SQLiteStore) ListBrands(ctx context.Context, limit, offset int) ([]BrandSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT website_url, brand_name, total_products, extraction_success, updated_at
		FROM brands ORDER BY updated_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list brands")
	}
	defer rows.Close()

	var out []BrandSummary
	for rows.Next() {
		var b BrandSummary
		var success int
		if err := rows.Scan(&b.WebsiteURL, &b.BrandName, &b.TotalProducts, &success, &b.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan brand summary")
		}
		b.ExtractionSuccess = success != 0
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate brands")
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, website_url, success, product_count, duration_ms, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, model.NormalizeURL(run.WebsiteURL), run.Success, run.ProductCount,
		run.Duration.Milliseconds(), run.StartedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: record run")
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, website_url, success, product_count, duration_ms, started_at
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var success int
		var durationMs int64
		if err := rows.Scan(&r.ID, &r.WebsiteURL, &success, &r.ProductCount, &durationMs, &r.StartedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Success = success != 0
		r.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// brandColumns holds the JSON-encoded sub-objects of one brand row.
type brandColumns struct {
	brandName         string
	brandContext      string
	policies          string
	socialHandles     string
	contactDetails    string
	importantLinks    string
	aiValidation      string
	competitorSummary string
	errors            string
}

// competitorSummary persists the scalar parts of the competitor analysis;
// individual competitors live in their own table.
type competitorSummary struct {
	CompetitiveAnalysis string `json:"competitive_analysis,omitempty"`
	MarketPositioning   string `json:"market_positioning,omitempty"`
}

func marshalBrandColumns(ins *model.BrandInsights) (brandColumns, error) {
	var cols brandColumns
	encode := func(v any, dst *string) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		*dst = string(data)
		return nil
	}

	summary := competitorSummary{}
	if ins.CompetitorAnalysis != nil {
		summary.CompetitiveAnalysis = ins.CompetitorAnalysis.CompetitiveAnalysis
		summary.MarketPositioning = ins.CompetitorAnalysis.MarketPositioning
	}

	cols.brandName = ins.BrandContext.BrandName
	for _, step := range []error{
		encode(ins.BrandContext, &cols.brandContext),
		encode(ins.Policies, &cols.policies),
		encode(ins.SocialHandles, &cols.socialHandles),
		encode(ins.ContactDetails, &cols.contactDetails),
		encode(ins.ImportantLinks, &cols.importantLinks),
		encode(ins.AIValidation, &cols.aiValidation),
		encode(summary, &cols.competitorSummary),
		encode(ins.Errors, &cols.errors),
	} {
		if step != nil {
			return cols, step
		}
	}
	return cols, nil
}

func unmarshalBrandColumns(cols brandColumns, ins *model.BrandInsights) error {
	var summary competitorSummary
	for _, step := range []error{
		json.Unmarshal([]byte(cols.brandContext), ins.BrandContext),
		json.Unmarshal([]byte(cols.policies), ins.Policies),
		json.Unmarshal([]byte(cols.socialHandles), ins.SocialHandles),
		json.Unmarshal([]byte(cols.contactDetails), ins.ContactDetails),
		json.Unmarshal([]byte(cols.importantLinks), ins.ImportantLinks),
		json.Unmarshal([]byte(cols.aiValidation), &ins.AIValidation),
		json.Unmarshal([]byte(cols.competitorSummary), &summary),
		json.Unmarshal([]byte(cols.errors), &ins.Errors),
	} {
		if step != nil {
			return step
		}
	}
	if summary.CompetitiveAnalysis != "" || summary.MarketPositioning != "" {
		ins.CompetitorAnalysis = &model.CompetitorAnalysis{
			CompetitiveAnalysis: summary.CompetitiveAnalysis,
			MarketPositioning:   summary.MarketPositioning,
		}
	}
	return nil
}
