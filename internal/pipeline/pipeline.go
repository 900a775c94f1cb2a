// Package pipeline orchestrates one brand-insights extraction end to end:
// URL validation, a single homepage fetch, concurrent facet extraction,
// single-threaded merge, optional AI validation, competitor analysis, and
// best-effort persistence. The caller always receives either a populated
// record or a single top-level failure, never a fault.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insights-cli/internal/currency"
	"github.com/sells-group/insights-cli/internal/extract"
	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
	"github.com/sells-group/insights-cli/internal/resilience"
	"github.com/sells-group/insights-cli/internal/store"
)

// Validator is the model-based validation surface the pipeline consumes.
// *ai.Validator implements it; tests substitute fakes.
type Validator interface {
	Enabled() bool
	Comprehensive(ctx context.Context, url string, ins *model.BrandInsights) model.AIValidation
	ValidateBrandContext(ctx context.Context, url string, current *model.BrandContext, html string) *model.BrandContext
	ValidateSocialHandles(ctx context.Context, url string, current *model.SocialHandles, html string) *model.SocialHandles
	ValidateContactDetails(ctx context.Context, url string, current *model.ContactDetails, html string) *model.ContactDetails
	ValidateFAQs(ctx context.Context, url string, current []model.FAQ, html string) []model.FAQ
	ValidatePolicies(ctx context.Context, url string, current *model.PolicyInfo, html string) *model.PolicyInfo
}

// CompetitorAnalyzer discovers and scores competing storefronts.
type CompetitorAnalyzer interface {
	Analyze(ctx context.Context, storeURL *model.StoreURL, ins *model.BrandInsights) model.Result[*model.CompetitorAnalysis]
}

// Config tunes one Pipeline instance.
type Config struct {
	MaxProductPages     int
	ProductsPerPage     int
	MaxHeroProducts     int
	FAQLimit            int
	SubtaskAttempts     int
	ConfidenceThreshold float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxProductPages:     10,
		ProductsPerPage:     250,
		MaxHeroProducts:     10,
		FAQLimit:            15,
		SubtaskAttempts:     2,
		ConfidenceThreshold: 0.7,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxProductPages <= 0 {
		c.MaxProductPages = d.MaxProductPages
	}
	if c.ProductsPerPage <= 0 {
		c.ProductsPerPage = d.ProductsPerPage
	}
	if c.MaxHeroProducts <= 0 {
		c.MaxHeroProducts = d.MaxHeroProducts
	}
	if c.FAQLimit <= 0 {
		c.FAQLimit = d.FAQLimit
	}
	if c.SubtaskAttempts <= 0 {
		c.SubtaskAttempts = d.SubtaskAttempts
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = d.ConfidenceThreshold
	}
	return c
}

// Pipeline runs extractions. The store, validator, and analyzer are all
// optional; a nil collaborator disables that step and the run degrades
// gracefully.
type Pipeline struct {
	cfg       Config
	fetch     fetcher.Getter
	store     store.Store
	validator Validator
	analyzer  CompetitorAnalyzer

	products *extract.ProductExtractor
	hero     *extract.HeroExtractor
	brand    *extract.BrandExtractor
	policies *extract.PolicyExtractor
	faqs     *extract.FAQExtractor
	socials  *extract.SocialExtractor
	contacts *extract.ContactExtractor
	links    *extract.LinkExtractor
	currency *currency.Detector

	retry resilience.Policy
}

// New creates a Pipeline with all dependencies.
func New(cfg Config, fetch fetcher.Getter, st store.Store, validator Validator, analyzer CompetitorAnalyzer) *Pipeline {
	cfg = cfg.withDefaults()
	return &Pipeline{
		cfg:       cfg,
		fetch:     fetch,
		store:     st,
		validator: validator,
		analyzer:  analyzer,
		products:  extract.NewProductExtractor(fetch, cfg.MaxProductPages, cfg.ProductsPerPage),
		hero:      extract.NewHeroExtractor(cfg.MaxHeroProducts),
		brand:     extract.NewBrandExtractor(fetch),
		policies:  extract.NewPolicyExtractor(fetch),
		faqs:      extract.NewFAQExtractor(fetch, cfg.FAQLimit),
		socials:   extract.NewSocialExtractor(),
		contacts:  extract.NewContactExtractor(fetch),
		links:     extract.NewLinkExtractor(),
		currency:  currency.NewDetector(),
		retry: resilience.Policy{
			MaxAttempts:    cfg.SubtaskAttempts,
			InitialBackoff: 500 * time.Millisecond,
			Retryable:      func(error) bool { return true },
		},
	}
}

// facetResults holds the joined fan-out outcomes. Each subtask writes
// exactly one field; the merge step reads all of them after the join.
type facetResults struct {
	products model.Result[[]model.Product]
	hero     model.Result[[]model.Product]
	brand    model.Result[*model.BrandContext]
	policies model.Result[*model.PolicyInfo]
	faqs     model.Result[[]model.FAQ]
	socials  model.Result[*model.SocialHandles]
	contacts model.Result[*model.ContactDetails]
	links    model.Result[*model.ImportantLinks]
	currency model.Result[currency.Detection]
}

// ExtractInsights runs one extraction. Only an invalid URL or a failed
// homepage fetch produce a top-level failure; every other problem is
// recorded inside the returned record.
func (p *Pipeline) ExtractInsights(ctx context.Context, rawURL string) (model.Result[*model.BrandInsights], MetricsSummary) {
	metrics := NewExtractionMetrics()
	runStart := time.Now()

	storeURL, err := model.ParseStoreURL(rawURL)
	if err != nil {
		metrics.AddError("invalid store url: " + err.Error())
		return model.Invalid[*model.BrandInsights](fmt.Sprintf("invalid store url %q: %v", rawURL, err)),
			metrics.Summary()
	}

	log := zap.L().With(zap.String("store", storeURL.String()))
	log.Info("pipeline: starting extraction")

	ins := model.NewBrandInsights(storeURL.String())

	homeStart := time.Now()
	homeRes := p.fetch.Get(ctx, storeURL.String(), nil)
	metrics.RecordOperation("homepage_fetch", time.Since(homeStart), homeRes.IsUsable(), homeRes.ErrorMessage)
	if !homeRes.IsUsable() {
		metrics.AddError("homepage fetch failed: " + homeRes.ErrorMessage)
		log.Warn("pipeline: homepage unreachable", zap.String("error", homeRes.ErrorMessage))
		return model.Fail[*model.BrandInsights](homeRes.Status,
			fmt.Sprintf("homepage fetch failed: %s", homeRes.ErrorMessage)), metrics.Summary()
	}
	html := homeRes.Data.Text()

	results := p.fanOut(ctx, storeURL, html, metrics)
	p.merge(ins, results, metrics)
	p.enrich(ctx, ins, html, metrics)
	p.analyzeCompetitors(ctx, storeURL, ins, metrics)
	p.finalize(ins, metrics)
	p.persist(ctx, ins, metrics, runStart)

	metrics.RecordOperation("extract_insights", time.Since(runStart), ins.ExtractionSuccess, "")

	log.Info("pipeline: extraction complete",
		zap.Bool("success", ins.ExtractionSuccess),
		zap.Int("products", ins.TotalProductsFound),
		zap.Int("errors", len(ins.Errors)),
		zap.Duration("elapsed", time.Since(runStart)),
	)
	return model.Ok(ins), metrics.Summary()
}

// fanOut launches every facet subtask concurrently and joins them. Each
// goroutine writes one disjoint field of facetResults, so no locking is
// needed beyond the join itself.
func (p *Pipeline) fanOut(ctx context.Context, storeURL *model.StoreURL, html string, metrics *ExtractionMetrics) *facetResults {
	var fr facetResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fr.products = runFacet(gctx, p, metrics, FacetProducts, func(ctx context.Context) model.Result[[]model.Product] {
			return p.products.Products(ctx, storeURL)
		})
		return nil
	})
	g.Go(func() error {
		fr.hero = runFacet(gctx, p, metrics, FacetHeroProducts, func(ctx context.Context) model.Result[[]model.Product] {
			return p.hero.HeroProducts(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.brand = runFacet(gctx, p, metrics, FacetBrandContext, func(ctx context.Context) model.Result[*model.BrandContext] {
			return p.brand.BrandContext(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.policies = runFacet(gctx, p, metrics, FacetPolicies, func(ctx context.Context) model.Result[*model.PolicyInfo] {
			return p.policies.Policies(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.faqs = runFacet(gctx, p, metrics, FacetFAQs, func(ctx context.Context) model.Result[[]model.FAQ] {
			return p.faqs.FAQs(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.socials = runFacet(gctx, p, metrics, FacetSocialHandles, func(ctx context.Context) model.Result[*model.SocialHandles] {
			return p.socials.SocialHandles(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.contacts = runFacet(gctx, p, metrics, FacetContactDetails, func(ctx context.Context) model.Result[*model.ContactDetails] {
			return p.contacts.ContactDetails(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.links = runFacet(gctx, p, metrics, FacetImportantLinks, func(ctx context.Context) model.Result[*model.ImportantLinks] {
			return p.links.ImportantLinks(ctx, storeURL, html)
		})
		return nil
	})
	g.Go(func() error {
		fr.currency = runFacet(gctx, p, metrics, FacetCurrency, func(context.Context) model.Result[currency.Detection] {
			return p.currency.Detect(storeURL, html)
		})
		return nil
	})

	_ = g.Wait()
	return &fr
}

// runFacet executes one subtask under the retry policy, converts panics to
// failures, and records the outcome. Failures never cross this boundary as
// errors; siblings are unaffected.
func runFacet[T any](ctx context.Context, p *Pipeline, metrics *ExtractionMetrics, facet Facet, fn func(ctx context.Context) model.Result[T]) model.Result[T] {
	start := time.Now()
	var res model.Result[T]

	_ = resilience.Do(ctx, p.retry, func(ctx context.Context) error {
		res = invoke(ctx, fn)
		switch res.Status {
		case model.StatusFailure, model.StatusTimeout:
			// Worth another attempt within the budget.
			return eris.New(res.ErrorMessage)
		default:
			return nil
		}
	})

	metrics.RecordOperation(facet.String(), time.Since(start), res.IsUsable(), res.ErrorMessage)
	return res
}

// invoke calls fn with a panic boundary: a panicking extractor becomes a
// Failure result instead of tearing down the fan-out.
func invoke[T any](ctx context.Context, fn func(ctx context.Context) model.Result[T]) (res model.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("pipeline: subtask panic", zap.Any("panic", r))
			res = model.Failf[T]("subtask panic: %v", r)
		}
	}()
	return fn(ctx)
}

// merge folds the joined facet results into the record, one facet at a
// time on a single goroutine. Usable payloads land in their field, their
// warnings join the record's error list, and failures leave the field at
// its empty default.
func (p *Pipeline) merge(ins *model.BrandInsights, fr *facetResults, metrics *ExtractionMetrics) {
	for facet := FacetProducts; facet <= FacetCurrency; facet++ {
		switch facet {
		case FacetProducts:
			if mergeFacet(ins, metrics, facet, fr.products) {
				ins.ProductCatalog = fr.products.Data
			}
		case FacetHeroProducts:
			if mergeFacet(ins, metrics, facet, fr.hero) {
				ins.HeroProducts = fr.hero.Data
			}
		case FacetBrandContext:
			if mergeFacet(ins, metrics, facet, fr.brand) {
				ins.BrandContext = fr.brand.Data
			}
		case FacetPolicies:
			if mergeFacet(ins, metrics, facet, fr.policies) {
				ins.Policies = fr.policies.Data
			}
		case FacetFAQs:
			if mergeFacet(ins, metrics, facet, fr.faqs) {
				ins.FAQs = extract.Dedupe(fr.faqs.Data, p.cfg.FAQLimit)
			}
		case FacetSocialHandles:
			if mergeFacet(ins, metrics, facet, fr.socials) {
				ins.SocialHandles = fr.socials.Data
			}
		case FacetContactDetails:
			if mergeFacet(ins, metrics, facet, fr.contacts) {
				ins.ContactDetails = fr.contacts.Data
			}
		case FacetImportantLinks:
			if mergeFacet(ins, metrics, facet, fr.links) {
				ins.ImportantLinks = fr.links.Data
			}
		case FacetCurrency:
			p.mergeCurrency(ins, fr, metrics)
		}
	}
	ins.TotalProductsFound = len(ins.ProductCatalog)
}

// mergeFacet handles the shared bookkeeping and reports whether the payload
// should be written.
func mergeFacet[T any](ins *model.BrandInsights, metrics *ExtractionMetrics, facet Facet, res model.Result[T]) bool {
	if res.IsUsable() {
		for _, w := range res.Warnings {
			msg := fmt.Sprintf("%s: %s", facet, w)
			ins.Errors = append(ins.Errors, msg)
			metrics.AddWarning(msg)
		}
		return true
	}
	msg := fmt.Sprintf("%s extraction failed: %s", facet, res.ErrorMessage)
	ins.Errors = append(ins.Errors, msg)
	metrics.AddError(msg)
	return false
}

// mergeCurrency applies the currency precedence: the dedicated detector
// wins; the price-string byproduct only fills the field while it still
// holds the USD/$ default.
func (p *Pipeline) mergeCurrency(ins *model.BrandInsights, fr *facetResults, metrics *ExtractionMetrics) {
	det := currency.Default()
	if fr.currency.IsUsable() {
		det = fr.currency.Data
	} else {
		msg := fmt.Sprintf("%s detection failed: %s", FacetCurrency, fr.currency.ErrorMessage)
		ins.Errors = append(ins.Errors, msg)
		metrics.AddError(msg)
	}

	if det.IsDefault() {
		var prices []string
		for _, prod := range ins.ProductCatalog {
			prices = append(prices, prod.Price)
		}
		for _, prod := range ins.HeroProducts {
			prices = append(prices, prod.Price)
		}
		if byproduct, ok := currency.FromPriceStrings(prices); ok {
			det = byproduct
		}
	}

	ins.DetectedCurrency = det.Code
	ins.CurrencySymbol = det.Symbol
	currency.Annotate(ins.ProductCatalog, det)
	currency.Annotate(ins.HeroProducts, det)
}

// enrich runs the AI pass after the merge. The comprehensive score always
// lands on the record; per-facet correction only happens when that score
// falls below the configured threshold, so good extractions are never
// blindly overwritten.
func (p *Pipeline) enrich(ctx context.Context, ins *model.BrandInsights, html string, metrics *ExtractionMetrics) {
	if p.validator == nil || !p.validator.Enabled() {
		ins.AIValidation = model.DisabledValidation()
		return
	}

	start := time.Now()
	ins.AIValidation = p.validator.Comprehensive(ctx, ins.WebsiteURL, ins)
	metrics.RecordOperation("ai_validation", time.Since(start), true,
		fmt.Sprintf("confidence=%.2f", ins.AIValidation.ConfidenceScore))

	if ins.AIValidation.ConfidenceScore >= p.cfg.ConfidenceThreshold {
		return
	}

	url := ins.WebsiteURL
	ins.BrandContext = p.validator.ValidateBrandContext(ctx, url, ins.BrandContext, html)
	ins.SocialHandles = p.validator.ValidateSocialHandles(ctx, url, ins.SocialHandles, html)
	ins.ContactDetails = p.validator.ValidateContactDetails(ctx, url, ins.ContactDetails, html)
	ins.FAQs = extract.Dedupe(p.validator.ValidateFAQs(ctx, url, ins.FAQs, html), p.cfg.FAQLimit)
	ins.Policies = p.validator.ValidatePolicies(ctx, url, ins.Policies, html)
}

// analyzeCompetitors is best-effort: failures degrade to warnings.
func (p *Pipeline) analyzeCompetitors(ctx context.Context, storeURL *model.StoreURL, ins *model.BrandInsights, metrics *ExtractionMetrics) {
	if p.analyzer == nil {
		return
	}

	start := time.Now()
	res := p.analyzer.Analyze(ctx, storeURL, ins)
	metrics.RecordOperation("competitor_analysis", time.Since(start), res.IsUsable(), res.ErrorMessage)

	if !res.IsUsable() {
		msg := "competitor analysis failed: " + res.ErrorMessage
		ins.Errors = append(ins.Errors, msg)
		metrics.AddWarning(msg)
		return
	}
	for _, w := range res.Warnings {
		metrics.AddWarning("competitor_analysis: " + w)
	}
	ins.CompetitorAnalysis = res.Data
}

// persist saves the record and run bookkeeping. Storage being down never
// fails the run; the caller still gets the extracted data.
func (p *Pipeline) persist(ctx context.Context, ins *model.BrandInsights, metrics *ExtractionMetrics, runStart time.Time) {
	if p.store == nil {
		metrics.AddWarning("persistence disabled; extraction not saved")
		return
	}

	start := time.Now()
	_, err := p.store.SaveInsights(ctx, ins)
	metrics.RecordOperation("persist", time.Since(start), err == nil, "")
	if err != nil {
		// The record is finalized by now; storage trouble stays out of it.
		metrics.AddWarning("persistence failed: " + err.Error())
		return
	}

	runErr := p.store.RecordRun(ctx, store.Run{
		ID:           uuid.New().String(),
		WebsiteURL:   ins.WebsiteURL,
		Success:      ins.ExtractionSuccess,
		ProductCount: ins.TotalProductsFound,
		Duration:     time.Since(runStart),
		StartedAt:    runStart,
	})
	if runErr != nil {
		metrics.AddWarning("run bookkeeping failed: " + runErr.Error())
	}
}

// finalize computes the overall success flag exactly once.
func (p *Pipeline) finalize(ins *model.BrandInsights, metrics *ExtractionMetrics) {
	ins.ExtractionSuccess = len(ins.ProductCatalog) > 0 ||
		len(ins.HeroProducts) > 0 ||
		ins.BrandContext.BrandName != ""
	if !ins.ExtractionSuccess {
		msg := "extraction produced no products, hero products, or brand name"
		ins.Errors = append(ins.Errors, msg)
		metrics.AddError(msg)
	}
}
