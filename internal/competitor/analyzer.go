// Package competitor probes candidate storefronts and scores them against
// the extracted brand. Discovery is driven by a configured candidate list;
// each candidate is verified as a live Shopify store before analysis.
package competitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

const (
	defaultMaxCompetitors = 3
	probeConcurrency      = 3
	pointsPerPlatform     = 15
	maxSocialScore        = 100
)

// socialPlatforms checked when scoring a competitor homepage.
var socialPlatforms = []string{
	"instagram", "facebook", "twitter", "tiktok", "youtube", "linkedin", "pinterest",
}

// shopifyMarkers identify a Shopify storefront from its homepage source.
var shopifyMarkers = []string{"myshopify.com", "shopify.theme", "shopify-analytics", "cdn.shopify"}

// Analyzer probes candidate competitor storefronts.
type Analyzer struct {
	fetch          fetcher.Getter
	candidates     []string
	maxCompetitors int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCandidates sets the candidate storefront URLs to probe.
func WithCandidates(urls []string) Option {
	return func(a *Analyzer) { a.candidates = urls }
}

// WithMaxCompetitors caps how many verified competitors are analyzed.
func WithMaxCompetitors(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxCompetitors = n
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(fetch fetcher.Getter, opts ...Option) *Analyzer {
	a := &Analyzer{fetch: fetch, maxCompetitors: defaultMaxCompetitors}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze probes each configured candidate, keeps verified Shopify stores,
// and builds the comparative summary. Candidate failures are warnings;
// an empty candidate list is a partial result, not an error.
func (a *Analyzer) Analyze(ctx context.Context, store *model.StoreURL, ins *model.BrandInsights) model.Result[*model.CompetitorAnalysis] {
	candidates := a.eligibleCandidates(store)
	if len(candidates) == 0 {
		return model.Partial(&model.CompetitorAnalysis{
			CompetitiveAnalysis: "No competitor candidates configured.",
			MarketPositioning:   "Unknown",
		}, "no competitor candidates to probe")
	}

	type probeOutcome struct {
		info model.CompetitorInfo
		ok   bool
		warn string
	}
	outcomes := make([]probeOutcome, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i, candidate := range candidates {
		g.Go(func() error {
			info, err := a.probe(gctx, candidate)
			if err != nil {
				outcomes[i] = probeOutcome{warn: fmt.Sprintf("competitor %s: %v", candidate, err)}
				return nil
			}
			outcomes[i] = probeOutcome{info: info, ok: true}
			return nil
		})
	}
	_ = g.Wait()

	var competitors []model.CompetitorInfo
	var warnings []string
	for _, o := range outcomes {
		if o.ok && len(competitors) < a.maxCompetitors {
			competitors = append(competitors, o.info)
		} else if o.warn != "" {
			warnings = append(warnings, o.warn)
		}
	}

	analysis := &model.CompetitorAnalysis{
		CompetitorsFound:    len(competitors),
		CompetitorInsights:  competitors,
		CompetitiveAnalysis: comparativeAnalysis(ins, competitors),
		MarketPositioning:   marketPositioning(ins, competitors),
	}

	zap.L().Info("competitor: analysis complete",
		zap.String("store", store.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("competitors", len(competitors)),
	)

	if len(warnings) > 0 {
		return model.Partial(analysis, warnings...)
	}
	return model.Ok(analysis)
}

// eligibleCandidates drops candidates that resolve to the brand's own host
// or fail to parse.
func (a *Analyzer) eligibleCandidates(store *model.StoreURL) []string {
	var out []string
	seen := map[string]bool{store.Host(): true}
	for _, raw := range a.candidates {
		u, err := model.ParseStoreURL(raw)
		if err != nil {
			continue
		}
		if seen[u.Host()] {
			continue
		}
		seen[u.Host()] = true
		out = append(out, u.String())
	}
	return out
}

// probe analyzes one candidate storefront.
func (a *Analyzer) probe(ctx context.Context, candidate string) (model.CompetitorInfo, error) {
	res := a.fetch.Get(ctx, candidate, nil)
	if !res.IsUsable() {
		return model.CompetitorInfo{}, fmt.Errorf("homepage fetch failed: %s", res.ErrorMessage)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.Data.Text()))
	if err != nil {
		return model.CompetitorInfo{}, fmt.Errorf("parse homepage: %w", err)
	}
	// A myshopify-style URL is accepted without homepage markers.
	cand, err := model.ParseStoreURL(candidate)
	if err != nil {
		return model.CompetitorInfo{}, fmt.Errorf("parse candidate: %w", err)
	}
	if !cand.LikelyShopify() && !isShopifyStore(res.Data.Text()) {
		return model.CompetitorInfo{}, fmt.Errorf("not a shopify storefront")
	}

	productCount, priceRange := a.catalogSnapshot(ctx, candidate)
	socialScore := homepageSocialScore(doc)

	info := model.CompetitorInfo{
		URL:          candidate,
		BrandName:    brandNameFromDoc(doc, candidate),
		ProductCount: productCount,
		PriceRange:   priceRange,
		SocialScore:  socialScore,
	}
	info.Strengths, info.Weaknesses = assess(productCount, socialScore)
	return info, nil
}

// catalogSnapshot samples the candidate's product feed for a count and a
// price band. Feed failures leave both at their zero defaults.
func (a *Analyzer) catalogSnapshot(ctx context.Context, candidate string) (int, string) {
	feedURL := strings.TrimSuffix(candidate, "/") + "/products.json"
	res := a.fetch.Get(ctx, feedURL, url.Values{"limit": {"250"}})
	if !res.IsUsable() {
		return 0, "Unknown"
	}

	var feed struct {
		Products []struct {
			Variants []struct {
				Price string `json:"price"`
			} `json:"variants"`
		} `json:"products"`
	}
	if err := json.Unmarshal(res.Data.Body, &feed); err != nil {
		return 0, "Unknown"
	}

	var prices []float64
	sample := feed.Products
	if len(sample) > 5 {
		sample = sample[:5]
	}
	for _, p := range sample {
		for _, v := range p.Variants {
			if f, err := strconv.ParseFloat(v.Price, 64); err == nil && f > 0 {
				prices = append(prices, f)
			}
		}
	}
	return len(feed.Products), priceBand(prices)
}

// priceBand renders a min-max band from sampled prices.
func priceBand(prices []float64) string {
	if len(prices) == 0 {
		return "Unknown"
	}
	minP, maxP := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}
	if minP == maxP {
		return fmt.Sprintf("$%.2f", minP)
	}
	return fmt.Sprintf("$%.2f - $%.2f", minP, maxP)
}

func isShopifyStore(html string) bool {
	lower := strings.ToLower(html)
	for _, marker := range shopifyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func brandNameFromDoc(doc *goquery.Document, candidate string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sep := range []string{"|", " – ", " - "} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	if title = strings.TrimSpace(title); title != "" {
		return title
	}
	if u, err := url.Parse(candidate); err == nil {
		host := strings.TrimPrefix(u.Host, "www.")
		if dot := strings.Index(host, "."); dot > 0 {
			return cases.Title(language.English).String(host[:dot])
		}
	}
	return ""
}

// homepageSocialScore awards points per social platform linked anywhere on
// the homepage.
func homepageSocialScore(doc *goquery.Document) int {
	found := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, platform := range socialPlatforms {
			if strings.Contains(lower, platform) {
				found[platform] = true
				return
			}
		}
	})
	score := len(found) * pointsPerPlatform
	if score > maxSocialScore {
		score = maxSocialScore
	}
	return score
}

// SocialScore converts populated handles into the same 0-100 scale used for
// competitors, so the comparison is apples to apples.
func SocialScore(h *model.SocialHandles) int {
	if h == nil {
		return 0
	}
	score := h.Count() * pointsPerPlatform
	if score > maxSocialScore {
		score = maxSocialScore
	}
	return score
}

func assess(productCount, socialScore int) (strengths, weaknesses []string) {
	if productCount > 30 {
		strengths = append(strengths, "Extensive product range")
	} else {
		weaknesses = append(weaknesses, "Limited product selection")
	}
	if socialScore > 60 {
		strengths = append(strengths, "Strong social media presence")
	} else if socialScore < 30 {
		weaknesses = append(weaknesses, "Weak social media presence")
	}
	return strengths, weaknesses
}

func comparativeAnalysis(ins *model.BrandInsights, competitors []model.CompetitorInfo) string {
	if len(competitors) == 0 {
		return "No competitors found for analysis."
	}

	var totalProducts, totalSocial int
	for _, c := range competitors {
		totalProducts += c.ProductCount
		totalSocial += c.SocialScore
	}
	avgProducts := float64(totalProducts) / float64(len(competitors))
	avgSocial := float64(totalSocial) / float64(len(competitors))
	brandSocial := SocialScore(ins.SocialHandles)

	var b strings.Builder
	b.WriteString("Competitive Analysis Summary:\n\n")
	fmt.Fprintf(&b, "- Your store has %d products vs. competitor average of %.0f\n",
		ins.TotalProductsFound, avgProducts)
	fmt.Fprintf(&b, "- Your social presence scores %d vs. competitor average of %.0f\n",
		brandSocial, avgSocial)
	if float64(ins.TotalProductsFound) > avgProducts {
		b.WriteString("- Strength: Above-average product selection\n")
	} else {
		b.WriteString("- Opportunity: Expand product catalog to match competitors\n")
	}
	return b.String()
}

func marketPositioning(ins *model.BrandInsights, competitors []model.CompetitorInfo) string {
	if len(competitors) == 0 {
		return "Unique market position (no direct competitors found)"
	}
	minC, maxC := competitors[0].ProductCount, competitors[0].ProductCount
	for _, c := range competitors[1:] {
		if c.ProductCount < minC {
			minC = c.ProductCount
		}
		if c.ProductCount > maxC {
			maxC = c.ProductCount
		}
	}
	switch {
	case ins.TotalProductsFound > maxC:
		return "Market leader (largest product selection)"
	case ins.TotalProductsFound < minC:
		return "Niche player (specialized selection)"
	default:
		return "Competitive player (similar to market average)"
	}
}
