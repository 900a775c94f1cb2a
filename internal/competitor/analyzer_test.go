package competitor

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

type fakeFetcher struct {
	responses map[string]model.Result[*fetcher.Response]
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: make(map[string]model.Result[*fetcher.Response])}
}

func (f *fakeFetcher) serve(fullURL, body string) {
	f.responses[fullURL] = model.Ok(&fetcher.Response{
		StatusCode: http.StatusOK,
		Body:       []byte(body),
		FinalURL:   fullURL,
	})
}

func (f *fakeFetcher) Get(ctx context.Context, rawURL string, query url.Values) model.Result[*fetcher.Response] {
	key := rawURL
	if len(query) > 0 {
		key = rawURL + "?" + query.Encode()
	}
	if res, ok := f.responses[key]; ok {
		return res
	}
	return model.Fail[*fetcher.Response](model.StatusFailure, "no responder for "+key)
}

const competitorHomepage = `<html><head>
  <title>Rival Candles | Shop</title>
  <script src="https://cdn.shopify.com/s/files/theme.js"></script>
</head><body>
  <a href="https://instagram.com/rival">ig</a>
  <a href="https://facebook.com/rival">fb</a>
  <a href="https://tiktok.com/@rival">tt</a>
  <a href="https://youtube.com/@rival">yt</a>
  <a href="https://pinterest.com/rival">pin</a>
</body></html>`

const competitorFeed = `{"products":[
  {"variants":[{"price":"12.00"},{"price":"45.00"}]},
  {"variants":[{"price":"30.00"}]}
]}`

func insightsWithProducts(n int) *model.BrandInsights {
	ins := model.NewBrandInsights("https://brand.example.com")
	ins.TotalProductsFound = n
	ins.SocialHandles = &model.SocialHandles{Instagram: "https://instagram.com/brand"}
	return ins
}

func TestAnalyze(t *testing.T) {
	store, err := model.ParseStoreURL("https://brand.example.com")
	require.NoError(t, err)

	fake := newFakeFetcher()
	fake.serve("https://rival.example.com", competitorHomepage)
	fake.serve("https://rival.example.com/products.json?limit=250", competitorFeed)

	a := NewAnalyzer(fake, WithCandidates([]string{"https://rival.example.com"}))
	res := a.Analyze(context.Background(), store, insightsWithProducts(10))

	require.True(t, res.IsSuccess())
	analysis := res.Data
	require.Equal(t, 1, analysis.CompetitorsFound)

	comp := analysis.CompetitorInsights[0]
	assert.Equal(t, "Rival Candles", comp.BrandName)
	assert.Equal(t, 2, comp.ProductCount)
	assert.Equal(t, "$12.00 - $45.00", comp.PriceRange)
	assert.Equal(t, 75, comp.SocialScore, "five platforms at 15 points each")
	assert.Contains(t, comp.Weaknesses, "Limited product selection")
	assert.Contains(t, comp.Strengths, "Strong social media presence")

	assert.Contains(t, analysis.CompetitiveAnalysis, "10 products")
	assert.Equal(t, "Market leader (largest product selection)", analysis.MarketPositioning)
}

func TestAnalyzeSkipsNonShopifyCandidates(t *testing.T) {
	store, err := model.ParseStoreURL("https://brand.example.com")
	require.NoError(t, err)

	fake := newFakeFetcher()
	fake.serve("https://blog.example.com", "<html><body>just a blog</body></html>")

	a := NewAnalyzer(fake, WithCandidates([]string{"https://blog.example.com"}))
	res := a.Analyze(context.Background(), store, insightsWithProducts(5))

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.Zero(t, res.Data.CompetitorsFound)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "not a shopify storefront")
}

func TestAnalyzeKeepsMyshopifyCandidateWithoutMarkers(t *testing.T) {
	store, err := model.ParseStoreURL("https://brand.example.com")
	require.NoError(t, err)

	fake := newFakeFetcher()
	fake.serve("https://rival.myshopify.com", "<html><head><title>Rival</title></head><body>plain page</body></html>")

	a := NewAnalyzer(fake, WithCandidates([]string{"https://rival.myshopify.com"}))
	res := a.Analyze(context.Background(), store, insightsWithProducts(5))

	require.True(t, res.IsSuccess())
	require.Equal(t, 1, res.Data.CompetitorsFound)
	assert.Equal(t, "https://rival.myshopify.com", res.Data.CompetitorInsights[0].URL)
}

func TestAnalyzeExcludesOwnStore(t *testing.T) {
	store, err := model.ParseStoreURL("https://brand.example.com")
	require.NoError(t, err)

	a := NewAnalyzer(newFakeFetcher(), WithCandidates([]string{"https://brand.example.com", "not a url"}))
	res := a.Analyze(context.Background(), store, insightsWithProducts(5))

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.Equal(t, "Unknown", res.Data.MarketPositioning)
}

func TestAnalyzeCandidateFetchFailureIsWarning(t *testing.T) {
	store, err := model.ParseStoreURL("https://brand.example.com")
	require.NoError(t, err)

	a := NewAnalyzer(newFakeFetcher(), WithCandidates([]string{"https://down.example.com"}))
	res := a.Analyze(context.Background(), store, insightsWithProducts(5))

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "down.example.com")
}

func TestMarketPositioning(t *testing.T) {
	comps := []model.CompetitorInfo{{ProductCount: 20}, {ProductCount: 40}}

	assert.Equal(t, "Market leader (largest product selection)",
		marketPositioning(insightsWithProducts(50), comps))
	assert.Equal(t, "Niche player (specialized selection)",
		marketPositioning(insightsWithProducts(5), comps))
	assert.Equal(t, "Competitive player (similar to market average)",
		marketPositioning(insightsWithProducts(30), comps))
}

func TestPriceBand(t *testing.T) {
	assert.Equal(t, "Unknown", priceBand(nil))
	assert.Equal(t, "$9.99", priceBand([]float64{9.99}))
	assert.Equal(t, "$5.00 - $20.00", priceBand([]float64{20, 5, 12}))
}

func TestSocialScore(t *testing.T) {
	assert.Zero(t, SocialScore(nil))
	assert.Equal(t, 15, SocialScore(&model.SocialHandles{Instagram: "x"}))
	full := &model.SocialHandles{
		Instagram: "a", Facebook: "b", TikTok: "c", Twitter: "d",
		YouTube: "e", LinkedIn: "f", Pinterest: "g",
	}
	assert.Equal(t, 100, SocialScore(full), "score is capped")
}

func TestBrandNameFromDocFallsBackToDomain(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head></head></html>"))
	require.NoError(t, err)

	assert.Equal(t, "Rival", brandNameFromDoc(doc, "https://www.rival.example.com"))
}
