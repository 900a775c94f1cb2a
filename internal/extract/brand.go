package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

// titleSeparators split marketing suffixes off page titles
// ("Acme – Handmade Candles" → "Acme").
var titleSeparators = []string{" | ", " – ", " — ", " - ", " :: "}

// BrandExtractor reads brand identity from the homepage and, when linked,
// the about page.
type BrandExtractor struct {
	fetch fetcher.Getter
}

// NewBrandExtractor creates a BrandExtractor.
func NewBrandExtractor(fetch fetcher.Getter) *BrandExtractor {
	return &BrandExtractor{fetch: fetch}
}

// BrandContext extracts the brand name, description, and about content.
func (e *BrandExtractor) BrandContext(ctx context.Context, store *model.StoreURL, html string) model.Result[*model.BrandContext] {
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[*model.BrandContext]("parse homepage: %v", err)
	}

	bc := &model.BrandContext{}

	// og:site_name is the cleanest brand-name source when present.
	if name, ok := doc.Find(`meta[property="og:site_name"]`).Attr("content"); ok {
		bc.BrandName = cleanText(name)
	}
	if bc.BrandName == "" {
		bc.BrandName = cleanTitle(doc.Find("title").First().Text())
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		bc.BrandDescription = truncate(cleanText(desc), 500)
	}

	var warnings []string
	if aboutURL := firstLink(doc, store.String(), "about"); aboutURL != "" {
		res := e.fetch.Get(ctx, aboutURL, nil)
		if res.IsUsable() {
			e.enrichFromAboutPage(bc, res.Data.Text())
		} else {
			warnings = append(warnings, "about page fetch failed: "+res.ErrorMessage)
		}
	}

	if bc.BrandName == "" && bc.BrandDescription == "" && bc.AboutUsContent == "" {
		return model.Failf[*model.BrandContext]("no brand signals found on homepage")
	}
	if len(warnings) > 0 {
		return model.Partial(bc, warnings...)
	}
	return model.Ok(bc)
}

func (e *BrandExtractor) enrichFromAboutPage(bc *model.BrandContext, html string) {
	doc, err := parseDoc(html)
	if err != nil {
		return
	}
	doc.Find("script, style, nav, header, footer").Remove()
	body := cleanText(doc.Find("main, article, .about, #about, body").First().Text())
	if body == "" {
		return
	}
	bc.AboutUsContent = truncate(body, 1500)

	// A sentence mentioning "mission" doubles as the mission statement.
	for _, sentence := range strings.Split(body, ".") {
		if strings.Contains(strings.ToLower(sentence), "mission") {
			bc.MissionStatement = cleanText(sentence) + "."
			break
		}
	}
	if bc.BrandStory == "" && len(bc.AboutUsContent) > 0 {
		bc.BrandStory = truncate(body, 600)
	}
}

// cleanTitle strips the marketing tail from a <title> and returns the brand
// part.
func cleanTitle(title string) string {
	t := cleanText(title)
	for _, sep := range titleSeparators {
		if idx := strings.Index(t, sep); idx > 0 {
			t = t[:idx]
			break
		}
	}
	return strings.TrimSpace(t)
}

func firstLink(doc *goquery.Document, base string, keywords ...string) string {
	links := findLinks(doc, base, keywords...)
	if len(links) == 0 {
		return ""
	}
	return links[0]
}
