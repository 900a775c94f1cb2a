package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/insights-cli/internal/model"
)

// heroSelectors are tried in order; the first one that matches anything on
// the homepage is used.
var heroSelectors = []string{
	"[data-product-id]",
	".product-item",
	".featured-product",
	".hero-product",
	"[data-product]",
	".product-card",
}

// HeroExtractor pulls featured products from homepage markup, as distinct
// from the full JSON catalog.
type HeroExtractor struct {
	maxProducts int
}

// NewHeroExtractor creates a HeroExtractor capped at maxProducts entries.
func NewHeroExtractor(maxProducts int) *HeroExtractor {
	if maxProducts <= 0 {
		maxProducts = 10
	}
	return &HeroExtractor{maxProducts: maxProducts}
}

// HeroProducts extracts featured products from the homepage HTML.
func (e *HeroExtractor) HeroProducts(ctx context.Context, store *model.StoreURL, html string) model.Result[[]model.Product] {
	if html == "" {
		return model.Invalid[[]model.Product]("homepage html is required for hero extraction")
	}
	doc, err := parseDoc(html)
	if err != nil {
		return model.Failf[[]model.Product]("parse homepage: %v", err)
	}

	var products []model.Product
	for _, selector := range heroSelectors {
		sel := doc.Find(selector)
		if sel.Length() == 0 {
			continue
		}
		sel.EachWithBreak(func(i int, s *goquery.Selection) bool {
			if len(products) >= e.maxProducts {
				return false
			}
			if p, ok := e.fromElement(s, store); ok {
				products = append(products, p)
			}
			return true
		})
		break // first matching selector wins
	}

	if len(products) == 0 {
		return model.Partial([]model.Product{}, "no hero products found on homepage")
	}
	return model.Ok(products).WithMeta("hero_products_count", len(products))
}

func (e *HeroExtractor) fromElement(s *goquery.Selection, store *model.StoreURL) (model.Product, bool) {
	title := cleanText(s.Find("h1, h2, h3, h4, .product-title, [data-product-title]").First().Text())
	if title == "" {
		title = cleanText(s.AttrOr("data-product-title", ""))
	}
	if title == "" {
		return model.Product{}, false
	}

	p := model.Product{
		Title: title,
		// Homepage placement implies the product is currently offered.
		Available: true,
	}

	if priceText := cleanText(s.Find(".price, .product-price, [data-price]").First().Text()); priceText != "" {
		p.Price = priceText
	}

	if src, ok := s.Find("img").First().Attr("src"); ok {
		if abs := absoluteURL(store.String(), src); abs != "" {
			p.Images = []string{abs}
		}
	}

	if href, ok := s.Find("a[href]").First().Attr("href"); ok {
		p.URL = absoluteURL(store.String(), href)
	}

	return p, true
}
