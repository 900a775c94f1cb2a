package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/fetcher"
	"github.com/sells-group/insights-cli/internal/model"
)

// feedProduct mirrors one entry of the Shopify products.json feed.
type feedProduct struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	BodyHTML    string `json:"body_html"`
	Vendor      string `json:"vendor"`
	ProductType string `json:"product_type"`
	Tags        any    `json:"tags"` // array on most stores, comma string on some
	Images      []struct {
		Src string `json:"src"`
	} `json:"images"`
	Variants []struct {
		Price          string `json:"price"`
		CompareAtPrice string `json:"compare_at_price"`
		Available      bool   `json:"available"`
	} `json:"variants"`
}

type productFeed struct {
	Products []feedProduct `json:"products"`
}

// ProductExtractor walks the storefront's JSON product feed page by page.
type ProductExtractor struct {
	fetch    fetcher.Getter
	maxPages int
	perPage  int
}

// NewProductExtractor creates a ProductExtractor. perPage is capped at the
// feed's 250-item maximum.
func NewProductExtractor(fetch fetcher.Getter, maxPages, perPage int) *ProductExtractor {
	if maxPages <= 0 {
		maxPages = 10
	}
	if perPage <= 0 || perPage > 250 {
		perPage = 250
	}
	return &ProductExtractor{fetch: fetch, maxPages: maxPages, perPage: perPage}
}

// Products fetches the full catalog. A failure on the first page fails the
// facet; failures on later pages downgrade to a partial result with the
// pages collected so far.
func (e *ProductExtractor) Products(ctx context.Context, store *model.StoreURL) model.Result[[]model.Product] {
	var products []model.Product
	var warnings []string

	feedURL := store.Resolve("/products.json")
	for page := 1; page <= e.maxPages; page++ {
		query := url.Values{
			"limit": {strconv.Itoa(e.perPage)},
			"page":  {strconv.Itoa(page)},
		}
		res := e.fetch.Get(ctx, feedURL, query)
		if !res.IsUsable() {
			if page == 1 {
				return model.Fail[[]model.Product](res.Status,
					fmt.Sprintf("product feed unavailable: %s", res.ErrorMessage))
			}
			warnings = append(warnings, fmt.Sprintf("page %d fetch failed: %s", page, res.ErrorMessage))
			break
		}

		var feed productFeed
		if err := json.Unmarshal(res.Data.Body, &feed); err != nil {
			if page == 1 {
				return model.Failf[[]model.Product]("product feed is not valid JSON: %v", err)
			}
			warnings = append(warnings, fmt.Sprintf("page %d returned invalid JSON", page))
			break
		}
		if len(feed.Products) == 0 {
			break
		}

		for _, fp := range feed.Products {
			products = append(products, e.toProduct(fp, store))
		}
		if len(feed.Products) < e.perPage {
			break
		}
	}

	zap.L().Debug("extract: product catalog",
		zap.String("store", store.String()),
		zap.Int("products", len(products)),
		zap.Int("warnings", len(warnings)),
	)

	switch {
	case len(products) == 0 && len(warnings) > 0:
		return model.Failf[[]model.Product]("no products extracted: %s", warnings[0])
	case len(warnings) > 0:
		return model.Partial(products, warnings...)
	default:
		return model.Ok(products).WithMeta("total_products", len(products))
	}
}

func (e *ProductExtractor) toProduct(fp feedProduct, store *model.StoreURL) model.Product {
	p := model.Product{
		ID:          strconv.FormatInt(fp.ID, 10),
		Title:       cleanText(fp.Title),
		Handle:      fp.Handle,
		Description: truncate(stripTags(fp.BodyHTML), 500),
		Vendor:      cleanText(fp.Vendor),
		ProductType: cleanText(fp.ProductType),
		Tags:        normalizeTags(fp.Tags),
		URL:         store.Resolve("/products/" + fp.Handle),
	}
	for _, img := range fp.Images {
		if img.Src != "" {
			p.Images = append(p.Images, img.Src)
		}
	}
	if len(fp.Variants) > 0 {
		p.Price = fp.Variants[0].Price
		p.CompareAtPrice = fp.Variants[0].CompareAtPrice
		p.VariantsCount = len(fp.Variants)
		for _, v := range fp.Variants {
			if v.Available {
				p.Available = true
				break
			}
		}
	}
	return p
}

// normalizeTags accepts both feed encodings of tags: a JSON array or a
// single comma-separated string.
func normalizeTags(raw any) []string {
	switch v := raw.(type) {
	case []any:
		tags := make([]string, 0, len(v))
		for _, t := range v {
			if s, ok := t.(string); ok && s != "" {
				tags = append(tags, s)
			}
		}
		return tags
	case string:
		if v == "" {
			return nil
		}
		var tags []string
		for _, t := range splitAndTrim(v, ",") {
			if t != "" {
				tags = append(tags, t)
			}
		}
		return tags
	default:
		return nil
	}
}
