package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insights-cli/internal/model"
)

const feedPageOne = `{"products":[
  {"id": 101, "title": "Linen  Shirt", "handle": "linen-shirt",
   "body_html": "<p>A <b>soft</b> shirt.</p>",
   "vendor": "Acme", "product_type": "Apparel",
   "tags": ["summer", "linen"],
   "images": [{"src": "https://cdn.example.com/linen.jpg"}],
   "variants": [
     {"price": "49.99", "compare_at_price": "59.99", "available": false},
     {"price": "52.99", "available": true}
   ]},
  {"id": 102, "title": "Wool Scarf", "handle": "wool-scarf",
   "tags": "winter, wool",
   "variants": [{"price": "19.99", "available": false}]}
]}`

const feedPageTwo = `{"products":[
  {"id": 103, "title": "Canvas Tote", "handle": "canvas-tote",
   "variants": [{"price": "24.99", "available": true}]}
]}`

func TestProductsPaginates(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/products.json?limit=2&page=1", feedPageOne)
	fake.serve("https://shop.example.com/products.json?limit=2&page=2", feedPageTwo)

	res := NewProductExtractor(fake, 5, 2).Products(context.Background(), store)

	require.True(t, res.IsSuccess())
	require.Len(t, res.Data, 3)

	first := res.Data[0]
	assert.Equal(t, "101", first.ID)
	assert.Equal(t, "Linen Shirt", first.Title)
	assert.Equal(t, "A soft shirt.", first.Description)
	assert.Equal(t, "49.99", first.Price)
	assert.Equal(t, "59.99", first.CompareAtPrice)
	assert.True(t, first.Available, "any available variant marks the product available")
	assert.Equal(t, 2, first.VariantsCount)
	assert.Equal(t, []string{"summer", "linen"}, first.Tags)
	assert.Equal(t, "https://shop.example.com/products/linen-shirt", first.URL)

	second := res.Data[1]
	assert.Equal(t, []string{"winter", "wool"}, second.Tags, "comma-string tags are split")
	assert.False(t, second.Available)

	// Page two was short, so page three is never requested.
	assert.Len(t, fake.calls, 2)
	assert.Equal(t, 3, res.Metadata["total_products"])
}

func TestProductsFirstPageFailureFailsFacet(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.fail("https://shop.example.com/products.json?limit=250&page=1",
		model.StatusFailure, "status 404")

	res := NewProductExtractor(fake, 5, 0).Products(context.Background(), store)

	assert.Equal(t, model.StatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "product feed unavailable")
}

func TestProductsLaterPageFailureIsPartial(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/products.json?limit=2&page=1", feedPageOne)
	fake.fail("https://shop.example.com/products.json?limit=2&page=2",
		model.StatusTimeout, "context deadline exceeded")

	res := NewProductExtractor(fake, 5, 2).Products(context.Background(), store)

	assert.Equal(t, model.StatusPartialSuccess, res.Status)
	assert.Len(t, res.Data, 2)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "page 2")
}

func TestProductsRateLimitStatusPropagates(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.fail("https://shop.example.com/products.json?limit=250&page=1",
		model.StatusRateLimited, "status 429")

	res := NewProductExtractor(fake, 3, 250).Products(context.Background(), store)

	assert.Equal(t, model.StatusRateLimited, res.Status)
}

func TestProductsEmptyFeed(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/products.json?limit=250&page=1", `{"products": []}`)

	res := NewProductExtractor(fake, 3, 250).Products(context.Background(), store)

	require.True(t, res.IsSuccess())
	assert.Empty(t, res.Data)
}

func TestProductsInvalidJSONFirstPage(t *testing.T) {
	store := mustStoreURL(t, "https://shop.example.com")
	fake := newFakeFetcher()
	fake.serve("https://shop.example.com/products.json?limit=250&page=1", "<html>not json</html>")

	res := NewProductExtractor(fake, 3, 250).Products(context.Background(), store)

	assert.Equal(t, model.StatusFailure, res.Status)
	assert.Contains(t, res.ErrorMessage, "not valid JSON")
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeTags([]any{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, normalizeTags("a, b"))
	assert.Nil(t, normalizeTags(""))
	assert.Nil(t, normalizeTags(nil))
	assert.Nil(t, normalizeTags(42.0))
}
