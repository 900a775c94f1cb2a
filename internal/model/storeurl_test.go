package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL_PrependsScheme(t *testing.T) {
	assert.Equal(t, "https://shop.example.com", NormalizeURL("shop.example.com"))
	assert.Equal(t, "https://shop.example.com", NormalizeURL("  shop.example.com/  "))
	assert.Equal(t, "http://shop.example.com", NormalizeURL("http://shop.example.com/"))
}

func TestNormalizeURL_Idempotent(t *testing.T) {
	for _, raw := range []string{
		"shop.example.com",
		"https://shop.example.com/",
		"http://store.example.in",
		"example.myshopify.com/collections",
	} {
		once := NormalizeURL(raw)
		assert.Equal(t, once, NormalizeURL(once), "normalize should be idempotent for %q", raw)
	}
}

func TestParseStoreURL_Valid(t *testing.T) {
	u, err := ParseStoreURL("shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com", u.String())
	assert.Equal(t, "shop.example.com", u.Host())
	assert.True(t, u.LikelyShopify())
}

func TestParseStoreURL_Resolve(t *testing.T) {
	u, err := ParseStoreURL("https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/products.json", u.Resolve("/products.json"))
	assert.Equal(t, "https://example.com/products.json", u.Resolve("products.json"))
}

func TestParseStoreURL_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"bad scheme", "ftp://example.com"},
		{"no host", "https://"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStoreURL(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestResult_Invariants(t *testing.T) {
	ok := Ok([]string{"a"})
	assert.True(t, ok.IsSuccess())
	assert.True(t, ok.IsUsable())
	assert.Empty(t, ok.ErrorMessage)

	partial := Partial([]string{"a"}, "page 2 failed")
	assert.False(t, partial.IsSuccess())
	assert.True(t, partial.IsUsable())
	assert.NotEmpty(t, partial.ErrorMessage)
	assert.Len(t, partial.Warnings, 1)

	fail := Failf[[]string]("boom: %d", 7)
	assert.False(t, fail.IsUsable())
	assert.Equal(t, StatusFailure, fail.Status)
	assert.Equal(t, "boom: 7", fail.ErrorMessage)

	invalid := Invalid[string]("bad url")
	assert.Equal(t, StatusInvalidInput, invalid.Status)
}

func TestNewBrandInsights_Defaults(t *testing.T) {
	ins := NewBrandInsights("https://example.com")
	assert.NotNil(t, ins.BrandContext)
	assert.NotNil(t, ins.Policies)
	assert.NotNil(t, ins.SocialHandles)
	assert.NotNil(t, ins.ContactDetails)
	assert.NotNil(t, ins.ImportantLinks)
	assert.Empty(t, ins.ProductCatalog)
	assert.Empty(t, ins.Errors)
	assert.False(t, ins.ExtractionTimestamp.IsZero())
}

func TestSocialHandles_Count(t *testing.T) {
	s := &SocialHandles{Instagram: "https://instagram.com/x", Twitter: "https://x.com/x"}
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 0, (&SocialHandles{}).Count())
}
