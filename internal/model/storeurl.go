package model

import (
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// shopifyIndicators are substrings that suggest a URL belongs to a Shopify
// storefront. Detection is advisory only; extraction proceeds either way.
var shopifyIndicators = []string{".myshopify.com", "shopify", "shop.", "store."}

// StoreURL is a validated, normalized storefront URL. Immutable once built;
// every extractor receives the same instance for one run.
type StoreURL struct {
	normalized string
	host       string
}

// NormalizeURL trims whitespace, prepends https:// when no scheme is present,
// and strips a trailing slash. Idempotent: NormalizeURL(NormalizeURL(u)) ==
// NormalizeURL(u).
func NormalizeURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return strings.TrimRight(s, "/")
}

// ParseStoreURL validates and normalizes a raw URL into a StoreURL.
// Only http and https schemes with a non-empty host are accepted.
func ParseStoreURL(raw string) (*StoreURL, error) {
	normalized := NormalizeURL(raw)
	if normalized == "" {
		return nil, eris.New("url is empty")
	}

	parsed, err := url.Parse(normalized)
	if err != nil {
		return nil, eris.Wrapf(err, "parse url %q", raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, eris.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, eris.Errorf("url %q has no host", raw)
	}

	return &StoreURL{normalized: normalized, host: parsed.Host}, nil
}

// String returns the normalized absolute URL.
func (s *StoreURL) String() string { return s.normalized }

// Host returns the URL host (including port, if any).
func (s *StoreURL) Host() string { return s.host }

// Resolve joins a path onto the store base URL.
func (s *StoreURL) Resolve(path string) string {
	return s.normalized + "/" + strings.TrimLeft(path, "/")
}

// LikelyShopify reports whether the URL looks like a Shopify storefront.
func (s *StoreURL) LikelyShopify() bool {
	lower := strings.ToLower(s.normalized)
	for _, indicator := range shopifyIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
