// Package currency infers a storefront's currency from domain, page text,
// and price strings, and annotates product prices with USD conversions.
package currency

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insights-cli/internal/model"
)

// Detection is the resolved currency for one storefront.
type Detection struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Source string `json:"source"`
}

// Default returns the generic fallback detection.
func Default() Detection {
	return Detection{Code: "USD", Symbol: "$", Source: "default"}
}

// IsDefault reports whether the detection is still the generic USD fallback.
func (d Detection) IsDefault() bool {
	return d.Code == "USD" && d.Source == "default"
}

// domainCurrencies maps country-code TLD suffixes to currencies. Checked
// first in the cascade because the domain is the most reliable signal.
var domainCurrencies = []struct {
	suffix string
	code   string
	symbol string
}{
	{".in", "INR", "₹"},
	{".uk", "GBP", "£"},
	{".co.uk", "GBP", "£"},
	{".de", "EUR", "€"},
	{".fr", "EUR", "€"},
	{".ca", "CAD", "C$"},
	{".au", "AUD", "A$"},
	{".com.au", "AUD", "A$"},
	{".jp", "JPY", "¥"},
	{".kr", "KRW", "₩"},
	{".br", "BRL", "R$"},
	{".ru", "RUB", "₽"},
}

// textPatterns are symbol/keyword signals searched in visible page text, in
// priority order. USD last so it only wins when nothing else matches.
var textPatterns = []struct {
	code     string
	symbol   string
	keywords []string
}{
	{"INR", "₹", []string{"₹", "rupee", "rs.", "rs ", "indian rupee", "&#8377;", " inr"}},
	{"GBP", "£", []string{"£", "british pound", "&#163;", " gbp"}},
	{"EUR", "€", []string{"€", "euro", "&#8364;", " eur"}},
	{"CAD", "C$", []string{"canadian dollar", "ca$", "c$", " cad"}},
	{"AUD", "A$", []string{"australian dollar", "au$", "a$", " aud"}},
	{"JPY", "¥", []string{"japanese yen", " jpy"}},
	{"USD", "$", []string{"us dollar", " usd", "$"}},
}

// symbolCodes maps price-string symbols to currency codes for the final
// cascade step. Multi-rune symbols are checked before "$".
var symbolCodes = []struct {
	symbol string
	code   string
}{
	{"₹", "INR"},
	{"£", "GBP"},
	{"€", "EUR"},
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"R$", "BRL"},
	{"₩", "KRW"},
	{"₽", "RUB"},
	{"¥", "JPY"},
	{"Rs", "INR"},
	{"$", "USD"},
}

var priceClassRe = regexp.MustCompile(`(?i)class="[^"]*(?:price|cost|amount)[^"]*"[^>]*>([^<]{1,40})<`)

// Detector runs the detection cascade for one storefront.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector { return &Detector{} }

// Detect resolves the storefront currency from the domain and homepage HTML.
// Cascade order: domain suffix, locale/address text, symbol frequency in
// visible text, symbols near price-like markup. Each step runs only while
// the prior left the generic default. Price strings from the product feed
// are handled separately by FromPriceStrings.
func (d *Detector) Detect(store *model.StoreURL, html string) model.Result[Detection] {
	det := d.detect(store, html)
	zap.L().Debug("currency: detected",
		zap.String("store", store.String()),
		zap.String("code", det.Code),
		zap.String("source", det.Source),
	)
	return model.Ok(det)
}

func (d *Detector) detect(store *model.StoreURL, html string) Detection {
	if det, ok := fromDomain(store.Host()); ok {
		return det
	}
	lower := strings.ToLower(html)
	if det, ok := fromLocaleText(lower); ok {
		return det
	}
	if det, ok := fromVisibleText(lower); ok {
		return det
	}
	if det, ok := fromPriceMarkup(html); ok {
		return det
	}
	return Default()
}

func fromDomain(host string) (Detection, bool) {
	h := strings.ToLower(host)
	// Longest suffix first so .co.uk beats .uk ordering quirks.
	best := Detection{}
	bestLen := 0
	for _, m := range domainCurrencies {
		if strings.HasSuffix(h, m.suffix) && len(m.suffix) > bestLen {
			best = Detection{Code: m.code, Symbol: m.symbol, Source: "domain"}
			bestLen = len(m.suffix)
		}
	}
	return best, bestLen > 0
}

// localeHints are address/footer phrases that imply a country, and with it
// a currency.
var localeHints = []struct {
	phrase string
	code   string
	symbol string
}{
	{"united kingdom", "GBP", "£"},
	{"india", "INR", "₹"},
	{"canada", "CAD", "C$"},
	{"australia", "AUD", "A$"},
	{"deutschland", "EUR", "€"},
	{"germany", "EUR", "€"},
	{"france", "EUR", "€"},
	{"japan", "JPY", "¥"},
}

func fromLocaleText(lowerHTML string) (Detection, bool) {
	for _, h := range localeHints {
		if strings.Contains(lowerHTML, h.phrase) {
			return Detection{Code: h.code, Symbol: h.symbol, Source: "locale"}, true
		}
	}
	return Detection{}, false
}

func fromVisibleText(lowerHTML string) (Detection, bool) {
	for _, p := range textPatterns {
		if p.code == "USD" {
			// Bare "$" is too ambiguous to count as a positive signal here;
			// the price-markup step handles it.
			continue
		}
		for _, kw := range p.keywords {
			if strings.Contains(lowerHTML, kw) {
				return Detection{Code: p.code, Symbol: p.symbol, Source: "text"}, true
			}
		}
	}
	return Detection{}, false
}

func fromPriceMarkup(html string) (Detection, bool) {
	matches := priceClassRe.FindAllStringSubmatch(html, 10)
	for _, m := range matches {
		if det, ok := fromSymbol(m[1]); ok {
			det.Source = "price_markup"
			return det, true
		}
	}
	return Detection{}, false
}

// FromPriceStrings inspects raw product-feed price strings for embedded
// currency symbols: the last cascade step.
func FromPriceStrings(prices []string) (Detection, bool) {
	for _, p := range prices {
		if det, ok := fromSymbol(p); ok {
			det.Source = "price_string"
			return det, true
		}
	}
	return Detection{}, false
}

func fromSymbol(s string) (Detection, bool) {
	for _, m := range symbolCodes {
		if strings.Contains(s, m.symbol) {
			return Detection{Code: m.code, Symbol: SymbolFor(m.code)}, true
		}
	}
	return Detection{}, false
}

// SymbolFor returns the display symbol for a currency code, or the code
// itself when unmapped.
func SymbolFor(code string) string {
	for _, m := range symbolCodes {
		if m.code == code && m.symbol != "Rs" {
			return m.symbol
		}
	}
	return code
}
