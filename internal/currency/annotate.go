package currency

import (
	"strconv"
	"strings"

	"github.com/sells-group/insights-cli/internal/model"
)

// Annotate stamps every product with the resolved currency and computes the
// derived price fields in one step, so Pricing is always fully populated or
// absent. Products whose raw price cannot be parsed keep Pricing nil.
func Annotate(products []model.Product, det Detection) {
	for i := range products {
		p := &products[i]
		p.Currency = det.Code
		p.CurrencySymbol = det.Symbol

		amount, ok := parseAmount(p.Price)
		if !ok {
			continue
		}
		usd, _ := ToUSD(amount, det.Code)
		p.Pricing = &model.ProductPricing{
			OriginalPrice:     amount,
			PriceUSD:          usd,
			FormattedPrice:    Format(amount, det.Code),
			FormattedPriceUSD: Format(usd, "USD"),
		}
	}
}

// parseAmount extracts a numeric amount from a raw price string, tolerating
// currency symbols and thousands separators.
func parseAmount(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, strings.ReplaceAll(raw, ",", ""))
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
