package currency

// usdRates is a static conversion table to USD. The shadow USD price exists
// for display and sorting convenience only; accuracy is out of scope.
var usdRates = map[string]float64{
	"USD": 1.0,
	"INR": 0.012,
	"EUR": 1.09,
	"GBP": 1.27,
	"CAD": 0.74,
	"AUD": 0.66,
	"JPY": 0.0067,
	"KRW": 0.00075,
	"BRL": 0.18,
	"RUB": 0.011,
}

// ToUSD converts an amount to USD using the static rate table. Unknown
// codes pass through unchanged with rate 1.0.
func ToUSD(amount float64, code string) (converted float64, rate float64) {
	r, ok := usdRates[code]
	if !ok {
		return amount, 1.0
	}
	return round2(amount * r), r
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
