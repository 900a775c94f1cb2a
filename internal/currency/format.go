package currency

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printerTags = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"CAD": language.MustParse("en-CA"),
	"AUD": language.MustParse("en-AU"),
	"GBP": language.BritishEnglish,
	"EUR": language.German,
	"JPY": language.Japanese,
	"INR": language.MustParse("en-IN"),
}

func printerFor(code string) *message.Printer {
	if tag, ok := printerTags[code]; ok {
		return message.NewPrinter(tag)
	}
	return message.NewPrinter(language.English)
}

// Format renders an amount in the locale flavor of its currency. INR uses
// the abbreviated lakh/thousand notation common on Indian storefronts; JPY
// and KRW drop decimals; unmapped codes fall back to "{symbol}{amount}".
func Format(amount float64, code string) string {
	symbol := SymbolFor(code)

	switch code {
	case "INR":
		switch {
		case amount >= 100000:
			return fmt.Sprintf("₹%.1fL", amount/100000)
		case amount >= 1000:
			return fmt.Sprintf("₹%.1fK", amount/1000)
		default:
			return fmt.Sprintf("₹%.0f", amount)
		}
	case "JPY", "KRW":
		return symbol + printerFor(code).Sprintf("%.0f", amount)
	case "EUR":
		return printerFor(code).Sprintf("%.2f", amount) + "€"
	default:
		return symbol + printerFor(code).Sprintf("%.2f", amount)
	}
}
