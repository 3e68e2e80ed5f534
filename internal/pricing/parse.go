package pricing

import (
	"strconv"
	"strings"
)

// currencySymbols maps price string symbols to ISO codes. Order matters:
// the first symbol found in the string wins.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"£", "GBP"},
	{"$", "USD"},
	{"€", "EUR"},
}

var priceCleaner = strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "", "\t", "", " ", "")

// ParsePrice parses a free-form price string like "£1,234.56" or "$800"
// into a numeric amount. Returns false if the string is empty or not
// numeric after stripping currency symbols and separators.
func ParsePrice(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(priceCleaner.Replace(raw))
	if cleaned == "" {
		return 0, false
	}
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

// ExtractCurrency returns the ISO currency code for the symbol found in a
// price string. Untagged strings default to GBP, the home market.
func ExtractCurrency(raw string) string {
	for _, c := range currencySymbols {
		if strings.Contains(raw, c.symbol) {
			return c.code
		}
	}
	return "GBP"
}
