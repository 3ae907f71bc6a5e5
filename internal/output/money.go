package output

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// Money formats an amount in reais with Brazilian separators, e.g. R$ 1.234,50.
func Money(amount float64) string {
	return brl.Sprintf("R$ %.2f", amount)
}
