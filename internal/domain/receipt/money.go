package receipt

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idr = message.NewPrinter(language.Indonesian)

// Number formats a whole-rupiah amount with Indonesian digit grouping,
// e.g. 1.000.000.
func Number(d decimal.Decimal) string {
	return idr.Sprintf("%d", d.Round(0).IntPart())
}

// Rupiah formats an amount as "Rp 1.000.000".
func Rupiah(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-Rp " + Number(d.Neg())
	}
	return "Rp " + Number(d)
}
