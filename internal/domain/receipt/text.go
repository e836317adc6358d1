package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultWidth fits an 80mm thermal roll.
const DefaultWidth = 42

// Text widths are clamped to what receipt printers can render.
const (
	MinWidth = 24
	MaxWidth = 80
)

// DateLayout is the receipt timestamp format.
const DateLayout = "02/01/2006 15:04"

// Text renders the receipt as fixed-width lines joined by newlines. A width
// of zero uses DefaultWidth; others are clamped to [MinWidth, MaxWidth].
func (r Receipt) Text(width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	width = min(max(width, MinWidth), MaxWidth)

	var b strings.Builder
	rule := strings.Repeat("-", width)
	line := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	for _, s := range []string{r.Header.StoreName, r.Header.Tagline, r.Header.Address} {
		if s != "" {
			line(center(s, width))
		}
	}
	if r.Header.Phone != "" {
		line(center("Telp: "+r.Header.Phone, width))
	}
	line(rule)
	line(pair("No. Transaksi", r.OrderNumber, width))
	line(pair("Tanggal", r.Date.Format(DateLayout), width))
	line(rule)
	line(pair("Item", "Total", width))
	line(rule)

	for _, l := range r.Lines {
		line(truncate(l.Name, width))
		line(pair(fmt.Sprintf("  %d x %s", l.Quantity, Number(l.Price)), Number(l.Total), width))
	}

	line(rule)
	line(pair("Subtotal", Rupiah(r.Subtotal), width))
	if r.HasDiscount() {
		line(pair(r.DiscountLabel, "-"+Rupiah(r.Discount), width))
	}
	line(pair("TOTAL", Rupiah(r.Total), width))
	if r.HasPayment() {
		line(pair("Bayar", Rupiah(r.Payment), width))
		line(pair("Kembali", Rupiah(r.Change), width))
	}
	line(rule)

	for _, s := range r.Footer {
		line(center(s, width))
	}
	return b.String()
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, width int) string {
	if runeLen(s) <= width {
		return s
	}
	return string([]rune(s)[:width])
}

func center(s string, width int) string {
	s = truncate(s, width)
	pad := (width - runeLen(s)) / 2
	return strings.Repeat(" ", pad) + s
}

// pair renders left and right aligned text on one line, truncating the left
// side when both do not fit.
func pair(left, right string, width int) string {
	right = truncate(right, width)
	room := width - runeLen(right) - 1
	if room < 0 {
		room = 0
	}
	left = truncate(left, room)
	gap := width - runeLen(left) - runeLen(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
