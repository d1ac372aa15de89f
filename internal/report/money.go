package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders d as "R$ 1,234.56".
func FormatMoney(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("R$ ")
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
