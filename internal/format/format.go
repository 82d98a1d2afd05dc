// Package format renders decimal values as display strings.
package format

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Placeholder is rendered for values that are not available.
const Placeholder = "-"

const (
	currencyPlaces = 2
	percentPlaces  = 2
)

// Amount rounds d to places and groups the integer part with thousands separators.
func Amount(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	sign := ""
	if r.IsNegative() {
		sign = "-"
		r = r.Abs()
	}

	s := humanize.BigComma(r.Truncate(0).BigInt())
	if places > 0 {
		fixed := r.StringFixed(places)
		s += fixed[strings.IndexByte(fixed, '.'):]
	}
	return sign + s
}

// Trimmed rounds d to places and strips trailing zeros, without grouping.
func Trimmed(d decimal.Decimal, places int32) string {
	s := d.Round(places).StringFixed(places)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

// Currency renders a quote-unit value as "$1,234.56".
func Currency(d decimal.Decimal) string {
	s := Amount(d, currencyPlaces)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// Percent renders a value that is already a percentage as "12.34%".
func Percent(d decimal.Decimal) string {
	return Amount(d, percentPlaces) + "%"
}

// Fraction renders a 0..1 fraction as a percentage.
func Fraction(d decimal.Decimal) string {
	return Percent(d.Shift(2))
}

// OrPlaceholder applies render to d, or returns Placeholder when d is nil.
func OrPlaceholder(d *decimal.Decimal, render func(decimal.Decimal) string) string {
	if d == nil {
		return Placeholder
	}
	return render(*d)
}
