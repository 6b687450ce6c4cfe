// Package format turns metric values and region names into display strings.
package format

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"kuanb/scout-choropleth/geom"
)

// DefaultCurrency is the Philippine peso sign used by the dashboard
const DefaultCurrency = "₱"

// NoData is shown in place of a value for regions without data
const NoData = "No data"

var printer = message.NewPrinter(language.English)

// Formatter formats metric values for tooltips and legends
type Formatter struct {
	Currency string
}

// New returns a Formatter using the given currency symbol, or the default one
func New(currency string) Formatter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Formatter{Currency: currency}
}

// Value formats v for metric m. ok=false renders the no-data text.
func (f Formatter) Value(m geom.Metric, v float64, ok bool) string {
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	switch m {
	case geom.MetricRevenue:
		return f.Money(v)
	case geom.MetricGrowth:
		return Percent(v)
	default:
		return Count(v)
	}
}

var units = []struct {
	exp    int32
	suffix string
}{
	{3, "K"},
	{6, "M"},
	{9, "B"},
}

// Money abbreviates an amount: ₱850, ₱12.3K, ₱1.2M, ₱4.0B.
// A value that rounds up to 1000 of one unit moves to the next (₱999,950 is ₱1.0M).
func (f Formatter) Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	d := decimal.NewFromFloat(v)
	thousand := decimal.NewFromInt(1000)
	if d.Round(0).LessThan(thousand) {
		return sign + f.Currency + d.StringFixed(0)
	}
	var body string
	for i, u := range units {
		scaled := d.Div(decimal.New(1, u.exp)).Round(1)
		body = scaled.StringFixed(1) + u.suffix
		if i == len(units)-1 || scaled.LessThan(thousand) {
			break
		}
	}
	return sign + f.Currency + body
}

// Count renders a whole number with thousands separators
func Count(v float64) string {
	return printer.Sprintf("%d", int64(math.Round(v)))
}

// Percent renders a signed percentage with one decimal
func Percent(v float64) string {
	r := decimal.NewFromFloat(v).Round(1)
	if r.IsPositive() {
		return "+" + r.StringFixed(1) + "%"
	}
	return r.StringFixed(1) + "%"
}

// Abbreviate builds a short map label from a region name: the initials of a
// multi-word name, or the first three letters of a single word.
func Abbreviate(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '(' || r == ')'
	})
	switch len(words) {
	case 0:
		return ""
	case 1:
		r := []rune(words[0])
		if len(r) > 3 {
			r = r[:3]
		}
		return strings.ToUpper(string(r))
	}
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
	}
	return b.String()
}
