package printing

import (
	"html"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// LongDateLayout is the fixed, locale-independent date style used on documents.
const LongDateLayout = "January 2, 2006"

// currencySymbols holds the en-US display symbols. Codes not listed render
// as the ISO code followed by a no-break space.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "CN¥",
	"INR": "₹",
	"KRW": "₩",
	"ILS": "₪",
	"VND": "₫",
	"PHP": "₱",
	"CAD": "CA$",
	"AUD": "A$",
	"NZD": "NZ$",
	"HKD": "HK$",
	"MXN": "MX$",
	"BRL": "R$",
	"TWD": "NT$",
	"XAF": "FCFA",
	"XOF": "F CFA",
}

var titleCaser = cases.Title(language.English)

// FormatMoney formats amount in the given ISO 4217 currency, e.g. "$6,000.00".
// The number of fraction digits follows the currency's standard scale.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = "USD"
	}

	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}

	sign := ""
	if amount.Round(int32(scale)).IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}

	symbol, ok := currencySymbols[code]
	if !ok {
		symbol = code + "\u00a0"
	}
	return sign + symbol + groupThousands(amount.StringFixed(int32(scale)))
}

// groupThousands inserts comma separators into the integer part of a fixed
// decimal string.
func groupThousands(fixed string) string {
	intPart, fracPart, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatLongDate renders a calendar date as "January 2, 2006". Zero dates
// render as an empty string.
func FormatLongDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(LongDateLayout)
}

// FormatQuantity prints a quantity without trailing zeros.
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}

// multiline escapes s and turns newlines into <br> tags.
func multiline(s string) template.HTML {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = html.EscapeString(line)
	}
	return template.HTML(strings.Join(lines, "<br>"))
}

func statusLabel(status string) string {
	return titleCaser.String(status)
}
