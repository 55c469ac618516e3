// Package columns resolves logical fields from loosely-structured broker rows.
//
// Every logical field is described by an ordered list of header spellings that
// brokers have used over time. Lookups take the first alias whose cell is
// non-empty; when no alias matches exactly, the same list is retried ignoring
// case and whitespace.
package columns

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/tradejournal/backend/src/models"
)

// Aliases is an ordered list of header spellings for one logical field.
type Aliases []string

var spaceRun = regexp.MustCompile(`\s+`)

// NormalizeHeader trims a header, drops unprintable characters and collapses
// internal whitespace runs to a single space.
func NormalizeHeader(h string) string {
	h = strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', '\t':
			return ' '
		case '\ufeff':
			return -1
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, h)
	return strings.TrimSpace(spaceRun.ReplaceAllString(h, " "))
}

func foldKey(h string) string {
	return strings.ToLower(spaceRun.ReplaceAllString(strings.TrimSpace(h), ""))
}

// Text returns the first non-empty trimmed cell among aliases, or "".
func Text(row models.RawRow, aliases Aliases) string {
	for _, a := range aliases {
		if v, ok := row[a]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}

	folded := make(map[string]string, len(row))
	for k, v := range row {
		fk := foldKey(k)
		if _, seen := folded[fk]; !seen || strings.TrimSpace(folded[fk]) == "" {
			folded[fk] = v
		}
	}
	for _, a := range aliases {
		if v, ok := folded[foldKey(a)]; ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// Decimal resolves a numeric field. Missing or unparseable cells yield zero.
func Decimal(row models.RawRow, aliases Aliases) decimal.Decimal {
	d, _ := ParseDecimal(Text(row, aliases))
	return d
}

// DecimalWithRaw is Decimal that also returns the raw cell text.
func DecimalWithRaw(row models.RawRow, aliases Aliases) (decimal.Decimal, string) {
	raw := Text(row, aliases)
	d, _ := ParseDecimal(raw)
	return d, raw
}

var currencyNoise = strings.NewReplacer(
	"₹", "", "Rs.", "", "Rs", "", "INR", "", "$", "", "€", "",
	",", "", " ", "", "\u00a0", "", "'", "",
)

// ParseDecimal cleans a broker-formatted number: currency symbols, thousands
// separators and spaces are dropped and "(x)" means -x. Dashes and NA-style
// placeholders parse as zero with ok=false.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	switch strings.ToUpper(s) {
	case "-", "--", "NA", "N/A", "NIL", "NULL", "NAN":
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyNoise.Replace(s)
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
