package columns

import (
	"strings"
	"unicode"
)

// NonDataMarkers are literal substrings that only appear in the symbol column of
// preamble, subtotal and disclaimer lines. The check is case-sensitive.
var NonDataMarkers = []string{
	"Summary",
	"Statement",
	"Realised",
	"Realized",
	"Charges",
	"Total",
	"Disclaimer",
	"Exchange",
	"SEBI",
	"STT",
	"Stamp",
	"IPFT",
	"Brokerage",
	"GST",
	"Unique Client",
}

// MarkerRules configures the non-data checks for one broker format.
type MarkerRules struct {
	// Extra markers on top of NonDataMarkers.
	Extra []string
	// Strict additionally requires two consecutive letters in the symbol.
	Strict bool
}

// IsDataSymbol reports whether symbol looks like a tradable instrument under rules.
func (rules MarkerRules) IsDataSymbol(symbol string) bool {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return false
	}
	if containsAny(symbol, NonDataMarkers) || containsAny(symbol, rules.Extra) {
		return false
	}
	if isNumeric(symbol) {
		return false
	}
	if rules.Strict && !hasLetterRun(symbol, 2) {
		return false
	}
	return true
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// isNumeric is true for values such as "1", "12.50" or "1,234".
func isNumeric(s string) bool {
	_, ok := ParseDecimal(s)
	if !ok {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func hasLetterRun(s string, n int) bool {
	run := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			run++
			if run >= n {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}
