package groww

import "github.com/username/tradejournal/backend/src/parsers/columns"

// Groww exports write dates either as DD-MM-YYYY or as "D MMM YYYY".
var dateLayouts = []string{
	"02-01-2006",
	"2-1-2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// NormalizeDate converts a Groww date cell to YYYY-MM-DD.
func NormalizeDate(s string) (string, bool) {
	return columns.ParseDate(s, dateLayouts)
}
