package columns

import (
	"strings"
	"time"
)

// ISODate is the layout of every normalized trade date.
const ISODate = "2006-01-02"

// ParseDate tries layouts in order against the trimmed value and returns the
// date as YYYY-MM-DD. When the cell carries a time part ("15-03-2024 10:15"),
// the leading date is retried on its own.
func ParseDate(s string, layouts []string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if iso, ok := parseWith(s, layouts); ok {
		return iso, true
	}

	fields := strings.Fields(s)
	for n := len(fields) - 1; n >= 1; n-- {
		prefix := strings.Join(fields[:n], " ")
		if iso, ok := parseWith(prefix, layouts); ok {
			return iso, true
		}
	}
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return parseWith(s[:i], layouts)
	}
	return "", false
}

func parseWith(s string, layouts []string) (string, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(ISODate), true
		}
	}
	return "", false
}
