package models

import (
	"fmt"
	"strings"
)

// BrokerFormat identifies the column layout and header conventions of one broker's export.
type BrokerFormat string

const (
	FormatZerodha BrokerFormat = "ZERODHA"
	FormatGroww   BrokerFormat = "GROWW"

	// FormatAuto asks the pipeline to infer the format row by row.
	FormatAuto BrokerFormat = "auto"
)

// DetectionOrder is the fixed priority in which extractors are tried when the format is inferred.
var DetectionOrder = []BrokerFormat{FormatZerodha, FormatGroww}

// ParseFormat accepts a caller-supplied format name (case-insensitive). Empty means auto.
func ParseFormat(s string) (BrokerFormat, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "AUTO":
		return FormatAuto, nil
	case string(FormatZerodha):
		return FormatZerodha, nil
	case string(FormatGroww):
		return FormatGroww, nil
	default:
		return "", fmt.Errorf("unknown broker format %q", s)
	}
}

// DisplayName is the human form used in notes and reports, e.g. "Zerodha".
func (f BrokerFormat) DisplayName() string {
	switch f {
	case FormatZerodha:
		return "Zerodha"
	case FormatGroww:
		return "Groww"
	default:
		return string(f)
	}
}

// Tag is the lowercase form stored in a trade's tag set.
func (f BrokerFormat) Tag() string {
	return strings.ToLower(f.DisplayName())
}
