package parsers

import (
	"fmt"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/groww"
	"github.com/username/tradejournal/backend/src/parsers/zerodha"
)

// GetExtractor returns the extractor for a concrete broker format.
func GetExtractor(format models.BrokerFormat) (Extractor, error) {
	switch format {
	case models.FormatZerodha:
		return zerodha.NewExtractor(), nil
	case models.FormatGroww:
		return groww.NewExtractor(), nil
	default:
		return nil, fmt.Errorf("no extractor available for format: %s", format)
	}
}

// ExtractorsFor returns the extractors to try for format. FormatAuto yields every
// known extractor in detection priority order.
func ExtractorsFor(format models.BrokerFormat) ([]Extractor, error) {
	if format != models.FormatAuto {
		ex, err := GetExtractor(format)
		if err != nil {
			return nil, err
		}
		return []Extractor{ex}, nil
	}
	out := make([]Extractor, 0, len(models.DetectionOrder))
	for _, f := range models.DetectionOrder {
		ex, err := GetExtractor(f)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}
