package parsers

import (
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
)

// Extractor turns one broker row into a candidate trade.
type Extractor interface {
	Format() models.BrokerFormat
	// IsDataRow is the row classifier: false for preamble, subtotal and disclaimer lines.
	IsDataRow(row models.RawRow) bool
	// Extract returns the candidate, or a rejection error when the row does not
	// fit this format. A rejection is not fatal; auto-detection moves on.
	Extract(row models.RawRow) (*models.ParsedCandidate, error)
}

// Outcome is the result of running a row through classification and extraction.
type Outcome struct {
	Candidate *models.ParsedCandidate
	// Skipped is set for non-data rows, which are dropped silently.
	Skipped bool
	// Err is the rejection reason of a data row that failed extraction.
	Err error
}

// ExtractRow classifies and extracts one row with the given extractors, tried in order.
// The first successful extraction wins. When every extractor classifies the row as
// non-data the row is skipped; otherwise the first data-classifying extractor's
// rejection is reported.
func ExtractRow(row models.RawRow, extractors []Extractor) Outcome {
	var firstErr error
	for _, ex := range extractors {
		if !ex.IsDataRow(row) {
			continue
		}
		candidate, err := ex.Extract(row)
		if err == nil {
			return Outcome{Candidate: candidate}
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		return Outcome{Skipped: true, Err: columns.ErrNotDataRow}
	}
	return Outcome{Err: firstErr}
}

// Classify reports whether row is a data row for format.
func Classify(row models.RawRow, format models.BrokerFormat) (bool, error) {
	ex, err := GetExtractor(format)
	if err != nil {
		return false, err
	}
	return ex.IsDataRow(row), nil
}
