package processors

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
	"github.com/username/tradejournal/backend/src/security/validation"
)

// MaxPreviewLength bounds the row preview attached to an error detail.
const MaxPreviewLength = 120

// BuildReport aggregates one import call. withPnL/withoutPnL are counted over
// the accepted trades only.
func BuildReport(totalRows int, accepted []models.NormalizedTrade, skipped int, details []models.ErrorDetail) models.ImportReport {
	report := models.ImportReport{
		TotalRows:    totalRows,
		Imported:     len(accepted),
		Skipped:      skipped,
		Errors:       len(details),
		ErrorDetails: details,
	}
	for _, t := range accepted {
		if t.HasPnL() {
			report.WithPnL++
		} else {
			report.WithoutPnL++
		}
	}
	return report
}

// NewErrorDetail describes a rejected row. index is zero-based; the reported
// row number is one-based.
func NewErrorDetail(index int, row models.RawRow, reason error) models.ErrorDetail {
	return models.ErrorDetail{
		Row:        index + 1,
		Reason:     reason.Error(),
		Preview:    RowPreview(row),
		Suggestion: Suggestion(reason),
	}
}

// RowPreview renders the non-empty cells as sorted "key=value" pairs, truncated.
func RowPreview(row models.RawRow) string {
	parts := make([]string, 0, len(row))
	for _, k := range row.SortedKeys() {
		v := strings.TrimSpace(row[k])
		if v == "" {
			continue
		}
		parts = append(parts, k+"="+v)
	}
	preview := validation.SanitizePlainText(strings.Join(parts, ", "))
	if utf8.RuneCountInString(preview) > MaxPreviewLength {
		runes := []rune(preview)
		preview = string(runes[:MaxPreviewLength-3]) + "..."
	}
	return preview
}

// Suggestion maps a rejection reason to a remediation hint for the user.
func Suggestion(reason error) string {
	switch {
	case errors.Is(reason, columns.ErrMissingSymbol):
		return "Make sure the symbol or stock name column is filled in."
	case errors.Is(reason, columns.ErrMissingQuantity):
		return "Quantity must be a positive number; check the quantity column."
	case errors.Is(reason, columns.ErrMissingPrice):
		return "Provide a positive buy or sell price, or a buy/sell value with quantity."
	case errors.Is(reason, columns.ErrMissingDate):
		return "Add the buy date (or trade date) for this row."
	case errors.Is(reason, columns.ErrInvalidDate):
		return "Use dates like 15-03-2024, 15 Mar 2024 or 2024-03-15."
	default:
		return "Check that the file is an unmodified Zerodha or Groww export."
	}
}
