// Package groww extracts trades from Groww P&L reports and order histories.
package groww

import (
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
)

// Extractor implements the parsers.Extractor interface for Groww exports.
type Extractor struct{}

// NewExtractor creates a new instance of the Groww extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Format() models.BrokerFormat { return models.FormatGroww }

// IsDataRow applies the strict marker rules: Groww names instruments in words,
// so a symbol without two consecutive letters is a stray cell.
func (e *Extractor) IsDataRow(row models.RawRow) bool {
	return markerRules.IsDataSymbol(columns.Text(row, symbolAliases))
}

// Extract resolves a candidate from a Groww row. The buy date (or the first
// available trade date) is mandatory.
func (e *Extractor) Extract(row models.RawRow) (*models.ParsedCandidate, error) {
	f := columns.Fields{
		Symbol:   columns.Text(row, symbolAliases),
		Hint:     columns.Text(row, directionAliases),
		Quantity: columns.Decimal(row, quantityAliases),
		Price:    columns.Decimal(row, priceAliases),

		BuyValue:  columns.Decimal(row, buyValueAliases),
		SellValue: columns.Decimal(row, sellValueAliases),
	}
	f.BuyPrice, f.RawBuyPrice = columns.DecimalWithRaw(row, buyPriceAliases)
	f.SellPrice, f.RawSellPrice = columns.DecimalWithRaw(row, sellPriceAliases)
	f.ProfitLoss, f.HasProfitLoss = columns.ParseDecimal(columns.Text(row, profitLossAliases))

	candidate, err := f.Candidate(models.FormatGroww)
	if err != nil {
		return nil, err
	}

	rawDate := columns.Text(row, buyDateAliases)
	if rawDate == "" {
		rawDate = columns.Text(row, sellDateAliases)
	}
	if rawDate == "" {
		return nil, columns.ErrMissingDate
	}
	iso, ok := NormalizeDate(rawDate)
	if !ok {
		return nil, columns.ErrInvalidDate
	}
	candidate.TradeDate = iso

	if rawExit := columns.Text(row, sellDateAliases); rawExit != "" {
		if exitISO, ok := NormalizeDate(rawExit); ok {
			candidate.ExitDate = exitISO
		}
	}
	return candidate, nil
}
