// Package zerodha extracts trades from Zerodha Console P&L statements and tradebooks.
package zerodha

import (
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
)

// Extractor implements the parsers.Extractor interface for Zerodha exports.
type Extractor struct{}

// NewExtractor creates a new instance of the Zerodha extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Format() models.BrokerFormat { return models.FormatZerodha }

// IsDataRow filters preamble, section headings and charge lines.
func (e *Extractor) IsDataRow(row models.RawRow) bool {
	return markerRules.IsDataSymbol(columns.Text(row, symbolAliases))
}

// Extract resolves a candidate from a Zerodha row. P&L statements carry no trade
// date, so the date is optional; a date that is present must parse.
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

	candidate, err := f.Candidate(models.FormatZerodha)
	if err != nil {
		return nil, err
	}

	if raw := columns.Text(row, dateAliases); raw != "" {
		iso, ok := columns.ParseDate(raw, dateLayouts)
		if !ok {
			return nil, columns.ErrInvalidDate
		}
		candidate.TradeDate = iso
	}
	if raw := columns.Text(row, exitDateAliases); raw != "" {
		if iso, ok := columns.ParseDate(raw, dateLayouts); ok {
			candidate.ExitDate = iso
		}
	}
	return candidate, nil
}
