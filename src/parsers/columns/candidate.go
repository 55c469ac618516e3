package columns

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/username/tradejournal/backend/src/models"
)

// Rejection reasons for rows that looked like data but could not be extracted.
var (
	ErrNotDataRow      = errors.New("not a data row")
	ErrMissingSymbol   = errors.New("symbol is missing")
	ErrMissingQuantity = errors.New("quantity is missing or not positive")
	ErrMissingPrice    = errors.New("no positive buy or sell price")
	ErrMissingDate     = errors.New("trade date is missing")
	ErrInvalidDate     = errors.New("trade date is not in a supported format")
)

// Fields are the raw values one format extractor resolved from a row.
type Fields struct {
	Symbol    string
	TradeDate string
	ExitDate  string
	Hint      string

	Quantity  decimal.Decimal
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	BuyValue  decimal.Decimal
	SellValue decimal.Decimal
	// Price is a side-less unit price (tradebook exports), assigned by Hint.
	Price decimal.Decimal

	RawBuyPrice  string
	RawSellPrice string

	ProfitLoss    decimal.Decimal
	HasProfitLoss bool
}

// IsSellHint reports whether a direction hint names the sell/short side.
func IsSellHint(hint string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	return h == "s" || strings.Contains(h, "sell") || strings.Contains(h, "short")
}

// Candidate derives missing prices and applies the validity gate shared by all formats:
// quantity > 0 and at least one of buy/sell price > 0.
func (f Fields) Candidate(format models.BrokerFormat) (*models.ParsedCandidate, error) {
	if strings.TrimSpace(f.Symbol) == "" {
		return nil, ErrMissingSymbol
	}
	if !f.Quantity.IsPositive() {
		return nil, ErrMissingQuantity
	}

	buy, sell := f.BuyPrice, f.SellPrice
	rawBuy, rawSell := f.RawBuyPrice, f.RawSellPrice

	if !buy.IsPositive() && !sell.IsPositive() && f.Price.IsPositive() {
		if IsSellHint(f.Hint) {
			sell = f.Price
		} else {
			buy = f.Price
		}
	}
	if !buy.IsPositive() && f.BuyValue.IsPositive() {
		buy = f.BuyValue.Div(f.Quantity)
	}
	if !sell.IsPositive() && f.SellValue.IsPositive() {
		sell = f.SellValue.Div(f.Quantity)
	}
	if !buy.IsPositive() && !sell.IsPositive() {
		return nil, ErrMissingPrice
	}

	if buy.IsPositive() && rawBuy == "" {
		rawBuy = buy.String()
	}
	if sell.IsPositive() && rawSell == "" {
		rawSell = sell.String()
	}

	c := &models.ParsedCandidate{
		Symbol:        strings.TrimSpace(f.Symbol),
		TradeDate:     f.TradeDate,
		ExitDate:      f.ExitDate,
		Quantity:      f.Quantity,
		BuyPrice:      positiveOrZero(buy),
		SellPrice:     positiveOrZero(sell),
		RawBuyPrice:   rawBuy,
		RawSellPrice:  rawSell,
		DirectionHint: f.Hint,
		Format:        format,
	}
	if f.HasProfitLoss {
		c.ProfitLoss = decimal.NewNullDecimal(f.ProfitLoss)
	}
	return c, nil
}

func positiveOrZero(d decimal.Decimal) decimal.Decimal {
	if d.IsPositive() {
		return d
	}
	return decimal.Zero
}
