package processors

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradejournal/backend/src/models"
)

var refDate = time.Date(2024, 4, 2, 16, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassifyCategory(t *testing.T) {
	tests := []struct {
		symbol string
		want   models.Category
	}{
		{"NIFTY24JUNFUT", models.CategoryFutures},
		{"BANKNIFTY 24 JUN FUTURE", models.CategoryFutures},
		{"RELIANCE", models.CategoryEquity},
		{"TCS", models.CategoryEquity},
		{"BANKNIFTY24500CE", models.CategoryOptions},
		{"NIFTY24JUN22000PE", models.CategoryOptions},
		{"NIFTY 22000 CALL", models.CategoryOptions},
		{"NIFTY24JUN22000OPT", models.CategoryOptions},
		{"HDFC Bank", models.CategoryEquity},
		{"ACE", models.CategoryEquity},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyCategory(tt.symbol))
		})
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	c := &models.ParsedCandidate{
		Symbol:       "TCS",
		Quantity:     dec("10"),
		BuyPrice:     dec("3400"),
		SellPrice:    dec("3450"),
		RawBuyPrice:  "3400",
		RawSellPrice: "3450",
		ProfitLoss:   decimal.NewNullDecimal(dec("500")),
		Format:       models.FormatZerodha,
	}

	trade := NewTradeNormalizer().Normalize(c, models.SourceFile, refDate)

	assert.True(t, dec("3400").Equal(trade.EntryPrice))
	require.True(t, trade.ExitPrice.Valid)
	assert.True(t, dec("3450").Equal(trade.ExitPrice.Decimal))
	assert.True(t, dec("10").Equal(trade.PositionSize))
	assert.Equal(t, models.PositionLong, trade.PositionType)
	require.True(t, trade.HasPnL())
	assert.True(t, dec("500").Equal(trade.ProfitLoss.Decimal))
	assert.Equal(t, models.CategoryEquity, trade.Category)
	assert.Equal(t, []string{"zerodha", "equity"}, trade.Tags)
	assert.Equal(t, "Imported from Zerodha | category: equity | buy: 3400 | sell: 3450", trade.Notes)
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), trade.EntryDate)
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, trade.IdentityKey().Hash(), trade.ExternalRef.ContentHash)
}

func TestNormalizeZeroPnLIsAbsent(t *testing.T) {
	c := &models.ParsedCandidate{
		Symbol:     "INFY",
		Quantity:   dec("5"),
		BuyPrice:   dec("1500"),
		ProfitLoss: decimal.NewNullDecimal(decimal.Zero),
		Format:     models.FormatZerodha,
	}

	trade := NewTradeNormalizer().Normalize(c, models.SourceFile, refDate)
	assert.False(t, trade.HasPnL())
}

func TestNormalizeSellOnlyUsesHint(t *testing.T) {
	c := &models.ParsedCandidate{
		Symbol:        "NIFTY24JUNFUT",
		TradeDate:     "2024-03-15",
		Quantity:      dec("50"),
		SellPrice:     dec("22500"),
		DirectionHint: "SELL",
		Format:        models.FormatGroww,
	}
	trade := NewTradeNormalizer().Normalize(c, models.SourceFile, refDate)

	assert.True(t, dec("22500").Equal(trade.EntryPrice))
	assert.False(t, trade.ExitPrice.Valid)
	assert.Nil(t, trade.ExitDate)
	assert.Equal(t, models.PositionShort, trade.PositionType)
	assert.Equal(t, models.CategoryFutures, trade.Category)
	assert.Equal(t, []string{"groww", "futures", "f&o"}, trade.Tags)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), trade.EntryDate)
}

func TestNormalizeLosingRoundTripIsShort(t *testing.T) {
	c := &models.ParsedCandidate{
		Symbol:    "BANKNIFTY24500CE",
		TradeDate: "2024-03-15",
		ExitDate:  "2024-03-20",
		Quantity:  dec("15"),
		BuyPrice:  dec("210"),
		SellPrice: dec("180"),
		Format:    models.FormatGroww,
	}

	trade := NewTradeNormalizer().Normalize(c, models.SourceFile, refDate)

	assert.Equal(t, models.PositionShort, trade.PositionType)
	assert.Equal(t, models.CategoryOptions, trade.Category)
	require.NotNil(t, trade.ExitDate)
	assert.Equal(t, "2024-03-20", trade.ExitDate.Format("2006-01-02"))
	assert.Contains(t, trade.Tags, "f&o")
}

func TestNormalizeKeepsAmpersandSymbols(t *testing.T) {
	c := &models.ParsedCandidate{Symbol: "M&M", Quantity: dec("1"), BuyPrice: dec("1800"), Format: models.FormatZerodha}

	trade := NewTradeNormalizer().Normalize(c, models.SourceFile, refDate)
	assert.Equal(t, "M&M", trade.Symbol)
}
