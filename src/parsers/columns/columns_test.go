package columns

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradejournal/backend/src/models"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"3400", "3400", true},
		{"₹ 1,23,456.50", "123456.5", true},
		{"Rs. 500", "500", true},
		{"(250.75)", "-250.75", true},
		{"-12", "-12", true},
		{"12.5%", "12.5", true},
		{"--", "0", false},
		{"N/A", "0", false},
		{"", "0", false},
		{"abc", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDecimal(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestTextUsesAliasOrderThenFoldedMatch(t *testing.T) {
	row := models.RawRow{"Symbol": "", "Tradingsymbol": "INFY", "buy  price": "1500"}

	assert.Equal(t, "INFY", Text(row, Aliases{"Symbol", "Tradingsymbol"}))
	assert.Equal(t, "1500", Text(row, Aliases{"Buy Price"}))
	assert.Equal(t, "", Text(row, Aliases{"Quantity"}))
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "Buy Price", NormalizeHeader("\ufeff  Buy\r\n  Price "))
	assert.Equal(t, "Qty", NormalizeHeader("Q\x00ty"))
}

func TestMarkerRules(t *testing.T) {
	loose := MarkerRules{Extra: []string{"Particulars"}}
	strict := MarkerRules{Strict: true}

	assert.True(t, loose.IsDataSymbol("TCS"))
	assert.False(t, loose.IsDataSymbol(""))
	assert.False(t, loose.IsDataSymbol("Total"))
	assert.False(t, loose.IsDataSymbol("Realised P&L Summary"))
	assert.False(t, loose.IsDataSymbol("Particulars"))
	assert.False(t, loose.IsDataSymbol("12345"))
	// markers are case-sensitive
	assert.True(t, loose.IsDataSymbol("TOTALENERGY"))

	assert.True(t, loose.IsDataSymbol("M&M"))
	assert.False(t, strict.IsDataSymbol("M&M"))
	assert.True(t, strict.IsDataSymbol("Tata Motors"))
}

func TestParseDate(t *testing.T) {
	layouts := []string{"2006-01-02", "02-01-2006"}

	got, ok := ParseDate("15-03-2024", layouts)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", got)

	got, ok = ParseDate("2024-03-15 09:15:02", layouts)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", got)

	got, ok = ParseDate("2024-03-15T09:15:02", layouts)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", got)

	_, ok = ParseDate("March fifteenth", layouts)
	assert.False(t, ok)
}

func TestCandidateDerivesPriceFromValue(t *testing.T) {
	f := Fields{
		Symbol:   "TCS",
		Quantity: decimal.NewFromInt(100),
		BuyValue: decimal.NewFromInt(10000),
	}
	c, err := f.Candidate(models.FormatZerodha)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(c.BuyPrice))
	assert.Equal(t, "100", c.RawBuyPrice)
	assert.True(t, c.SellPrice.IsZero())
}

func TestCandidateGate(t *testing.T) {
	_, err := Fields{Symbol: "TCS", Quantity: decimal.Zero, BuyPrice: decimal.NewFromInt(10)}.Candidate(models.FormatZerodha)
	assert.ErrorIs(t, err, ErrMissingQuantity)

	_, err = Fields{Symbol: "TCS", Quantity: decimal.NewFromInt(-5), BuyPrice: decimal.NewFromInt(10)}.Candidate(models.FormatZerodha)
	assert.ErrorIs(t, err, ErrMissingQuantity)

	_, err = Fields{Symbol: "TCS", Quantity: decimal.NewFromInt(5)}.Candidate(models.FormatZerodha)
	assert.ErrorIs(t, err, ErrMissingPrice)

	_, err = Fields{Quantity: decimal.NewFromInt(5), BuyPrice: decimal.NewFromInt(10)}.Candidate(models.FormatZerodha)
	assert.ErrorIs(t, err, ErrMissingSymbol)
}

func TestCandidateAssignsGenericPriceByHint(t *testing.T) {
	c, err := Fields{Symbol: "SBIN", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(700), Hint: "SELL"}.Candidate(models.FormatZerodha)
	require.NoError(t, err)
	assert.True(t, c.BuyPrice.IsZero())
	assert.True(t, decimal.NewFromInt(700).Equal(c.SellPrice))

	c, err = Fields{Symbol: "SBIN", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(700), Hint: "buy"}.Candidate(models.FormatZerodha)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(700).Equal(c.BuyPrice))
}
