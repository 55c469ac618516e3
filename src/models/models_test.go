package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("zerodha")
	require.NoError(t, err)
	assert.Equal(t, FormatZerodha, f)

	f, err = ParseFormat(" Groww ")
	require.NoError(t, err)
	assert.Equal(t, FormatGroww, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatAuto, f)

	_, err = ParseFormat("upstox")
	assert.Error(t, err)
}

func TestIdentityKeyCanonicalDecimals(t *testing.T) {
	a := IdentityKey{Symbol: "tcs", Date: "2024-03-15", EntryPrice: decimal.RequireFromString("3400.00"), Size: decimal.NewFromInt(10)}
	b := IdentityKey{Symbol: "TCS", Date: "2024-03-15", EntryPrice: decimal.NewFromInt(3400), Size: decimal.RequireFromString("10.0")}

	assert.Equal(t, "TCS|2024-03-15|3400|10", a.String())
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Len(t, a.Hash(), 64)
}

func TestExternalRefKeys(t *testing.T) {
	ref := ExternalRef{Broker: FormatZerodha, ExternalID: "230405000123", ContentHash: "abc"}
	assert.Equal(t, []string{"ext:zerodha:230405000123"}, ref.Keys())

	fileRef := ExternalRef{Broker: FormatGroww, ContentHash: "def"}
	assert.Equal(t, []string{"hash:def"}, fileRef.Keys())
}

func TestRawRowFromAny(t *testing.T) {
	row := RawRowFromAny(map[string]any{
		"Symbol":   "TCS",
		"Quantity": float64(10),
		"Price":    3400.5,
		"Note":     nil,
	})
	assert.Equal(t, RawRow{"Symbol": "TCS", "Quantity": "10", "Price": "3400.5", "Note": ""}, row)
	assert.Equal(t, []string{"Note", "Price", "Quantity", "Symbol"}, row.SortedKeys())
}
