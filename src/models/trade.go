package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PositionType is the direction of a trade.
type PositionType string

const (
	PositionLong  PositionType = "long"
	PositionShort PositionType = "short"
)

// Category is derived from the lexical shape of the symbol.
type Category string

const (
	CategoryEquity  Category = "equity"
	CategoryFutures Category = "futures"
	CategoryOptions Category = "options"
)

// IsDerivative reports whether the category belongs to the F&O segment.
func (c Category) IsDerivative() bool {
	return c == CategoryFutures || c == CategoryOptions
}

// Trade sources.
const (
	SourceFile = "file"
	SourceSync = "sync"
)

// ParsedCandidate is the output of a format extractor before normalization.
// Invariant: Quantity > 0 and at least one of BuyPrice, SellPrice > 0.
type ParsedCandidate struct {
	Symbol    string
	TradeDate string // YYYY-MM-DD, empty when the format carries no date
	ExitDate  string // YYYY-MM-DD, optional

	Quantity  decimal.Decimal
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal

	// Raw price cells as read from the source, kept for the provenance note.
	RawBuyPrice  string
	RawSellPrice string

	ProfitLoss    decimal.NullDecimal
	DirectionHint string
	Format        BrokerFormat

	// ExternalID is the broker's native order id (API sync only).
	ExternalID string
}

// NormalizedTrade is the persisted, canonical trade record.
type NormalizedTrade struct {
	ID           string              `json:"id"`
	UserID       int64               `json:"user_id"`
	Symbol       string              `json:"symbol"`
	TradeDate    string              `json:"trade_date,omitempty"`
	EntryDate    time.Time           `json:"entry_date"`
	ExitDate     *time.Time          `json:"exit_date,omitempty"`
	EntryPrice   decimal.Decimal     `json:"entry_price"`
	ExitPrice    decimal.NullDecimal `json:"exit_price"`
	PositionSize decimal.Decimal     `json:"position_size"`
	PositionType PositionType        `json:"position_type"`
	Category     Category            `json:"category"`
	ProfitLoss   decimal.NullDecimal `json:"profit_loss"`
	Notes        string              `json:"notes"`
	Tags         []string            `json:"tags"`
	Broker       BrokerFormat        `json:"broker"`
	Source       string              `json:"source"`
	ExternalRef  ExternalRef         `json:"external_ref"`
	CreatedAt    time.Time           `json:"created_at,omitempty"`
}

// HasPnL reports whether realized P&L is known for the trade.
func (t NormalizedTrade) HasPnL() bool {
	return t.ProfitLoss.Valid
}

// IdentityKey is the composite identity of a file-imported trade.
type IdentityKey struct {
	Symbol     string
	Date       string
	EntryPrice decimal.Decimal
	Size       decimal.Decimal
}

// IdentityKey returns the composite key of the trade. The date is the source
// trade date, so dateless exports stay stable across import days.
func (t NormalizedTrade) IdentityKey() IdentityKey {
	return IdentityKey{
		Symbol:     t.Symbol,
		Date:       t.TradeDate,
		EntryPrice: t.EntryPrice,
		Size:       t.PositionSize,
	}
}

// String is the canonical text form; decimals are rounded to 8 places and
// printed without trailing zeros so "3400" and "3400.00" agree.
func (k IdentityKey) String() string {
	return strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(k.Symbol)),
		k.Date,
		k.EntryPrice.Round(8).String(),
		k.Size.Round(8).String(),
	}, "|")
}

// Hash is the sha256 hex digest of String.
func (k IdentityKey) Hash() string {
	sum := sha256.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:])
}

// ExternalRef is the explicit external reference stored with every trade.
// Both intake paths fill ContentHash; API syncs also set the broker's order id,
// which then is the only identity of the trade.
type ExternalRef struct {
	Broker      BrokerFormat `json:"broker"`
	ExternalID  string       `json:"external_id,omitempty"`
	ContentHash string       `json:"content_hash"`
}

// Keys returns the membership keys checked by the reconciler. The content hash
// is only a fallback for trades without a broker order id.
func (r ExternalRef) Keys() []string {
	switch {
	case r.ExternalID != "":
		return []string{ExternalIDKey(r.Broker, r.ExternalID)}
	case r.ContentHash != "":
		return []string{ContentHashKey(r.ContentHash)}
	default:
		return nil
	}
}

// ExternalIDKey builds the key for a broker-native identifier.
func ExternalIDKey(broker BrokerFormat, id string) string {
	return "ext:" + strings.ToLower(string(broker)) + ":" + id
}

// ContentHashKey builds the key for a content hash.
func ContentHashKey(hash string) string {
	return "hash:" + hash
}

// KeySet is a snapshot of identity keys already stored for one user.
type KeySet map[string]struct{}

// NewKeySet builds a KeySet from keys.
func NewKeySet(keys ...string) KeySet {
	s := make(KeySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s KeySet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Add inserts key.
func (s KeySet) Add(key string) {
	s[key] = struct{}{}
}
