package processors

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
	"github.com/username/tradejournal/backend/src/security/validation"
)

// TagFNO marks futures and options trades.
const TagFNO = "f&o"

var (
	symbolTokenSplit = regexp.MustCompile(`[^A-Z0-9]+`)
	optionStrike     = regexp.MustCompile(`\d(CE|PE|CALL|PUT|OPT)$`)
	optionTokens     = map[string]bool{"CE": true, "PE": true, "CALL": true, "PUT": true, "OPT": true, "OPTIDX": true, "OPTSTK": true}
	futureTokens     = map[string]bool{"FUT": true, "FUTURE": true, "FUTURES": true, "FUTIDX": true, "FUTSTK": true}
)

// TradeNormalizer maps parsed candidates onto the canonical trade record.
type TradeNormalizer struct{}

func NewTradeNormalizer() *TradeNormalizer { return &TradeNormalizer{} }

// Normalize builds the trade for candidate. now is the reference date used as
// entry date when the source carries no trade date.
func (n *TradeNormalizer) Normalize(c *models.ParsedCandidate, source string, now time.Time) models.NormalizedTrade {
	buy, sell := c.BuyPrice, c.SellPrice
	symbol := validation.SanitizePlainText(strings.TrimSpace(c.Symbol))
	category := ClassifyCategory(symbol)

	trade := models.NormalizedTrade{
		ID:           uuid.NewString(),
		Symbol:       symbol,
		TradeDate:    c.TradeDate,
		EntryDate:    entryDate(c.TradeDate, now),
		PositionSize: c.Quantity.Abs(),
		PositionType: positionType(buy, sell, c.DirectionHint),
		Category:     category,
		Tags:         buildTags(c.Format, category),
		Broker:       c.Format,
		Source:       source,
	}

	if buy.IsPositive() {
		trade.EntryPrice = buy
	} else {
		trade.EntryPrice = sell
	}
	if buy.IsPositive() && sell.IsPositive() {
		trade.ExitPrice = decimal.NewNullDecimal(sell)
		if c.ExitDate != "" {
			if t, err := time.Parse(columns.ISODate, c.ExitDate); err == nil {
				trade.ExitDate = &t
			}
		}
	}
	if c.ProfitLoss.Valid && !c.ProfitLoss.Decimal.IsZero() {
		trade.ProfitLoss = c.ProfitLoss
	}

	trade.Notes = validation.SanitizePlainText(fmt.Sprintf("Imported from %s | category: %s | buy: %s | sell: %s",
		c.Format.DisplayName(), category, c.RawBuyPrice, c.RawSellPrice))

	trade.ExternalRef = models.ExternalRef{
		Broker:      c.Format,
		ExternalID:  c.ExternalID,
		ContentHash: trade.IdentityKey().Hash(),
	}
	return trade
}

// ClassifyCategory derives the instrument category from the symbol's shape.
// "NIFTY24JUNFUT" is futures, "BANKNIFTY24500CE" and "NIFTY 22000 PE" are
// options, "RELIANCE" is equity.
func ClassifyCategory(symbol string) models.Category {
	tokens := symbolTokenSplit.Split(strings.ToUpper(symbol), -1)

	for _, tok := range tokens {
		if futureTokens[tok] || hasAnySuffix(tok, "FUT", "FUTURE", "FUTURES") {
			return models.CategoryFutures
		}
	}
	for _, tok := range tokens {
		if optionTokens[tok] || optionStrike.MatchString(tok) {
			return models.CategoryOptions
		}
	}
	return models.CategoryEquity
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

func positionType(buy, sell decimal.Decimal, hint string) models.PositionType {
	if buy.IsPositive() && sell.IsPositive() {
		if buy.LessThan(sell) {
			return models.PositionLong
		}
		return models.PositionShort
	}
	if columns.IsSellHint(hint) {
		return models.PositionShort
	}
	return models.PositionLong
}

func buildTags(format models.BrokerFormat, category models.Category) []string {
	tags := []string{format.Tag(), string(category)}
	if category.IsDerivative() {
		tags = append(tags, TagFNO)
	}
	return tags
}

func entryDate(tradeDate string, now time.Time) time.Time {
	if tradeDate != "" {
		if t, err := time.Parse(columns.ISODate, tradeDate); err == nil {
			return t
		}
	}
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
