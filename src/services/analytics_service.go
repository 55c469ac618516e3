// backend/src/services/analytics_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
)

const (
	ckEquityCurve          = "agg_equity_curve_user_%d:"
	ckWinRate              = "agg_win_rate_user_%d:"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type analyticsServiceImpl struct {
	db          *sql.DB
	reportCache *cache.Cache
	currency    string
}

// NewAnalyticsService builds the analytics service. currency is an ISO code used
// only for display strings.
func NewAnalyticsService(db *sql.DB, reportCache *cache.Cache, currency string) AnalyticsService {
	if currency == "" {
		currency = money.INR
	}
	return &analyticsServiceImpl{db: db, reportCache: reportCache, currency: currency}
}

// GetEquityCurve returns the daily realized P&L series of trades entered within r.
func (s *analyticsServiceImpl) GetEquityCurve(ctx context.Context, userID int64, r models.DateRange) ([]EquityPoint, error) {
	cacheKey := fmt.Sprintf(ckEquityCurve, userID) + r.Key()
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.([]EquityPoint), nil
	}

	trades, err := model.GetTradesInRange(ctx, s.db, userID, r)
	if err != nil {
		return nil, err
	}

	// Trades arrive ordered by entry date, so days come out in order.
	points := []EquityPoint{}
	cumulative := decimal.Zero
	var (
		day   string
		daily decimal.Decimal
	)
	flush := func() {
		if day == "" {
			return
		}
		cumulative = cumulative.Add(daily)
		points = append(points, EquityPoint{Date: day, DailyPnL: daily.StringFixed(2), Cumulative: cumulative.StringFixed(2)})
	}
	for _, t := range trades {
		if !t.HasPnL() {
			continue
		}
		d := t.EntryDate.UTC().Format("2006-01-02")
		if d != day {
			flush()
			day, daily = d, decimal.Zero
		}
		daily = daily.Add(t.ProfitLoss.Decimal)
	}
	flush()

	s.reportCache.Set(cacheKey, points, cache.DefaultExpiration)
	logger.FromContext(ctx).Debug("Equity curve computed", "points", len(points))
	return points, nil
}

func (s *analyticsServiceImpl) GetWinRate(ctx context.Context, userID int64, r models.DateRange) (*WinRateSummary, error) {
	cacheKey := fmt.Sprintf(ckWinRate, userID) + r.Key()
	if cached, found := s.reportCache.Get(cacheKey); found {
		return cached.(*WinRateSummary), nil
	}

	trades, err := model.GetTradesInRange(ctx, s.db, userID, r)
	if err != nil {
		return nil, err
	}
	summary := Summarize(trades, s.currency)
	summary.LastCalculated = time.Now().UTC().Format(time.RFC3339)

	s.reportCache.Set(cacheKey, summary, cache.DefaultExpiration)
	return summary, nil
}

// Summarize aggregates wins and losses over trades with known P&L. A trade with
// zero P&L counts neither way.
func Summarize(trades []models.NormalizedTrade, currency string) *WinRateSummary {
	var (
		wins, losses      int
		withPnL           int
		total, sumW, sumL decimal.Decimal
	)
	for _, t := range trades {
		if !t.HasPnL() {
			continue
		}
		withPnL++
		pnl := t.ProfitLoss.Decimal
		total = total.Add(pnl)
		switch {
		case pnl.IsPositive():
			wins++
			sumW = sumW.Add(pnl)
		case pnl.IsNegative():
			losses++
			sumL = sumL.Add(pnl)
		}
	}

	summary := &WinRateSummary{
		TotalTrades:   len(trades),
		TradesWithPnL: withPnL,
		Wins:          wins,
		Losses:        losses,
		TotalPnL:      total.StringFixed(2),
		TotalPnLText:  DisplayAmount(total, currency),
		AverageWin:    "0.00",
		AverageLoss:   "0.00",
		Currency:      currency,
	}
	if decided := wins + losses; decided > 0 {
		rate, _ := decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(decided))).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		summary.WinRate = rate
	}
	if wins > 0 {
		summary.AverageWin = sumW.Div(decimal.NewFromInt(int64(wins))).StringFixed(2)
	}
	if losses > 0 {
		summary.AverageLoss = sumL.Div(decimal.NewFromInt(int64(losses))).StringFixed(2)
	}
	return summary
}

// DisplayAmount formats amount in the currency's minor units, e.g. "₹1,234.50".
func DisplayAmount(amount decimal.Decimal, currency string) string {
	cur := money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), currency).Display()
}

// InvalidateUserCache drops every cached view of the user, whatever its date range.
func (s *analyticsServiceImpl) InvalidateUserCache(userID int64) {
	prefixes := []string{fmt.Sprintf(ckEquityCurve, userID), fmt.Sprintf(ckWinRate, userID)}
	removed := 0
	for key := range s.reportCache.Items() {
		for _, p := range prefixes {
			if strings.HasPrefix(key, p) {
				s.reportCache.Delete(key)
				removed++
				break
			}
		}
	}
	logger.L.Debug("Analytics cache invalidated", "userID", userID, "entries", removed)
}

type tradeServiceImpl struct {
	db        *sql.DB
	analytics AnalyticsService
}

func NewTradeService(db *sql.DB, analytics AnalyticsService) TradeService {
	return &tradeServiceImpl{db: db, analytics: analytics}
}

func (s *tradeServiceImpl) ListTrades(ctx context.Context, userID int64, filter models.TradeFilter) ([]models.NormalizedTrade, error) {
	return model.ListTrades(ctx, s.db, userID, filter.Paged())
}

func (s *tradeServiceImpl) ExportTrades(ctx context.Context, userID int64, filter models.TradeFilter) ([]models.NormalizedTrade, error) {
	filter.Page, filter.PageSize = 0, 0
	return model.ListTrades(ctx, s.db, userID, filter)
}

func (s *tradeServiceImpl) DeleteTrades(ctx context.Context, userID int64) (int64, error) {
	n, err := model.DeleteTradesByUserID(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	if s.analytics != nil {
		s.analytics.InvalidateUserCache(userID)
	}
	logger.FromContext(ctx).Info("Trades deleted", "count", n)
	return n, nil
}
