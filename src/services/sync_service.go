// backend/src/services/sync_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/tradejournal/backend/src/clients/kite"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/columns"
	"github.com/username/tradejournal/backend/src/processors"
)

// BrokerAPI is the subset of the Kite client the sync path calls.
type BrokerAPI interface {
	Orders(ctx context.Context) ([]kite.Order, error)
	Positions(ctx context.Context) (*kite.Positions, error)
}

// ClientFactory builds an authenticated BrokerAPI for one set of credentials.
type ClientFactory func(creds models.Credentials) (BrokerAPI, error)

// KiteClientFactory returns a ClientFactory for the Kite REST API at baseURL.
func KiteClientFactory(baseURL string, timeout time.Duration) ClientFactory {
	return func(creds models.Credentials) (BrokerAPI, error) {
		return kite.NewClient(baseURL, creds, timeout)
	}
}

// PositionLookup is the best-effort realised P&L index of a sync call.
// When Available is false every candidate is imported without P&L.
type PositionLookup struct {
	Available bool
	pnl       map[positionKey]decimal.Decimal
}

type positionKey struct {
	symbol, exchange, product string
}

// NewPositionLookup indexes realised P&L by (symbol, exchange, product).
func NewPositionLookup(p *kite.Positions) PositionLookup {
	if p == nil {
		return PositionLookup{}
	}
	lookup := PositionLookup{Available: true, pnl: make(map[positionKey]decimal.Decimal)}
	// Net positions carry the settled figure; day positions only fill gaps.
	for _, list := range [][]kite.Position{p.Net, p.Day} {
		for _, pos := range list {
			key := positionKey{strings.ToUpper(pos.TradingSymbol), strings.ToUpper(pos.Exchange), strings.ToUpper(pos.Product)}
			if _, seen := lookup.pnl[key]; seen {
				continue
			}
			if v, ok := pos.RealisedPnL(); ok {
				lookup.pnl[key] = v
			}
		}
	}
	return lookup
}

// take returns the P&L for the order's position once; later orders of the same
// position get nothing so the figure is not counted twice.
func (l PositionLookup) take(o kite.Order) (decimal.Decimal, bool) {
	if !l.Available {
		return decimal.Zero, false
	}
	key := positionKey{strings.ToUpper(o.TradingSymbol), strings.ToUpper(o.Exchange), strings.ToUpper(o.Product)}
	v, ok := l.pnl[key]
	if ok {
		delete(l.pnl, key)
	}
	return v, ok
}

type syncServiceImpl struct {
	db        *sql.DB
	sealer    model.TokenSealer
	pipeline  *processors.ImportPipeline
	locker    UserLocker
	analytics AnalyticsService
	newClient ClientFactory
	now       Clock
}

func NewSyncService(db *sql.DB, sealer model.TokenSealer, pipeline *processors.ImportPipeline, locker UserLocker, analytics AnalyticsService, newClient ClientFactory) SyncService {
	return &syncServiceImpl{
		db:        db,
		sealer:    sealer,
		pipeline:  pipeline,
		locker:    locker,
		analytics: analytics,
		newClient: newClient,
		now:       time.Now,
	}
}

func (s *syncServiceImpl) SyncOrders(ctx context.Context, userID int64, creds *models.Credentials) (*models.ImportReport, error) {
	log := logger.FromContext(ctx)

	resolved, stored, err := s.resolveCredentials(ctx, userID, creds)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	client, err := s.newClient(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	orders, err := client.Orders(ctx)
	if err != nil {
		if errors.Is(err, kite.ErrTokenRejected) {
			log.Warn("Broker rejected access token", "error", err)
			s.markFailed(ctx, userID, stored, models.ConnectionReconnectRequired)
			return nil, ErrReconnectRequired
		}
		log.Error("Failed to fetch broker orders", "error", err)
		s.markFailed(ctx, userID, stored, models.ConnectionActive)
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}

	lookup := PositionLookup{}
	if positions, posErr := client.Positions(ctx); posErr != nil {
		log.Warn("Positions unavailable, importing orders without P&L", "error", posErr)
	} else {
		lookup = NewPositionLookup(positions)
	}

	existing, err := model.GetTradeKeys(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing trades: %w", err)
	}
	candidates, details := OrdersToCandidates(orders, lookup, existing)
	result := s.pipeline.Finish(len(orders), candidates, details, existing, models.SourceSync, s.now())
	result.Report.Format = models.FormatZerodha

	if err := persistResult(ctx, s.db, s.analytics, userID, result, models.SourceSync, ""); err != nil {
		return nil, err
	}
	if stored {
		if err := model.MarkConnectionSynced(ctx, s.db, userID, models.FormatZerodha, s.now().UTC()); err != nil {
			log.Warn("Failed to mark connection synced", "error", err)
		}
	}

	report := result.Report
	log.Info("Broker sync finished", "orders", len(orders), "imported", report.Imported,
		"skipped", report.Skipped, "errors", report.Errors, "positionsAvailable", lookup.Available)
	return &report, nil
}

// resolveCredentials prefers complete request credentials and falls back to the
// stored connection. stored reports whether the stored connection is in use.
func (s *syncServiceImpl) resolveCredentials(ctx context.Context, userID int64, creds *models.Credentials) (models.Credentials, bool, error) {
	if creds != nil && creds.Complete() {
		return *creds, false, nil
	}
	conn, err := model.GetConnection(ctx, s.db, s.sealer, userID, models.FormatZerodha)
	if err != nil {
		if errors.Is(err, model.ErrConnectionNotFound) {
			return models.Credentials{}, false, ErrNotConnected
		}
		return models.Credentials{}, false, fmt.Errorf("failed to load broker connection: %w", err)
	}
	if conn.Status == models.ConnectionRevoked {
		return models.Credentials{}, false, ErrNotConnected
	}
	if conn.Status == models.ConnectionReconnectRequired {
		return models.Credentials{}, false, ErrReconnectRequired
	}
	return conn.Credentials(), true, nil
}

func (s *syncServiceImpl) markFailed(ctx context.Context, userID int64, stored bool, status string) {
	if !stored {
		return
	}
	if err := model.MarkConnectionFailed(ctx, s.db, userID, models.FormatZerodha, status); err != nil {
		logger.FromContext(ctx).Warn("Failed to update connection status", "status", status, "error", err)
	}
}

func (s *syncServiceImpl) SyncAll(ctx context.Context) (int, error) {
	conns, err := model.ListActiveConnections(ctx, s.db, models.FormatZerodha)
	if err != nil {
		return 0, fmt.Errorf("failed to list active connections: %w", err)
	}

	synced := 0
	var errs []error
	for _, conn := range conns {
		userCtx := logger.ToContext(ctx, logger.FromContext(ctx).With("userID", conn.UserID))
		if _, err := s.SyncOrders(userCtx, conn.UserID, nil); err != nil {
			logger.FromContext(userCtx).Warn("Scheduled sync failed", "error", err)
			errs = append(errs, fmt.Errorf("user %d: %w", conn.UserID, err))
			continue
		}
		synced++
	}
	return synced, errors.Join(errs...)
}

// OrdersToCandidates maps completed orders to candidates. Orders in any other
// status are dropped like non-data rows; completed orders that cannot form a
// candidate become error details. Position P&L goes to the first order of the
// position that is neither in existing nor repeated within the batch, so a
// re-sync still records the figure on a newly imported order.
func OrdersToCandidates(orders []kite.Order, lookup PositionLookup, existing models.KeySet) ([]*models.ParsedCandidate, []models.ErrorDetail) {
	var (
		candidates []*models.ParsedCandidate
		details    []models.ErrorDetail
		seen       = models.NewKeySet()
	)
	for i, o := range orders {
		if !o.Completed() {
			continue
		}
		c, err := orderCandidate(o)
		if err != nil {
			details = append(details, processors.NewErrorDetail(i, orderRow(o), err))
			continue
		}
		key := models.ExternalIDKey(c.Format, c.ExternalID)
		if !existing.Has(key) && !seen.Has(key) {
			if pnl, ok := lookup.take(o); ok {
				c.ProfitLoss = decimal.NewNullDecimal(pnl)
			}
		}
		seen.Add(key)
		candidates = append(candidates, c)
	}
	return candidates, details
}

func orderCandidate(o kite.Order) (*models.ParsedCandidate, error) {
	symbol := strings.TrimSpace(o.TradingSymbol)
	if symbol == "" {
		return nil, columns.ErrMissingSymbol
	}
	price := o.AveragePrice
	if !price.IsPositive() {
		price = o.Price
	}
	if !price.IsPositive() {
		return nil, columns.ErrMissingPrice
	}

	c := &models.ParsedCandidate{
		Symbol:        symbol,
		TradeDate:     orderDate(o),
		Quantity:      o.FilledQuantity,
		DirectionHint: o.TransactionType,
		Format:        models.FormatZerodha,
		ExternalID:    o.OrderID,
	}
	if strings.EqualFold(o.TransactionType, "SELL") {
		c.SellPrice, c.RawSellPrice = price, price.String()
	} else {
		c.BuyPrice, c.RawBuyPrice = price, price.String()
	}
	return c, nil
}

// orderDate is the calendar date of the order timestamp ("2024-03-15 09:20:11").
func orderDate(o kite.Order) string {
	for _, ts := range []string{o.OrderTimestamp, o.ExchangeTimestamp} {
		if len(ts) < 10 {
			continue
		}
		if _, err := time.Parse("2006-01-02", ts[:10]); err == nil {
			return ts[:10]
		}
	}
	return ""
}

func orderRow(o kite.Order) models.RawRow {
	return models.RawRow{
		"order_id":         o.OrderID,
		"tradingsymbol":    o.TradingSymbol,
		"transaction_type": o.TransactionType,
		"filled_quantity":  o.FilledQuantity.String(),
		"average_price":    o.AveragePrice.String(),
		"status":           o.Status,
	}
}
