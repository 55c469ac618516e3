package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradejournal/backend/src/clients/kite"
	"github.com/username/tradejournal/backend/src/database"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/security"
)

var fixedNow = time.Date(2024, 3, 20, 15, 30, 0, 0, time.UTC)

type fixture struct {
	db        *sql.DB
	userID    int64
	cipher    *security.TokenCipher
	analytics AnalyticsService
	imports   ImportService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	u := &model.User{Email: "trader@example.com"}
	require.NoError(t, u.HashPassword("secret123"))
	require.NoError(t, u.CreateUser(context.Background(), db))

	cipher, err := security.NewTokenCipher("test-encryption-key")
	require.NoError(t, err)

	analytics := NewAnalyticsService(db, cache.New(DefaultCacheExpiration, CacheCleanupInterval), "INR")
	imports := NewImportService(db, processors.NewImportPipeline(), NewMemoryLocker(), analytics, 100)
	imports.(*importServiceImpl).now = func() time.Time { return fixedNow }

	return &fixture{db: db, userID: u.ID, cipher: cipher, analytics: analytics, imports: imports}
}

func statementRows() []models.RawRow {
	return []models.RawRow{
		{"Symbol": "Realised P&L Summary"},
		{"Symbol": "TCS", "Quantity": "10", "Buy Value": "34000", "Sell Value": "34500", "Realized P&L": "500"},
		{"Symbol": "INFY", "Quantity": "5", "Buy Value": "7500", "Sell Value": "7400", "Realized P&L": "-100"},
		{"Symbol": "SBIN", "Quantity": "0", "Buy Value": "7000"},
	}
}

func TestImportRowsPersistsAndIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	report, err := f.imports.ImportRows(ctx, f.userID, statementRows(), models.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, models.FormatZerodha, report.Format)

	trades, err := model.GetTradesByUserID(ctx, f.db, f.userID)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	again, err := f.imports.ImportRows(ctx, f.userID, statementRows(), models.FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)

	history, err := f.imports.GetImportHistory(ctx, f.userID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].Skipped)
	assert.Equal(t, models.SourceFile, history[0].Source)
}

func TestImportFileReadsCSV(t *testing.T) {
	f := setup(t)
	csv := "Client ID,AB1234\n\nSymbol,Quantity,Buy Value,Sell Value,Realized P&L\nTCS,10,34000,34500,500\nTotal,,,,500\n"

	report, err := f.imports.ImportFile(context.Background(), f.userID, FileImport{
		Reader:   strings.NewReader(csv),
		Filename: "pnl.csv",
		Format:   models.FormatZerodha,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.WithPnL)

	history, err := f.imports.GetImportHistory(context.Background(), f.userID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "pnl.csv", history[0].Filename)
}

func TestImportBatchFatalErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.imports.ImportFile(ctx, f.userID, FileImport{Reader: strings.NewReader("  \n"), Format: models.FormatAuto})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = f.imports.ImportRows(ctx, f.userID, nil, models.FormatAuto)
	assert.ErrorIs(t, err, ErrParsingFailed)

	_, err = f.imports.ImportRows(ctx, f.userID, statementRows(), models.BrokerFormat("UPSTOX"))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	tooMany := make([]models.RawRow, 101)
	for i := range tooMany {
		tooMany[i] = models.RawRow{"Symbol": "TCS"}
	}
	_, err = f.imports.ImportRows(ctx, f.userID, tooMany, models.FormatAuto)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestImportFailsWhenStoreUnavailable(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Close())

	svc := NewImportService(f.db, processors.NewImportPipeline(), NewMemoryLocker(), nil, 0)
	_, err := svc.ImportRows(context.Background(), f.userID, statementRows(), models.FormatAuto)
	require.Error(t, err)
}

type fakeBroker struct {
	orders       []kite.Order
	positions    *kite.Positions
	ordersErr    error
	positionsErr error
}

func (b *fakeBroker) Orders(ctx context.Context) ([]kite.Order, error) { return b.orders, b.ordersErr }
func (b *fakeBroker) Positions(ctx context.Context) (*kite.Positions, error) {
	return b.positions, b.positionsErr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pnl(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleOrders() []kite.Order {
	return []kite.Order{
		{OrderID: "240315000001", Status: kite.StatusComplete, TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC",
			TransactionType: "BUY", FilledQuantity: dec("10"), AveragePrice: dec("3400"), OrderTimestamp: "2024-03-15 09:20:11"},
		{OrderID: "240315000002", Status: kite.StatusComplete, TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC",
			TransactionType: "SELL", FilledQuantity: dec("10"), AveragePrice: dec("3450"), OrderTimestamp: "2024-03-15 14:02:45"},
		{OrderID: "240315000003", Status: kite.StatusOpen, TradingSymbol: "INFY", Exchange: "NSE", Product: "CNC",
			TransactionType: "BUY", Quantity: dec("5"), Price: dec("1500"), OrderTimestamp: "2024-03-15 10:00:00"},
	}
}

func newSync(f *fixture, broker *fakeBroker) *syncServiceImpl {
	svc := NewSyncService(f.db, f.cipher, processors.NewImportPipeline(), NewMemoryLocker(), f.analytics,
		func(models.Credentials) (BrokerAPI, error) { return broker, nil }).(*syncServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func connect(t *testing.T, f *fixture) {
	t.Helper()
	_, err := NewConnectionService(f.db, f.cipher).Connect(context.Background(), f.userID, models.FormatZerodha,
		models.Credentials{APIKey: "kitekey", AccessToken: "accesstoken123"})
	require.NoError(t, err)
}

func TestSyncOrdersImportsCompletedOrders(t *testing.T) {
	f := setup(t)
	connect(t, f)
	broker := &fakeBroker{
		orders:    sampleOrders(),
		positions: &kite.Positions{Net: []kite.Position{{TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC", Realised: pnl("500")}}},
	}
	ctx := context.Background()

	report, err := newSync(f, broker).SyncOrders(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Errors)
	assert.Equal(t, 1, report.WithPnL)
	assert.Equal(t, 1, report.WithoutPnL)

	trades, err := model.GetTradesByUserID(ctx, f.db, f.userID)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	for _, tr := range trades {
		assert.Equal(t, models.SourceSync, tr.Source)
		assert.Equal(t, "2024-03-15", tr.TradeDate)
		assert.NotEmpty(t, tr.ExternalRef.ExternalID)
	}

	conn, err := model.GetConnection(ctx, f.db, f.cipher, f.userID, models.FormatZerodha)
	require.NoError(t, err)
	require.NotNil(t, conn.LastSyncAt)

	again, err := newSync(f, broker).SyncOrders(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Imported)
	assert.Equal(t, 2, again.Skipped)
}

func TestSyncOrdersWithoutPositions(t *testing.T) {
	f := setup(t)
	broker := &fakeBroker{orders: sampleOrders(), positionsErr: errors.New("timeout")}

	creds := &models.Credentials{APIKey: "kitekey", AccessToken: "fromrequest"}
	report, err := newSync(f, broker).SyncOrders(context.Background(), f.userID, creds)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.WithPnL)
}

func TestSyncOrdersConnectionStates(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		f := setup(t)
		_, err := newSync(f, &fakeBroker{}).SyncOrders(context.Background(), f.userID, &models.Credentials{APIKey: "only-key"})
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("token rejected", func(t *testing.T) {
		f := setup(t)
		connect(t, f)
		broker := &fakeBroker{ordersErr: &kite.APIError{Status: 403, ErrorType: "TokenException", Message: "Incorrect api_key or access_token."}}
		ctx := context.Background()

		_, err := newSync(f, broker).SyncOrders(ctx, f.userID, nil)
		assert.ErrorIs(t, err, ErrReconnectRequired)

		conns, err := model.ListConnections(ctx, f.db, f.userID)
		require.NoError(t, err)
		require.Len(t, conns, 1)
		assert.Equal(t, models.ConnectionReconnectRequired, conns[0].Status)
		assert.Equal(t, 1, conns[0].FailureCount)

		_, err = newSync(f, broker).SyncOrders(ctx, f.userID, nil)
		assert.ErrorIs(t, err, ErrReconnectRequired)
	})

	t.Run("broker failure", func(t *testing.T) {
		f := setup(t)
		connect(t, f)
		broker := &fakeBroker{ordersErr: &kite.APIError{Status: 503, ErrorType: "NetworkException", Message: "gateway"}}

		_, err := newSync(f, broker).SyncOrders(context.Background(), f.userID, nil)
		assert.ErrorIs(t, err, ErrBrokerUnavailable)
	})
}

func TestSyncAll(t *testing.T) {
	f := setup(t)
	connect(t, f)
	broker := &fakeBroker{orders: sampleOrders(), positions: &kite.Positions{}}

	n, err := newSync(f, broker).SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSyncKeepsDistinctOrdersWithSameContent(t *testing.T) {
	orders := []kite.Order{
		{OrderID: "111", Status: kite.StatusComplete, TradingSymbol: "SBIN", Exchange: "NSE", Product: "CNC",
			TransactionType: "BUY", FilledQuantity: dec("10"), AveragePrice: dec("760"), OrderTimestamp: "2024-03-15 09:30:00"},
		{OrderID: "222", Status: kite.StatusComplete, TradingSymbol: "SBIN", Exchange: "NSE", Product: "CNC",
			TransactionType: "BUY", FilledQuantity: dec("10"), AveragePrice: dec("760"), OrderTimestamp: "2024-03-15 11:45:00"},
	}

	candidates, details := OrdersToCandidates(orders, PositionLookup{}, models.NewKeySet())
	require.Empty(t, details)
	result := processors.NewImportPipeline().Finish(len(orders), candidates, details, models.NewKeySet(), models.SourceSync, fixedNow)
	assert.Equal(t, 2, result.Report.Imported)
	assert.Equal(t, 0, result.Report.Skipped)

	f := setup(t)
	connect(t, f)
	ctx := context.Background()
	report, err := newSync(f, &fakeBroker{orders: orders, positions: &kite.Positions{}}).SyncOrders(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	trades, err := model.GetTradesByUserID(ctx, f.db, f.userID)
	require.NoError(t, err)
	assert.Len(t, trades, 2)
}

func TestResyncAttachesPnLToNewOrder(t *testing.T) {
	f := setup(t)
	connect(t, f)
	ctx := context.Background()
	first := sampleOrders()[:1]

	report, err := newSync(f, &fakeBroker{orders: first, positions: &kite.Positions{}}).SyncOrders(ctx, f.userID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Imported)
	assert.Equal(t, 0, report.WithPnL)

	broker := &fakeBroker{
		orders:    sampleOrders(),
		positions: &kite.Positions{Net: []kite.Position{{TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC", Realised: pnl("500")}}},
	}
	report, err = newSync(f, broker).SyncOrders(ctx, f.userID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 1, report.WithPnL)

	trades, err := model.GetTradesByUserID(ctx, f.db, f.userID)
	require.NoError(t, err)
	for _, tr := range trades {
		if tr.ExternalRef.ExternalID == "240315000002" {
			require.True(t, tr.ProfitLoss.Valid)
			assert.True(t, tr.ProfitLoss.Decimal.Equal(dec("500")))
		} else {
			assert.False(t, tr.ProfitLoss.Valid)
		}
	}
}

func TestOrdersToCandidates(t *testing.T) {
	orders := sampleOrders()
	orders = append(orders, kite.Order{OrderID: "x", Status: kite.StatusComplete, TradingSymbol: "SBIN", FilledQuantity: dec("1"), TransactionType: "BUY"})
	lookup := NewPositionLookup(&kite.Positions{
		Net: []kite.Position{{TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC", PnL: pnl("480"), Realised: pnl("500")}},
		Day: []kite.Position{{TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC", Realised: pnl("1")}},
	})

	candidates, details := OrdersToCandidates(orders, lookup, models.NewKeySet())
	require.Len(t, candidates, 2)
	require.Len(t, details, 1)
	assert.Equal(t, 4, details[0].Row)

	buy, sell := candidates[0], candidates[1]
	assert.True(t, buy.BuyPrice.Equal(dec("3400")))
	assert.True(t, buy.ProfitLoss.Valid)
	assert.True(t, buy.ProfitLoss.Decimal.Equal(dec("500")))
	assert.True(t, sell.SellPrice.Equal(dec("3450")))
	assert.False(t, sell.ProfitLoss.Valid)
	assert.Equal(t, "SELL", sell.DirectionHint)
	assert.Equal(t, "240315000002", sell.ExternalID)
}

func TestConnectionService(t *testing.T) {
	f := setup(t)
	svc := NewConnectionService(f.db, f.cipher)
	ctx := context.Background()

	_, err := svc.Connect(ctx, f.userID, models.FormatGroww, models.Credentials{APIKey: "a", AccessToken: "b"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = svc.Connect(ctx, f.userID, models.FormatZerodha, models.Credentials{APIKey: "bad key!", AccessToken: "b"})
	require.Error(t, err)

	connect(t, f)
	conns, err := svc.List(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, models.ConnectionActive, conns[0].Status)

	require.NoError(t, svc.Disconnect(ctx, f.userID, models.FormatZerodha))
	conns, err = svc.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestAnalytics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	curve, err := f.analytics.GetEquityCurve(ctx, f.userID, models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, curve)

	_, err = f.imports.ImportRows(ctx, f.userID, statementRows(), models.FormatAuto)
	require.NoError(t, err)

	curve, err = f.analytics.GetEquityCurve(ctx, f.userID, models.DateRange{})
	require.NoError(t, err)
	require.Len(t, curve, 1)
	assert.Equal(t, "2024-03-20", curve[0].Date)
	assert.Equal(t, "400.00", curve[0].Cumulative)

	summary, err := f.analytics.GetWinRate(ctx, f.userID, models.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalTrades)
	assert.Equal(t, 1, summary.Wins)
	assert.Equal(t, 1, summary.Losses)
	assert.Equal(t, 50.0, summary.WinRate)
	assert.Equal(t, "500.00", summary.AverageWin)
	assert.Equal(t, "-100.00", summary.AverageLoss)
	assert.Contains(t, summary.TotalPnLText, "400.00")

	_, err = NewTradeService(f.db, f.analytics).DeleteTrades(ctx, f.userID)
	require.NoError(t, err)
	curve, err = f.analytics.GetEquityCurve(ctx, f.userID, models.DateRange{})
	require.NoError(t, err)
	assert.Empty(t, curve)
}

func datedTrade(id, symbol string, day int, pnl string) models.NormalizedTrade {
	return models.NormalizedTrade{
		ID:           id,
		Symbol:       symbol,
		TradeDate:    fmt.Sprintf("2024-03-%02d", day),
		EntryDate:    time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC),
		EntryPrice:   dec("100"),
		PositionSize: dec("1"),
		PositionType: models.PositionLong,
		Category:     models.CategoryEquity,
		ProfitLoss:   decimal.NewNullDecimal(dec(pnl)),
		Tags:         []string{"groww", "equity"},
		Broker:       models.FormatGroww,
		Source:       models.SourceFile,
		ExternalRef:  models.ExternalRef{Broker: models.FormatGroww, ContentHash: id},
	}
}

func TestAnalyticsDateRange(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, model.InsertTrades(ctx, f.db, f.userID, []models.NormalizedTrade{
		datedTrade("a", "TCS", 10, "100"),
		datedTrade("b", "INFY", 12, "-40"),
		datedTrade("c", "TCS", 15, "60"),
	}))
	march12 := models.DateRange{From: "2024-03-12"}

	curve, err := f.analytics.GetEquityCurve(ctx, f.userID, march12)
	require.NoError(t, err)
	require.Len(t, curve, 2)
	assert.Equal(t, "2024-03-12", curve[0].Date)
	assert.Equal(t, "20.00", curve[1].Cumulative)

	summary, err := f.analytics.GetWinRate(ctx, f.userID, models.DateRange{To: "2024-03-12"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalTrades)
	assert.Equal(t, 1, summary.Losses)

	full, err := f.analytics.GetEquityCurve(ctx, f.userID, models.DateRange{})
	require.NoError(t, err)
	assert.Len(t, full, 3)

	// new trades must reach every cached range
	_, err = f.imports.ImportRows(ctx, f.userID, []models.RawRow{
		{"Stock name": "Tata Motors", "Quantity": "4", "Buy date": "13-03-2024", "Buy price": "950", "Sell price": "960", "Realised P&L": "40"},
	}, models.FormatGroww)
	require.NoError(t, err)
	curve, err = f.analytics.GetEquityCurve(ctx, f.userID, march12)
	require.NoError(t, err)
	assert.Len(t, curve, 3)
}

func TestTradeServiceFiltersAndPages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	var batch []models.NormalizedTrade
	for day := 1; day <= 5; day++ {
		batch = append(batch, datedTrade(fmt.Sprintf("t%d", day), "TCS", day, "1"))
	}
	batch = append(batch, datedTrade("w", "WIPRO", 3, "1"))
	require.NoError(t, model.InsertTrades(ctx, f.db, f.userID, batch))
	svc := NewTradeService(f.db, f.analytics)

	page, err := svc.ListTrades(ctx, f.userID, models.TradeFilter{Symbol: "TCS", PageSize: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "t3", page[0].ID)
	assert.Equal(t, "t2", page[1].ID)

	defaults, err := svc.ListTrades(ctx, f.userID, models.TradeFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Len(t, defaults, 6)

	exported, err := svc.ExportTrades(ctx, f.userID, models.TradeFilter{DateRange: models.DateRange{From: "2024-03-03"}, PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, exported, 4)
}

func TestDisplayAmount(t *testing.T) {
	assert.Contains(t, DisplayAmount(dec("1234.5"), "INR"), "1,234.50")
	assert.Contains(t, DisplayAmount(dec("-99.999"), "USD"), "100.00")
}

func TestMemoryLocker(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)

	other, err := l.Lock(context.Background(), 2)
	require.NoError(t, err)
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, 1)
	assert.ErrorIs(t, err, ErrImportInProgress)

	unlock()
	unlock()
	again, err := l.Lock(context.Background(), 1)
	require.NoError(t, err)
	again()
	assert.Empty(t, l.locks)
}
