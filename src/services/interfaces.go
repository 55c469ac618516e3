// backend/src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed     = errors.New("broker export parsing failed")
	ErrUnknownFormat     = errors.New("unknown broker format")
	ErrEmptyBatch        = errors.New("no rows to import")
	ErrPersistFailed     = errors.New("failed to store imported trades")
	ErrNotConnected      = errors.New("broker account is not connected")
	ErrReconnectRequired = errors.New("broker authorization expired, reconnect required")
	ErrBrokerUnavailable = errors.New("broker API request failed")
	ErrImportInProgress  = errors.New("another import is running for this user")
)

// FileImport is one uploaded broker export.
type FileImport struct {
	Reader   io.Reader
	Filename string
	Format   models.BrokerFormat
}

// ImportService turns broker rows into stored trades.
type ImportService interface {
	ImportFile(ctx context.Context, userID int64, file FileImport) (*models.ImportReport, error)
	ImportRows(ctx context.Context, userID int64, rows []models.RawRow, format models.BrokerFormat) (*models.ImportReport, error)
	GetImportHistory(ctx context.Context, userID int64, limit int) ([]models.ImportHistoryEntry, error)
}

// SyncService pulls executed orders from a connected broker API.
type SyncService interface {
	// SyncOrders uses creds when complete, otherwise the user's stored connection.
	SyncOrders(ctx context.Context, userID int64, creds *models.Credentials) (*models.ImportReport, error)
	// SyncAll syncs every active connection and returns how many succeeded.
	SyncAll(ctx context.Context) (int, error)
}

// ConnectionService manages stored broker credentials.
type ConnectionService interface {
	Connect(ctx context.Context, userID int64, broker models.BrokerFormat, creds models.Credentials) (*models.BrokerConnection, error)
	List(ctx context.Context, userID int64) ([]models.BrokerConnection, error)
	Disconnect(ctx context.Context, userID int64, broker models.BrokerFormat) error
}

// TradeService exposes the stored trades.
type TradeService interface {
	// ListTrades returns one page of matching trades, newest first.
	ListTrades(ctx context.Context, userID int64, filter models.TradeFilter) ([]models.NormalizedTrade, error)
	// ExportTrades returns every matching trade; paging fields are ignored.
	ExportTrades(ctx context.Context, userID int64, filter models.TradeFilter) ([]models.NormalizedTrade, error)
	DeleteTrades(ctx context.Context, userID int64) (int64, error)
}

// EquityPoint is one day of the cumulative realized P&L series.
type EquityPoint struct {
	Date       string `json:"date"`
	DailyPnL   string `json:"daily_pnl"`
	Cumulative string `json:"cumulative"`
}

// WinRateSummary aggregates trades with known P&L.
type WinRateSummary struct {
	TotalTrades    int     `json:"total_trades"`
	TradesWithPnL  int     `json:"trades_with_pnl"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	TotalPnL       string  `json:"total_pnl"`
	TotalPnLText   string  `json:"total_pnl_display"`
	AverageWin     string  `json:"average_win"`
	AverageLoss    string  `json:"average_loss"`
	Currency       string  `json:"currency"`
	LastCalculated string  `json:"last_calculated"`
}

// AnalyticsService derives performance views from stored trades.
type AnalyticsService interface {
	GetEquityCurve(ctx context.Context, userID int64, r models.DateRange) ([]EquityPoint, error)
	GetWinRate(ctx context.Context, userID int64, r models.DateRange) (*WinRateSummary, error)
	InvalidateUserCache(userID int64)
}

// UserLocker serializes imports and syncs per user. unlock must be called exactly once.
type UserLocker interface {
	Lock(ctx context.Context, userID int64) (unlock func(), err error)
}

// Clock returns the reference time of an import call.
type Clock func() time.Time
