// backend/src/services/import_service.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/security/validation"
)

const DefaultHistoryLimit = 50

type importServiceImpl struct {
	db        *sql.DB
	pipeline  *processors.ImportPipeline
	locker    UserLocker
	analytics AnalyticsService
	maxRows   int
	now       Clock
}

// NewImportService wires the pipeline to the record store. analytics may be nil.
func NewImportService(db *sql.DB, pipeline *processors.ImportPipeline, locker UserLocker, analytics AnalyticsService, maxRows int) ImportService {
	return &importServiceImpl{
		db:        db,
		pipeline:  pipeline,
		locker:    locker,
		analytics: analytics,
		maxRows:   maxRows,
		now:       time.Now,
	}
}

func (s *importServiceImpl) ImportFile(ctx context.Context, userID int64, file FileImport) (*models.ImportReport, error) {
	log := logger.FromContext(ctx)
	log.Info("Reading broker export", "filename", file.Filename, "format", file.Format)

	rows, err := parsers.ReadRows(file.Reader, s.maxRows)
	if err != nil {
		if errors.Is(err, parsers.ErrEmptySource) {
			return nil, ErrEmptyBatch
		}
		log.Warn("Failed to read broker export", "filename", file.Filename, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return s.importRows(ctx, userID, rows, file.Format, file.Filename)
}

func (s *importServiceImpl) ImportRows(ctx context.Context, userID int64, rows []models.RawRow, format models.BrokerFormat) (*models.ImportReport, error) {
	if err := validation.ValidateRowCount(len(rows), s.maxRows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return s.importRows(ctx, userID, rows, format, "")
}

func (s *importServiceImpl) importRows(ctx context.Context, userID int64, rows []models.RawRow, format models.BrokerFormat, filename string) (*models.ImportReport, error) {
	log := logger.FromContext(ctx)
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := model.GetTradeKeys(ctx, s.db, userID)
	if err != nil {
		log.Error("Failed to load existing trade keys", "error", err)
		return nil, fmt.Errorf("failed to load existing trades: %w", err)
	}

	result, err := s.pipeline.Run(rows, format, existing, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
	}

	if err := persistResult(ctx, s.db, s.analytics, userID, result, models.SourceFile, filename); err != nil {
		return nil, err
	}

	report := result.Report
	log.Info("Import finished", "format", report.Format, "totalRows", report.TotalRows,
		"imported", report.Imported, "skipped", report.Skipped, "errors", report.Errors)
	return &report, nil
}

// persistResult stores the accepted trades in one transaction, then records the
// history row and drops the user's cached analytics.
func persistResult(ctx context.Context, db *sql.DB, analytics AnalyticsService, userID int64, result *processors.PipelineResult, source, filename string) error {
	log := logger.FromContext(ctx)
	if len(result.Accepted) > 0 {
		if err := model.InsertTrades(ctx, db, userID, result.Accepted); err != nil {
			log.Error("Bulk insert failed", "count", len(result.Accepted), "error", err)
			return fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
		if analytics != nil {
			analytics.InvalidateUserCache(userID)
		}
	}

	report := result.Report
	entry := &models.ImportHistoryEntry{
		Source:    source,
		Format:    report.Format,
		Filename:  validation.SanitizePlainText(filename),
		TotalRows: report.TotalRows,
		Imported:  report.Imported,
		Skipped:   report.Skipped,
		Errors:    report.Errors,
	}
	if err := model.CreateImportHistory(ctx, db, userID, entry); err != nil {
		// The trades are already committed; a missing history row is not worth failing the call.
		log.Warn("Failed to record import history", "error", err)
	}
	return nil
}

func (s *importServiceImpl) GetImportHistory(ctx context.Context, userID int64, limit int) ([]models.ImportHistoryEntry, error) {
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	return model.GetImportHistory(ctx, s.db, userID, limit)
}
