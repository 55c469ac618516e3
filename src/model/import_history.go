package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

// CreateImportHistory records the outcome of one import or sync call.
func CreateImportHistory(ctx context.Context, db *sql.DB, userID int64, entry *models.ImportHistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx, `INSERT INTO import_history (user_id, source, format, filename, total_rows, imported, skipped, errors, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, entry.Source, string(entry.Format), entry.Filename, entry.TotalRows, entry.Imported, entry.Skipped, entry.Errors, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert import history for user %d: %w", userID, err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

// GetImportHistory returns the most recent entries first.
func GetImportHistory(ctx context.Context, db *sql.DB, userID int64, limit int) ([]models.ImportHistoryEntry, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, source, format, filename, total_rows, imported, skipped, errors, created_at
		FROM import_history WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history for user %d: %w", userID, err)
	}
	defer rows.Close()

	entries := []models.ImportHistoryEntry{}
	for rows.Next() {
		var e models.ImportHistoryEntry
		var format string
		if err := rows.Scan(&e.ID, &e.Source, &format, &e.Filename, &e.TotalRows, &e.Imported, &e.Skipped, &e.Errors, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import history: %w", err)
		}
		e.Format = models.BrokerFormat(format)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
