package model

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

const tradeColumns = `id, user_id, symbol, trade_date, entry_date, exit_date, entry_price, exit_price,
	position_size, position_type, category, profit_loss, notes, tags, broker, source,
	external_broker, external_id, content_hash, created_at`

// GetTradeKeys returns the identity keys of every stored trade of the user.
func GetTradeKeys(ctx context.Context, db *sql.DB, userID int64) (models.KeySet, error) {
	rows, err := db.QueryContext(ctx, `SELECT external_broker, external_id, content_hash FROM trades WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade keys for user %d: %w", userID, err)
	}
	defer rows.Close()

	keys := models.NewKeySet()
	for rows.Next() {
		var (
			broker     string
			externalID sql.NullString
			ref        models.ExternalRef
		)
		if err := rows.Scan(&broker, &externalID, &ref.ContentHash); err != nil {
			return nil, fmt.Errorf("failed to scan trade key: %w", err)
		}
		ref.Broker = models.BrokerFormat(broker)
		ref.ExternalID = externalID.String
		for _, k := range ref.Keys() {
			keys.Add(k)
		}
	}
	return keys, rows.Err()
}

// InsertTrades stores trades for the user in a single transaction. Any failure
// rolls back the whole batch.
func InsertTrades(ctx context.Context, db *sql.DB, userID int64, trades []models.NormalizedTrade) error {
	if len(trades) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trade insert transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO trades (`+tradeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare trade insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range trades {
		t := &trades[i]
		t.UserID = userID
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		tags, err := json.Marshal(t.Tags)
		if err != nil {
			return fmt.Errorf("failed to encode tags of trade %s: %w", t.ID, err)
		}
		var exitDate any
		if t.ExitDate != nil {
			exitDate = *t.ExitDate
		}
		var externalID any
		if t.ExternalRef.ExternalID != "" {
			externalID = t.ExternalRef.ExternalID
		}

		if _, err := stmt.ExecContext(ctx,
			t.ID, userID, t.Symbol, t.TradeDate, t.EntryDate.UTC(), exitDate, t.EntryPrice, t.ExitPrice,
			t.PositionSize, string(t.PositionType), string(t.Category), t.ProfitLoss, t.Notes, string(tags),
			string(t.Broker), t.Source, string(t.ExternalRef.Broker), externalID, t.ExternalRef.ContentHash, t.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert trade %s (%s): %w", t.ID, t.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade insert: %w", err)
	}
	return nil
}

// GetTradesByUserID returns the user's trades ordered by entry date.
func GetTradesByUserID(ctx context.Context, db *sql.DB, userID int64) ([]models.NormalizedTrade, error) {
	return GetTradesInRange(ctx, db, userID, models.DateRange{})
}

// GetTradesInRange returns the user's trades entered within r, ordered by entry date.
func GetTradesInRange(ctx context.Context, db *sql.DB, userID int64, r models.DateRange) ([]models.NormalizedTrade, error) {
	where, args := tradeConditions(userID, models.TradeFilter{DateRange: r})
	return queryTrades(ctx, db, `SELECT `+tradeColumns+` FROM trades WHERE `+where+
		` ORDER BY entry_date ASC, created_at ASC, id ASC`, args...)
}

// ListTrades returns the user's trades matching f, newest first. A zero
// f.PageSize disables paging.
func ListTrades(ctx context.Context, db *sql.DB, userID int64, f models.TradeFilter) ([]models.NormalizedTrade, error) {
	where, args := tradeConditions(userID, f)
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE ` + where + ` ORDER BY entry_date DESC, created_at DESC, id DESC`
	if f.PageSize > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.PageSize, f.Offset())
	}
	return queryTrades(ctx, db, query, args...)
}

// tradeConditions builds the WHERE clause for f. Dates compare against the
// leading YYYY-MM-DD of the stored UTC entry date.
func tradeConditions(userID int64, f models.TradeFilter) (string, []any) {
	conds := []string{"user_id = ?"}
	args := []any{userID}
	if f.Symbol != "" {
		conds = append(conds, "symbol = ? COLLATE NOCASE")
		args = append(args, f.Symbol)
	}
	if f.Tag != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM json_each(trades.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if f.From != "" {
		conds = append(conds, "substr(entry_date, 1, 10) >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		conds = append(conds, "substr(entry_date, 1, 10) <= ?")
		args = append(args, f.To)
	}
	return strings.Join(conds, " AND "), args
}

func queryTrades(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.NormalizedTrade, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := []models.NormalizedTrade{}
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// DeleteTradesByUserID removes all trades of the user and returns how many were deleted.
func DeleteTradesByUserID(ctx context.Context, db *sql.DB, userID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM trades WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trades for user %d: %w", userID, err)
	}
	return res.RowsAffected()
}

func scanTrade(rows *sql.Rows) (models.NormalizedTrade, error) {
	var (
		t                              models.NormalizedTrade
		exitDate                       sql.NullTime
		positionType, category, broker string
		tags, externalBroker           string
		externalID                     sql.NullString
	)
	err := rows.Scan(
		&t.ID, &t.UserID, &t.Symbol, &t.TradeDate, &t.EntryDate, &exitDate, &t.EntryPrice, &t.ExitPrice,
		&t.PositionSize, &positionType, &category, &t.ProfitLoss, &t.Notes, &tags, &broker, &t.Source,
		&externalBroker, &externalID, &t.ExternalRef.ContentHash, &t.CreatedAt,
	)
	if err != nil {
		return t, fmt.Errorf("failed to scan trade: %w", err)
	}
	if exitDate.Valid {
		exit := exitDate.Time
		t.ExitDate = &exit
	}
	t.PositionType = models.PositionType(positionType)
	t.Category = models.Category(category)
	t.Broker = models.BrokerFormat(broker)
	t.ExternalRef.Broker = models.BrokerFormat(externalBroker)
	t.ExternalRef.ExternalID = externalID.String
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return t, fmt.Errorf("failed to decode tags of trade %s: %w", t.ID, err)
	}
	return t, nil
}
