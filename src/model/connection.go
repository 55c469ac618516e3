package model

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/tradejournal/backend/src/models"
)

// ErrConnectionNotFound is returned when the user has no stored link to the broker.
var ErrConnectionNotFound = errors.New("broker connection not found")

// TokenSealer encrypts access tokens before they reach the database.
type TokenSealer interface {
	Seal(plaintext string) (string, error)
	Open(ciphertext string) (string, error)
}

const connectionColumns = `id, user_id, broker, api_key, access_token_enc, status, failure_count, last_sync_at, updated_at`

// UpsertConnection stores credentials for (user, broker) and resets the status to active.
func UpsertConnection(ctx context.Context, db *sql.DB, sealer TokenSealer, conn *models.BrokerConnection) error {
	sealed, err := sealer.Seal(conn.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	conn.Status = models.ConnectionActive
	conn.FailureCount = 0
	conn.UpdatedAt = time.Now().UTC()

	_, err = db.ExecContext(ctx, `INSERT INTO broker_connections (user_id, broker, api_key, access_token_enc, status, failure_count, updated_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT (user_id, broker) DO UPDATE SET
			api_key = excluded.api_key,
			access_token_enc = excluded.access_token_enc,
			status = excluded.status,
			failure_count = 0,
			updated_at = excluded.updated_at`,
		conn.UserID, string(conn.Broker), conn.APIKey, sealed, conn.Status, conn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert %s connection for user %d: %w", conn.Broker, conn.UserID, err)
	}
	return nil
}

// GetConnection loads and decrypts the user's connection to broker.
func GetConnection(ctx context.Context, db *sql.DB, sealer TokenSealer, userID int64, broker models.BrokerFormat) (*models.BrokerConnection, error) {
	row := db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM broker_connections WHERE user_id = ? AND broker = ?`, userID, string(broker))
	conn, sealed, err := scanConnection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConnectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if conn.AccessToken, err = sealer.Open(sealed); err != nil {
		return nil, fmt.Errorf("failed to open access token of %s connection: %w", broker, err)
	}
	return conn, nil
}

// ListConnections returns the user's connections without secrets.
func ListConnections(ctx context.Context, db *sql.DB, userID int64) ([]models.BrokerConnection, error) {
	return queryConnections(ctx, db, `SELECT `+connectionColumns+` FROM broker_connections WHERE user_id = ? ORDER BY broker`, userID)
}

// ListActiveConnections returns every active connection to broker, secrets still sealed.
// Callers open tokens with GetConnection.
func ListActiveConnections(ctx context.Context, db *sql.DB, broker models.BrokerFormat) ([]models.BrokerConnection, error) {
	return queryConnections(ctx, db, `SELECT `+connectionColumns+` FROM broker_connections WHERE broker = ? AND status = ? ORDER BY user_id`,
		string(broker), models.ConnectionActive)
}

// MarkConnectionSynced records a successful sync.
func MarkConnectionSynced(ctx context.Context, db *sql.DB, userID int64, broker models.BrokerFormat, at time.Time) error {
	_, err := db.ExecContext(ctx, `UPDATE broker_connections SET status = ?, failure_count = 0, last_sync_at = ?, updated_at = ?
		WHERE user_id = ? AND broker = ?`, models.ConnectionActive, at, at, userID, string(broker))
	if err != nil {
		return fmt.Errorf("failed to mark %s connection synced for user %d: %w", broker, userID, err)
	}
	return nil
}

// MarkConnectionFailed sets status and increments the failure counter.
func MarkConnectionFailed(ctx context.Context, db *sql.DB, userID int64, broker models.BrokerFormat, status string) error {
	_, err := db.ExecContext(ctx, `UPDATE broker_connections SET status = ?, failure_count = failure_count + 1, updated_at = ?
		WHERE user_id = ? AND broker = ?`, status, time.Now().UTC(), userID, string(broker))
	if err != nil {
		return fmt.Errorf("failed to mark %s connection failed for user %d: %w", broker, userID, err)
	}
	return nil
}

// DeleteConnection removes the stored credentials. Deleting a missing connection is not an error.
func DeleteConnection(ctx context.Context, db *sql.DB, userID int64, broker models.BrokerFormat) error {
	_, err := db.ExecContext(ctx, `DELETE FROM broker_connections WHERE user_id = ? AND broker = ?`, userID, string(broker))
	if err != nil {
		return fmt.Errorf("failed to delete %s connection for user %d: %w", broker, userID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(row rowScanner) (*models.BrokerConnection, string, error) {
	var (
		c        models.BrokerConnection
		broker   string
		sealed   string
		lastSync sql.NullTime
	)
	if err := row.Scan(&c.ID, &c.UserID, &broker, &c.APIKey, &sealed, &c.Status, &c.FailureCount, &lastSync, &c.UpdatedAt); err != nil {
		return nil, "", err
	}
	c.Broker = models.BrokerFormat(broker)
	if lastSync.Valid {
		t := lastSync.Time
		c.LastSyncAt = &t
	}
	return &c, sealed, nil
}

func queryConnections(ctx context.Context, db *sql.DB, query string, args ...any) ([]models.BrokerConnection, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query broker connections: %w", err)
	}
	defer rows.Close()

	conns := []models.BrokerConnection{}
	for rows.Next() {
		c, _, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan broker connection: %w", err)
		}
		conns = append(conns, *c)
	}
	return conns, rows.Err()
}
