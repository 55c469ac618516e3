package models

import "time"

// Connection statuses.
const (
	ConnectionActive            = "active"
	ConnectionReconnectRequired = "reconnect_required"
	ConnectionRevoked           = "revoked"
)

// Credentials authenticate calls to a broker REST API.
type Credentials struct {
	APIKey      string `json:"apiKey"`
	AccessToken string `json:"accessToken"`
}

// Complete reports whether both parts are present.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.AccessToken != ""
}

// BrokerConnection is a stored broker API link for one user.
// AccessToken is only ever held decrypted in memory.
type BrokerConnection struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"-"`
	Broker       BrokerFormat `json:"broker"`
	APIKey       string       `json:"-"`
	AccessToken  string       `json:"-"`
	Status       string       `json:"status"`
	FailureCount int          `json:"failure_count"`
	LastSyncAt   *time.Time   `json:"last_sync_at,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Credentials returns the API credentials of the connection.
func (c BrokerConnection) Credentials() Credentials {
	return Credentials{APIKey: c.APIKey, AccessToken: c.AccessToken}
}
