package models

import "time"

// ErrorDetail describes one rejected candidate row.
type ErrorDetail struct {
	Row        int    `json:"row"`
	Reason     string `json:"reason"`
	Preview    string `json:"preview"`
	Suggestion string `json:"suggestion"`
}

// ImportReport is returned by every import or sync call. It is built fresh per call and never persisted.
type ImportReport struct {
	TotalRows    int           `json:"totalRows"`
	Imported     int           `json:"imported"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	WithPnL      int           `json:"withPnL"`
	WithoutPnL   int           `json:"withoutPnL"`
	ErrorDetails []ErrorDetail `json:"errorDetails,omitempty"`
	Format       BrokerFormat  `json:"format,omitempty"`
}

// ImportHistoryEntry is one row of the import_history table.
type ImportHistoryEntry struct {
	ID        int64        `json:"id"`
	Source    string       `json:"source"`
	Format    BrokerFormat `json:"format"`
	Filename  string       `json:"filename,omitempty"`
	TotalRows int          `json:"total_rows"`
	Imported  int          `json:"imported"`
	Skipped   int          `json:"skipped"`
	Errors    int          `json:"errors"`
	CreatedAt time.Time    `json:"created_at"`
}
