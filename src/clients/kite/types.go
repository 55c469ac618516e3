package kite

import "github.com/shopspring/decimal"

// Order statuses reported by the orders endpoint.
const (
	StatusComplete  = "COMPLETE"
	StatusOpen      = "OPEN"
	StatusCancelled = "CANCELLED"
	StatusRejected  = "REJECTED"
)

// Order is one entry of GET /orders.
type Order struct {
	OrderID           string          `json:"order_id"`
	ExchangeOrderID   string          `json:"exchange_order_id"`
	Status            string          `json:"status"`
	TradingSymbol     string          `json:"tradingsymbol"`
	Exchange          string          `json:"exchange"`
	Product           string          `json:"product"`
	TransactionType   string          `json:"transaction_type"`
	Quantity          decimal.Decimal `json:"quantity"`
	FilledQuantity    decimal.Decimal `json:"filled_quantity"`
	AveragePrice      decimal.Decimal `json:"average_price"`
	Price             decimal.Decimal `json:"price"`
	OrderTimestamp    string          `json:"order_timestamp"`
	ExchangeTimestamp string          `json:"exchange_timestamp"`
}

// Completed reports whether the order is fully executed with a positive fill.
func (o Order) Completed() bool {
	return o.Status == StatusComplete && o.FilledQuantity.IsPositive()
}

// Position is one entry of the positions lists.
type Position struct {
	TradingSymbol string           `json:"tradingsymbol"`
	Exchange      string           `json:"exchange"`
	Product       string           `json:"product"`
	Quantity      decimal.Decimal  `json:"quantity"`
	AveragePrice  decimal.Decimal  `json:"average_price"`
	PnL           *decimal.Decimal `json:"pnl"`
	Realised      *decimal.Decimal `json:"realised"`
}

// RealisedPnL returns realised P&L, falling back to pnl.
func (p Position) RealisedPnL() (decimal.Decimal, bool) {
	if p.Realised != nil {
		return *p.Realised, true
	}
	if p.PnL != nil {
		return *p.PnL, true
	}
	return decimal.Zero, false
}

// Positions is the payload of GET /portfolio/positions.
type Positions struct {
	Net []Position `json:"net"`
	Day []Position `json:"day"`
}
