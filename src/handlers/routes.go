package handlers

import (
	"github.com/go-chi/chi/v5"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Users       *UserHandler
	Imports     *ImportHandler
	Sync        *SyncHandler
	Connections *ConnectionHandler
	Trades      *TradeHandler
	Analytics   *AnalyticsHandler
}

// Routes mounts the API under r, typically the "/api" subrouter.
func (h Handlers) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Post("/auth/register", h.Users.RegisterUserHandler)
		r.Post("/auth/login", h.Users.LoginUserHandler)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.Users.AuthMiddleware)

		r.Post("/imports/file", h.Imports.HandleFileImport)
		r.Post("/imports/rows", h.Imports.HandleRowsImport)
		r.Get("/imports/history", h.Imports.HandleGetHistory)

		r.Post("/sync/zerodha", h.Sync.HandleSync)

		r.Get("/connections", h.Connections.HandleListConnections)
		r.Put("/connections/{broker}", h.Connections.HandleConnect)
		r.Delete("/connections/{broker}", h.Connections.HandleDisconnect)

		r.Get("/trades", h.Trades.HandleGetTrades)
		r.Get("/trades/export", h.Trades.HandleExportTrades)
		r.Delete("/trades", h.Trades.HandleDeleteTrades)

		r.Get("/analytics/equity-curve", h.Analytics.HandleGetEquityCurve)
		r.Get("/analytics/winrate", h.Analytics.HandleGetWinRate)
	})
}
