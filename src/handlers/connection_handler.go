// backend/src/handlers/connection_handler.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ConnectionHandler struct {
	connectionService services.ConnectionService
}

func NewConnectionHandler(service services.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService: service}
}

func brokerParam(w http.ResponseWriter, r *http.Request) (models.BrokerFormat, bool) {
	broker, err := models.ParseFormat(chi.URLParam(r, "broker"))
	if err != nil || broker == models.FormatAuto {
		utils.SendJSONError(w, "unknown broker", http.StatusNotFound)
		return "", false
	}
	return broker, true
}

func (h *ConnectionHandler) HandleListConnections(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conns, err := h.connectionService.List(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if conns == nil {
		conns = []models.BrokerConnection{}
	}
	utils.SendJSON(w, http.StatusOK, conns)
}

func (h *ConnectionHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	broker, ok := brokerParam(w, r)
	if !ok {
		return
	}

	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	conn, err := h.connectionService.Connect(r.Context(), userID, broker, creds)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, conn)
}

func (h *ConnectionHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	broker, ok := brokerParam(w, r)
	if !ok {
		return
	}
	if err := h.connectionService.Disconnect(r.Context(), userID, broker); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
