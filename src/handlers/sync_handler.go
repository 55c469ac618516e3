// backend/src/handlers/sync_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

// Sync response statuses. not_connected and reconnect_required are answered
// with 200 so clients can tell "act on this" apart from a failure.
const (
	SyncStatusOK                = "ok"
	SyncStatusNotConnected      = "not_connected"
	SyncStatusReconnectRequired = "reconnect_required"
)

type SyncResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Report  *models.ImportReport `json:"report,omitempty"`
}

type syncRequest struct {
	Credentials *models.Credentials `json:"credentials"`
}

type SyncHandler struct {
	syncService services.SyncService
}

func NewSyncHandler(service services.SyncService) *SyncHandler {
	return &SyncHandler{syncService: service}
}

func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req syncRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	report, err := h.syncService.SyncOrders(r.Context(), userID, req.Credentials)
	switch {
	case errors.Is(err, services.ErrNotConnected):
		utils.SendJSON(w, http.StatusOK, SyncResponse{Status: SyncStatusNotConnected, Message: "Connect your Zerodha account to sync orders."})
	case errors.Is(err, services.ErrReconnectRequired):
		utils.SendJSON(w, http.StatusOK, SyncResponse{Status: SyncStatusReconnectRequired, Message: "Your Zerodha session expired. Reconnect to continue syncing."})
	case err != nil:
		sendServiceError(w, r, err)
	default:
		utils.SendJSON(w, http.StatusOK, SyncResponse{Status: SyncStatusOK, Report: report})
	}
}
