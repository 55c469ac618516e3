// backend/src/handlers/analytics_handler.go
package handlers

import (
	"net/http"

	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type AnalyticsHandler struct {
	analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(service services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: service}
}

func (h *AnalyticsHandler) HandleGetEquityCurve(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dates, err := parseDateRange(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	points, err := h.analyticsService.GetEquityCurve(r.Context(), userID, dates)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, points)
}

func (h *AnalyticsHandler) HandleGetWinRate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	dates, err := parseDateRange(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	summary, err := h.analyticsService.GetWinRate(r.Context(), userID, dates)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, summary)
}
