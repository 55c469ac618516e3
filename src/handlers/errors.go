package handlers

import (
	"errors"
	"net/http"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

// sendServiceError maps service errors to HTTP statuses.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, services.ErrEmptyBatch):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrParsingFailed), errors.Is(err, services.ErrUnknownFormat),
		errors.Is(err, validation.ErrValidationFailed):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrImportInProgress):
		status, message = http.StatusConflict, services.ErrImportInProgress.Error()
	case errors.Is(err, services.ErrBrokerUnavailable):
		status, message = http.StatusBadGateway, services.ErrBrokerUnavailable.Error()
	case errors.Is(err, services.ErrPersistFailed):
		message = services.ErrPersistFailed.Error()
	}
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
	}
	utils.SendJSONError(w, message, status)
}

func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
	}
	return userID, ok
}
