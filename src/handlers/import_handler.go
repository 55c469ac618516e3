// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/username/tradejournal/backend/src/config"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ImportHandler struct {
	importService services.ImportService
}

func NewImportHandler(service services.ImportService) *ImportHandler {
	return &ImportHandler{importService: service}
}

// HandleFileImport accepts a multipart upload with a "file" part and an optional "format" field.
func (h *ImportHandler) HandleFileImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context())
	maxSize := config.Cfg.MaxUploadSizeBytes

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1024*1024)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", maxSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}

	format, err := models.ParseFormat(r.FormValue("format"))
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > maxSize {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", maxSize)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", maxSize/(1024*1024)), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateFilename(fileHeader.Filename, strconv.FormatInt(userID, 10)); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateDeclaredMatchesContent(clientContentType, fileHeader.Filename, detectedContentType); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Info("Processing file import", "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	report, err := h.importService.ImportFile(r.Context(), userID, services.FileImport{
		Reader:   file,
		Filename: fileHeader.Filename,
		Format:   format,
	})
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, report)
}

type rowsImportRequest struct {
	Format string           `json:"format"`
	Rows   []map[string]any `json:"rows"`
}

// HandleRowsImport accepts rows already parsed by the client, e.g. from a spreadsheet.
func (h *ImportHandler) HandleRowsImport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	var req rowsImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	format, err := models.ParseFormat(req.Format)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows := make([]models.RawRow, 0, len(req.Rows))
	for _, raw := range req.Rows {
		rows = append(rows, models.RawRowFromAny(raw))
	}

	report, err := h.importService.ImportRows(r.Context(), userID, rows, format)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, report)
}

func (h *ImportHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.importService.GetImportHistory(r.Context(), userID, limit)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []models.ImportHistoryEntry{}
	}
	utils.SendJSON(w, http.StatusOK, history)
}
