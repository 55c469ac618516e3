// backend/src/handlers/trade_handler.go
package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type TradeHandler struct {
	tradeService services.TradeService
}

func NewTradeHandler(service services.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: service}
}

// sendWithETag writes data as JSON unless the client already holds the same version.
func sendWithETag(w http.ResponseWriter, r *http.Request, data interface{}) {
	log := logger.FromContext(r.Context())
	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		log.Error("Failed to generate ETag", "path", r.URL.Path, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match", "path", r.URL.Path, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, http.StatusOK, data)
}

// parseDateRange reads the from_date and to_date query parameters.
func parseDateRange(r *http.Request) (models.DateRange, error) {
	q := r.URL.Query()
	return models.ParseDateRange(q.Get("from_date"), q.Get("to_date"))
}

// parseTradeFilter reads symbol, tag, the date range and page/page_size.
func parseTradeFilter(r *http.Request) (models.TradeFilter, error) {
	q := r.URL.Query()
	dates, err := parseDateRange(r)
	if err != nil {
		return models.TradeFilter{}, err
	}
	filter := models.TradeFilter{
		DateRange: dates,
		Symbol:    strings.TrimSpace(q.Get("symbol")),
		Tag:       strings.TrimSpace(q.Get("tag")),
	}
	if raw := q.Get("page"); raw != "" {
		if filter.Page, err = strconv.Atoi(raw); err != nil || filter.Page < 1 {
			return models.TradeFilter{}, fmt.Errorf("%w: page must be a positive integer", models.ErrInvalidFilter)
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		filter.PageSize, err = strconv.Atoi(raw)
		if err != nil || filter.PageSize < 1 || filter.PageSize > models.MaxPageSize {
			return models.TradeFilter{}, fmt.Errorf("%w: page_size must be between 1 and %d", models.ErrInvalidFilter, models.MaxPageSize)
		}
	}
	return filter, nil
}

func (h *TradeHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	filter, err := parseTradeFilter(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trades, err := h.tradeService.ListTrades(r.Context(), userID, filter)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	sendWithETag(w, r, trades)
}

func (h *TradeHandler) HandleDeleteTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	deleted, err := h.tradeService.DeleteTrades(r.Context(), userID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

var exportHeader = []string{"symbol", "trade_date", "entry_date", "exit_date", "position_type", "category",
	"position_size", "entry_price", "exit_price", "profit_loss", "broker", "source", "tags", "notes"}

// HandleExportTrades streams the trades as CSV. Text cells are escaped against
// spreadsheet formula injection.
func (h *TradeHandler) HandleExportTrades(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	filter, err := parseTradeFilter(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trades, err := h.tradeService.ExportTrades(r.Context(), userID, filter)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"trades-%s.csv\"", time.Now().UTC().Format("20060102")))
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		logger.FromContext(r.Context()).Error("Failed to write CSV header", "error", err)
		return
	}
	for _, t := range trades {
		if err := cw.Write(exportRecord(t)); err != nil {
			logger.FromContext(r.Context()).Error("Failed to write CSV record", "tradeID", t.ID, "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		logger.FromContext(r.Context()).Error("Failed to flush CSV export", "error", err)
	}
}

func exportRecord(t models.NormalizedTrade) []string {
	exitDate := ""
	if t.ExitDate != nil {
		exitDate = t.ExitDate.Format("2006-01-02")
	}
	nullable := func(valid bool, s string) string {
		if !valid {
			return ""
		}
		return s
	}
	return []string{
		validation.SanitizeForFormulaInjection(t.Symbol),
		t.TradeDate,
		t.EntryDate.Format("2006-01-02"),
		exitDate,
		string(t.PositionType),
		string(t.Category),
		t.PositionSize.String(),
		t.EntryPrice.String(),
		nullable(t.ExitPrice.Valid, t.ExitPrice.Decimal.String()),
		nullable(t.ProfitLoss.Valid, t.ProfitLoss.Decimal.String()),
		string(t.Broker),
		t.Source,
		validation.SanitizeForFormulaInjection(strings.Join(t.Tags, ";")),
		validation.SanitizeForFormulaInjection(t.Notes),
	}
}
