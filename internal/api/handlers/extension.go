package handlers

import (
	"net/http"
	"strconv"

	"guardian-shield/internal/api/middleware"
	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
	"guardian-shield/pkg/logger"
)

// ExtensionHandler serves the browser extension endpoints
type ExtensionHandler struct {
	service *services.ExtensionService
	uploads uploadPolicy
	logger  *logger.Logger
}

// NewExtensionHandler creates a new extension handler
func NewExtensionHandler(service *services.ExtensionService, uploads uploadPolicy, log *logger.Logger) *ExtensionHandler {
	return &ExtensionHandler{
		service: service,
		uploads: uploads,
		logger:  log.WithComponent("extension-handler"),
	}
}

// Message handles POST /api/v1/extension/message
func (h *ExtensionHandler) Message(w http.ResponseWriter, r *http.Request) {
	// Media blobs arrive inline, so the body gets the upload limit
	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.maxBytes)

	var msg models.ExtensionMessage
	if err := decodeJSON(r, &msg); err != nil {
		respondJSON(w, http.StatusBadRequest, models.ExtensionResponse{Success: false, Error: "invalid request body"})
		return
	}

	id := clientID(r)
	resp, err := h.service.HandleMessage(r.Context(), id, msg)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.WithClientID(id).Error().Err(err).Str("action", msg.Action).Msg("extension message failed")
		}
		resp.Error = publicMessage(err, status)
		respondJSON(w, status, resp)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// History handles GET /api/v1/extension/history
func (h *ExtensionHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	filter, err := services.ParseHistoryFilter(q.Get("type"), q.Get("result"), q.Get("from"), q.Get("to"), page)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	result, err := h.service.HistoryPage(r.Context(), clientID(r), filter)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Stats handles GET /api/v1/extension/stats
func (h *ExtensionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), clientID(r))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// QuickCheck handles POST /api/v1/extension/quick-check
func (h *ExtensionHandler) QuickCheck(w http.ResponseWriter, r *http.Request) {
	var req models.URLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	findings := h.service.QuickCheck(r.Context(), clientID(r), req.URL)
	respondJSON(w, http.StatusOK, map[string]any{
		"url":      req.URL,
		"findings": findings,
		"warning":  len(findings) > 0,
	})
}

func clientID(r *http.Request) string {
	return r.Header.Get(middleware.ClientIDHeader)
}
