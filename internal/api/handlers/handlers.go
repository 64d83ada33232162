package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
	"guardian-shield/internal/streaming"
	"guardian-shield/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Analysis  *AnalysisHandler
	Legacy    *LegacyHandler
	Extension *ExtensionHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Config    config.Config
	Analyzer  *services.Analyzer
	Extension *services.ExtensionService
	Records   services.RecordLister
	WSHub     *streaming.WebSocketHub
	EventBus  *streaming.EventBus
	Checks    map[string]HealthCheck
	Logger    *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	uploads := newUploadPolicy(deps.Config.Server.MaxUploadBytes)
	return &Handlers{
		Health:    NewHealthHandler(deps.Config.App.Version, deps.Checks, deps.Logger),
		Analysis:  NewAnalysisHandler(deps.Analyzer, deps.Records, uploads, deps.Config.Analysis.DefaultUserID, deps.Logger),
		Legacy:    NewLegacyHandler(deps.Analyzer, uploads, deps.Config.Analysis.DefaultUserID, deps.Logger),
		Extension: NewExtensionHandler(deps.Extension, uploads, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.EventBus, deps.Logger),
	}
}

// errPayloadTooLarge marks an upload over the configured limit
var errPayloadTooLarge = errors.New("payload too large")

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, errPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnsupportedContent):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, services.ErrDetectionDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error text behind a generic message
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr writes err with its mapped status and logs server-side failures
func respondErr(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithRequestID(middleware.GetReqID(r.Context())).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	respondError(w, status, publicMessage(err, status))
}

// decodeJSON decodes a JSON request body, mapping syntax errors to ErrInvalidInput
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(services.ErrInvalidInput, errors.New("invalid request body"))
	}
	return nil
}

func requestMeta(r *http.Request, userID int, source string) models.AnalysisMeta {
	return models.AnalysisMeta{
		UserID:   userID,
		ClientID: clientID(r),
		Source:   source,
	}
}
