package handlers

import (
	"errors"
	"net/http"

	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
	"guardian-shield/pkg/logger"
)

// LegacyHandler keeps the first-generation /api routes and their camelCase
// bodies working
type LegacyHandler struct {
	analyzer *services.Analyzer
	uploads  uploadPolicy
	userID   int
	logger   *logger.Logger
}

// NewLegacyHandler creates a new legacy handler
func NewLegacyHandler(analyzer *services.Analyzer, uploads uploadPolicy, userID int, log *logger.Logger) *LegacyHandler {
	return &LegacyHandler{
		analyzer: analyzer,
		uploads:  uploads,
		userID:   userID,
		logger:   log.WithComponent("legacy-handler"),
	}
}

type legacyURLRequest struct {
	URL string `json:"url"`
}

type legacyEmailRequest struct {
	Content string `json:"content"`
}

// VoiceDetection handles POST /api/voice-detection
func (h *LegacyHandler) VoiceDetection(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "audio", audioMIMETypes, "No audio file provided", models.NewAudioInput)
}

// DeepfakeDetection handles POST /api/deepfake-detection
func (h *LegacyHandler) DeepfakeDetection(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, "video", videoMIMETypes, "No video file provided", models.NewVideoInput)
}

// LinkDetection handles POST /api/phishing-detection/link and /url
func (h *LegacyHandler) LinkDetection(w http.ResponseWriter, r *http.Request) {
	var req legacyURLRequest
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		respondError(w, http.StatusBadRequest, "No URL provided")
		return
	}
	h.run(w, r, models.NewURLInput(req.URL))
}

// EmailDetection handles POST /api/phishing-detection/email
func (h *LegacyHandler) EmailDetection(w http.ResponseWriter, r *http.Request) {
	var req legacyEmailRequest
	if err := decodeJSON(r, &req); err != nil || req.Content == "" {
		respondError(w, http.StatusBadRequest, "No email content provided")
		return
	}
	h.run(w, r, models.NewEmailInput(req.Content))
}

func (h *LegacyHandler) run(w http.ResponseWriter, r *http.Request, in models.AnalysisInput) {
	result, err := h.analyzer.Analyze(r.Context(), in, requestMeta(r, h.userID, "legacy"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result.Legacy())
}

func (h *LegacyHandler) upload(w http.ResponseWriter, r *http.Request, field string, allowed []string, missing string, build func(string, int64) models.AnalysisInput) {
	up, err := h.uploads.receive(w, r, field, allowed, h.analyzer.ArchivesMedia())
	if errors.Is(err, errNoFile) {
		respondError(w, http.StatusBadRequest, missing)
		return
	}
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	result, err := h.analyzer.AnalyzeMedia(r.Context(), build(up.Name, up.Size), requestMeta(r, h.userID, "legacy"), up.Data, up.ContentType)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result.Legacy())
}
