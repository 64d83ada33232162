package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
	"guardian-shield/pkg/logger"
)

// Recent listing bounds
const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// AnalysisHandler serves the /api/v1/analyze endpoints
type AnalysisHandler struct {
	analyzer *services.Analyzer
	records  services.RecordLister
	uploads  uploadPolicy
	userID   int
	logger   *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer *services.Analyzer, records services.RecordLister, uploads uploadPolicy, userID int, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
		records:  records,
		uploads:  uploads,
		userID:   userID,
		logger:   log.WithComponent("analysis-handler"),
	}
}

// LinkRequest is the body of POST /analyze/link
type LinkRequest struct {
	URL string `json:"url"`
}

// EmailRequest is the body of POST /analyze/email
type EmailRequest struct {
	Content string `json:"content"`
}

// BatchRequest is the body of POST /analyze/batch
type BatchRequest struct {
	Items []BatchInput `json:"items"`
}

// BatchInput is one item of a batch request
type BatchInput struct {
	Type      string `json:"type"`
	URL       string `json:"url,omitempty"`
	Content   string `json:"content,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Input converts the item into an analysis input
func (b BatchInput) Input() models.AnalysisInput {
	ct, ok := models.ParseContentType(b.Type)
	if !ok {
		return models.AnalysisInput{Type: models.ContentType(b.Type)}
	}
	switch ct {
	case models.ContentTypeLink:
		return models.NewURLInput(b.URL)
	case models.ContentTypeEmail:
		return models.NewEmailInput(b.Content)
	case models.ContentTypeVoice:
		return models.NewAudioInput(b.FileName, b.SizeBytes)
	default:
		return models.NewVideoInput(b.FileName, b.SizeBytes)
	}
}

// BatchResultItem is one slot of a batch response
type BatchResultItem struct {
	Index  int                    `json:"index"`
	Result *models.AnalysisResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// BatchResponse is the body returned by POST /analyze/batch
type BatchResponse struct {
	Results   []BatchResultItem `json:"results"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// AnalyzeLink handles POST /api/v1/analyze/link
func (h *AnalysisHandler) AnalyzeLink(w http.ResponseWriter, r *http.Request) {
	var req LinkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	h.run(w, r, models.NewURLInput(req.URL))
}

// AnalyzeEmail handles POST /api/v1/analyze/email
func (h *AnalysisHandler) AnalyzeEmail(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	h.run(w, r, models.NewEmailInput(req.Content))
}

// AnalyzeVoice handles POST /api/v1/analyze/voice
func (h *AnalysisHandler) AnalyzeVoice(w http.ResponseWriter, r *http.Request) {
	h.runUpload(w, r, "audio", audioMIMETypes, models.NewAudioInput)
}

// AnalyzeVideo handles POST /api/v1/analyze/video
func (h *AnalysisHandler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	h.runUpload(w, r, "video", videoMIMETypes, models.NewVideoInput)
}

// AnalyzeBatch handles POST /api/v1/analyze/batch
func (h *AnalysisHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	inputs := make([]models.AnalysisInput, len(req.Items))
	for i, item := range req.Items {
		inputs[i] = item.Input()
	}

	items, err := h.analyzer.AnalyzeBatch(r.Context(), inputs, requestMeta(r, h.userID, "api"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	resp := BatchResponse{Results: make([]BatchResultItem, len(items))}
	for i, item := range items {
		resp.Results[i] = BatchResultItem{Index: i, Result: item.Result}
		if item.Err != nil {
			resp.Results[i].Error = item.Err.Error()
			resp.Failed++
			continue
		}
		resp.Succeeded++
	}

	respondJSON(w, http.StatusOK, resp)
}

// Recent handles GET /api/v1/analyses/recent
func (h *AnalysisHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		respondError(w, http.StatusServiceUnavailable, "record store not configured")
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	records, err := h.records.Recent(r.Context(), limit)
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("failed to list analyses: %w", err))
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"analyses": records,
		"count":    len(records),
	})
}

func (h *AnalysisHandler) run(w http.ResponseWriter, r *http.Request, in models.AnalysisInput) {
	result, err := h.analyzer.Analyze(r.Context(), in, requestMeta(r, h.userID, "api"))
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *AnalysisHandler) runUpload(w http.ResponseWriter, r *http.Request, field string, allowed []string, build func(string, int64) models.AnalysisInput) {
	up, err := h.uploads.receive(w, r, field, allowed, h.analyzer.ArchivesMedia())
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}

	result, err := h.analyzer.AnalyzeMedia(r.Context(), build(up.Name, up.Size), requestMeta(r, h.userID, "api"), up.Data, up.ContentType)
	if err != nil {
		respondErr(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Summary handles GET /api/v1/analyses/summary
func (h *AnalysisHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counter, ok := h.records.(services.VerdictCounter)
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "record store does not support summaries")
		return
	}

	counts, err := counter.CountByVerdict(r.Context())
	if err != nil {
		respondErr(w, r, h.logger, fmt.Errorf("failed to count analyses: %w", err))
		return
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"verdicts": counts,
		"total":    total,
	})
}
