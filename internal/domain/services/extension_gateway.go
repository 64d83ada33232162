package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

// Default names for media analyzed from a raw blob
const (
	defaultAudioName = "analysis.mp3"
	defaultVideoName = "analysis.mp4"
)

// ExtensionService answers browser extension messages. The client's config is
// loaded per call and passed down by value; nothing is cached between calls.
type ExtensionService struct {
	analyzer *Analyzer
	configs  ConfigStore
	history  HistoryStore
	stats    StatsStore
	policy   *NavigationPolicy

	defaults     models.ExtensionConfig
	historyLimit int
	logger       *logger.Logger
}

// DefaultExtensionConfig builds the config a new client starts with
func DefaultExtensionConfig(cfg config.ExtensionConfig) models.ExtensionConfig {
	level := models.AlertLevel(cfg.AlertLevel)
	if !ValidAlertLevel(level) {
		level = models.AlertLevelMedium
	}
	return models.ExtensionConfig{
		Enabled:                 cfg.Enabled,
		EnablePhishingDetection: cfg.EnablePhishingDetection,
		EnableDeepfakeDetection: cfg.EnableDeepfakeDetection,
		EnableVoiceDetection:    cfg.EnableVoiceDetection,
		AlertLevel:              level,
		AutoBlockThreats:        cfg.AutoBlockThreats,
	}
}

// NewExtensionService creates a new extension service
func NewExtensionService(
	analyzer *Analyzer,
	configs ConfigStore,
	history HistoryStore,
	stats StatsStore,
	cfg config.ExtensionConfig,
	log *logger.Logger,
) *ExtensionService {
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ExtensionService{
		analyzer:     analyzer,
		configs:      configs,
		history:      history,
		stats:        stats,
		policy:       NewNavigationPolicy(cfg.WarningPage),
		defaults:     DefaultExtensionConfig(cfg),
		historyLimit: limit,
		logger:       log.WithComponent("extension"),
	}
}

// HandleMessage dispatches one extension message. Failures are reported in
// the response body as well as returned so the transport can pick a status.
func (s *ExtensionService) HandleMessage(ctx context.Context, clientID string, msg models.ExtensionMessage) (models.ExtensionResponse, error) {
	resp, err := s.dispatch(ctx, clientID, msg)
	if err != nil {
		s.logger.Debug().Err(err).Str("action", msg.Action).Str("client_id", clientID).Msg("extension message failed")
		return models.ExtensionResponse{Success: false, Error: err.Error()}, err
	}
	return resp, nil
}

func (s *ExtensionService) dispatch(ctx context.Context, clientID string, msg models.ExtensionMessage) (models.ExtensionResponse, error) {
	switch msg.Action {
	case models.ActionGetConfig:
		cfg := s.Config(ctx, clientID)
		return models.ExtensionResponse{Success: true, Config: &cfg}, nil

	case models.ActionUpdateConfig:
		var patch models.ExtensionConfigPatch
		if err := decodeData(msg.Data, &patch); err != nil {
			return models.ExtensionResponse{}, err
		}
		cfg, err := s.UpdateConfig(ctx, clientID, patch)
		if err != nil {
			return models.ExtensionResponse{}, err
		}
		return models.ExtensionResponse{Success: true, Config: &cfg}, nil

	case models.ActionAnalyzeMedia:
		var req models.MediaRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return models.ExtensionResponse{}, err
		}
		result, err := s.AnalyzeMedia(ctx, clientID, req)
		if err != nil {
			return models.ExtensionResponse{}, err
		}
		return models.ExtensionResponse{Success: true, Result: result.Legacy()}, nil

	case models.ActionAnalyzeURL, models.ActionAnalyzeLink:
		var req models.URLRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return models.ExtensionResponse{}, err
		}
		decision, err := s.AnalyzeURL(ctx, clientID, req.URL)
		if err != nil {
			return models.ExtensionResponse{}, err
		}
		return models.ExtensionResponse{Success: true, Result: decision}, nil

	case models.ActionGetAnalysisHistory:
		var req historyRequest
		if len(msg.Data) > 0 {
			if err := decodeData(msg.Data, &req); err != nil {
				return models.ExtensionResponse{}, err
			}
		}
		filter, err := req.filter()
		if err != nil {
			return models.ExtensionResponse{}, err
		}
		items, err := s.FilteredHistory(ctx, clientID, filter)
		if err != nil {
			return models.ExtensionResponse{}, err
		}
		return models.ExtensionResponse{Success: true, History: items}, nil

	case models.ActionQuickCheck:
		var req models.URLRequest
		if err := decodeData(msg.Data, &req); err != nil {
			return models.ExtensionResponse{}, err
		}
		return models.ExtensionResponse{Success: true, Result: s.QuickCheck(ctx, clientID, req.URL)}, nil
	}

	return models.ExtensionResponse{}, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, msg.Action)
}

// Config returns the client's config, or the defaults when none is stored
// or the store is unreachable
func (s *ExtensionService) Config(ctx context.Context, clientID string) models.ExtensionConfig {
	if s.configs == nil || clientID == "" {
		return s.defaults
	}
	cfg, err := s.configs.GetConfig(ctx, clientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID).Msg("failed to load extension config, using defaults")
		return s.defaults
	}
	if cfg == nil {
		return s.defaults
	}
	return *cfg
}

// UpdateConfig merges patch into the client's config and stores the result
func (s *ExtensionService) UpdateConfig(ctx context.Context, clientID string, patch models.ExtensionConfigPatch) (models.ExtensionConfig, error) {
	if patch.AlertLevel != nil && !ValidAlertLevel(*patch.AlertLevel) {
		return models.ExtensionConfig{}, fmt.Errorf("%w: alert level %q", ErrInvalidInput, *patch.AlertLevel)
	}

	cfg := patch.Apply(s.Config(ctx, clientID))
	if s.configs != nil && clientID != "" {
		if err := s.configs.SaveConfig(ctx, clientID, cfg); err != nil {
			return models.ExtensionConfig{}, fmt.Errorf("failed to save extension config: %w", err)
		}
	}
	return cfg, nil
}

// AnalyzeMedia analyzes an audio or video item found on a page
func (s *ExtensionService) AnalyzeMedia(ctx context.Context, clientID string, req models.MediaRequest) (*models.AnalysisResult, error) {
	ct, ok := models.ParseContentType(req.Type)
	if !ok || (ct != models.ContentTypeVoice && ct != models.ContentTypeVideo) {
		return nil, fmt.Errorf("%w: media type %q", ErrUnsupportedContent, req.Type)
	}

	cfg := s.Config(ctx, clientID)
	if err := checkEnabled(cfg, ct); err != nil {
		return nil, err
	}

	in, err := mediaInput(ct, req)
	if err != nil {
		return nil, err
	}

	mime := "audio/mpeg"
	if ct == models.ContentTypeVideo {
		mime = "video/mp4"
	}

	result, err := s.analyzer.AnalyzeMedia(ctx, in, s.meta(clientID), req.MediaBlob, mime)
	if err != nil {
		return nil, err
	}

	delta := models.ProtectionStats{MediaAnalyzed: 1}
	if MediaBlocked(cfg, result) {
		delta.ThreatsBlocked = 1
	}
	s.record(ctx, clientID, in.Subject(), result, delta)

	return result, nil
}

// AnalyzeURL analyzes a page the client is about to open
func (s *ExtensionService) AnalyzeURL(ctx context.Context, clientID, rawURL string) (models.NavigationDecision, error) {
	cfg := s.Config(ctx, clientID)
	if err := checkEnabled(cfg, models.ContentTypeLink); err != nil {
		return models.NavigationDecision{}, err
	}

	result, err := s.analyzer.Analyze(ctx, models.NewURLInput(rawURL), s.meta(clientID))
	if err != nil {
		return models.NavigationDecision{}, err
	}

	decision := s.policy.Decide(cfg, rawURL, result)

	delta := models.ProtectionStats{LinksScanned: 1}
	if decision.Blocked {
		delta.ThreatsBlocked = 1
	}
	s.record(ctx, clientID, rawURL, result, delta)

	return decision, nil
}

// QuickCheck runs the hover-time URL checks and counts the scan
func (s *ExtensionService) QuickCheck(ctx context.Context, clientID, rawURL string) []string {
	findings := QuickCheckURL(rawURL)
	s.incrStats(ctx, clientID, models.ProtectionStats{LinksScanned: 1})
	return findings
}

// FilteredHistory returns the client's history narrowed by f, newest first
func (s *ExtensionService) FilteredHistory(ctx context.Context, clientID string, f models.HistoryFilter) ([]models.HistoryItem, error) {
	if s.history == nil || clientID == "" {
		return []models.HistoryItem{}, nil
	}
	items, err := s.history.List(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return FilterHistory(items, f), nil
}

// HistoryPage returns one page of the client's filtered history
func (s *ExtensionService) HistoryPage(ctx context.Context, clientID string, f models.HistoryFilter) (models.HistoryPage, error) {
	items, err := s.FilteredHistory(ctx, clientID, f)
	if err != nil {
		return models.HistoryPage{}, err
	}
	return PaginateHistory(items, f.Page), nil
}

// Stats returns the client's protection counters
func (s *ExtensionService) Stats(ctx context.Context, clientID string) (models.ProtectionStats, error) {
	if s.stats == nil || clientID == "" {
		return models.ProtectionStats{}, nil
	}
	return s.stats.GetStats(ctx, clientID)
}

func (s *ExtensionService) meta(clientID string) models.AnalysisMeta {
	return models.AnalysisMeta{ClientID: clientID, Source: "extension"}
}

// record appends to history and bumps counters. Both are best effort.
func (s *ExtensionService) record(ctx context.Context, clientID, content string, result *models.AnalysisResult, delta models.ProtectionStats) {
	if s.history != nil && clientID != "" {
		if err := s.history.Push(ctx, clientID, NewHistoryItem(content, result), s.historyLimit); err != nil {
			s.logger.Warn().Err(err).Str("client_id", clientID).Msg("failed to store history item")
		}
	}
	s.incrStats(ctx, clientID, delta)
}

func (s *ExtensionService) incrStats(ctx context.Context, clientID string, delta models.ProtectionStats) {
	if s.stats == nil || clientID == "" {
		return
	}
	if err := s.stats.IncrStats(ctx, clientID, delta); err != nil {
		s.logger.Warn().Err(err).Str("client_id", clientID).Msg("failed to update stats")
	}
}

func checkEnabled(cfg models.ExtensionConfig, ct models.ContentType) error {
	if !cfg.Enabled {
		return &DisabledError{Detector: "Guardian Shield"}
	}
	switch ct {
	case models.ContentTypeLink:
		if !cfg.EnablePhishingDetection {
			return &DisabledError{Detector: "Phishing"}
		}
	case models.ContentTypeVoice:
		if !cfg.EnableVoiceDetection {
			return &DisabledError{Detector: "Voice"}
		}
	case models.ContentTypeVideo:
		if !cfg.EnableDeepfakeDetection {
			return &DisabledError{Detector: "Deepfake"}
		}
	}
	return nil
}

// mediaInput builds the analysis input for a blob or a URL reference. A URL
// reference must carry its size since nothing is downloaded.
func mediaInput(ct models.ContentType, req models.MediaRequest) (models.AnalysisInput, error) {
	name := req.FileName
	var size int64

	switch {
	case len(req.MediaBlob) > 0:
		size = int64(len(req.MediaBlob))
		if name == "" {
			name = defaultAudioName
			if ct == models.ContentTypeVideo {
				name = defaultVideoName
			}
		}
	case req.MediaURL != "":
		if req.Size <= 0 {
			return models.AnalysisInput{}, fmt.Errorf("%w: size is required with mediaUrl", ErrInvalidInput)
		}
		size = req.Size
		if name == "" {
			name = path.Base(req.MediaURL)
		}
	default:
		return models.AnalysisInput{}, fmt.Errorf("%w: mediaBlob or mediaUrl is required", ErrInvalidInput)
	}

	if ct == models.ContentTypeVideo {
		return models.NewVideoInput(name, size), nil
	}
	return models.NewAudioInput(name, size), nil
}

// historyRequest is the data payload of getAnalysisHistory
type historyRequest struct {
	Type   string `json:"type"`
	Result string `json:"result"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// ParseHistoryFilter builds a filter from query-style values. Dates are
// YYYY-MM-DD or RFC 3339.
func ParseHistoryFilter(typ, result, from, to string, page int) (models.HistoryFilter, error) {
	f := models.HistoryFilter{Type: typ, Result: result, Page: page}
	switch result {
	case "", "all", "threat", "safe":
	default:
		return f, fmt.Errorf("%w: result filter %q", ErrInvalidInput, result)
	}
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return f, err
		}
		f.To = &t
	}
	return f, nil
}

func (r historyRequest) filter() (models.HistoryFilter, error) {
	return ParseHistoryFilter(r.Type, r.Result, r.From, r.To, 0)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidInput, s)
	}
	return t, nil
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: message data is required", ErrInvalidInput)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
