package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

type fakeExtensionStore struct {
	mu      sync.Mutex
	configs map[string]models.ExtensionConfig
	history map[string][]models.HistoryItem
	stats   map[string]models.ProtectionStats
}

func newFakeExtensionStore() *fakeExtensionStore {
	return &fakeExtensionStore{
		configs: make(map[string]models.ExtensionConfig),
		history: make(map[string][]models.HistoryItem),
		stats:   make(map[string]models.ProtectionStats),
	}
}

func (s *fakeExtensionStore) GetConfig(_ context.Context, id string) (*models.ExtensionConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.configs[id]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *fakeExtensionStore) SaveConfig(_ context.Context, id string, cfg models.ExtensionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[id] = cfg
	return nil
}

func (s *fakeExtensionStore) Push(_ context.Context, id string, item models.HistoryItem, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[id] = PrependHistory(s.history[id], item, limit)
	return nil
}

func (s *fakeExtensionStore) List(_ context.Context, id string) ([]models.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryItem(nil), s.history[id]...), nil
}

func (s *fakeExtensionStore) IncrStats(_ context.Context, id string, d models.ProtectionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.stats[id]
	cur.ThreatsBlocked += d.ThreatsBlocked
	cur.LinksScanned += d.LinksScanned
	cur.MediaAnalyzed += d.MediaAnalyzed
	s.stats[id] = cur
	return nil
}

func (s *fakeExtensionStore) GetStats(_ context.Context, id string) (models.ProtectionStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats[id], nil
}

func defaultExtensionSettings() config.ExtensionConfig {
	return config.ExtensionConfig{
		Enabled:                 true,
		EnablePhishingDetection: true,
		EnableDeepfakeDetection: true,
		EnableVoiceDetection:    true,
		AlertLevel:              "medium",
		AutoBlockThreats:        true,
	}
}

func newTestExtensionService(store *fakeExtensionStore) *ExtensionService {
	return NewExtensionService(newTestAnalyzer(), store, store, store, defaultExtensionSettings(), logger.NewNop())
}

func message(t *testing.T, action string, data any) models.ExtensionMessage {
	t.Helper()
	msg := models.ExtensionMessage{Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			t.Fatal(err)
		}
		msg.Data = raw
	}
	return msg
}

func TestHandleMessageConfig(t *testing.T) {
	store := newFakeExtensionStore()
	s := newTestExtensionService(store)
	ctx := context.Background()

	resp, err := s.HandleMessage(ctx, "client-1", message(t, models.ActionGetConfig, nil))
	if err != nil {
		t.Fatalf("getConfig error = %v", err)
	}
	want := DefaultExtensionConfig(defaultExtensionSettings())
	if diff := cmp.Diff(&want, resp.Config); diff != "" {
		t.Errorf("default config mismatch (-want +got):\n%s", diff)
	}

	resp, err = s.HandleMessage(ctx, "client-1", message(t, models.ActionUpdateConfig, map[string]any{
		"alertLevel":       "high",
		"autoBlockThreats": false,
	}))
	if err != nil {
		t.Fatalf("updateConfig error = %v", err)
	}
	if resp.Config.AlertLevel != models.AlertLevelHigh || resp.Config.AutoBlockThreats || !resp.Config.Enabled {
		t.Errorf("updated config = %+v", resp.Config)
	}

	if got := s.Config(ctx, "client-1"); got.AlertLevel != models.AlertLevelHigh {
		t.Errorf("stored alert level = %s, want high", got.AlertLevel)
	}
	if got := s.Config(ctx, "client-2"); got.AlertLevel != models.AlertLevelMedium {
		t.Errorf("other client alert level = %s, want medium", got.AlertLevel)
	}
}

func TestHandleMessageRejectsBadAlertLevel(t *testing.T) {
	s := newTestExtensionService(newFakeExtensionStore())

	resp, err := s.HandleMessage(context.Background(), "c", message(t, models.ActionUpdateConfig, map[string]any{"alertLevel": "extreme"}))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if resp.Success || resp.Error == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleMessageUnknownAction(t *testing.T) {
	s := newTestExtensionService(newFakeExtensionStore())

	_, err := s.HandleMessage(context.Background(), "c", message(t, "selfDestruct", nil))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeURLRedirectsAndCounts(t *testing.T) {
	store := newFakeExtensionStore()
	s := newTestExtensionService(store)
	ctx := context.Background()

	resp, err := s.HandleMessage(ctx, "c", message(t, models.ActionAnalyzeURL, models.URLRequest{URL: "http://secure-login.example.com/verify-account"}))
	if err != nil {
		t.Fatal(err)
	}
	decision, ok := resp.Result.(models.NavigationDecision)
	if !ok {
		t.Fatalf("Result type = %T", resp.Result)
	}
	if decision.Action != models.NavigationRedirect || !decision.Blocked {
		t.Errorf("decision = %+v", decision)
	}

	if _, err := s.AnalyzeURL(ctx, "c", "https://example.com/"); err != nil {
		t.Fatal(err)
	}

	stats, _ := s.Stats(ctx, "c")
	want := models.ProtectionStats{ThreatsBlocked: 1, LinksScanned: 2}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	history, err := s.FilteredHistory(ctx, "c", models.HistoryFilter{Result: "threat"})
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].Type != models.HistoryTypeURL {
		t.Errorf("threat history = %+v", history)
	}
}

func TestAnalyzeLinkAlias(t *testing.T) {
	s := newTestExtensionService(newFakeExtensionStore())

	resp, err := s.HandleMessage(context.Background(), "c", message(t, models.ActionAnalyzeLink, models.URLRequest{URL: "www.paypa1.com"}))
	if err != nil {
		t.Fatal(err)
	}
	decision, ok := resp.Result.(models.NavigationDecision)
	if !ok {
		t.Fatalf("Result type = %T", resp.Result)
	}
	if !decision.Blocked {
		t.Errorf("decision = %+v, want blocked", decision)
	}
}

func TestDisabledDetectors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		patch   map[string]any
		msg     models.ExtensionMessage
		wantMsg string
	}{
		{
			name:    "deepfake",
			patch:   map[string]any{"enableDeepfakeDetection": false},
			msg:     models.ExtensionMessage{Action: models.ActionAnalyzeMedia, Data: json.RawMessage(`{"type":"video","mediaUrl":"https://cdn.example.com/a.mp4","size":5000000}`)},
			wantMsg: "Deepfake detection is disabled",
		},
		{
			name:    "voice",
			patch:   map[string]any{"enableVoiceDetection": false},
			msg:     models.ExtensionMessage{Action: models.ActionAnalyzeMedia, Data: json.RawMessage(`{"type":"audio","mediaBlob":"AAEC"}`)},
			wantMsg: "Voice detection is disabled",
		},
		{
			name:    "phishing",
			patch:   map[string]any{"enablePhishingDetection": false},
			msg:     models.ExtensionMessage{Action: models.ActionAnalyzeURL, Data: json.RawMessage(`{"url":"https://example.com"}`)},
			wantMsg: "Phishing detection is disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestExtensionService(newFakeExtensionStore())
			if _, err := s.HandleMessage(ctx, "c", message(t, models.ActionUpdateConfig, tt.patch)); err != nil {
				t.Fatal(err)
			}

			resp, err := s.HandleMessage(ctx, "c", tt.msg)
			if !errors.Is(err, ErrDetectionDisabled) {
				t.Fatalf("error = %v, want ErrDetectionDisabled", err)
			}
			if resp.Success || resp.Error != tt.wantMsg {
				t.Errorf("response = %+v, want error %q", resp, tt.wantMsg)
			}
		})
	}
}

func TestAnalyzeMediaInputs(t *testing.T) {
	store := newFakeExtensionStore()
	s := newTestExtensionService(store)
	ctx := context.Background()

	// A 3-byte blob is far below the voice threshold
	result, err := s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "audio", MediaBlob: []byte{0, 1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != models.VerdictAIVoice {
		t.Errorf("blob verdict = %s, want ai_voice", result.Verdict)
	}

	result, err = s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "video", MediaURL: "https://cdn.example.com/clips/holiday.mp4", Size: 5000000})
	if err != nil {
		t.Fatal(err)
	}
	if result.Verdict != models.VerdictSafe {
		t.Errorf("url verdict = %s, want safe", result.Verdict)
	}

	if _, err := s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "video", MediaURL: "https://cdn.example.com/a.mp4"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("url without size error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "image", MediaBlob: []byte{1}}); !errors.Is(err, ErrUnsupportedContent) {
		t.Errorf("image error = %v, want ErrUnsupportedContent", err)
	}
	if _, err := s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "audio"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty media error = %v, want ErrInvalidInput", err)
	}

	stats, _ := s.Stats(ctx, "c")
	// The 94-scored voice verdict is blocked at medium, the safe video is not
	want := models.ProtectionStats{ThreatsBlocked: 1, MediaAnalyzed: 2}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestQuickCheckMessage(t *testing.T) {
	store := newFakeExtensionStore()
	s := newTestExtensionService(store)

	resp, err := s.HandleMessage(context.Background(), "c", message(t, models.ActionQuickCheck, models.URLRequest{URL: "http://bit.ly/x"}))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{FindingInsecureConnection, FindingURLShortener}
	if diff := cmp.Diff(want, resp.Result); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
	if stats, _ := s.Stats(context.Background(), "c"); stats.LinksScanned != 1 {
		t.Errorf("LinksScanned = %d, want 1", stats.LinksScanned)
	}
}

func TestHistoryMessageFilters(t *testing.T) {
	store := newFakeExtensionStore()
	s := newTestExtensionService(store)
	ctx := context.Background()

	if _, err := s.AnalyzeURL(ctx, "c", "https://example.com/"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AnalyzeMedia(ctx, "c", models.MediaRequest{Type: "video", MediaBlob: []byte{1}}); err != nil {
		t.Fatal(err)
	}

	resp, err := s.HandleMessage(ctx, "c", message(t, models.ActionGetAnalysisHistory, map[string]string{"type": "video"}))
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.History) != 1 || resp.History[0].Type != models.HistoryTypeVideo {
		t.Errorf("history = %+v", resp.History)
	}

	resp, err = s.HandleMessage(ctx, "c", models.ExtensionMessage{Action: models.ActionGetAnalysisHistory})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.History) != 2 {
		t.Errorf("unfiltered history has %d items, want 2", len(resp.History))
	}

	if _, err := s.HandleMessage(ctx, "c", message(t, models.ActionGetAnalysisHistory, map[string]string{"from": "yesterday"})); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad date error = %v, want ErrInvalidInput", err)
	}
}

func TestParseHistoryFilter(t *testing.T) {
	f, err := ParseHistoryFilter("url", "threat", "2026-01-02", "2026-01-03T10:00:00Z", 2)
	if err != nil {
		t.Fatal(err)
	}
	if f.From == nil || f.From.Day() != 2 || f.To == nil || f.To.Hour() != 10 || f.Page != 2 {
		t.Errorf("filter = %+v", f)
	}

	if _, err := ParseHistoryFilter("", "maybe", "", "", 1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad result filter error = %v", err)
	}
}
