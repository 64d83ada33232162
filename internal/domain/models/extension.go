package models

import (
	"encoding/json"
	"time"
)

// AlertLevel controls how eagerly the extension blocks content
type AlertLevel string

const (
	AlertLevelLow    AlertLevel = "low"
	AlertLevelMedium AlertLevel = "medium"
	AlertLevelHigh   AlertLevel = "high"
)

// ExtensionConfig is the per-client extension configuration. It is passed by
// value into every gateway call instead of living in shared state.
type ExtensionConfig struct {
	Enabled                 bool       `json:"enabled"`
	EnablePhishingDetection bool       `json:"enablePhishingDetection"`
	EnableDeepfakeDetection bool       `json:"enableDeepfakeDetection"`
	EnableVoiceDetection    bool       `json:"enableVoiceDetection"`
	AlertLevel              AlertLevel `json:"alertLevel"`
	AutoBlockThreats        bool       `json:"autoBlockThreats"`
}

// ExtensionConfigPatch is a partial update; nil fields are left unchanged
type ExtensionConfigPatch struct {
	Enabled                 *bool       `json:"enabled,omitempty"`
	EnablePhishingDetection *bool       `json:"enablePhishingDetection,omitempty"`
	EnableDeepfakeDetection *bool       `json:"enableDeepfakeDetection,omitempty"`
	EnableVoiceDetection    *bool       `json:"enableVoiceDetection,omitempty"`
	AlertLevel              *AlertLevel `json:"alertLevel,omitempty"`
	AutoBlockThreats        *bool       `json:"autoBlockThreats,omitempty"`
}

// Apply returns a copy of cfg with the patch applied
func (p ExtensionConfigPatch) Apply(cfg ExtensionConfig) ExtensionConfig {
	if p.Enabled != nil {
		cfg.Enabled = *p.Enabled
	}
	if p.EnablePhishingDetection != nil {
		cfg.EnablePhishingDetection = *p.EnablePhishingDetection
	}
	if p.EnableDeepfakeDetection != nil {
		cfg.EnableDeepfakeDetection = *p.EnableDeepfakeDetection
	}
	if p.EnableVoiceDetection != nil {
		cfg.EnableVoiceDetection = *p.EnableVoiceDetection
	}
	if p.AlertLevel != nil {
		cfg.AlertLevel = *p.AlertLevel
	}
	if p.AutoBlockThreats != nil {
		cfg.AutoBlockThreats = *p.AutoBlockThreats
	}
	return cfg
}

// Extension message actions
const (
	ActionGetConfig          = "getConfig"
	ActionUpdateConfig       = "updateConfig"
	ActionAnalyzeMedia       = "analyzeMedia"
	ActionAnalyzeURL         = "analyzeUrl"
	ActionAnalyzeLink        = "analyzeLink"
	ActionGetAnalysisHistory = "getAnalysisHistory"
	ActionQuickCheck         = "quickCheck"
)

// ExtensionMessage is a request from the browser extension
type ExtensionMessage struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// MediaRequest is the data payload of an analyzeMedia message
type MediaRequest struct {
	Type      string `json:"type"`                // "audio" or "video"
	MediaBlob []byte `json:"mediaBlob,omitempty"` // base64 in JSON
	MediaURL  string `json:"mediaUrl,omitempty"`
	FileName  string `json:"fileName,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

// URLRequest is the data payload of analyzeUrl and quickCheck messages
type URLRequest struct {
	URL string `json:"url"`
}

// NavigationAction tells the extension what to do with a page load
type NavigationAction string

const (
	NavigationAllow    NavigationAction = "allow"
	NavigationWarn     NavigationAction = "warn"
	NavigationRedirect NavigationAction = "redirect"
)

// NavigationDecision is returned for analyzeUrl messages
type NavigationDecision struct {
	Action      NavigationAction `json:"action"`
	RedirectURL string           `json:"redirectUrl,omitempty"`
	Blocked     bool             `json:"blocked"`
	Analysis    any              `json:"analysis"`
}

// ExtensionResponse is the reply to an ExtensionMessage
type ExtensionResponse struct {
	Success bool             `json:"success"`
	Result  any              `json:"result,omitempty"`
	Config  *ExtensionConfig `json:"config,omitempty"`
	History []HistoryItem    `json:"history,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// History item types as the extension names them
const (
	HistoryTypeURL   = "url"
	HistoryTypeEmail = "email"
	HistoryTypeAudio = "audio"
	HistoryTypeVideo = "video"
)

// HistoryTypeFor maps a content type onto the extension's history type
func HistoryTypeFor(c ContentType) string {
	switch c {
	case ContentTypeLink:
		return HistoryTypeURL
	case ContentTypeVoice:
		return HistoryTypeAudio
	case ContentTypeVideo:
		return HistoryTypeVideo
	default:
		return HistoryTypeEmail
	}
}

// HistoryItem is one entry of a client's analysis history
type HistoryItem struct {
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Threat    bool      `json:"threat"`
	Score     int       `json:"score"`
	Result    any       `json:"result"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryFilter narrows a history listing
type HistoryFilter struct {
	Type   string     // "all" or a history type
	Result string     // "all", "threat" or "safe"
	From   *time.Time // inclusive
	To     *time.Time // inclusive through the end of that day
	Page   int        // 1-based
}

// HistoryPage is one page of filtered history
type HistoryPage struct {
	Items      []HistoryItem `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalItems int           `json:"total_items"`
}

// ProtectionStats are the counters shown in the extension popup
type ProtectionStats struct {
	ThreatsBlocked int64 `json:"threatsBlocked"`
	LinksScanned   int64 `json:"linksScanned"`
	MediaAnalyzed  int64 `json:"mediaAnalyzed"`
}
