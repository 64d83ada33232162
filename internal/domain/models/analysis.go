package models

import (
	"time"

	"github.com/google/uuid"
)

// ContentType identifies what kind of content was submitted for analysis
type ContentType string

const (
	ContentTypeLink  ContentType = "link"
	ContentTypeEmail ContentType = "email"
	ContentTypeVoice ContentType = "voice"
	ContentTypeVideo ContentType = "video"
)

// Valid reports whether the content type is one the analyzers understand
func (c ContentType) Valid() bool {
	switch c {
	case ContentTypeLink, ContentTypeEmail, ContentTypeVoice, ContentTypeVideo:
		return true
	}
	return false
}

func (c ContentType) String() string { return string(c) }

// ParseContentType maps API and extension spellings onto a ContentType.
// The extension uses "url" and "audio" where the API uses "link" and "voice".
func ParseContentType(s string) (ContentType, bool) {
	switch s {
	case "link", "url":
		return ContentTypeLink, true
	case "email":
		return ContentTypeEmail, true
	case "voice", "audio":
		return ContentTypeVoice, true
	case "video":
		return ContentTypeVideo, true
	}
	return "", false
}

// Verdict is the categorical outcome of an analysis
type Verdict string

const (
	VerdictSafe     Verdict = "safe"
	VerdictPhishing Verdict = "phishing"
	VerdictAIVoice  Verdict = "ai_voice"
	VerdictDeepfake Verdict = "deepfake"
)

// IsThreat reports whether the verdict is anything other than safe
func (v Verdict) IsThreat() bool {
	return v != "" && v != VerdictSafe
}

// AnalysisInput is a tagged union over the four submission kinds. Fields not
// belonging to Type are zero. Build it with the New*Input constructors.
type AnalysisInput struct {
	Type      ContentType
	URL       string
	EmailText string
	FileName  string
	SizeBytes int64
}

// NewURLInput builds a link input
func NewURLInput(rawURL string) AnalysisInput {
	return AnalysisInput{Type: ContentTypeLink, URL: rawURL}
}

// NewEmailInput builds an email input
func NewEmailInput(text string) AnalysisInput {
	return AnalysisInput{Type: ContentTypeEmail, EmailText: text}
}

// NewAudioInput builds a voice input from file metadata
func NewAudioInput(name string, sizeBytes int64) AnalysisInput {
	return AnalysisInput{Type: ContentTypeVoice, FileName: name, SizeBytes: sizeBytes}
}

// NewVideoInput builds a video input from file metadata
func NewVideoInput(name string, sizeBytes int64) AnalysisInput {
	return AnalysisInput{Type: ContentTypeVideo, FileName: name, SizeBytes: sizeBytes}
}

// Subject returns a short human-readable description of what was analyzed
func (in AnalysisInput) Subject() string {
	switch in.Type {
	case ContentTypeLink:
		return in.URL
	case ContentTypeEmail:
		const max = 120
		r := []rune(in.EmailText)
		if len(r) > max {
			return string(r[:max]) + "..."
		}
		return in.EmailText
	default:
		return in.FileName
	}
}

// Signal names produced by the feature extractor
const (
	SignalIsSecure               = "isSecure"
	SignalHasSuspiciousSubdomain = "hasSuspiciousSubdomain"
	SignalHasSuspiciousDomain    = "hasSuspiciousDomain"
	SignalHasSuspiciousPath      = "hasSuspiciousPath"
	SignalSubdomainDepth         = "subdomainDepth"

	SignalHasUrgentLanguage    = "hasUrgentLanguage"
	SignalHasSuspiciousLinks   = "hasSuspiciousLinks"
	SignalRequestsPersonalInfo = "requestsPersonalInfo"
	SignalHasPoorGrammar       = "hasPoorGrammar"

	SignalHasAIMarker   = "hasAIMarker"
	SignalHasFakeMarker = "hasFakeMarker"
	SignalFileSizeBytes = "fileSizeBytes"
)

// SignalSet maps signal names to bool or numeric values. Missing entries read
// as false / zero.
type SignalSet map[string]any

// Bool returns the named boolean signal, false when absent
func (s SignalSet) Bool(name string) bool {
	v, ok := s[name].(bool)
	return ok && v
}

// Int returns the named numeric signal, 0 when absent
func (s SignalSet) Int(name string) int64 {
	switch v := s[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// Has reports whether the signal was produced at all
func (s SignalSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Clone copies the set so results never share a map with the extractor
func (s SignalSet) Clone() SignalSet {
	out := make(SignalSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// EmailBreakdown rates each part of an email on a coarse scale
type EmailBreakdown struct {
	Sender  string `json:"sender"`
	Links   string `json:"links"`
	Content string `json:"content"`
	Urgency string `json:"urgency"`
}

// AnalysisResult is produced once per analysis and never mutated afterwards
type AnalysisResult struct {
	ID              uuid.UUID   `json:"id"`
	ContentType     ContentType `json:"content_type"`
	Verdict         Verdict     `json:"verdict"`
	Score           int         `json:"score"`
	Details         []string    `json:"details"`
	Recommendations []string    `json:"recommendations"`
	Signals         SignalSet   `json:"signals,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`

	// Content-type specific extras
	Breakdown           *EmailBreakdown `json:"breakdown,omitempty"`
	ManipulationMarkers *int            `json:"manipulation_markers,omitempty"`
}

// IsThreat reports whether the result carries a non-safe verdict
func (r *AnalysisResult) IsThreat() bool {
	return r.Verdict.IsThreat()
}

// AnalysisMeta carries request context that is persisted with a result
type AnalysisMeta struct {
	UserID   int    `json:"user_id"`
	ClientID string `json:"client_id,omitempty"`
	Source   string `json:"source,omitempty"` // "api", "extension", "cli", "legacy"
}

// AnalysisRecord is the value handed to the record store
type AnalysisRecord struct {
	Result  AnalysisResult `json:"result"`
	Subject string         `json:"subject"`
	Meta    AnalysisMeta   `json:"meta"`
}
