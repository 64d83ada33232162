package streaming

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"guardian-shield/internal/domain/models"
)

// EventType represents the type of analysis event
type EventType string

const (
	EventTypeAnalysisCompleted EventType = "analysis_completed"
	EventTypeThreatDetected    EventType = "threat_detected"
)

// AnalysisEvent is published once per completed analysis
type AnalysisEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	AnalysisID  string             `json:"analysis_id"`
	ContentType models.ContentType `json:"content_type"`
	Verdict     models.Verdict     `json:"verdict"`
	Score       int                `json:"score"`
	Threat      bool               `json:"threat"`
	Subject     string             `json:"subject,omitempty"`
	Source      string             `json:"source,omitempty"`
	ClientID    string             `json:"client_id,omitempty"`
}

// NewAnalysisEvent builds the event for a saved record. Threat verdicts are
// typed threat_detected so subscribers can listen for them alone.
func NewAnalysisEvent(rec models.AnalysisRecord) *AnalysisEvent {
	eventType := EventTypeAnalysisCompleted
	if rec.Result.IsThreat() {
		eventType = EventTypeThreatDetected
	}

	return &AnalysisEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AnalysisID:  rec.Result.ID.String(),
		ContentType: rec.Result.ContentType,
		Verdict:     rec.Result.Verdict,
		Score:       rec.Result.Score,
		Threat:      rec.Result.IsThreat(),
		Subject:     rec.Subject,
		Source:      rec.Meta.Source,
		ClientID:    rec.Meta.ClientID,
	}
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by content types (empty = all)
	ContentTypes []models.ContentType `json:"content_types,omitempty"`

	// Only deliver non-safe verdicts
	ThreatsOnly bool `json:"threats_only,omitempty"`

	// Only deliver events scored at or above this value
	MinScore int `json:"min_score,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *AnalysisEvent) bool {
	if s == nil {
		return true
	}
	if len(s.ContentTypes) > 0 && !slices.Contains(s.ContentTypes, event.ContentType) {
		return false
	}
	if s.ThreatsOnly && !event.Threat {
		return false
	}
	if event.Score < s.MinScore {
		return false
	}
	return true
}
