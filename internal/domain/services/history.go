package services

import (
	"context"
	"time"

	"guardian-shield/internal/domain/models"
)

// History limits
const (
	DefaultHistoryLimit = 100
	HistoryPageSize     = 10
)

// HistoryStore keeps a capped, newest-first analysis history per client
type HistoryStore interface {
	Push(ctx context.Context, clientID string, item models.HistoryItem, limit int) error
	List(ctx context.Context, clientID string) ([]models.HistoryItem, error)
}

// ConfigStore keeps the extension configuration per client
type ConfigStore interface {
	GetConfig(ctx context.Context, clientID string) (*models.ExtensionConfig, error)
	SaveConfig(ctx context.Context, clientID string, cfg models.ExtensionConfig) error
}

// StatsStore keeps the popup counters per client
type StatsStore interface {
	IncrStats(ctx context.Context, clientID string, delta models.ProtectionStats) error
	GetStats(ctx context.Context, clientID string) (models.ProtectionStats, error)
}

// NewHistoryItem builds the history entry for a finished analysis
func NewHistoryItem(content string, result *models.AnalysisResult) models.HistoryItem {
	return models.HistoryItem{
		Type:      models.HistoryTypeFor(result.ContentType),
		Content:   content,
		Threat:    result.IsThreat(),
		Score:     result.Score,
		Result:    result.Legacy(),
		Timestamp: result.Timestamp,
	}
}

// PrependHistory adds item at the front and drops the oldest entries past limit
func PrependHistory(history []models.HistoryItem, item models.HistoryItem, limit int) []models.HistoryItem {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	out := make([]models.HistoryItem, 0, min(len(history)+1, limit))
	out = append(out, item)
	for _, h := range history {
		if len(out) == limit {
			break
		}
		out = append(out, h)
	}
	return out
}

// FilterHistory keeps the items matching every set field of f. Order is kept.
func FilterHistory(items []models.HistoryItem, f models.HistoryFilter) []models.HistoryItem {
	var to time.Time
	if f.To != nil {
		to = endOfDay(*f.To)
	}

	out := make([]models.HistoryItem, 0, len(items))
	for _, item := range items {
		if f.Type != "" && f.Type != "all" && item.Type != f.Type {
			continue
		}
		switch f.Result {
		case "threat":
			if !item.Threat {
				continue
			}
		case "safe":
			if item.Threat {
				continue
			}
		}
		if f.From != nil && item.Timestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && item.Timestamp.After(to) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// PaginateHistory returns the requested 1-based page. Pages past the end
// come back empty with the totals still set.
func PaginateHistory(items []models.HistoryItem, page int) models.HistoryPage {
	if page < 1 {
		page = 1
	}
	total := len(items)
	totalPages := (total + HistoryPageSize - 1) / HistoryPageSize

	start := total
	if page <= totalPages {
		start = (page - 1) * HistoryPageSize
	}
	end := min(start+HistoryPageSize, total)

	return models.HistoryPage{
		Items:      append([]models.HistoryItem{}, items[start:end]...),
		Page:       page,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

// endOfDay moves t to the last nanosecond of its calendar day
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
