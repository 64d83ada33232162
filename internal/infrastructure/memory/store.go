// Package memory holds process-local stores used when Redis or a database is
// not configured, and in tests.
package memory

import (
	"context"
	"sync"

	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
)

// RecordStore keeps analysis records in a bounded ring, newest last
type RecordStore struct {
	mu      sync.RWMutex
	records []models.AnalysisRecord
	max     int
}

// NewRecordStore creates a record store that keeps at most max records
func NewRecordStore(max int) *RecordStore {
	if max <= 0 {
		max = 1000
	}
	return &RecordStore{max: max}
}

// Save appends a record, dropping the oldest once full
func (s *RecordStore) Save(_ context.Context, rec models.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, rec)
	if len(s.records) > s.max {
		s.records = append([]models.AnalysisRecord(nil), s.records[len(s.records)-s.max:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (s *RecordStore) Recent(_ context.Context, limit int) ([]models.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]models.AnalysisRecord, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// CountByVerdict returns how many stored records ended in each verdict
func (s *RecordStore) CountByVerdict(_ context.Context) (map[models.Verdict]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Verdict]int64)
	for _, rec := range s.records {
		counts[rec.Result.Verdict]++
	}
	return counts, nil
}

// Len returns the number of stored records
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ExtensionStore keeps per-client extension config, history and stats
type ExtensionStore struct {
	mu      sync.RWMutex
	configs map[string]models.ExtensionConfig
	history map[string][]models.HistoryItem
	stats   map[string]models.ProtectionStats
}

// NewExtensionStore creates an empty extension store
func NewExtensionStore() *ExtensionStore {
	return &ExtensionStore{
		configs: make(map[string]models.ExtensionConfig),
		history: make(map[string][]models.HistoryItem),
		stats:   make(map[string]models.ProtectionStats),
	}
}

// GetConfig returns the stored config, nil when none is stored
func (s *ExtensionStore) GetConfig(_ context.Context, clientID string) (*models.ExtensionConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[clientID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

// SaveConfig replaces the client's config
func (s *ExtensionStore) SaveConfig(_ context.Context, clientID string, cfg models.ExtensionConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[clientID] = cfg
	return nil
}

// Push prepends a history item, keeping at most limit items
func (s *ExtensionStore) Push(_ context.Context, clientID string, item models.HistoryItem, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[clientID] = services.PrependHistory(s.history[clientID], item, limit)
	return nil
}

// List returns a copy of the client's history, newest first
func (s *ExtensionStore) List(_ context.Context, clientID string) ([]models.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.HistoryItem{}, s.history[clientID]...), nil
}

// IncrStats adds delta to the client's counters
func (s *ExtensionStore) IncrStats(_ context.Context, clientID string, delta models.ProtectionStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[clientID]
	st.ThreatsBlocked += delta.ThreatsBlocked
	st.LinksScanned += delta.LinksScanned
	st.MediaAnalyzed += delta.MediaAnalyzed
	s.stats[clientID] = st
	return nil
}

// GetStats returns the client's counters
func (s *ExtensionStore) GetStats(_ context.Context, clientID string) (models.ProtectionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[clientID], nil
}

var (
	_ services.RecordStore    = (*RecordStore)(nil)
	_ services.RecordLister   = (*RecordStore)(nil)
	_ services.VerdictCounter = (*RecordStore)(nil)
	_ services.ConfigStore    = (*ExtensionStore)(nil)
	_ services.HistoryStore   = (*ExtensionStore)(nil)
	_ services.StatsStore     = (*ExtensionStore)(nil)
)
