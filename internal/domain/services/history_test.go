package services

import (
	"strconv"
	"testing"
	"time"

	"guardian-shield/internal/domain/models"
)

func historyItem(typ string, threat bool, ts time.Time) models.HistoryItem {
	return models.HistoryItem{Type: typ, Threat: threat, Timestamp: ts}
}

func TestPrependHistoryCaps(t *testing.T) {
	var history []models.HistoryItem
	for i := 0; i < 105; i++ {
		item := models.HistoryItem{Content: strconv.Itoa(i)}
		history = PrependHistory(history, item, DefaultHistoryLimit)
	}

	if len(history) != DefaultHistoryLimit {
		t.Fatalf("len = %d, want %d", len(history), DefaultHistoryLimit)
	}
	if history[0].Content != "104" {
		t.Errorf("newest = %s, want 104", history[0].Content)
	}
	if history[len(history)-1].Content != "5" {
		t.Errorf("oldest = %s, want 5", history[len(history)-1].Content)
	}
}

func TestFilterHistory(t *testing.T) {
	day := func(d int, h int) time.Time { return time.Date(2026, 5, d, h, 0, 0, 0, time.UTC) }
	items := []models.HistoryItem{
		historyItem(models.HistoryTypeURL, true, day(3, 10)),
		historyItem(models.HistoryTypeEmail, false, day(3, 8)),
		historyItem(models.HistoryTypeEmail, true, day(2, 23)),
		historyItem(models.HistoryTypeVideo, false, day(1, 9)),
	}
	from := day(2, 0)
	to := day(2, 0)

	tests := []struct {
		name   string
		filter models.HistoryFilter
		want   int
	}{
		{"no filter", models.HistoryFilter{}, 4},
		{"all types", models.HistoryFilter{Type: "all"}, 4},
		{"email only", models.HistoryFilter{Type: models.HistoryTypeEmail}, 2},
		{"threats", models.HistoryFilter{Result: "threat"}, 2},
		{"safe emails", models.HistoryFilter{Type: models.HistoryTypeEmail, Result: "safe"}, 1},
		{"from day 2", models.HistoryFilter{From: &from}, 3},
		{"to covers whole day", models.HistoryFilter{To: &to}, 2},
		{"single day", models.HistoryFilter{From: &from, To: &to}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterHistory(items, tt.filter); len(got) != tt.want {
				t.Errorf("FilterHistory() returned %d items, want %d", len(got), tt.want)
			}
		})
	}
}

func TestPaginateHistory(t *testing.T) {
	items := make([]models.HistoryItem, 23)
	for i := range items {
		items[i].Content = strconv.Itoa(i)
	}

	page := PaginateHistory(items, 3)
	if page.TotalPages != 3 || page.TotalItems != 23 || len(page.Items) != 3 {
		t.Errorf("page 3 = %+v", page)
	}
	if page.Items[0].Content != "20" {
		t.Errorf("page 3 starts at %s, want 20", page.Items[0].Content)
	}

	if past := PaginateHistory(items, 9); len(past.Items) != 0 || past.TotalPages != 3 {
		t.Errorf("page past the end = %+v", past)
	}
	if first := PaginateHistory(items, 0); first.Page != 1 || len(first.Items) != HistoryPageSize {
		t.Errorf("page 0 = %+v", first)
	}
	if huge := PaginateHistory(items[:3], 1_000_000_000_000_000_000); len(huge.Items) != 0 || huge.TotalItems != 3 || huge.TotalPages != 1 {
		t.Errorf("huge page = %+v", huge)
	}
	if empty := PaginateHistory(nil, 1); empty.Items == nil || empty.TotalPages != 0 {
		t.Errorf("empty = %+v", empty)
	}
}
