package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client, "gs:", logger.NewNop()), mr
}

func TestConfigRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	got, err := c.GetConfig(ctx, "client-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("GetConfig on empty store = %+v, want nil", got)
	}

	want := models.ExtensionConfig{Enabled: true, EnableVoiceDetection: true, AlertLevel: models.AlertLevelHigh}
	if err := c.SaveConfig(ctx, "client-1", want); err != nil {
		t.Fatal(err)
	}
	if !mr.Exists("gs:ext:config:client-1") {
		t.Error("config key was not namespaced with the prefix")
	}

	got, err = c.GetConfig(ctx, "client-1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryPushTrimsNewestFirst(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := range 5 {
		item := models.HistoryItem{Type: models.HistoryTypeURL, Content: fmt.Sprintf("https://example.com/%d", i), Score: i}
		if err := c.Push(ctx, "c", item, 3); err != nil {
			t.Fatal(err)
		}
	}

	items, err := c.List(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	var contents []string
	for _, it := range items {
		contents = append(contents, it.Content)
	}
	want := []string{"https://example.com/4", "https://example.com/3", "https://example.com/2"}
	if diff := cmp.Diff(want, contents); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	// A corrupt entry is skipped rather than failing the listing
	if _, err := mr.Lpush("gs:ext:history:c", "{not json"); err != nil {
		t.Fatal(err)
	}
	items, err = c.List(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Errorf("List returned %d items, want 3", len(items))
	}
}

func TestStatsIncrement(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	if err := c.IncrStats(ctx, "c", models.ProtectionStats{LinksScanned: 1, ThreatsBlocked: 1}); err != nil {
		t.Fatal(err)
	}
	if err := c.IncrStats(ctx, "c", models.ProtectionStats{LinksScanned: 2, MediaAnalyzed: 1}); err != nil {
		t.Fatal(err)
	}
	if err := c.IncrStats(ctx, "c", models.ProtectionStats{}); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetStats(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	want := models.ProtectionStats{ThreatsBlocked: 1, LinksScanned: 3, MediaAnalyzed: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	empty, err := c.GetStats(ctx, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if empty != (models.ProtectionStats{}) {
		t.Errorf("stats for unknown client = %+v, want zero", empty)
	}
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := range 3 {
		allowed, remaining, _, err := c.CheckRateLimit(ctx, "1.2.3.4", 3, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		if !allowed {
			t.Fatalf("request %d rejected", i+1)
		}
		if remaining != int64(2-i) {
			t.Errorf("request %d remaining = %d, want %d", i+1, remaining, 2-i)
		}
	}

	allowed, remaining, _, err := c.CheckRateLimit(ctx, "1.2.3.4", 3, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if allowed || remaining != 0 {
		t.Errorf("fourth request allowed=%v remaining=%d, want rejected with 0", allowed, remaining)
	}

	if allowed, _, _, _ := c.CheckRateLimit(ctx, "5.6.7.8", 3, time.Hour); !allowed {
		t.Error("separate key shares the counter")
	}
}
