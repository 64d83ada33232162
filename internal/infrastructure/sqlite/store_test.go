package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.SQLiteConfig{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(subject string, verdict models.Verdict, ts time.Time) models.AnalysisRecord {
	return models.AnalysisRecord{
		Result: models.AnalysisResult{
			ID:              uuid.New(),
			ContentType:     models.ContentTypeLink,
			Verdict:         verdict,
			Score:           92,
			Details:         []string{"details"},
			Recommendations: []string{"a", "b"},
			Timestamp:       ts,
		},
		Subject: subject,
		Meta:    models.AnalysisMeta{UserID: 1, ClientID: "client-1", Source: "cli"},
	}
}

func TestSaveAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	older := testRecord("https://old.example.com", models.VerdictSafe, base)
	newer := testRecord("http://secure-login.example.com", models.VerdictPhishing, base.Add(time.Millisecond))
	for _, rec := range []models.AnalysisRecord{older, newer} {
		if err := s.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}
	// Saving the same id twice is a no-op
	if err := s.Save(ctx, newer); err != nil {
		t.Fatal(err)
	}

	recs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]models.AnalysisRecord{newer, older}, recs); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}

	one, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(one) != 1 || one[0].Subject != newer.Subject {
		t.Errorf("Recent(1) = %+v", one)
	}

	counts, err := s.CountByVerdict(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := map[models.Verdict]int64{models.VerdictSafe: 1, models.VerdictPhishing: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("CountByVerdict mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenReusesFile(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(config.SQLiteConfig{Dir: dir, EnableWAL: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, testRecord("https://example.com", models.VerdictSafe, time.Now().UTC())); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(config.SQLiteConfig{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	recs, err := s.Recent(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("reopened store has %d records, want 1", len(recs))
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
