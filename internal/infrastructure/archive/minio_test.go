package archive

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"guardian-shield/internal/domain/models"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c9a52-0d0e-4c47-9a7b-3f3d2c1b0a99")
	rec := models.AnalysisRecord{
		Result: models.AnalysisResult{
			ID:          id,
			ContentType: models.ContentTypeVideo,
			Timestamp:   time.Date(2026, 2, 7, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)),
		},
		Subject: "board_meeting.MP4",
	}

	// The date comes from the UTC timestamp
	want := "video/2026/02/08/" + id.String() + ".MP4"
	if got := ObjectKey(rec); got != want {
		t.Errorf("ObjectKey = %q, want %q", got, want)
	}

	rec.Subject = "recording"
	if got := ObjectKey(rec); got != "video/2026/02/08/"+id.String() {
		t.Errorf("ObjectKey without extension = %q", got)
	}
}
