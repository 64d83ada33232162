package repository

import (
	"testing"
	"time"
)

func TestNullableText(t *testing.T) {
	if v := textOrNull(""); v.Valid {
		t.Error("empty string should be NULL")
	}
	if got := nullTextToString(textOrNull("ext-1")); got != "ext-1" {
		t.Errorf("round trip = %q", got)
	}
}

func TestNullableInt(t *testing.T) {
	if v := intOrNull(nil); v.Valid {
		t.Error("nil should be NULL")
	}
	n := 4
	got := int4ToIntPtr(intOrNull(&n))
	if got == nil || *got != 4 {
		t.Errorf("round trip = %v", got)
	}
	if int4ToIntPtr(intOrNull(nil)) != nil {
		t.Error("NULL should map to nil")
	}
}

func TestTimestamptz(t *testing.T) {
	if v := timeToTimestamptz(time.Time{}); v.Valid {
		t.Error("zero time should be NULL")
	}
	local := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	got := timestamptzToTime(timeToTimestamptz(local))
	if !got.Equal(local) || got.Location() != time.UTC {
		t.Errorf("round trip = %v", got)
	}
}
