package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"guardian-shield/internal/domain/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		ID:              uuid.New(),
		ContentType:     models.ContentTypeVoice,
		Verdict:         models.VerdictAIVoice,
		Score:           94,
		Details:         []string{"Unnatural pitch variations detected"},
		Recommendations: []string{"Verify the caller's identity through another channel"},
		Timestamp:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewWriter(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"", false},
		{"markdown", false},
		{"md", false},
		{"xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			_, err := NewWriter(tt.format, &bytes.Buffer{})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewWriter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
		})
	}
}

func TestMarkdownWriterAnalysis(t *testing.T) {
	var buf bytes.Buffer
	w := NewMarkdownWriter(&buf)

	if err := w.WriteAnalysis(Subject{Label: "call.wav", SizeBytes: 50_000}, sampleResult()); err != nil {
		t.Fatalf("WriteAnalysis() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Guardian Shield Analysis",
		"AI-generated voice",
		"50 kB",
		"## Recommendations",
		"Unnatural pitch variations detected",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriterQuickCheckClean(t *testing.T) {
	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).WriteQuickCheck("https://example.com", nil); err != nil {
		t.Fatalf("WriteQuickCheck() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No warning signs found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestJSONWriterQuickCheck(t *testing.T) {
	var buf bytes.Buffer
	findings := []string{"Non-secure connection (HTTP)"}
	if err := NewJSONWriter(&buf).WriteQuickCheck("http://example.com", findings); err != nil {
		t.Fatalf("WriteQuickCheck() error = %v", err)
	}

	var got struct {
		URL      string   `json:"url"`
		Findings []string `json:"findings"`
		Warning  bool     `json:"warning"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !got.Warning || len(got.Findings) != 1 {
		t.Errorf("got %+v", got)
	}
}
