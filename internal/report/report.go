// Package report renders analysis results for the command line.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"guardian-shield/internal/domain/models"
)

// Format names accepted by NewWriter
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Subject describes what was analyzed
type Subject struct {
	Label     string // URL, file name or email excerpt
	SizeBytes int64  // media only
}

// Writer renders results to an output stream
type Writer interface {
	WriteAnalysis(subject Subject, result *models.AnalysisResult) error
	WriteQuickCheck(rawURL string, findings []string) error
}

// NewWriter returns the writer for format
func NewWriter(format string, out io.Writer) (Writer, error) {
	switch format {
	case FormatJSON, "":
		return NewJSONWriter(out), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(out), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// JSONWriter prints indented JSON
type JSONWriter struct {
	out io.Writer
}

// NewJSONWriter creates a JSONWriter
func NewJSONWriter(out io.Writer) *JSONWriter {
	return &JSONWriter{out: out}
}

// WriteAnalysis writes the result as JSON
func (w *JSONWriter) WriteAnalysis(_ Subject, result *models.AnalysisResult) error {
	return w.encode(result)
}

// WriteQuickCheck writes the findings as JSON
func (w *JSONWriter) WriteQuickCheck(rawURL string, findings []string) error {
	return w.encode(struct {
		URL      string   `json:"url"`
		Findings []string `json:"findings"`
		Warning  bool     `json:"warning"`
	}{rawURL, findings, len(findings) > 0})
}

func (w *JSONWriter) encode(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
