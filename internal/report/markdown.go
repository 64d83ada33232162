package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"

	"guardian-shield/internal/domain/models"
)

// MarkdownWriter renders results as GitHub-flavored markdown
type MarkdownWriter struct {
	out io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter
func NewMarkdownWriter(out io.Writer) *MarkdownWriter {
	return &MarkdownWriter{out: out}
}

// WriteAnalysis writes a verdict summary followed by details and guidance
func (w *MarkdownWriter) WriteAnalysis(subject Subject, result *models.AnalysisResult) error {
	md := markdown.NewMarkdown(w.out)

	md.H1("Guardian Shield Analysis")
	md.PlainText("")

	rows := [][]string{
		{"Content Type", string(result.ContentType)},
		{"Subject", "`" + subject.Label + "`"},
	}
	if subject.SizeBytes > 0 {
		rows = append(rows, []string{"Size", humanize.Bytes(uint64(subject.SizeBytes))})
	}
	rows = append(rows,
		[]string{"Verdict", verdictText(result.Verdict)},
		[]string{"Score", strconv.Itoa(result.Score)},
		[]string{"Analyzed", formatTime(result.Timestamp)},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if result.IsThreat() {
		md.Warningf("%s detected with score %d.", verdictText(result.Verdict), result.Score)
	} else {
		md.Tip("No threat detected.")
	}
	md.PlainText("")

	if result.Breakdown != nil {
		md.H2("Email Breakdown")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Aspect", "Rating"},
			Rows: [][]string{
				{"Sender", result.Breakdown.Sender},
				{"Links", result.Breakdown.Links},
				{"Content", result.Breakdown.Content},
				{"Urgency", result.Breakdown.Urgency},
			},
		})
		md.PlainText("")
	}

	md.H2("Details")
	md.PlainText("")
	md.BulletList(result.Details...)
	md.PlainText("")

	md.H2("Recommendations")
	md.PlainText("")
	md.BulletList(result.Recommendations...)
	md.PlainText("")

	return md.Build()
}

// WriteQuickCheck writes the hover-time findings for a URL
func (w *MarkdownWriter) WriteQuickCheck(rawURL string, findings []string) error {
	md := markdown.NewMarkdown(w.out)

	md.H1("Quick Check")
	md.PlainText("")
	md.PlainText("`" + rawURL + "`")
	md.PlainText("")

	if len(findings) == 0 {
		md.Tip("No warning signs found.")
		md.PlainText("")
		return md.Build()
	}

	md.Warningf("%d warning sign(s) found.", len(findings))
	md.PlainText("")
	md.BulletList(findings...)
	md.PlainText("")

	return md.Build()
}

func verdictText(v models.Verdict) string {
	switch v {
	case models.VerdictPhishing:
		return "Phishing"
	case models.VerdictAIVoice:
		return "AI-generated voice"
	case models.VerdictDeepfake:
		return "Deepfake"
	case models.VerdictSafe:
		return "Safe"
	}
	return string(v)
}
