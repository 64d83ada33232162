package main

import (
	"encoding/json"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/infrastructure/sqlite"
	"guardian-shield/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count saved analyses per verdict",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()

	counts, err := store.CountByVerdict(cmd.Context())
	if err != nil {
		return err
	}

	if rootFlags.format == report.FormatJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(counts)
	}

	verdicts := make([]models.Verdict, 0, len(counts))
	var total int64
	for v, n := range counts {
		verdicts = append(verdicts, v)
		total += n
	}
	slices.Sort(verdicts)

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.H1("Saved Analyses")
	md.PlainText("")

	rows := make([][]string, 0, len(verdicts))
	for _, v := range verdicts {
		rows = append(rows, []string{string(v), humanize.Comma(counts[v])})
	}
	rows = append(rows, []string{"total", humanize.Comma(total)})
	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows:   rows,
	})
	return md.Build()
}
