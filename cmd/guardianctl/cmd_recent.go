package main

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"guardian-shield/internal/config"
	"guardian-shield/internal/infrastructure/sqlite"
	"guardian-shield/internal/report"
)

var recentFlags struct {
	limit int
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List analyses saved with --save",
	Args:  cobra.NoArgs,
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVarP(&recentFlags.limit, "limit", "n", 20, "Number of analyses to list")
}

func runRecent(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Recent(cmd.Context(), recentFlags.limit)
	if err != nil {
		return err
	}

	if rootFlags.format == report.FormatJSON {
		w := report.NewJSONWriter(cmd.OutOrStdout())
		for i := range records {
			if err := w.WriteAnalysis(report.Subject{Label: records[i].Subject}, &records[i].Result); err != nil {
				return err
			}
		}
		return nil
	}

	md := markdown.NewMarkdown(cmd.OutOrStdout())
	md.H1("Recent Analyses")
	md.PlainText("")

	if len(records) == 0 {
		md.PlainText("No saved analyses.")
		return md.Build()
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			humanize.Time(rec.Result.Timestamp),
			string(rec.Result.ContentType),
			string(rec.Result.Verdict),
			strconv.Itoa(rec.Result.Score),
			rec.Subject,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"When", "Type", "Verdict", "Score", "Subject"},
		Rows:   rows,
	})
	return md.Build()
}
