package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/report"
	"guardian-shield/internal/streaming"
)

var watchFlags struct {
	types       []string
	threatsOnly bool
	minScore    int
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream analysis events from NATS",
	Long: `watch follows the analysis event stream published by running API
servers. Events are printed as they arrive until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.StringSliceVar(&watchFlags.types, "type", nil, "Only show these content types (link, email, voice, video)")
	f.BoolVar(&watchFlags.threatsOnly, "threats-only", false, "Only show non-safe verdicts")
	f.IntVar(&watchFlags.minScore, "min-score", 0, "Only show events scored at or above this value")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	sub := &streaming.Subscription{
		ThreatsOnly: watchFlags.threatsOnly,
		MinScore:    watchFlags.minScore,
	}
	for _, t := range watchFlags.types {
		ct, ok := models.ParseContentType(t)
		if !ok {
			return fmt.Errorf("unknown content type %q", t)
		}
		sub.ContentTypes = append(sub.ContentTypes, ct)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := streaming.NewNATSPublisher(ctx, cfg.NATS, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer publisher.Close()

	events, err := publisher.Subscribe(ctx, sub)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	for event := range events {
		if rootFlags.format == report.FormatJSON {
			if err := enc.Encode(event); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "- %s **%s** %s (%d) %s\n",
			humanize.Time(event.Timestamp), event.Verdict, event.ContentType, event.Score, event.Subject)
	}
	return nil
}
