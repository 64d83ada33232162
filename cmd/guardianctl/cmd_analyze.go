package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"guardian-shield/internal/config"
	"guardian-shield/internal/domain/models"
	"guardian-shield/internal/domain/services"
	"guardian-shield/internal/infrastructure/sqlite"
	"guardian-shield/internal/report"
	"guardian-shield/pkg/logger"
)

var emailFlags struct {
	file string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one link, email, voice recording or video",
}

var analyzeLinkCmd = &cobra.Command{
	Use:   "link <url>",
	Short: "Check a URL for phishing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalysis(cmd, models.NewURLInput(args[0]), report.Subject{Label: args[0]})
	},
}

var analyzeEmailCmd = &cobra.Command{
	Use:   "email [text]",
	Short: "Check email text for phishing",
	Long: `Check email text for phishing. The text is taken from the argument,
from --file, or from stdin when neither is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := emailText(cmd, args)
		if err != nil {
			return err
		}
		in := models.NewEmailInput(text)
		return runAnalysis(cmd, in, report.Subject{Label: in.Subject()})
	},
}

var analyzeVoiceCmd = &cobra.Command{
	Use:   "voice <file>",
	Short: "Check a recording for AI-generated voice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMedia(cmd, args[0], models.NewAudioInput)
	},
}

var analyzeVideoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Check a video for deepfake manipulation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMedia(cmd, args[0], models.NewVideoInput)
	},
}

var quickCheckCmd = &cobra.Command{
	Use:   "quick-check <url>",
	Short: "Run the fast URL warning checks used on link hover",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := report.NewWriter(rootFlags.format, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return w.WriteQuickCheck(args[0], services.QuickCheckURL(args[0]))
	},
}

func init() {
	analyzeEmailCmd.Flags().StringVar(&emailFlags.file, "file", "", "Read the email from a file")

	analyzeCmd.AddCommand(analyzeLinkCmd)
	analyzeCmd.AddCommand(analyzeEmailCmd)
	analyzeCmd.AddCommand(analyzeVoiceCmd)
	analyzeCmd.AddCommand(analyzeVideoCmd)
}

func emailText(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case emailFlags.file != "":
		data, err := os.ReadFile(emailFlags.file)
		if err != nil {
			return "", fmt.Errorf("failed to read email file: %w", err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
}

func runMedia(cmd *cobra.Command, path string, build func(string, int64) models.AnalysisInput) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	return runAnalysis(cmd, build(name, info.Size()), report.Subject{Label: name, SizeBytes: info.Size()})
}

func runAnalysis(cmd *cobra.Command, in models.AnalysisInput, subject report.Subject) error {
	w, err := report.NewWriter(rootFlags.format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	log := cliLogger(cfg)

	rules, err := services.RulesFromConfig(cfg.Detection)
	if err != nil {
		return err
	}

	var opts []services.AnalyzerOption
	if rootFlags.save {
		store, err := sqlite.Open(cfg.SQLite)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, services.WithRecordStore(store))
	}

	analyzer := services.NewAnalyzer(rules, &services.AnalyzerConfig{
		PersistTimeout: cfg.Analysis.PersistTimeout,
		BatchLimit:     cfg.Analysis.BatchLimit,
		MaxBatchSize:   cfg.Analysis.MaxBatchSize,
	}, log, opts...)

	result, err := analyzer.Analyze(cmd.Context(), in, models.AnalysisMeta{
		UserID: cfg.Analysis.DefaultUserID,
		Source: "cli",
	})
	if err != nil {
		return err
	}
	analyzer.Wait()

	return w.WriteAnalysis(subject, result)
}

// cliLogger writes warnings and errors to stderr so stdout stays parseable
func cliLogger(cfg *config.Config) *logger.Logger {
	lc := logger.DefaultConfig()
	lc.Level = "warn"
	if cfg.App.Debug {
		lc.Level = "debug"
	}
	lc.Output = os.Stderr
	return logger.New(lc)
}
