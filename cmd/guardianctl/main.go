package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	format     string
	save       bool
}

var rootCmd = &cobra.Command{
	Use:   "guardianctl",
	Short: "Analyze links, emails and media for scams from the command line",
	Long: `guardianctl runs the Guardian Shield heuristics locally.

Results can be saved to the local SQLite store with --save and listed
again with "guardianctl recent".`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Path to config file")
	pf.StringVarP(&rootFlags.format, "format", "f", "json", "Output format: json or markdown")
	pf.BoolVar(&rootFlags.save, "save", false, "Save results to the local SQLite store")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(quickCheckCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
