package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/config"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/logging"
)

var version = "0.1.0"

// Settings shared by every subcommand, filled in by the root command's
// PersistentPreRunE.
var (
	cfg    config.Config
	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "enrich",
		Short: "Judgment enrichment engine",
		Long: `Enrich marks up court judgments with links to the legislation and
case law they cite.

It detects:
  - Abbreviations defined in the judgment and every later use of them
  - Legislation titles, matched exactly or fuzzily against a reference table
  - Oblique references such as "the Act" and "the 1996 Act"
  - Neutral citations and law report citations

Documents that cannot be enriched are written out unchanged.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("database", "", "Legislation database path (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text, json (overrides config)")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(legislationCmd())
	rootCmd.AddCommand(rulesCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadSettings(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if databasePath, _ := cmd.Flags().GetString("database"); databasePath != "" {
		loaded.DatabasePath = databasePath
	}
	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if logFormat, _ := cmd.Flags().GetString("log-format"); logFormat != "" {
		loaded.Log.Format = logFormat
	}

	level, err := logging.ParseLevel(loaded.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(loaded.Log.Format)
	if err != nil {
		return err
	}

	cfg = loaded
	logger = logging.Init(os.Stderr, level, format)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("enrich %s\n", version)
		},
	}
}
