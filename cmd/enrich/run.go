package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/enrich"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/pattern"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/refdata"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [files or directories...]",
		Short: "Enrich judgments",
		Long: `Enrich every judgment given on the command line. Directories are
searched for .xml and .xml.xz files. One output file is written per input;
documents that fail are written out unchanged and listed in the report.

Examples:
  enrich run --output-dir out judgments/
  enrich run --workers 8 --report report.json ewca-civ-2021-1234.xml
  enrich run --no-citations --database legislation.db judgment.xml.xz`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir, _ := cmd.Flags().GetString("output-dir")
			reportPath, _ := cmd.Flags().GetString("report")
			failOnError, _ := cmd.Flags().GetBool("fail-on-error")
			if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("timeout") {
				cfg.DocumentTimeout, _ = cmd.Flags().GetDuration("timeout")
			}

			paths, err := collectInputs(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .xml or .xml.xz files found")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			enricher, cleanup, err := buildEnricher(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			batch := enrich.NewBatch(enricher, enrich.BatchConfig{
				Workers:         cfg.Workers,
				DocumentTimeout: cfg.DocumentTimeout,
				OutputDir:       outputDir,
				Logger:          logger,
			})
			report, err := batch.Run(ctx, enrich.InputsFromPaths(paths))
			if err != nil {
				return err
			}

			if err := writeReport(report, reportPath); err != nil {
				return err
			}
			if failOnError && report.Failed > 0 {
				return fmt.Errorf("%d of %d documents failed", report.Failed, len(report.Documents))
			}
			return nil
		},
	}

	cmd.Flags().StringP("output-dir", "o", "enriched", "Directory for enriched documents")
	cmd.Flags().String("report", "", "Write the JSON run report to this file (default: stdout)")
	cmd.Flags().Int("workers", 0, "Documents enriched concurrently (overrides config)")
	cmd.Flags().Duration("timeout", 0, "Per-document timeout (overrides config)")
	cmd.Flags().Bool("fail-on-error", false, "Exit non-zero if any document fell back to its original")
	addEnricherFlags(cmd)

	return cmd
}

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the references detected in a judgment as JSON",
		Long: `Run every detector over one judgment and print the detections
without modifying the document.

Examples:
  enrich detect judgment.xml
  enrich detect --no-citations judgment.xml.xz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			enricher, cleanup, err := buildEnricher(ctx, cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			inputs := enrich.InputsFromPaths(args)
			raw, err := enrich.ReadInput(inputs[0])
			if err != nil {
				return err
			}
			detections, err := enricher.Detect(ctx, inputs[0].ID, raw)
			if err != nil {
				return err
			}

			type detectionOutput struct {
				Kind      reference.Kind     `json:"kind"`
				Detection reference.Detected `json:"detection"`
			}
			outputs := make([]detectionOutput, 0, len(detections))
			for _, detection := range detections {
				outputs = append(outputs, detectionOutput{Kind: detection.Kind(), Detection: detection})
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(outputs)
		},
	}
	addEnricherFlags(cmd)
	return cmd
}

func addEnricherFlags(cmd *cobra.Command) {
	cmd.Flags().String("rules-dir", "", "Directory of extra citation rule manifests (overrides config)")
	cmd.Flags().Bool("no-citations", false, "Disable case citation detection")
}

// buildEnricher loads the legislation table and citation rules. The
// returned cleanup stops the rule watcher, if one was started.
func buildEnricher(ctx context.Context, cmd *cobra.Command) (*enrich.Enricher, func(), error) {
	if rulesDir, _ := cmd.Flags().GetString("rules-dir"); rulesDir != "" {
		cfg.RulesDir = rulesDir
	}
	noCitations, _ := cmd.Flags().GetBool("no-citations")

	store, err := refdata.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, nil, err
	}
	table, err := store.LoadTable(ctx)
	store.Close()
	if err != nil {
		return nil, nil, err
	}
	if table.Len() == 0 {
		logger.Warn("legislation table is empty; run 'enrich legislation import' first", "database", cfg.DatabasePath)
	}

	options := []enrich.Option{
		enrich.WithLogger(logger),
		enrich.WithAbbreviationOptions(cfg.Abbreviation),
	}
	cleanup := func() {}

	if !noCitations {
		registry, err := loadRules()
		if err != nil {
			return nil, nil, err
		}
		if cfg.WatchRules && cfg.RulesDir != "" {
			if err := registry.Watch(); err != nil {
				return nil, nil, fmt.Errorf("watching rules: %w", err)
			}
			cleanup = registry.StopWatch
		}
		options = append(options, enrich.WithCitations(registry))
	}

	logger.Info("enricher ready", "legislation_titles", table.Len(), "driver", refdata.DriverType())
	return enrich.New(table, cfg.Legislation, options...), cleanup, nil
}

// loadRules returns the built-in citation rules plus any manifests in the
// configured rules directory.
func loadRules() (*pattern.Registry, error) {
	registry, err := pattern.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	registry.SetLogger(logger)
	if cfg.RulesDir != "" {
		if err := registry.LoadDirectory(cfg.RulesDir); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// collectInputs expands directories into the .xml and .xml.xz files they
// contain, recursively. Files named explicitly are kept whatever their
// extension.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			if matched, _ := filepath.Match("*.xml", entry.Name()); matched {
				paths = append(paths, path)
			} else if matched, _ := filepath.Match("*.xml.xz", entry.Name()); matched {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", arg, err)
		}
	}
	return paths, nil
}

func writeReport(report *enrich.Report, reportPath string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if reportPath == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Enriched %d documents (%d failed). Report: %s\n",
		len(report.Documents), report.Failed, reportPath)
	return nil
}
