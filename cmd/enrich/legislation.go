package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/refdata"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/ukleg"
)

func legislationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legislation",
		Short: "Manage the legislation reference table",
		Long: `Manage the SQLite table of legislation titles that judgments are
matched against.

Examples:
  enrich legislation import lookup.csv
  enrich legislation count
  enrich legislation verify --limit 50`,
	}

	cmd.AddCommand(legislationImportCmd())
	cmd.AddCommand(legislationCountCmd())
	cmd.AddCommand(legislationVerifyCmd())

	return cmd
}

func legislationImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Import legislation titles from a CSV file",
		Long: `Import rows with the columns candidate_title, year, canonical_citation,
href and for_fuzzy. Existing titles are updated in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			csvFile, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer csvFile.Close()

			store, err := refdata.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			imported, err := store.ImportCSV(ctx, csvFile)
			if err != nil {
				return err
			}
			total, err := store.Count(ctx)
			if err != nil {
				return err
			}

			logger.Info("legislation imported", "source", args[0], "rows", imported, "total", total)
			fmt.Printf("Imported %d rows into %s (%d titles total)\n", imported, cfg.DatabasePath, total)
			return nil
		},
	}
}

func legislationCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of legislation titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			store, err := refdata.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			total, err := store.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Println(total)
			return nil
		},
	}
}

func legislationVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that legislation hrefs resolve on legislation.gov.uk",
		Long: `Send a rate-limited HEAD request for each distinct href in the
legislation table and list the ones that do not resolve.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			limit, _ := cmd.Flags().GetInt("limit")
			interval, _ := cmd.Flags().GetDuration("interval")

			store, err := refdata.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return err
			}
			records, err := store.LoadLegislation(ctx)
			store.Close()
			if err != nil {
				return err
			}

			hrefSet := make(map[string]bool)
			for _, record := range records {
				hrefSet[record.Href] = true
			}
			hrefs := make([]string, 0, len(hrefSet))
			for href := range hrefSet {
				hrefs = append(hrefs, href)
			}
			sort.Strings(hrefs)
			if limit > 0 && len(hrefs) > limit {
				hrefs = hrefs[:limit]
			}

			checkerConfig := ukleg.DefaultCheckerConfig()
			checkerConfig.RateLimit = interval
			checker := ukleg.NewChecker(checkerConfig)

			broken := 0
			for _, href := range hrefs {
				result, err := checker.Check(ctx, href)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					broken++
					fmt.Printf("INVALID  %s  %v\n", href, err)
					continue
				}
				if !result.Valid {
					broken++
					detail := result.Error
					if detail == "" {
						detail = fmt.Sprintf("HTTP %d", result.StatusCode)
					}
					fmt.Printf("BROKEN   %s  %s\n", href, detail)
				}
			}

			fmt.Printf("Checked %d hrefs, %d broken\n", len(hrefs), broken)
			if broken > 0 {
				return fmt.Errorf("%d legislation hrefs did not resolve", broken)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Check at most this many hrefs (0 means all)")
	cmd.Flags().Duration("interval", ukleg.DefaultRequestInterval, "Minimum interval between requests")

	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

