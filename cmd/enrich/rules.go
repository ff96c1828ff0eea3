package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect case citation rules",
	}
	cmd.AddCommand(rulesListCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the loaded citation rules",
		Long: `List the built-in citation rules and any loaded from the rules
directory, highest priority first.

Examples:
  enrich rules list
  enrich rules list --rules-dir ./rules`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rulesDir, _ := cmd.Flags().GetString("rules-dir"); rulesDir != "" {
				cfg.RulesDir = rulesDir
			}
			registry, err := loadRules()
			if err != nil {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tPRIORITY\tNEUTRAL\tSOURCE\tDESCRIPTION")
			for _, rule := range registry.List() {
				fmt.Fprintf(writer, "%s\t%d\t%t\t%s\t%s\n",
					rule.ID, rule.Priority, rule.Neutral, rule.Source, rule.Description)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%d rules\n", registry.Count())
			return nil
		},
	}
	cmd.Flags().String("rules-dir", "", "Directory of extra citation rule manifests (overrides config)")
	return cmd
}
