package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/nutrifill/internal/match"
)

func newTablesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Inspect the label and unit equivalence tables",
	}

	check := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a tables file",
		Long: `Validates the file against the tables schema, merges it with the defaults
when it sets extend: true, and fails if any label or unit lands in two classes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.TablesPath
			if len(args) == 1 {
				path = args[0]
			}
			tables := match.DefaultTables()
			if path != "" {
				t, err := match.LoadTables(path)
				if err != nil {
					return err
				}
				tables = t
			} else {
				path = "built-in"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d label classes, %d unit classes)\n",
				path, len(tables.Labels.Classes()), len(tables.Units.Classes()))
			return nil
		},
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective tables as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.matcher()
			if err != nil {
				return err
			}
			doc := map[string]map[string][]string{
				"labels": m.Tables().Labels.Classes(),
				"units":  m.Tables().Units.Classes(),
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		},
	}

	cmd.AddCommand(check, dump)
	return cmd
}
