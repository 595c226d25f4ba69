package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
)

func newParseCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Print the entries found in the text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			entries := entry.ParseAll(text)
			a.logger.Debug("parse.done", "entries", len(entries))

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if entries == nil {
					entries = []entry.Entry{}
				}
				return enc.Encode(entries)
			}
			for _, e := range entries {
				fmt.Fprintln(out, e.String())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newMatchCmd(a *app) *cobra.Command {
	var formPath string
	cmd := &cobra.Command{
		Use:   "match --form form.yaml [file|-]",
		Short: "Dry-run matching against a form snapshot",
		Long: `Pairs every parsed entry with the field it would fill, without writing
anything. The form snapshot is YAML:

  fields:
    - {label: Energy, unit: kcal}
    - {label: Protein, unit: g}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := memory.LoadForm(formPath)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			m, err := a.matcher()
			if err != nil {
				return err
			}

			results := m.MatchAll(cmd.Context(), entry.ParseAll(text), reg)
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ENTRY", "FIELD", "RESULT")
			matched := 0
			for _, r := range results {
				if r.Matched() {
					matched++
					t.Row(r.Entry.String(), r.Field.Label()+" ("+r.Field.Unit()+")", "match")
					continue
				}
				t.Row(r.Entry.String(), "-", string(r.Reason))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, t.Render())
			fmt.Fprintf(out, "%d of %d entries matched\n", matched, len(results))
			return nil
		},
	}
	cmd.Flags().StringVar(&formPath, "form", "", "YAML form snapshot")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}
