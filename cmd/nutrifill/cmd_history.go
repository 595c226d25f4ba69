package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/nutrifill/internal/export"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Recorded fill passes (needs NUTRIFILL_DB_URL)",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent passes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeHistory, err := a.openHistory(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeHistory()

			passes, err := history.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "STARTED", "SOURCE", "FILLED", "ENTRIES", "DURATION")
			for _, p := range passes {
				t.Row(
					p.ID.String()[:8],
					p.StartedAt.Local().Format(time.DateTime),
					string(p.Source),
					strconv.Itoa(p.Filled),
					strconv.Itoa(p.Entries),
					p.Duration.Round(time.Millisecond).String(),
				)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum passes to show")

	var out string
	var exportLimit int
	exp := &cobra.Command{
		Use:   "export",
		Short: "Export passes and their failures to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeHistory, err := a.openHistory(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer closeHistory()

			data, err := export.NewService(history, a.logger).ExportPassesXLSX(cmd.Context(), exportLimit)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write workbook: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	exp.Flags().StringVar(&out, "out", "nutrifill-history.xlsx", "output path")
	exp.Flags().IntVar(&exportLimit, "limit", 1000, "maximum passes to export")

	cmd.AddCommand(list, exp)
	return cmd
}
