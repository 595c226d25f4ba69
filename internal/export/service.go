package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/nutrifill/internal/repository"
)

const (
	passesSheet   = "Passes"
	failuresSheet = "Failures"
)

// Service turns fill-pass history into XLSX workbooks.
type Service struct {
	history repository.HistoryRepository
	logger  *slog.Logger
}

func NewService(history repository.HistoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger}
}

// ExportPassesXLSX returns a workbook with one row per pass (newest first) and
// one row per failed entry. limit <= 0 exports everything.
func (s *Service) ExportPassesXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	passes, err := s.history.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", passesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(failuresSheet); err != nil {
		return nil, err
	}

	writeRow(f, passesSheet, 1, "ID", "Source", "Started", "Entries", "Filled", "Failed", "Duration ms")
	writeRow(f, failuresSheet, 1, "Pass ID", "Label", "Value", "Unit", "Reason")

	failRow := 2
	for i, p := range passes {
		writeRow(f, passesSheet, i+2,
			p.ID.String(),
			string(p.Source),
			p.StartedAt.UTC().Format(time.RFC3339),
			p.Entries,
			p.Filled,
			len(p.Failures),
			p.Duration.Milliseconds(),
		)
		for _, fl := range p.Failures {
			writeRow(f, failuresSheet, failRow,
				p.ID.String(),
				truncate(fl.Entry.Label, 80),
				fl.Entry.Value,
				fl.Entry.Unit,
				string(fl.Reason),
			)
			failRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(passesSheet, "A", "A", 38) // id
	_ = f.SetColWidth(passesSheet, "B", "B", 10) // source
	_ = f.SetColWidth(passesSheet, "C", "C", 22) // started
	_ = f.SetColWidth(passesSheet, "D", "G", 12) // counts
	_ = f.SetColWidth(failuresSheet, "A", "A", 38)
	_ = f.SetColWidth(failuresSheet, "B", "B", 32)
	_ = f.SetColWidth(failuresSheet, "E", "E", 22)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"passes", len(passes),
		"failures", failRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
