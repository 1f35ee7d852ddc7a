package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"markbench/internal/domain"
)

const marksSheet = "Marks"

// WriteXLSX renders the grading results as a single-sheet workbook, one row
// per submission, and writes it to w. Column order matches the CSV export.
func WriteXLSX(results []domain.SubmissionResult, w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(marksSheet)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(marksSheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i := range results {
		row := resultToRow(&results[i])
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(marksSheet, cell, &cells); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
