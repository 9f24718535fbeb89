package backup

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"moneytracker/internal/sheets"
)

// Workbook sheet names.
const (
	RecordsSheet = "Records"
	TagsSheet    = "Tags"
)

var tagHeader = []any{"Name", "Kind", "Color", "ID", "Created"}

// WriteXLSX renders doc as a workbook with one sheet for records and one for
// tags. Record rows carry tag names, like the Sheets mirror.
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, RecordsSheet, sheets.Rows(doc.Records, doc.Tags)); err != nil {
		return err
	}
	_ = f.SetColWidth(RecordsSheet, "A", "A", 12)
	_ = f.SetColWidth(RecordsSheet, "C", "C", 12)
	_ = f.SetColWidth(RecordsSheet, "D", "E", 30)

	if _, err := f.NewSheet(TagsSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", TagsSheet, err)
	}
	tagRows := make([][]any, 0, len(doc.Tags)+1)
	tagRows = append(tagRows, tagHeader)
	for _, t := range doc.Tags {
		tagRows = append(tagRows, []any{
			t.Name,
			string(t.Kind),
			t.Color,
			t.ID,
			t.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeRows(f, TagsSheet, tagRows); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
