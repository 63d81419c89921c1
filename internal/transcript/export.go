package transcript

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const (
	sheetName = "Messages"
	// Excel stores at most this many characters per cell.
	maxCellChars = 32767
)

// Export writes msgs as an xlsx workbook with one type/content row per message.
func Export(w io.Writer, msgs []Message) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &[]any{"type", "content"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, m := range msgs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		content := m.Pretty()
		if r := []rune(content); len(r) > maxCellChars {
			content = string(r[:maxCellChars])
		}
		if err := f.SetSheetRow(sheetName, cell, &[]any{m.Type, content}); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 36); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "B", "B", 120); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
