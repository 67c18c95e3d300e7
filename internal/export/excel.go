package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/papergen/internal/model"
)

const sheetName = "Questions"

var excelHeaders = []string{
	"Test Section",
	"Main Topic",
	"Sub-topic",
	"Difficulty Level",
	"Question ID",
	"Question (English)",
	"Option A",
	"Option B",
	"Option C",
	"Option D",
	"Correct Answer",
	"Explanation",
	"References",
}

// Column width groups for the review sheet. Text-heavy columns get wrap
// styling so reviewers can read whole questions in place.
var (
	metadataCols = map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 11: true}
	textCols     = map[int]bool{6: true, 7: true, 8: true, 9: true, 10: true}
)

// ExportExcel writes the paper to a styled xlsx workbook at path.
func ExportExcel(p *model.Paper, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("wrap style: %w", err)
	}

	for col, header := range excelHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for row, q := range p.Questions {
		values := []any{
			q.TestSection,
			q.MainTopic,
			q.Subtopic,
			string(q.Difficulty),
			q.ID,
			q.Text,
			q.OptionA,
			q.OptionB,
			q.OptionC,
			q.OptionD,
			q.CorrectAnswer,
			q.Explanation,
			joinReferences(q.References),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
			if textCols[col+1] || col+1 == 12 {
				if err := f.SetCellStyle(sheetName, cell, cell, wrapStyle); err != nil {
					return err
				}
			}
		}
	}

	for col := range excelHeaders {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := 30.0
		switch {
		case metadataCols[col+1]:
			width = 15
		case textCols[col+1]:
			width = 40
		case col+1 == 12:
			width = 50
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func joinReferences(refs []string) string {
	if len(refs) == 0 {
		return "N/A"
	}
	return strings.Join(refs, "; ")
}
