// Package export renders papers into the delivery formats: a CSV matching
// the client's bilingual question template, and a styled Excel workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pavelanni/papergen/internal/model"
)

// csvHeaders is the client's template, column for column. The Hindi and
// translation columns are part of the template even though this pipeline
// only produces English text; they stay empty.
var csvHeaders = []string{
	"Test Section",
	"Main Topic",
	"Sub-topic",
	"Difficulty Level",
	"Translation for options required?",
	"Question ID",
	"Question- English",
	"Question- Hindi",
	"Option A- English",
	"Option A- Hindi",
	"Option B- English",
	"Option B- Hindi",
	"Option C- English",
	"Option C- Hindi",
	"Option D- English",
	"Option D- Hindi",
	"Correct Answer",
	"Solution/Workout/Explanation",
	"Reference(s)",
}

// WriteCSV writes the paper's questions to w in the client template layout.
func WriteCSV(w io.Writer, p *model.Paper) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, q := range p.Questions {
		if err := cw.Write(csvRow(q)); err != nil {
			return fmt.Errorf("write question %s: %w", q.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the paper to a CSV file at path.
func ExportCSV(p *model.Paper, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func csvRow(q model.Question) []string {
	return []string{
		q.TestSection,
		q.MainTopic,
		q.Subtopic,
		string(q.Difficulty),
		"", // translation flag, filled in by the client
		q.ID,
		q.Text,
		"",
		q.OptionA,
		"",
		q.OptionB,
		"",
		q.OptionC,
		"",
		q.OptionD,
		"",
		"Option " + q.CorrectAnswer,
		q.Explanation,
		numberedReferences(q.References),
	}
}

// numberedReferences renders references as a numbered list, one per line.
func numberedReferences(refs []string) string {
	if len(refs) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, ref := range refs {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, ref)
	}
	return sb.String()
}
