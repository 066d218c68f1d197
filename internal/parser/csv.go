package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/raggest/internal/document"
)

// CSVParser handles CSV files. Rows are rendered as "header: value" lines
// and grouped into batches so each section stays retrievable on its own.
type CSVParser struct{}

const csvBatchSize = 20

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &document.Document{
		Source: filename,
		Title:  titleFromFilename(filename),
	}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))

		var text strings.Builder
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j > 0 {
					text.WriteString(", ")
				}
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
			}
			text.WriteString("\n")
		}

		doc.Sections = append(doc.Sections, document.Section{
			Heading: fmt.Sprintf("Rows %d-%d", i+2, end+1), // 1-indexed, skip header
			Level:   1,
			Text:    strings.TrimRight(text.String(), "\n"),
		})
	}

	return doc, nil
}
