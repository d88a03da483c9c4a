package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// CSVParser handles CSV files. The first record becomes the header row,
// separated from the data by a rule.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := newOutline(titleFromFilename(filename))
	if len(records) == 0 {
		return out.document(), nil
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, records[0])
	if len(records) > 1 {
		rows = append(rows, nil)
		rows = append(rows, records[1:]...)
	}
	out.add(orgtree.NewTable(rows))
	return out.document(), nil
}
