// Package tblfm recalculates spreadsheet-style formulas attached to
// outline tables.
package tblfm

import (
	"regexp"
	"strings"
)

// Cell is one table field.
type Cell struct {
	Value  string
	Col    int // 1-indexed
	Header bool
}

// Row is one table line. Rule rows carry no cells and no row number.
type Row struct {
	Cells  []Cell
	Hline  bool
	Header bool
	Param  bool
	Number int // 1-indexed over data rows, 0 for rule and parameter rows
	Line   int // index into Table.Lines
}

// Table is the parsed model of one table. It is never mutated after
// ParseTable returns.
type Table struct {
	Name         string
	Lines        []string
	FormulaLines []string
	Rows         []Row
	ColumnCount  int
	DataRowCount int
	FirstDataRow int
	Parameters   map[string]string
	ColumnNames  map[string]int
	Formulas     []Formula

	byNumber []int // row number -> index into Rows
	hlines   []int // row number following each rule
}

var paramCell = regexp.MustCompile(`^\$?([A-Za-z_]\w*)=(.*)$`)

// IsTableLine reports whether line belongs to a table body.
func IsTableLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "|")
}

// IsFormulaLine reports whether line is a #+TBLFM: line.
func IsFormulaLine(line string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(line)), "#+TBLFM:")
}

// ParseTable builds a table from its lines. Trailing #+TBLFM: lines are
// parsed into formulas; any other non-table line is ignored.
func ParseTable(lines []string) *Table {
	t := &Table{
		Parameters:  map[string]string{},
		ColumnNames: map[string]int{},
		byNumber:    []int{-1},
	}
	seenRule := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case IsFormulaLine(trimmed):
			t.FormulaLines = append(t.FormulaLines, line)
			t.Formulas = append(t.Formulas, ParseFormulas(trimmed)...)
			continue
		case !strings.HasPrefix(trimmed, "|"):
			continue
		}
		idx := len(t.Lines)
		t.Lines = append(t.Lines, line)

		if strings.HasPrefix(trimmed, "|-") || strings.HasPrefix(trimmed, "|+") {
			if !seenRule {
				t.FirstDataRow = t.DataRowCount + 1
			}
			seenRule = true
			t.Rows = append(t.Rows, Row{Hline: true, Line: idx})
			t.hlines = append(t.hlines, t.DataRowCount+1)
			continue
		}

		values := splitCells(trimmed)
		if t.parseParams(values) {
			t.Rows = append(t.Rows, Row{Param: true, Line: idx, Cells: toCells(values, false)})
			continue
		}
		t.DataRowCount++
		row := Row{Number: t.DataRowCount, Line: idx, Header: !seenRule, Cells: toCells(values, !seenRule)}
		t.byNumber = append(t.byNumber, len(t.Rows))
		t.Rows = append(t.Rows, row)
		if len(values) > t.ColumnCount {
			t.ColumnCount = len(values)
		}
	}

	if !seenRule {
		t.FirstDataRow = 1
		for i := range t.Rows {
			t.Rows[i].Header = false
			for j := range t.Rows[i].Cells {
				t.Rows[i].Cells[j].Header = false
			}
		}
	} else {
		for i, r := range t.Rows {
			if r.Hline {
				break
			}
			if r.Param {
				continue
			}
			for _, c := range t.Rows[i].Cells {
				name := strings.ToLower(strings.TrimSpace(c.Value))
				if name != "" {
					if _, dup := t.ColumnNames[name]; !dup {
						t.ColumnNames[name] = c.Col
					}
				}
			}
			break
		}
	}
	return t
}

func (t *Table) parseParams(values []string) bool {
	if len(values) == 0 {
		return false
	}
	marked := strings.TrimSpace(values[0]) == "$"
	start := 0
	if marked {
		start = 1
	}
	found := false
	for _, v := range values[start:] {
		v = strings.TrimSpace(v)
		if !marked && !strings.HasPrefix(v, "$") {
			continue
		}
		if m := paramCell.FindStringSubmatch(v); m != nil {
			t.Parameters[m[1]] = strings.TrimSpace(m[2])
			found = true
		}
	}
	return marked || found
}

func splitCells(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func toCells(values []string, header bool) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Value: v, Col: i + 1, Header: header}
	}
	return cells
}

// Value returns the text of field (row, col), or "" when out of range.
func (t *Table) Value(row, col int) string {
	if row < 1 || row >= len(t.byNumber) || col < 1 {
		return ""
	}
	r := t.Rows[t.byNumber[row]]
	if col > len(r.Cells) {
		return ""
	}
	return r.Cells[col-1].Value
}

// RowAt returns the row with the given number.
func (t *Table) RowAt(row int) (Row, bool) {
	if row < 1 || row >= len(t.byNumber) {
		return Row{}, false
	}
	return t.Rows[t.byNumber[row]], true
}

// HlineRow returns the row following the n-th rule, or the last row when
// the table has fewer rules.
func (t *Table) HlineRow(n int) int {
	if n >= 1 && n <= len(t.hlines) && t.hlines[n-1] <= t.DataRowCount {
		return t.hlines[n-1]
	}
	return t.DataRowCount
}
