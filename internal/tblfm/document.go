package tblfm

import (
	"strings"
)

// TableResult reports the recalculation of one table in a document.
type TableResult struct {
	Name      string  `json:"name,omitempty"`
	StartLine int     `json:"startLine"` // 0-indexed
	Updates   Updates `json:"updates"`
}

type tableBlock struct {
	name  string
	start int
	end   int // exclusive
	table *Table
}

// RecalcDocument recalculates every table that carries a #+TBLFM: line
// and returns the rewritten text. #+CONSTANTS: lines feed named
// references, and tables preceded by #+NAME: are available to remote().
// Remote lookups read the other table as written, before its own
// formulas run.
func RecalcDocument(text string) (string, []TableResult) {
	lines := strings.Split(text, "\n")
	engine := &Engine{Constants: map[string]string{}, Tables: map[string]*Table{}}

	var blocks []tableBlock
	for i := 0; i < len(lines); {
		trimmed := strings.TrimSpace(lines[i])
		if key, value, ok := keywordLine(trimmed); ok && key == "CONSTANTS" {
			for k, v := range ParseConstants(value) {
				engine.Constants[k] = v
			}
		}
		if !IsTableLine(lines[i]) {
			i++
			continue
		}
		start := i
		for i < len(lines) && IsTableLine(lines[i]) {
			i++
		}
		for i < len(lines) && IsFormulaLine(lines[i]) {
			i++
		}
		b := tableBlock{start: start, end: i, table: ParseTable(lines[start:i])}
		if start > 0 {
			if key, value, ok := keywordLine(strings.TrimSpace(lines[start-1])); ok && key == "NAME" {
				b.name = value
				b.table.Name = value
				engine.Tables[value] = b.table
			}
		}
		blocks = append(blocks, b)
	}

	var results []TableResult
	out := append([]string(nil), lines...)
	for _, b := range blocks {
		if len(b.table.Formulas) == 0 {
			continue
		}
		updates := engine.Recalculate(b.table)
		spliced := strings.Split(Splice(b.table, updates), "\n")
		copy(out[b.start:b.end], spliced)
		results = append(results, TableResult{Name: b.name, StartLine: b.start, Updates: updates})
	}
	return strings.Join(out, "\n"), results
}

// ParseConstants reads "name=value" pairs separated by whitespace.
func ParseConstants(s string) map[string]string {
	out := map[string]string{}
	for _, field := range strings.Fields(s) {
		if k, v, ok := strings.Cut(field, "="); ok && k != "" {
			out[k] = v
		}
	}
	return out
}

func keywordLine(line string) (string, string, bool) {
	if !strings.HasPrefix(line, "#+") {
		return "", "", false
	}
	key, value, ok := strings.Cut(line[2:], ":")
	if !ok {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(key)), strings.TrimSpace(value), true
}
