package tblfm

import (
	"fmt"
	"strings"
)

// Updates maps "@R$C" field addresses to their recomputed text.
type Updates map[string]string

// Key returns the address of field (row, col).
func Key(row, col int) string {
	return fmt.Sprintf("@%d$%d", row, col)
}

// ParseKey splits an address produced by Key.
func ParseKey(key string) (row, col int, ok bool) {
	n, err := fmt.Sscanf(key, "@%d$%d", &row, &col)
	return row, col, err == nil && n == 2
}

// Engine evaluates formulas with access to document constants and named
// tables for remote().
type Engine struct {
	Constants map[string]string
	Tables    map[string]*Table
}

// Recalculate evaluates every formula of t. Column formulas run first,
// then field and range formulas, so a field formula wins over a column
// formula for the same cell. Each formula sees the results of the ones
// before it; t itself is left untouched.
func (e *Engine) Recalculate(t *Table) Updates {
	updates := Updates{}
	lookup := func(tbl *Table, row, col int) string {
		if tbl == t {
			if v, ok := updates[Key(row, col)]; ok {
				return v
			}
		}
		return tbl.Value(row, col)
	}

	ordered := make([]Formula, 0, len(t.Formulas))
	for _, f := range t.Formulas {
		if f.Target.Kind == TargetColumn {
			ordered = append(ordered, f)
		}
	}
	for _, f := range t.Formulas {
		if f.Target.Kind != TargetColumn {
			ordered = append(ordered, f)
		}
	}

	for _, f := range ordered {
		for _, cell := range e.targets(t, f.Target) {
			updates[Key(cell[0], cell[1])] = e.evalCell(t, f.Expr, cell[0], cell[1], f.Format, lookup)
		}
	}
	return updates
}

// EvalAt evaluates expr with (row, col) as the current field.
func (e *Engine) EvalAt(t *Table, expr string, row, col int, format string) string {
	return e.evalCell(t, expr, row, col, format, func(tbl *Table, r, c int) string {
		return tbl.Value(r, c)
	})
}

func (e *Engine) evalCell(t *Table, expr string, row, col int, format string, lookup lookupFunc) string {
	ctx := &evalCtx{
		table:     t,
		row:       row,
		col:       col,
		durations: DurationMode(format) != 0,
		lookup:    lookup,
		engine:    e,
	}
	v, err := ctx.compute(expr)
	if err != nil {
		return "#ERROR: " + err.Error()
	}
	return FormatResult(v, format)
}

// targets expands a formula target into (row, col) pairs in row-major
// order. Addresses outside the table are dropped.
func (e *Engine) targets(t *Table, tg Target) [][2]int {
	ctx := &evalCtx{table: t, engine: e}
	var out [][2]int
	add := func(row, col int) {
		if row >= 1 && row <= t.DataRowCount && col >= 1 && col <= t.ColumnCount {
			out = append(out, [2]int{row, col})
		}
	}
	switch tg.Kind {
	case TargetColumn:
		col, ok := ctx.resolveCol(tg.Col)
		if !ok {
			return nil
		}
		for row := t.FirstDataRow; row <= t.DataRowCount; row++ {
			add(row, col)
		}
	case TargetField:
		col, ok := ctx.resolveCol(tg.Col)
		if !ok {
			return nil
		}
		add(ctx.resolveRow(tg.Row), col)
	case TargetRange:
		r1, r2 := ctx.resolveRow(tg.Row), ctx.resolveRow(tg.Row2)
		c1, ok1 := ctx.resolveCol(tg.Col)
		c2, ok2 := ctx.resolveCol(tg.Col2)
		if !ok1 || !ok2 {
			return nil
		}
		if r1 > r2 {
			r1, r2 = r2, r1
		}
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		for row := r1; row <= r2; row++ {
			for col := c1; col <= c2; col++ {
				add(row, col)
			}
		}
	}
	return out
}

// Splice renders t with updates applied. Only rows holding an updated
// field are rebuilt; every other line, including rules and the formula
// lines, is kept as written.
func Splice(t *Table, updates Updates) string {
	byRow := map[int]map[int]string{}
	for key, v := range updates {
		row, col, ok := ParseKey(key)
		if !ok {
			continue
		}
		if byRow[row] == nil {
			byRow[row] = map[int]string{}
		}
		byRow[row][col] = v
	}

	lines := append([]string(nil), t.Lines...)
	for row, cols := range byRow {
		r, ok := t.RowAt(row)
		if !ok {
			continue
		}
		lines[r.Line] = rebuildRow(t.Lines[r.Line], r, cols, t.ColumnCount)
	}
	lines = append(lines, t.FormulaLines...)
	return strings.Join(lines, "\n")
}

func rebuildRow(original string, r Row, cols map[int]string, width int) string {
	values := make([]string, width)
	for _, c := range r.Cells {
		if c.Col <= width {
			values[c.Col-1] = c.Value
		}
	}
	for col, v := range cols {
		if col >= 1 && col <= width {
			values[col-1] = v
		}
	}
	indent := original[:len(original)-len(strings.TrimLeft(original, " \t"))]
	return indent + "| " + strings.Join(values, " | ") + " |"
}
