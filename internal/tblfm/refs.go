package tblfm

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// lookupFunc returns the current text of a field, honoring results computed
// earlier in the same recalculation.
type lookupFunc func(t *Table, row, col int) string

// evalCtx is the evaluation context of one target cell. row == 0 means
// there is no current row, as inside remote().
type evalCtx struct {
	table     *Table
	row, col  int
	durations bool
	lookup    lookupFunc
	engine    *Engine
}

var (
	aggregateCall = regexp.MustCompile(`\b(vsum|sum|vmean|mean|vmin|min|vmax|max|vcount|count|vprod|prod|sdev)\s*\(`)
	remoteCall    = regexp.MustCompile(`^remote\s*\(`)
	fieldRef      = regexp.MustCompile(`^@(#|` + rowSpec + `|0)(?:\$(#|` + colSpec + `))?`)
	columnRef     = regexp.MustCompile(`^\$(#|[<>]|[-+]\d+|\d+|[A-Za-z_]\w*)`)
	rangeRef      = regexp.MustCompile(`^(?:@(` + rowSpec + `|0))?(?:\$(` + colSpec + `))?\.\.(?:@(` + rowSpec + `|0))?(?:\$(` + colSpec + `))?$`)
	wholeColumn   = regexp.MustCompile(`^\$(` + colSpec + `)$`)
	numericText   = regexp.MustCompile(`^[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?$`)
	errRange      = errors.New("range outside of an aggregate")
)

// compute resolves every reference in expr and evaluates it.
func (c *evalCtx) compute(expr string) (float64, error) {
	resolved, err := c.substitute(expr)
	if err != nil {
		return 0, err
	}
	return Evaluate(strings.ReplaceAll(resolved, "^", "**"))
}

// substitute replaces references with numeric text. Aggregates are
// resolved first; the remaining tokens are classified left to right as
// remote, field, row-only, column, relative, named or special references.
func (c *evalCtx) substitute(expr string) (string, error) {
	expr, err := c.resolveAggregates(expr)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for i := 0; i < len(expr); {
		rest := expr[i:]
		switch {
		case remoteCall.MatchString(rest):
			end := matchingParen(rest, strings.IndexByte(rest, '('))
			if end < 0 {
				return "", errors.New("unbalanced remote()")
			}
			vals, err := c.remote(rest[strings.IndexByte(rest, '(')+1 : end])
			if err != nil {
				return "", err
			}
			if len(vals) != 1 {
				return "", errRange
			}
			sb.WriteString(c.operand(vals[0]))
			i += end + 1
		case rest[0] == '@':
			m := fieldRef.FindStringSubmatch(rest)
			if m == nil {
				return "", fmt.Errorf("invalid reference near %q", rest)
			}
			text, err := c.field(m[1], m[2])
			if err != nil {
				return "", err
			}
			sb.WriteString(text)
			i += len(m[0])
		case rest[0] == '$':
			m := columnRef.FindStringSubmatch(rest)
			if m == nil {
				sb.WriteByte('$')
				i++
				continue
			}
			sb.WriteString(c.column(m[1], m[0]))
			i += len(m[0])
		default:
			sb.WriteByte(rest[0])
			i++
		}
	}
	return sb.String(), nil
}

// field resolves "@row[$col]" tokens, including @# and the row-only form.
func (c *evalCtx) field(rowSpec, colSpec string) (string, error) {
	if rowSpec == "#" {
		if colSpec != "" {
			return "", errors.New("@# cannot address a field")
		}
		return strconv.Itoa(c.table.DataRowCount), nil
	}
	row := c.resolveRow(rowSpec)
	col := c.col
	switch colSpec {
	case "":
	case "#":
		return "", errors.New("$# cannot address a field")
	default:
		var ok bool
		col, ok = c.resolveCol(colSpec)
		if !ok {
			return "", fmt.Errorf("unknown column %q", colSpec)
		}
	}
	return c.operand(c.lookup(c.table, row, col)), nil
}

// column resolves a "$..." token in the current row. Named references try
// parameters, then constants, then header names; an unknown name is left
// as written.
func (c *evalCtx) column(spec, raw string) string {
	switch {
	case spec == "#":
		return strconv.Itoa(c.table.ColumnCount)
	case spec[0] == '+' || spec[0] == '-' || isDigit(spec[0]) || spec == "<" || spec == ">":
		col, _ := c.resolveCol(spec)
		return c.operand(c.lookup(c.table, c.row, col))
	}
	if v, ok := c.table.Parameters[spec]; ok {
		return c.operand(v)
	}
	if c.engine != nil {
		if v, ok := c.engine.Constants[spec]; ok {
			return c.operand(v)
		}
	}
	if col, ok := c.table.ColumnNames[strings.ToLower(spec)]; ok {
		return c.operand(c.lookup(c.table, c.row, col))
	}
	return raw
}

func (c *evalCtx) resolveRow(spec string) int {
	t := c.table
	switch {
	case spec == "0":
		return c.row
	case spec == "<":
		return t.FirstDataRow
	case spec == ">":
		return t.DataRowCount
	case spec[0] == 'I':
		n := strings.Count(spec, "I")
		row := t.HlineRow(n)
		if off, err := strconv.Atoi(spec[n:]); err == nil {
			row += off
		}
		return row
	case spec[0] == '+' || spec[0] == '-':
		off, _ := strconv.Atoi(spec)
		if c.row == 0 {
			if off < 0 {
				return t.DataRowCount + off
			}
			return off
		}
		return c.row + off
	}
	n, _ := strconv.Atoi(spec)
	return n
}

func (c *evalCtx) resolveCol(spec string) (int, bool) {
	t := c.table
	switch {
	case spec == "0":
		return c.col, true
	case spec == "<":
		return 1, true
	case spec == ">":
		return t.ColumnCount, true
	case spec[0] == '+' || spec[0] == '-':
		off, _ := strconv.Atoi(spec)
		return c.col + off, true
	case isDigit(spec[0]):
		n, _ := strconv.Atoi(spec)
		return n, true
	}
	col, ok := t.ColumnNames[strings.ToLower(spec)]
	return col, ok
}

// operand turns field text into something Evaluate accepts. Empty fields
// count as zero; negative numbers are parenthesized; non-numeric text is
// passed through so evaluation reports it.
func (c *evalCtx) operand(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "0"
	}
	if c.durations {
		if secs, ok := ParseDuration(v); ok {
			return numberText(float64(secs))
		}
	}
	if numericText.MatchString(v) {
		if strings.HasPrefix(v, "-") {
			return "(" + v + ")"
		}
		return v
	}
	return v
}

// values expands one aggregate argument into raw field texts.
func (c *evalCtx) values(arg string) ([]string, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case remoteCall.MatchString(arg):
		open := strings.IndexByte(arg, '(')
		end := matchingParen(arg, open)
		if end != len(arg)-1 {
			break
		}
		return c.remote(arg[open+1 : end])
	case rangeRef.MatchString(arg):
		return c.expandRange(rangeRef.FindStringSubmatch(arg))
	case wholeColumn.MatchString(arg):
		spec := wholeColumn.FindStringSubmatch(arg)[1]
		if _, isParam := c.table.Parameters[spec]; !isParam {
			col, ok := c.resolveCol(spec)
			if ok {
				return c.columnValues(col), nil
			}
		}
	case fieldRef.MatchString(arg) && fieldRef.FindString(arg) == arg:
		m := fieldRef.FindStringSubmatch(arg)
		if m[1] != "#" {
			col := c.col
			if m[2] != "" {
				var ok bool
				if col, ok = c.resolveCol(m[2]); !ok {
					return nil, fmt.Errorf("unknown column %q", m[2])
				}
			}
			return []string{c.lookup(c.table, c.resolveRow(m[1]), col)}, nil
		}
	}
	v, err := c.compute(arg)
	if err != nil {
		return nil, err
	}
	return []string{numberText(v)}, nil
}

func (c *evalCtx) expandRange(m []string) ([]string, error) {
	r1, r2 := c.row, c.row
	if m[1] != "" {
		r1 = c.resolveRow(m[1])
	}
	if m[3] != "" {
		r2 = c.resolveRow(m[3])
	}
	c1, c2 := c.col, c.col
	var ok bool
	if m[2] != "" {
		if c1, ok = c.resolveCol(m[2]); !ok {
			return nil, fmt.Errorf("unknown column %q", m[2])
		}
	}
	if m[4] != "" {
		if c2, ok = c.resolveCol(m[4]); !ok {
			return nil, fmt.Errorf("unknown column %q", m[4])
		}
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	var out []string
	for r := r1; r <= r2; r++ {
		for col := c1; col <= c2; col++ {
			out = append(out, c.lookup(c.table, r, col))
		}
	}
	return out, nil
}

// columnValues returns every data row of col, leaving out the cell being
// computed.
func (c *evalCtx) columnValues(col int) []string {
	var out []string
	for r := c.table.FirstDataRow; r <= c.table.DataRowCount; r++ {
		if r == c.row && col == c.col {
			continue
		}
		out = append(out, c.lookup(c.table, r, col))
	}
	return out
}

// remote evaluates "name, ref" against another named table.
func (c *evalCtx) remote(args string) ([]string, error) {
	name, ref, ok := strings.Cut(args, ",")
	if !ok {
		return nil, errors.New("remote() needs a table name and a reference")
	}
	name = strings.Trim(strings.TrimSpace(name), `"`)
	if c.engine == nil || c.engine.Tables[name] == nil {
		return nil, fmt.Errorf("unknown remote table %q", name)
	}
	sub := &evalCtx{
		table:     c.engine.Tables[name],
		durations: c.durations,
		lookup:    c.lookup,
		engine:    c.engine,
	}
	return sub.values(ref)
}

// resolveAggregates replaces each aggregate call with its numeric result.
func (c *evalCtx) resolveAggregates(expr string) (string, error) {
	for {
		loc := aggregateCall.FindStringSubmatchIndex(expr)
		if loc == nil {
			return expr, nil
		}
		name := expr[loc[2]:loc[3]]
		open := loc[1] - 1
		end := matchingParen(expr, open)
		if end < 0 {
			return "", fmt.Errorf("unbalanced %s()", name)
		}
		var vals []string
		for _, arg := range splitTopLevel(expr[open+1 : end]) {
			if strings.TrimSpace(arg) == "" {
				continue
			}
			v, err := c.values(arg)
			if err != nil {
				return "", err
			}
			vals = append(vals, v...)
		}
		result := aggregate(name, c.numbers(vals))
		expr = expr[:loc[0]] + numberText(result) + expr[end+1:]
	}
}

func (c *evalCtx) numbers(vals []string) []float64 {
	var out []float64
	for _, v := range vals {
		v = strings.TrimSpace(v)
		v = strings.TrimSuffix(strings.TrimPrefix(v, "("), ")")
		if c.durations {
			if secs, ok := ParseDuration(v); ok {
				out = append(out, float64(secs))
				continue
			}
		}
		if !numericText.MatchString(v) {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			out = append(out, f)
		}
	}
	return out
}

func aggregate(name string, nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	switch strings.TrimPrefix(name, "v") {
	case "sum":
		return sum(nums)
	case "mean":
		return sum(nums) / float64(len(nums))
	case "min":
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Min(m, n)
		}
		return m
	case "max":
		m := nums[0]
		for _, n := range nums[1:] {
			m = math.Max(m, n)
		}
		return m
	case "count":
		return float64(len(nums))
	case "prod":
		p := 1.0
		for _, n := range nums {
			p *= n
		}
		return p
	case "sdev":
		mean := sum(nums) / float64(len(nums))
		var sq float64
		for _, n := range nums {
			sq += (n - mean) * (n - mean)
		}
		return math.Sqrt(sq / float64(len(nums)))
	}
	return 0
}

func sum(nums []float64) float64 {
	var s float64
	for _, n := range nums {
		s += n
	}
	return s
}

// matchingParen returns the index of the parenthesis closing s[open].
func matchingParen(s string, open int) int {
	if open < 0 || open >= len(s) || s[open] != '(' {
		return -1
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
