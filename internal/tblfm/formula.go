package tblfm

import (
	"regexp"
	"strings"
)

// TargetKind says which cells a formula writes.
type TargetKind int

const (
	TargetColumn TargetKind = iota
	TargetField
	TargetRange
)

// Target is a formula's left-hand side. Row and column specs are kept raw
// and resolved at evaluation time.
type Target struct {
	Kind TargetKind
	Row  string
	Col  string
	Row2 string
	Col2 string
}

// Formula is one parsed "target=expr;format" entry.
type Formula struct {
	Raw    string
	Target Target
	Expr   string
	Format string
}

const (
	rowSpec = `(?:[<>]|[-+]?\d+|I+(?:[-+]\d+)?)`
	colSpec = `(?:[<>]|[-+]?\d+|[A-Za-z_]\w*)`
)

var (
	columnTarget = regexp.MustCompile(`^\$(` + colSpec + `)$`)
	fieldTarget  = regexp.MustCompile(`^@(` + rowSpec + `)\$(` + colSpec + `)$`)
	rangeTarget  = regexp.MustCompile(`^@(` + rowSpec + `)\$(` + colSpec + `)\.\.@(` + rowSpec + `)\$(` + colSpec + `)$`)
)

// ParseFormulas parses a #+TBLFM: line. Entries that do not match the
// formula grammar are dropped.
func ParseFormulas(line string) []Formula {
	line = strings.TrimSpace(line)
	if IsFormulaLine(line) {
		line = line[len("#+TBLFM:"):]
	}
	var out []Formula
	for _, raw := range strings.Split(line, "::") {
		if f, ok := parseFormula(strings.TrimSpace(raw)); ok {
			out = append(out, f)
		}
	}
	return out
}

func parseFormula(raw string) (Formula, bool) {
	lhs, rhs, ok := strings.Cut(raw, "=")
	if !ok {
		return Formula{}, false
	}
	lhs = strings.TrimSpace(lhs)
	expr, format := rhs, ""
	if i := strings.LastIndex(rhs, ";"); i >= 0 {
		expr, format = rhs[:i], strings.TrimSpace(rhs[i+1:])
	}
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.Count(expr, "(") != strings.Count(expr, ")") {
		return Formula{}, false
	}

	f := Formula{Raw: raw, Expr: expr, Format: format}
	switch {
	case rangeTarget.MatchString(lhs):
		m := rangeTarget.FindStringSubmatch(lhs)
		f.Target = Target{Kind: TargetRange, Row: m[1], Col: m[2], Row2: m[3], Col2: m[4]}
	case fieldTarget.MatchString(lhs):
		m := fieldTarget.FindStringSubmatch(lhs)
		f.Target = Target{Kind: TargetField, Row: m[1], Col: m[2]}
	case columnTarget.MatchString(lhs):
		m := columnTarget.FindStringSubmatch(lhs)
		f.Target = Target{Kind: TargetColumn, Col: m[1]}
	default:
		return Formula{}, false
	}
	return f, true
}

// DurationMode returns the duration flag of a format spec, or 0.
func DurationMode(format string) byte {
	for _, flag := range []byte{'T', 'U', 't'} {
		if strings.IndexByte(format, flag) >= 0 {
			return flag
		}
	}
	return 0
}
