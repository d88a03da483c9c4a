package export

import (
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// ExportsMode is the value of a source block's :exports header.
type ExportsMode string

const (
	ExportsNone    ExportsMode = "none"
	ExportsCode    ExportsMode = "code"
	ExportsResults ExportsMode = "results"
	ExportsBoth    ExportsMode = "both"
)

// ParseExportsMode reads :exports from a header-argument string.
func ParseExportsMode(params string) ExportsMode {
	fields := strings.Fields(params)
	for i, f := range fields {
		if f != ":exports" || i+1 >= len(fields) {
			continue
		}
		switch m := ExportsMode(strings.ToLower(fields[i+1])); m {
		case ExportsNone, ExportsCode, ExportsResults, ExportsBoth:
			return m
		}
	}
	return ExportsBoth
}

// SourceBlock decides whether a source block's code is shown and arms the
// results suppression for :exports none and :exports code.
func (s *State) SourceBlock(params string) bool {
	switch ParseExportsMode(params) {
	case ExportsNone:
		s.ArmSkipResults()
		return false
	case ExportsResults:
		return false
	case ExportsCode:
		s.ArmSkipResults()
		return true
	}
	return true
}

// SuppressResults is called by every backend before rendering a
// fixed-width element or an element marked as #+RESULTS. It consumes the
// pending signal and reports whether the element must be left out.
func (s *State) SuppressResults(n *orgtree.Node) bool {
	if n.Type != orgtree.FixedWidth && (n.Affiliated == nil || !n.Affiliated.Results) {
		return false
	}
	return s.ConsumeSkipResults()
}
