package export

import (
	"strconv"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// Heading is the backend-neutral view of one headline.
type Heading struct {
	SourceLevel int
	Level       int    // effective level after offsets, clamped
	Deep        bool   // beyond the H cutoff
	Number      string // empty when numbering is off
	Todo        string
	TodoType    string
	Priority    string
	Title       []*orgtree.Node
	Tags        []string
	ID          string
}

// Heading computes the shared headline view. base is the backend's own
// level shift and maxLevel its deepest heading. Calling Heading advances
// the section counters, so it must run once per rendered headline.
func (s *State) Heading(h *orgtree.Node, base, maxLevel int) Heading {
	p := h.Properties
	hd := Heading{
		SourceLevel: p.Level,
		Title:       p.Title,
		ID:          GenerateID(orgtree.HeadlineText(h)),
	}
	if len(hd.Title) == 0 && p.RawValue != "" {
		hd.Title = []*orgtree.Node{orgtree.Text(p.RawValue)}
	}
	hd.Deep = p.Level > s.Options.HeadlineLevels
	hd.Level = p.Level + s.Options.HeadlineOffset + base
	if hd.Level < 1 {
		hd.Level = 1
	}
	if maxLevel > 0 && hd.Level > maxLevel {
		hd.Level = maxLevel
	}
	if s.Options.Num && !hd.Deep {
		hd.Number = s.NextSectionNumber(p.Level)
	}
	if s.Options.Todo {
		hd.Todo = p.TodoKeyword
		hd.TodoType = p.TodoType
	}
	if s.Options.Priority {
		hd.Priority = p.Priority
	}
	if s.Options.Tags {
		hd.Tags = p.Tags
	}
	return hd
}

// Skip reports whether a headline is left out of the export.
func (s *State) Skip(h *orgtree.Node) bool {
	return h.Properties.Commented || !ShouldExport(h.Properties.Tags, s.Options)
}

// TOCKeyword reads a "#+TOC: headlines [N]" value and returns the depth to
// list. Other TOC kinds report false.
func (s *State) TOCKeyword(value string) (int, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 || fields[0] != "headlines" {
		return 0, false
	}
	depth := s.Options.HeadlineLevels
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
			depth = n
		}
	}
	return depth, true
}
