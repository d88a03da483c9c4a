package export

import (
	"fmt"
	"slices"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// Footnote is one registered footnote.
type Footnote struct {
	Label      string
	Definition []*orgtree.Node
	Refs       int
	Number     int // 0 until first referenced
}

// TOCEntry is one table-of-contents line.
type TOCEntry struct {
	Level int
	Title []*orgtree.Node
	ID    string
}

// Pending holds the one-shot signals passed between adjacent sibling
// elements of one render walk.
type Pending struct {
	SkipResults bool
}

// State accumulates everything one export run needs. A State is never
// shared between exports.
type State struct {
	Options  Options
	Keywords map[string]string

	Footnotes     map[string]*Footnote
	FootnoteOrder []string

	Targets        map[string]string
	CustomIDs      map[string]string
	RadioTargets   map[string]string
	SectionNumbers []int
	TOC            []TOCEntry
	Outline        []TOCEntry // every exported headline, for #+TOC: keywords

	Citations     map[string][]string
	CitationOrder []string
	citeSeq       int
	anonSeq       int

	pending    Pending
	affiliated *orgtree.Affiliated
	usedMath   bool
}

// NewState builds a fresh state and runs both pre-scans.
func NewState(doc *orgtree.Document, opts Options) *State {
	s := &State{
		Options:      opts,
		Keywords:     map[string]string{},
		Footnotes:    map[string]*Footnote{},
		Targets:      map[string]string{},
		CustomIDs:    map[string]string{},
		RadioTargets: map[string]string{},
		Citations:    map[string][]string{},
	}
	if doc != nil {
		for k, v := range doc.Keywords {
			s.Keywords[k] = v
		}
		s.CollectTargets(doc.Children)
		s.CollectFootnotes(doc.Children)
	}
	return s
}

// CollectTargets registers every headline ID and custom identifier, and
// fills the outline and, when enabled, the TOC. Excluded subtrees stay out
// of both.
func (s *State) CollectTargets(nodes []*orgtree.Node) {
	orgtree.WalkHeadlines(nodes, func(h *orgtree.Node, _ []*orgtree.Node) bool {
		text := orgtree.HeadlineText(h)
		id := GenerateID(text)
		if _, ok := s.Targets[text]; !ok {
			s.Targets[text] = id
		}
		if cid := h.Property("CUSTOM_ID"); cid != "" {
			s.CustomIDs[cid] = id
		}
		if uid := h.Property("ID"); uid != "" {
			s.CustomIDs[uid] = id
		}
		return true
	})
	orgtree.WalkHeadlines(nodes, func(h *orgtree.Node, _ []*orgtree.Node) bool {
		if s.Skip(h) {
			return false
		}
		if h.Properties.Level <= s.Options.HeadlineLevels {
			s.Outline = append(s.Outline, TOCEntry{
				Level: h.Properties.Level,
				Title: h.Properties.Title,
				ID:    GenerateID(orgtree.HeadlineText(h)),
			})
		}
		return true
	})
	if s.Options.TOC.Enabled {
		s.TOC = s.TOCEntries(s.TOCDepth())
	}
}

// TOCEntries returns the outline down to depth.
func (s *State) TOCEntries(depth int) []TOCEntry {
	var out []TOCEntry
	for _, e := range s.Outline {
		if e.Level <= depth {
			out = append(out, e)
		}
	}
	return out
}

// TOCDepth is the deepest headline level listed in the TOC.
func (s *State) TOCDepth() int {
	depth := s.Options.HeadlineLevels
	if s.Options.TOC.Depth > 0 && s.Options.TOC.Depth < depth {
		depth = s.Options.TOC.Depth
	}
	return depth
}

// CollectFootnotes registers footnote definitions, dedicated targets and
// radio targets. A later definition of a label replaces the earlier one and
// keeps its reference count.
func (s *State) CollectFootnotes(nodes []*orgtree.Node) {
	orgtree.Walk(nodes, func(n *orgtree.Node) bool {
		switch n.Type {
		case orgtree.FootnoteDefinition:
			s.defineFootnote(n.Properties.Label, n.Children)
		case orgtree.FootnoteReference:
			if n.Properties.Label != "" && len(n.Children) > 0 {
				if fn, ok := s.Footnotes[n.Properties.Label]; !ok || len(fn.Definition) == 0 {
					s.defineFootnote(n.Properties.Label, n.Children)
				}
			}
		case orgtree.Target:
			if _, ok := s.Targets[n.Properties.Value]; !ok {
				s.Targets[n.Properties.Value] = GenerateID(n.Properties.Value)
			}
		case orgtree.RadioTarget:
			text := n.Properties.Value
			if text == "" {
				text = orgtree.Flatten(n.Children)
			}
			s.RadioTargets[text] = GenerateID(text)
		}
		return true
	})
}

func (s *State) defineFootnote(label string, def []*orgtree.Node) {
	if label == "" {
		return
	}
	if fn, ok := s.Footnotes[label]; ok {
		fn.Definition = def
		return
	}
	s.Footnotes[label] = &Footnote{Label: label, Definition: def}
}

// FootnoteRef records a reference to label and returns its footnote. An
// anonymous inline footnote gets a generated label. Numbers are assigned in
// order of first reference.
func (s *State) FootnoteRef(label string, inline []*orgtree.Node) *Footnote {
	if label == "" {
		s.anonSeq++
		label = fmt.Sprintf("anon-%d", s.anonSeq)
	}
	fn, ok := s.Footnotes[label]
	if !ok {
		fn = &Footnote{Label: label}
		s.Footnotes[label] = fn
	}
	if len(fn.Definition) == 0 && len(inline) > 0 {
		fn.Definition = inline
	}
	fn.Refs++
	if fn.Number == 0 {
		s.FootnoteOrder = append(s.FootnoteOrder, label)
		fn.Number = len(s.FootnoteOrder)
	}
	return fn
}

// Cite records one in-text citation of key and returns its anchor ID.
func (s *State) Cite(key string) string {
	s.citeSeq++
	id := fmt.Sprintf("cite-%d", s.citeSeq)
	if _, ok := s.Citations[key]; !ok {
		s.CitationOrder = append(s.CitationOrder, key)
	}
	s.Citations[key] = append(s.Citations[key], id)
	return id
}

// NoCite lists key in the bibliography without an in-text marker.
func (s *State) NoCite(key string) {
	if _, ok := s.Citations[key]; !ok {
		s.CitationOrder = append(s.CitationOrder, key)
		s.Citations[key] = nil
	}
}

// ArmSkipResults tells the next fixed-width element to suppress itself.
func (s *State) ArmSkipResults() { s.pending.SkipResults = true }

// ConsumeSkipResults reports whether the current fixed-width element must be
// suppressed, and clears the signal either way.
func (s *State) ConsumeSkipResults() bool {
	skip := s.pending.SkipResults
	s.pending = Pending{}
	return skip
}

// Pending returns the current one-shot signals.
func (s *State) Pending() Pending { return s.pending }

// WithAffiliated exposes aff to link rendering while fn runs.
func (s *State) WithAffiliated(aff *orgtree.Affiliated, fn func()) {
	prev := s.affiliated
	s.affiliated = aff
	defer func() { s.affiliated = prev }()
	fn()
}

// Affiliated returns the affiliated keywords of the enclosing element, if any.
func (s *State) Affiliated() *orgtree.Affiliated { return s.affiliated }

// MarkMath records that math markup was emitted.
func (s *State) MarkMath() { s.usedMath = true }

// UsedMath reports whether any math markup was emitted.
func (s *State) UsedMath() bool { return s.usedMath }

// ShouldExport applies the tag predicate: exclusion wins, then a non-empty
// select list requires a match.
func ShouldExport(tags []string, opts Options) bool {
	for _, t := range tags {
		if slices.Contains(opts.ExcludeTags, t) {
			return false
		}
	}
	if len(opts.SelectTags) == 0 {
		return true
	}
	for _, t := range tags {
		if slices.Contains(opts.SelectTags, t) {
			return true
		}
	}
	return false
}
