package orgtree

import "strings"

// Walk visits nodes depth-first in document order. Headline titles and
// sections, item tags, planning timestamps and affiliated captions are
// visited too. Returning false from fn skips the node's descendants.
func Walk(nodes []*Node, fn func(n *Node) bool) {
	for _, n := range nodes {
		walkNode(n, fn)
	}
}

func walkNode(n *Node, fn func(n *Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if n.Affiliated != nil {
		Walk(n.Affiliated.Caption, fn)
	}
	p := &n.Properties
	Walk(p.Title, fn)
	Walk(p.ItemTag, fn)
	for _, ts := range []*Node{p.Scheduled, p.Deadline, p.Closed, p.Timestamp} {
		if ts != nil {
			walkNode(ts, fn)
		}
	}
	if n.Section != nil {
		walkNode(n.Section, fn)
	}
	Walk(n.Children, fn)
}

// WalkHeadlines visits headlines in document order, passing the ancestor
// chain. Returning false skips the headline's subtree.
func WalkHeadlines(nodes []*Node, fn func(h *Node, parents []*Node) bool) {
	walkHeadlines(nodes, nil, fn)
}

func walkHeadlines(nodes []*Node, parents []*Node, fn func(h *Node, parents []*Node) bool) {
	for _, n := range nodes {
		if n == nil || n.Type != Headline {
			continue
		}
		if !fn(n, parents) {
			continue
		}
		walkHeadlines(n.Children, append(parents[:len(parents):len(parents)], n), fn)
	}
}

// Flatten flattens inline objects to their readable text.
func Flatten(nodes []*Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		writePlain(&sb, n)
	}
	return sb.String()
}

func writePlain(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	p := n.Properties
	switch n.Type {
	case PlainText:
		sb.WriteString(p.Value)
	case Code, Verbatim, InlineSrcBlock, LatexFragment, StatisticsCookie:
		sb.WriteString(p.Value)
	case Entity:
		if p.UTF8 != "" {
			sb.WriteString(p.UTF8)
		} else {
			sb.WriteString(p.Name)
		}
	case LineBreak:
		sb.WriteByte('\n')
	case Target:
		sb.WriteString(p.Value)
	case Link:
		if len(n.Children) > 0 {
			for _, c := range n.Children {
				writePlain(sb, c)
			}
		} else {
			sb.WriteString(p.Path)
		}
	case Timestamp:
		sb.WriteString(p.RawValue)
	case FootnoteReference, ExportSnippet:
	case Macro:
		sb.WriteString("{{{" + p.Key + "}}}")
	default:
		for _, c := range n.Children {
			writePlain(sb, c)
		}
	}
	if p.PostBlank > 0 && n.Type.IsObject() {
		sb.WriteString(strings.Repeat(" ", p.PostBlank))
	}
}

// HeadlineText returns the raw title text of a headline.
func HeadlineText(h *Node) string {
	if h.Properties.RawValue != "" {
		return h.Properties.RawValue
	}
	return Flatten(h.Properties.Title)
}
