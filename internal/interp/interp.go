// Package interp serializes a document tree back into outline markup. It is
// the inverse of the parser that produced the tree: whatever the tree
// records (keywords, affiliated keywords, drawers, planning lines, table
// formulas) is written back in source form, while layout the tree does not
// capture, such as tag alignment, is normalized.
package interp

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// Options tunes serialization.
type Options struct {
	// PreserveTimestamps echoes each timestamp's captured raw text instead
	// of rebuilding it from the date fields.
	PreserveTimestamps bool
}

// leadingKeywords are written first, in this order; other keywords follow
// alphabetically.
var leadingKeywords = []string{"TITLE", "SUBTITLE", "AUTHOR", "EMAIL", "DATE", "LANGUAGE", "OPTIONS"}

// Document serializes a whole document: keyword lines, then the body.
func Document(doc *orgtree.Document, opts Options) string {
	if doc == nil {
		return ""
	}
	p := printer{opts: opts}
	var sb strings.Builder
	keys := keywordOrder(doc)
	for _, k := range keys {
		for _, v := range doc.KeywordList(k) {
			sb.WriteString(keywordLine(k, v))
		}
	}
	if len(keys) > 0 && len(doc.Children) > 0 {
		sb.WriteString("\n")
	}
	sb.WriteString(p.elements(doc.Children))
	return sb.String()
}

func keywordOrder(doc *orgtree.Document) []string {
	seen := map[string]bool{}
	for k := range doc.Keywords {
		seen[k] = true
	}
	for k := range doc.KeywordLists {
		seen[k] = true
	}
	var keys []string
	for _, k := range leadingKeywords {
		if seen[k] {
			keys = append(keys, k)
			delete(seen, k)
		}
	}
	var rest []string
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func keywordLine(key, value string) string {
	if value == "" {
		return "#+" + key + ":\n"
	}
	return "#+" + key + ": " + value + "\n"
}

// Element serializes one element and everything beneath it.
func Element(n *orgtree.Node, opts Options) string {
	return printer{opts: opts}.element(n)
}

// Object serializes one inline object.
func Object(n *orgtree.Node, opts Options) string {
	return printer{opts: opts}.object(n)
}

// Timestamp serializes a timestamp object. The weekday is recomputed from
// the date unless PreserveTimestamps is set.
func Timestamp(n *orgtree.Node, opts Options) string {
	return orgtree.FormatTimestamp(n, opts.PreserveTimestamps)
}

type printer struct {
	opts Options
}

func (p printer) elements(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for i, n := range nodes {
		sb.WriteString(p.element(n))
		// Adjacent paragraphs would merge without a separating blank line.
		if n != nil && n.Type == orgtree.Paragraph && n.Properties.PostBlank == 0 &&
			i+1 < len(nodes) && nodes[i+1] != nil && nodes[i+1].Type == orgtree.Paragraph {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (p printer) element(n *orgtree.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(p.affiliated(n.Affiliated))
	sb.WriteString(p.body(n))
	sb.WriteString(strings.Repeat("\n", n.Properties.PostBlank))
	return sb.String()
}

func (p printer) body(n *orgtree.Node) string {
	pr := n.Properties
	switch n.Type {
	case orgtree.Headline:
		return p.headline(n)
	case orgtree.Section:
		return p.elements(n.Children)
	case orgtree.Paragraph:
		return strings.TrimRight(p.objects(n.Children), "\n") + "\n"
	case orgtree.SrcBlock:
		return block("SRC", join(pr.Language, pr.Switches, pr.Parameters), escapeBlock(pr.Value))
	case orgtree.ExampleBlock:
		return block("EXAMPLE", pr.Switches, escapeBlock(pr.Value))
	case orgtree.ExportBlock:
		return block("EXPORT", pr.Backend, escapeBlock(pr.Value))
	case orgtree.CommentBlock:
		return block("COMMENT", "", escapeBlock(pr.Value))
	case orgtree.QuoteBlock:
		return block("QUOTE", "", p.elements(n.Children))
	case orgtree.CenterBlock:
		return block("CENTER", "", p.elements(n.Children))
	case orgtree.SpecialBlock:
		return block(strings.ToUpper(pr.BlockType), pr.Parameters, p.elements(n.Children))
	case orgtree.VerseBlock:
		return block("VERSE", "", p.objects(n.Children))
	case orgtree.LatexEnvironment:
		return withNewline(pr.Value)
	case orgtree.Table:
		return p.table(n)
	case orgtree.TableRow:
		return p.table(&orgtree.Node{Type: orgtree.Table, Children: []*orgtree.Node{n}})
	case orgtree.PlainList:
		return p.list(n)
	case orgtree.Item:
		return p.item(n, "- ", false)
	case orgtree.Drawer:
		return ":" + pr.DrawerName + ":\n" + p.elements(n.Children) + ":END:\n"
	case orgtree.PropertyDrawer:
		return ":PROPERTIES:\n" + p.elements(n.Children) + ":END:\n"
	case orgtree.NodeProperty:
		return strings.TrimRight(":"+pr.Key+": "+pr.Value, " ") + "\n"
	case orgtree.Keyword:
		return keywordLine(strings.ToUpper(pr.Key), pr.Value)
	case orgtree.HorizontalRule:
		return "-----\n"
	case orgtree.Comment:
		return prefixLines(pr.Value, "# ", "#")
	case orgtree.FixedWidth:
		return prefixLines(pr.Value, ": ", ":")
	case orgtree.FootnoteDefinition:
		return p.footnoteDefinition(n)
	case orgtree.Planning:
		return p.planning(n)
	case orgtree.Clock:
		return p.clock(n)
	}
	return "# unknown: " + string(n.Type) + "\n"
}

func (p printer) affiliated(a *orgtree.Affiliated) string {
	if a == nil {
		return ""
	}
	var sb strings.Builder
	if a.Results {
		sb.WriteString("#+RESULTS:\n")
	}
	if a.Name != "" {
		sb.WriteString(keywordLine("NAME", a.Name))
	}
	if len(a.Caption) > 0 {
		sb.WriteString(keywordLine("CAPTION", p.objects(a.Caption)))
	}
	backends := make([]string, 0, len(a.Attr))
	for b := range a.Attr {
		backends = append(backends, b)
	}
	sort.Strings(backends)
	for _, b := range backends {
		sb.WriteString(keywordLine("ATTR_"+strings.ToUpper(b), a.Attr[b]))
	}
	return sb.String()
}

func join(parts ...string) string {
	var out []string
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

func block(name, args, content string) string {
	head := "#+BEGIN_" + name
	if args != "" {
		head += " " + args
	}
	return head + "\n" + withNewline(content) + "#+END_" + name + "\n"
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// escapeBlock comma-protects lines that would otherwise end the block or
// start a headline.
func escapeBlock(s string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		trimmed := strings.TrimLeft(strings.TrimLeft(l, " \t"), ",")
		if strings.HasPrefix(l, "*") || strings.HasPrefix(trimmed, "#+") ||
			strings.HasPrefix(l, ",*") {
			lines[i] = "," + l
		}
	}
	return strings.Join(lines, "")
}

func prefixLines(s, prefix, bare string) string {
	var sb strings.Builder
	for _, l := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if l == "" {
			sb.WriteString(bare + "\n")
			continue
		}
		sb.WriteString(prefix + l + "\n")
	}
	return sb.String()
}

func (p printer) headline(h *orgtree.Node) string {
	pr := h.Properties
	parts := []string{strings.Repeat("*", max(pr.Level, 1))}
	if pr.TodoKeyword != "" {
		parts = append(parts, pr.TodoKeyword)
	}
	if pr.Priority != "" {
		parts = append(parts, "[#"+pr.Priority+"]")
	}
	if pr.Commented {
		parts = append(parts, "COMMENT")
	}
	title := p.objects(pr.Title)
	if title == "" {
		title = pr.RawValue
	}
	if title != "" {
		parts = append(parts, title)
	}
	if len(pr.Tags) > 0 {
		parts = append(parts, ":"+strings.Join(pr.Tags, ":")+":")
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(parts, " ") + "\n")

	var body []*orgtree.Node
	if h.Section != nil {
		body = h.Section.Children
	}
	if len(body) > 0 && body[0] != nil && body[0].Type == orgtree.Planning {
		sb.WriteString(p.element(body[0]))
		body = body[1:]
	}
	if len(pr.NodeProperties) > 0 && !hasPropertyDrawer(body) {
		sb.WriteString(propertyDrawer(pr.NodeProperties))
	}
	sb.WriteString(p.elements(body))
	if h.Section != nil {
		sb.WriteString(strings.Repeat("\n", h.Section.Properties.PostBlank))
	}
	sb.WriteString(p.elements(h.Children))
	return sb.String()
}

func hasPropertyDrawer(nodes []*orgtree.Node) bool {
	return len(nodes) > 0 && nodes[0] != nil && nodes[0].Type == orgtree.PropertyDrawer
}

func propertyDrawer(props map[string]string) string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(":PROPERTIES:\n")
	for _, k := range keys {
		sb.WriteString(strings.TrimRight(":"+k+": "+props[k], " ") + "\n")
	}
	sb.WriteString(":END:\n")
	return sb.String()
}

func (p printer) planning(n *orgtree.Node) string {
	pr := n.Properties
	var parts []string
	for _, e := range []struct {
		label string
		ts    *orgtree.Node
	}{
		{"SCHEDULED", pr.Scheduled},
		{"DEADLINE", pr.Deadline},
		{"CLOSED", pr.Closed},
	} {
		if e.ts != nil {
			parts = append(parts, e.label+": "+Timestamp(e.ts, p.opts))
		}
	}
	return strings.Join(parts, " ") + "\n"
}

func (p printer) clock(n *orgtree.Node) string {
	s := "CLOCK:"
	if n.Properties.Timestamp != nil {
		s += " " + Timestamp(n.Properties.Timestamp, p.opts)
	}
	if n.Properties.Duration != "" {
		s += " =>  " + n.Properties.Duration
	}
	return s + "\n"
}

func (p printer) footnoteDefinition(n *orgtree.Node) string {
	head := "[fn:" + n.Properties.Label + "]"
	body := strings.TrimRight(p.elements(n.Children), "\n")
	if body == "" {
		return head + "\n"
	}
	return head + " " + body + "\n"
}

// table pads every column to its widest cell so rule rows line up.
func (p printer) table(n *orgtree.Node) string {
	var grid [][]string
	var widths []int
	for _, row := range n.Children {
		if row.Properties.RowType == "rule" {
			grid = append(grid, nil)
			continue
		}
		var cells []string
		for i, c := range row.Children {
			text := strings.TrimSpace(p.objects(c.Children))
			cells = append(cells, text)
			if i >= len(widths) {
				widths = append(widths, 1)
			}
			widths[i] = max(widths[i], utf8.RuneCountInString(text))
		}
		grid = append(grid, cells)
	}

	var sb strings.Builder
	for _, cells := range grid {
		if cells == nil {
			if len(widths) == 0 {
				sb.WriteString("|-\n")
				continue
			}
			segs := make([]string, len(widths))
			for i, w := range widths {
				segs[i] = strings.Repeat("-", w+2)
			}
			sb.WriteString("|" + strings.Join(segs, "+") + "|\n")
			continue
		}
		sb.WriteString("|")
		for i, w := range widths {
			var text string
			if i < len(cells) {
				text = cells[i]
			}
			sb.WriteString(" " + text + strings.Repeat(" ", w-utf8.RuneCountInString(text)) + " |")
		}
		sb.WriteString("\n")
	}
	for _, f := range n.Properties.TBLFM {
		sb.WriteString(keywordLine("TBLFM", f))
	}
	return sb.String()
}

func (p printer) list(n *orgtree.Node) string {
	ordered := n.Properties.ListType == "ordered"
	var sb strings.Builder
	counter := 0
	for _, item := range n.Children {
		counter++
		cookie := false
		if c := item.Properties.Counter; c > 0 && c != counter {
			counter, cookie = c, ordered
		}
		bullet := strings.TrimSpace(item.Properties.Bullet)
		switch {
		case ordered:
			suffix := "."
			if strings.HasSuffix(bullet, ")") {
				suffix = ")"
			}
			bullet = fmt.Sprintf("%d%s", counter, suffix)
		case bullet == "":
			bullet = "-"
		}
		sb.WriteString(p.item(item, bullet+" ", cookie))
	}
	return sb.String()
}

var checkboxes = map[string]string{
	"on":    "[X] ",
	"off":   "[ ] ",
	"trans": "[-] ",
}

// item writes the bullet line and indents continuation lines to the
// bullet's width.
func (p printer) item(n *orgtree.Node, bullet string, cookie bool) string {
	pr := n.Properties
	head := bullet
	if cookie {
		head += fmt.Sprintf("[@%d] ", pr.Counter)
	}
	head += checkboxes[pr.Checkbox]
	if len(pr.ItemTag) > 0 {
		head += p.objects(pr.ItemTag) + " :: "
	}
	body := strings.TrimRight(p.elements(n.Children), "\n")
	lines := strings.Split(body, "\n")
	indent := strings.Repeat(" ", len(bullet))
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.TrimRight(head+strings.Join(lines, "\n"), " ") + "\n"
}
