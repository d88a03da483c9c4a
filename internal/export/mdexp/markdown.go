// Package mdexp renders document trees as CommonMark with the GitHub table,
// strikethrough and footnote extensions. The conversion is lossy: markup
// Markdown cannot express degrades to plain text or inline HTML.
package mdexp

import (
	"fmt"
	"strings"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func init() {
	export.Register(Backend{}, "markdown")
}

// Backend is the Markdown exporter.
type Backend struct{}

func (Backend) Name() string        { return "md" }
func (Backend) Extension() string   { return ".md" }
func (Backend) ContentType() string { return "text/markdown; charset=utf-8" }

// ExportDocument renders doc. Unless BodyOnly is set, the title becomes a
// level one heading and outline headings shift down one level.
func (Backend) ExportDocument(doc *orgtree.Document, ov export.Overrides) ([]byte, error) {
	opts := export.Resolve(doc, ov, export.Defaults())
	r := &renderer{st: export.NewState(doc, opts)}

	var sb strings.Builder
	if !opts.BodyOnly && opts.WithTitle && opts.Title != "" {
		sb.WriteString("# " + escape(opts.Title) + "\n\n")
		r.base = 1
	}
	if len(r.st.TOC) > 0 {
		sb.WriteString(r.toc(r.st.TOC))
	}
	for _, n := range doc.Children {
		sb.WriteString(r.element(n))
	}
	sb.WriteString(r.footnotes())
	sb.WriteString(r.bibliography())
	return []byte(strings.TrimRight(sb.String(), "\n") + "\n"), nil
}

// Element renders one element against st.
func Element(n *orgtree.Node, st *export.State) string {
	return (&renderer{st: st}).element(n)
}

// Object renders one inline object against st.
func Object(n *orgtree.Node, st *export.State) string {
	return (&renderer{st: st}).object(n)
}

type renderer struct {
	st   *export.State
	base int
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"|", `\|`,
)

func escape(s string) string { return mdEscaper.Replace(s) }

func (r *renderer) element(n *orgtree.Node) string {
	if n == nil || r.st.SuppressResults(n) {
		return ""
	}
	p := n.Properties
	switch n.Type {
	case orgtree.Headline:
		return r.headline(n)
	case orgtree.Section, orgtree.SpecialBlock, orgtree.CenterBlock:
		return r.elements(n.Children)
	case orgtree.Paragraph:
		return r.paragraph(n)
	case orgtree.SrcBlock:
		if !r.st.SourceBlock(p.Parameters) {
			return ""
		}
		return fence(p.Language, p.Value)
	case orgtree.ExampleBlock, orgtree.FixedWidth:
		return fence("", p.Value)
	case orgtree.QuoteBlock:
		return quote(r.elements(n.Children))
	case orgtree.VerseBlock:
		text := strings.TrimRight(r.objects(n.Children), "\n")
		return strings.ReplaceAll(text, "\n", "\\\n") + "\n\n"
	case orgtree.LatexEnvironment:
		r.st.MarkMath()
		return "$$\n" + strings.TrimRight(p.Value, "\n") + "\n$$\n\n"
	case orgtree.Table:
		return r.table(n)
	case orgtree.PlainList:
		return r.list(n)
	case orgtree.Item:
		return r.item(n, "- ")
	case orgtree.Drawer:
		if strings.EqualFold(p.DrawerName, "LOGBOOK") {
			return ""
		}
		return r.elements(n.Children)
	case orgtree.Keyword:
		if strings.EqualFold(p.Key, "TOC") {
			if depth, ok := r.st.TOCKeyword(p.Value); ok {
				return r.toc(r.st.TOCEntries(depth))
			}
		}
		return ""
	case orgtree.HorizontalRule:
		return "---\n\n"
	case orgtree.ExportBlock:
		if isMarkdown(p.Backend) {
			return strings.TrimRight(p.Value, "\n") + "\n\n"
		}
		return ""
	case orgtree.PropertyDrawer, orgtree.NodeProperty, orgtree.Comment, orgtree.CommentBlock,
		orgtree.FootnoteDefinition, orgtree.Planning, orgtree.Clock, orgtree.TableRow:
		return ""
	}
	return "<!-- " + export.Placeholder(n, false) + " -->\n\n"
}

func isMarkdown(backend string) bool {
	return strings.EqualFold(backend, "md") || strings.EqualFold(backend, "markdown")
}

func (r *renderer) elements(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(r.element(n))
	}
	return sb.String()
}

// fence picks a backtick run longer than any inside the code.
func fence(lang, code string) string {
	ticks := "```"
	for strings.Contains(code, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + strings.TrimRight(code, "\n") + "\n" + ticks + "\n\n"
}

func quote(body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func (r *renderer) headline(h *orgtree.Node) string {
	if r.st.Skip(h) {
		return ""
	}
	hd := r.st.Heading(h, r.base, 6)
	var title strings.Builder
	if hd.Number != "" {
		title.WriteString(hd.Number + " ")
	}
	if hd.Todo != "" {
		title.WriteString(hd.Todo + " ")
	}
	if hd.Priority != "" {
		title.WriteString("\\[#" + hd.Priority + "\\] ")
	}
	title.WriteString(r.objects(hd.Title))
	if len(hd.Tags) > 0 {
		title.WriteString(" `:" + strings.Join(hd.Tags, ":") + ":`")
	}

	var sb strings.Builder
	if hd.Deep {
		fmt.Fprintf(&sb, "<a id=\"%s\"></a>**%s**\n\n", hd.ID, title.String())
	} else {
		fmt.Fprintf(&sb, "<a id=\"%s\"></a>\n\n%s %s\n\n", hd.ID, strings.Repeat("#", hd.Level), title.String())
	}
	sb.WriteString(r.element(h.Section))
	sb.WriteString(r.elements(h.Children))
	return sb.String()
}

func (r *renderer) paragraph(n *orgtree.Node) string {
	var out string
	r.st.WithAffiliated(n.Affiliated, func() {
		if link := export.StandaloneLink(n); link != nil {
			if rl := r.st.ResolveLink(link); rl.Kind == export.LinkImage {
				out = r.image(rl.URL) + "\n\n"
				if n.Affiliated != nil && len(n.Affiliated.Caption) > 0 {
					out += "*" + r.objects(n.Affiliated.Caption) + "*\n\n"
				}
				return
			}
		}
		out = strings.TrimRight(r.objects(n.Children), "\n") + "\n\n"
	})
	return out
}

func (r *renderer) image(src string) string {
	alt := export.ParseAttrPlist(r.st.Affiliated().AttrFor("md"))["alt"]
	if alt == "" {
		alt = src[strings.LastIndex(src, "/")+1:]
	}
	return fmt.Sprintf("![%s](%s)", escape(alt), src)
}

func (r *renderer) table(n *orgtree.Node) string {
	var rows [][]string
	cols := 0
	for _, row := range n.Children {
		if row.Properties.RowType == "rule" {
			continue
		}
		var cells []string
		for _, c := range row.Children {
			cells = append(cells, strings.TrimSpace(r.object(c)))
		}
		rows = append(rows, cells)
		cols = max(cols, len(cells))
	}
	if len(rows) == 0 || cols == 0 {
		return ""
	}
	var sb strings.Builder
	if n.Affiliated != nil && len(n.Affiliated.Caption) > 0 {
		sb.WriteString("*" + r.objects(n.Affiliated.Caption) + "*\n\n")
	}
	writeRow := func(cells []string) {
		for len(cells) < cols {
			cells = append(cells, "")
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	writeRow(rows[0])
	sb.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *renderer) list(n *orgtree.Node) string {
	var items []string
	counter := 0
	for _, item := range n.Children {
		counter++
		if item.Properties.Counter > 0 {
			counter = item.Properties.Counter
		}
		marker := "- "
		if n.Properties.ListType == "ordered" {
			marker = fmt.Sprintf("%d. ", counter)
		}
		items = append(items, r.item(item, marker))
	}
	return strings.Join(items, "") + "\n"
}

var checkboxes = map[string]string{
	"on":    "[x] ",
	"off":   "[ ] ",
	"trans": "[-] ",
}

// item puts the first block on the marker line and indents the rest by the
// marker width so nested blocks stay inside the item.
func (r *renderer) item(n *orgtree.Node, marker string) string {
	p := n.Properties
	var head string
	if len(p.ItemTag) > 0 {
		head = "**" + r.objects(p.ItemTag) + "**: "
	}
	body := strings.TrimRight(r.elements(n.Children), "\n")
	lines := strings.Split(checkboxes[p.Checkbox]+head+body, "\n")
	indent := strings.Repeat(" ", len(marker))
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return marker + strings.Join(lines, "\n") + "\n"
}

func (r *renderer) toc(entries []export.TOCEntry) string {
	if len(entries) == 0 {
		return ""
	}
	top := entries[0].Level
	for _, e := range entries {
		top = min(top, e.Level)
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s- [%s](#%s)\n", strings.Repeat("  ", e.Level-top), escape(orgtree.Flatten(e.Title)), e.ID)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (r *renderer) footnotes() string {
	if !r.st.Options.Footnotes || len(r.st.FootnoteOrder) == 0 {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(r.st.FootnoteOrder); i++ {
		fn := r.st.Footnotes[r.st.FootnoteOrder[i]]
		var def strings.Builder
		for _, c := range fn.Definition {
			if c.Type.IsObject() {
				def.WriteString(r.object(c))
			} else {
				def.WriteString(r.element(c))
			}
		}
		text := strings.TrimSpace(def.String())
		text = strings.ReplaceAll(text, "\n", "\n    ")
		fmt.Fprintf(&sb, "[^%d]: %s\n\n", fn.Number, text)
	}
	return sb.String()
}

func (r *renderer) bibliography() string {
	if len(r.st.CitationOrder) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(strings.Repeat("#", r.base+1) + " References\n\n")
	for _, key := range r.st.CitationOrder {
		entry := r.st.Options.BibEntries[key]
		if entry == "" {
			entry = key
		}
		fmt.Fprintf(&sb, "- <a id=\"ref-%s\"></a>**%s**: %s\n", key, escape(key), escape(entry))
	}
	sb.WriteString("\n")
	return sb.String()
}
