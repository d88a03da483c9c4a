// Package htmlexp renders document trees as HTML.
package htmlexp

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func init() {
	export.Register(Backend{}, "htm")
}

// Backend is the HTML exporter.
type Backend struct{}

func (Backend) Name() string        { return "html" }
func (Backend) Extension() string   { return ".html" }
func (Backend) ContentType() string { return "text/html; charset=utf-8" }

// ExportDocument renders doc as a standalone page, or only the content
// markup when BodyOnly is set.
func (Backend) ExportDocument(doc *orgtree.Document, ov export.Overrides) ([]byte, error) {
	opts := export.Resolve(doc, ov, export.Defaults())
	st := export.NewState(doc, opts)
	r := &renderer{st: st}

	body := r.body(doc)
	if opts.BodyOnly {
		return []byte(body), nil
	}
	return r.shell(body)
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
	st *export.State
}

var esc = export.EscapeHTML

func (r *renderer) body(doc *orgtree.Document) string {
	var sb strings.Builder
	if len(r.st.TOC) > 0 {
		sb.WriteString(r.toc(r.st.TOC))
	}
	for _, n := range doc.Children {
		sb.WriteString(r.element(n))
	}
	sb.WriteString(r.footnotes())
	sb.WriteString(r.bibliography())
	return sb.String()
}

func (r *renderer) element(n *orgtree.Node) string {
	if n == nil || r.st.SuppressResults(n) {
		return ""
	}
	p := n.Properties
	switch n.Type {
	case orgtree.Headline:
		return r.headline(n)
	case orgtree.Section:
		return r.elements(n.Children)
	case orgtree.Paragraph:
		return r.paragraph(n)
	case orgtree.SrcBlock:
		if !r.st.SourceBlock(p.Parameters) {
			return ""
		}
		return fmt.Sprintf("<div class=\"org-src-container\">\n%s<pre class=\"src src-%s\">%s</pre>\n</div>\n",
			r.srcLabel(n), esc(p.Language), esc(strings.TrimRight(p.Value, "\n")))
	case orgtree.ExampleBlock, orgtree.FixedWidth:
		return fmt.Sprintf("<pre class=\"example\">\n%s\n</pre>\n", esc(strings.TrimRight(p.Value, "\n")))
	case orgtree.QuoteBlock:
		return "<blockquote>\n" + r.elements(n.Children) + "</blockquote>\n"
	case orgtree.CenterBlock:
		return "<div class=\"org-center\">\n" + r.elements(n.Children) + "</div>\n"
	case orgtree.SpecialBlock:
		return fmt.Sprintf("<div class=\"%s\">\n%s</div>\n", esc(p.BlockType), r.elements(n.Children))
	case orgtree.VerseBlock:
		text := strings.TrimRight(r.objects(n.Children), "\n")
		return "<p class=\"verse\">\n" + strings.ReplaceAll(text, "\n", "<br />\n") + "\n</p>\n"
	case orgtree.LatexEnvironment:
		r.st.MarkMath()
		return "<div class=\"equation-container\">\n" + esc(p.Value) + "\n</div>\n"
	case orgtree.Table:
		return r.table(n)
	case orgtree.TableRow:
		return r.row(n, "td")
	case orgtree.PlainList:
		return r.list(n)
	case orgtree.Item:
		return r.item(n, "unordered")
	case orgtree.Drawer:
		if strings.EqualFold(p.DrawerName, "LOGBOOK") {
			return ""
		}
		return r.elements(n.Children)
	case orgtree.Keyword:
		return r.keyword(n)
	case orgtree.HorizontalRule:
		return "<hr />\n"
	case orgtree.ExportBlock:
		if strings.EqualFold(p.Backend, "html") {
			return p.Value
		}
		return ""
	case orgtree.PropertyDrawer, orgtree.NodeProperty, orgtree.Comment, orgtree.CommentBlock,
		orgtree.FootnoteDefinition, orgtree.Planning, orgtree.Clock:
		return ""
	}
	return comment(export.Placeholder(n, false)) + "\n"
}

func comment(s string) string {
	return "<!-- " + strings.ReplaceAll(s, "--", "- -") + " -->"
}

func (r *renderer) elements(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(r.element(n))
	}
	return sb.String()
}

// nodes renders a mixed list, as found in footnote definitions.
func (r *renderer) nodes(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		if n.Type.IsObject() {
			sb.WriteString(r.object(n))
		} else {
			sb.WriteString(r.element(n))
		}
	}
	return sb.String()
}

func (r *renderer) headline(h *orgtree.Node) string {
	if r.st.Skip(h) {
		return ""
	}
	hd := r.st.Heading(h, 1, 6)
	var sb strings.Builder
	if hd.Deep {
		fmt.Fprintf(&sb, "<ul class=\"org-deep\">\n<li><a id=\"%s\"></a>%s<br />\n", hd.ID, r.headingText(hd))
		sb.WriteString(r.element(h.Section))
		sb.WriteString(r.elements(h.Children))
		sb.WriteString("</li>\n</ul>\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "<div id=\"outline-container-%s\" class=\"outline-%d\">\n", hd.ID, hd.Level)
	fmt.Fprintf(&sb, "<h%d id=\"%s\">%s</h%d>\n", hd.Level, hd.ID, r.headingText(hd), hd.Level)
	if h.Section != nil {
		fmt.Fprintf(&sb, "<div class=\"outline-text-%d\" id=\"text-%s\">\n%s</div>\n", hd.Level, hd.ID, r.element(h.Section))
	}
	sb.WriteString(r.elements(h.Children))
	sb.WriteString("</div>\n")
	return sb.String()
}

func (r *renderer) headingText(hd export.Heading) string {
	var parts []string
	if hd.Number != "" {
		parts = append(parts, fmt.Sprintf("<span class=\"section-number-%d\">%s</span>", hd.Level, hd.Number))
	}
	if hd.Todo != "" {
		class := "todo"
		if hd.TodoType == "done" {
			class = "done"
		}
		parts = append(parts, fmt.Sprintf("<span class=\"%s %s\">%s</span>", class, esc(hd.Todo), esc(hd.Todo)))
	}
	if hd.Priority != "" {
		parts = append(parts, fmt.Sprintf("<span class=\"priority\">[%s]</span>", esc(hd.Priority)))
	}
	parts = append(parts, r.objects(hd.Title))
	text := strings.Join(parts, " ")
	if len(hd.Tags) > 0 {
		var tags []string
		for _, t := range hd.Tags {
			tags = append(tags, fmt.Sprintf("<span class=\"%s\">%s</span>", esc(t), esc(t)))
		}
		text += "&#xa0;&#xa0;&#xa0;<span class=\"tag\">" + strings.Join(tags, "&#xa0;") + "</span>"
	}
	return text
}

func (r *renderer) paragraph(n *orgtree.Node) string {
	var out string
	r.st.WithAffiliated(n.Affiliated, func() {
		if link := export.StandaloneLink(n); link != nil {
			if rl := r.st.ResolveLink(link); rl.Kind == export.LinkImage {
				out = r.figure(rl, n.Affiliated)
				return
			}
		}
		out = "<p>\n" + r.objects(n.Children) + "</p>\n"
	})
	return out
}

func (r *renderer) figure(rl export.ResolvedLink, aff *orgtree.Affiliated) string {
	var sb strings.Builder
	sb.WriteString("<div")
	if aff != nil && aff.Name != "" {
		fmt.Fprintf(&sb, " id=\"%s\"", esc(export.GenerateID(aff.Name)))
	}
	sb.WriteString(" class=\"figure\">\n<p>" + r.image(rl.URL) + "</p>\n")
	if aff != nil && len(aff.Caption) > 0 {
		sb.WriteString("<p>" + r.objects(aff.Caption) + "</p>\n")
	}
	sb.WriteString("</div>\n")
	return sb.String()
}

// image renders an <img>, taking attributes from the enclosing element's
// #+ATTR_HTML line.
func (r *renderer) image(src string) string {
	attrs := export.ParseAttrPlist(r.st.Affiliated().AttrFor("html"))
	alt := attrs["alt"]
	if alt == "" {
		alt = src[strings.LastIndex(src, "/")+1:]
	}
	delete(attrs, "alt")
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	fmt.Fprintf(&sb, "<img src=\"%s\" alt=\"%s\"", esc(src), esc(alt))
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=\"%s\"", esc(k), esc(attrs[k]))
	}
	sb.WriteString(" />")
	return sb.String()
}

func (r *renderer) srcLabel(n *orgtree.Node) string {
	if n.Affiliated == nil || len(n.Affiliated.Caption) == 0 {
		return ""
	}
	return "<label class=\"org-src-name\">" + r.objects(n.Affiliated.Caption) + "</label>\n"
}

func (r *renderer) table(n *orgtree.Node) string {
	var groups [][]*orgtree.Node
	var cur []*orgtree.Node
	hasRule := false
	for _, row := range n.Children {
		if row.Properties.RowType == "rule" {
			hasRule = true
			if len(cur) > 0 {
				groups = append(groups, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, row)
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}

	var sb strings.Builder
	sb.WriteString("<table border=\"2\" cellspacing=\"0\" cellpadding=\"6\" rules=\"groups\" frame=\"hsides\">\n")
	if n.Affiliated != nil && len(n.Affiliated.Caption) > 0 {
		sb.WriteString("<caption class=\"t-above\">" + r.objects(n.Affiliated.Caption) + "</caption>\n")
	}
	for i, g := range groups {
		section, cell := "tbody", "td"
		if i == 0 && hasRule && len(groups) > 1 {
			section, cell = "thead", "th"
		}
		sb.WriteString("<" + section + ">\n")
		for _, row := range g {
			sb.WriteString(r.row(row, cell))
		}
		sb.WriteString("</" + section + ">\n")
	}
	sb.WriteString("</table>\n")
	return sb.String()
}

func (r *renderer) row(n *orgtree.Node, cell string) string {
	if n.Properties.RowType == "rule" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<tr>\n")
	for _, c := range n.Children {
		scope := ""
		if cell == "th" {
			scope = " scope=\"col\""
		}
		fmt.Fprintf(&sb, "<%s%s class=\"org-left\">%s</%s>\n", cell, scope, r.object(c), cell)
	}
	sb.WriteString("</tr>\n")
	return sb.String()
}

func (r *renderer) list(n *orgtree.Node) string {
	kind := n.Properties.ListType
	tag := "ul"
	switch kind {
	case "ordered":
		tag = "ol"
	case "descriptive":
		tag = "dl"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<%s class=\"org-%s\">\n", tag, tag)
	for _, item := range n.Children {
		sb.WriteString(r.item(item, kind))
	}
	fmt.Fprintf(&sb, "</%s>\n", tag)
	return sb.String()
}

var checkboxes = map[string]string{
	"on":    "<code>[X]</code> ",
	"off":   "<code>[&#xa0;]</code> ",
	"trans": "<code>[-]</code> ",
}

func (r *renderer) item(n *orgtree.Node, kind string) string {
	p := n.Properties
	content := checkboxes[p.Checkbox] + r.elements(n.Children)
	if kind == "descriptive" {
		return "<dt>" + r.objects(p.ItemTag) + "</dt><dd>" + content + "</dd>\n"
	}
	if kind == "ordered" && p.Counter > 0 {
		return fmt.Sprintf("<li value=\"%d\">%s</li>\n", p.Counter, content)
	}
	return "<li>" + content + "</li>\n"
}

func (r *renderer) keyword(n *orgtree.Node) string {
	p := n.Properties
	switch strings.ToUpper(p.Key) {
	case "TOC":
		if depth, ok := r.st.TOCKeyword(p.Value); ok {
			return r.toc(r.st.TOCEntries(depth))
		}
	case "HTML":
		return p.Value + "\n"
	}
	return ""
}
