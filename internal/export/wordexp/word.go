// Package wordexp renders document trees as Word (.docx) files through
// go-docx. Layout fidelity is approximate: headings, runs, tables and lists
// map onto built-in paragraph styles and text prefixes.
package wordexp

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func init() {
	export.Register(Backend{}, "word")
}

// Backend is the Word exporter.
type Backend struct{}

func (Backend) Name() string      { return "docx" }
func (Backend) Extension() string { return ".docx" }
func (Backend) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// ExportDocument renders doc and serialises the container.
func (Backend) ExportDocument(doc *orgtree.Document, ov export.Overrides) ([]byte, error) {
	d := Build(doc, ov)
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing docx: %w", err)
	}
	return buf.Bytes(), nil
}

// Build renders doc into an in-memory container without serialising it.
func Build(doc *orgtree.Document, ov export.Overrides) *docx.Docx {
	opts := export.Resolve(doc, ov, export.Defaults())
	r := &renderer{st: export.NewState(doc, opts), doc: docx.New().WithDefaultTheme()}

	if !opts.BodyOnly {
		r.titleBlock()
	}
	if len(r.st.TOC) > 0 {
		r.toc(r.st.TOC)
	}
	for _, n := range doc.Children {
		r.element(n)
	}
	r.footnotes()
	r.bibliography()
	return r.doc.WithA4Page()
}

// Element appends the rendering of one element to d.
func Element(n *orgtree.Node, st *export.State, d *docx.Docx) {
	(&renderer{st: st, doc: d}).element(n)
}

// Object appends the runs of one inline object to p.
func Object(n *orgtree.Node, st *export.State, p *docx.Paragraph) {
	r := &renderer{st: st}
	r.emit(p, r.inline([]*orgtree.Node{n}, format{}))
}

type renderer struct {
	st    *export.State
	doc   *docx.Docx
	depth int    // list nesting
	style string // paragraph style inherited from an enclosing block
}

const codeFont = "Courier New"

func (r *renderer) titleBlock() {
	o := r.st.Options
	if o.WithTitle && o.Title != "" {
		r.doc.AddParagraph().Style("Title").AddText(o.Title)
	}
	var meta []string
	if o.WithAuthor && o.Author != "" {
		meta = append(meta, o.Author)
	}
	if o.WithEmail && o.Email != "" {
		meta = append(meta, o.Email)
	}
	if o.WithDate && o.Date != "" {
		meta = append(meta, o.Date)
	}
	if len(meta) > 0 {
		r.doc.AddParagraph().Style("Subtitle").AddText(strings.Join(meta, " · "))
	}
}

func (r *renderer) toc(entries []export.TOCEntry) {
	if len(entries) == 0 {
		return
	}
	r.doc.AddParagraph().Style("TOCHeading").AddText("Table of Contents")
	for _, e := range entries {
		p := r.doc.AddParagraph().Style(fmt.Sprintf("TOC%d", e.Level))
		p.AddText(strings.Repeat("    ", e.Level-1) + orgtree.Flatten(e.Title))
	}
}

func (r *renderer) paragraph() *docx.Paragraph {
	p := r.doc.AddParagraph()
	if r.style != "" {
		p.Style(r.style)
	}
	return p
}

func (r *renderer) element(n *orgtree.Node) {
	if n == nil || r.st.SuppressResults(n) {
		return
	}
	p := n.Properties
	switch n.Type {
	case orgtree.Headline:
		r.headline(n)
	case orgtree.Section, orgtree.Drawer:
		if n.Type == orgtree.Drawer && strings.EqualFold(p.DrawerName, "LOGBOOK") {
			return
		}
		r.elements(n.Children)
	case orgtree.Paragraph:
		r.para(n)
	case orgtree.SrcBlock:
		if r.st.SourceBlock(p.Parameters) {
			r.code(p.Value)
		}
	case orgtree.ExampleBlock, orgtree.FixedWidth:
		r.code(p.Value)
	case orgtree.LatexEnvironment:
		r.st.MarkMath()
		r.code(p.Value)
	case orgtree.QuoteBlock:
		r.styled("Quote", n.Children)
	case orgtree.SpecialBlock:
		r.elements(n.Children)
	case orgtree.CenterBlock:
		start := len(r.doc.Document.Body.Items)
		r.elements(n.Children)
		for _, it := range r.doc.Document.Body.Items[start:] {
			if para, ok := it.(*docx.Paragraph); ok {
				para.Justification("center")
			}
		}
	case orgtree.VerseBlock:
		r.emit(r.paragraph(), r.inline(n.Children, format{}))
	case orgtree.Table:
		r.table(n)
	case orgtree.PlainList:
		r.list(n)
	case orgtree.Item:
		r.item(n, "unordered", 0)
	case orgtree.Keyword:
		if strings.EqualFold(p.Key, "TOC") {
			if depth, ok := r.st.TOCKeyword(p.Value); ok {
				r.toc(r.st.TOCEntries(depth))
			}
		}
	case orgtree.HorizontalRule:
		r.doc.AddParagraph().Justification("center").AddText("* * *")
	case orgtree.ExportBlock, orgtree.PropertyDrawer, orgtree.NodeProperty, orgtree.Comment,
		orgtree.CommentBlock, orgtree.FootnoteDefinition, orgtree.Planning, orgtree.Clock, orgtree.TableRow:
	default:
		r.paragraph().AddText("[" + export.Placeholder(n, false) + "]").Italic()
	}
}

func (r *renderer) elements(nodes []*orgtree.Node) {
	for _, n := range nodes {
		r.element(n)
	}
}

func (r *renderer) styled(style string, nodes []*orgtree.Node) {
	prev := r.style
	r.style = style
	defer func() { r.style = prev }()
	r.elements(nodes)
}

func (r *renderer) headline(h *orgtree.Node) {
	if r.st.Skip(h) {
		return
	}
	hd := r.st.Heading(h, 0, 9)
	p := r.doc.AddParagraph()
	if hd.Deep {
		p.AddText(orgtree.Flatten(hd.Title)).Bold()
	} else {
		p.Style(fmt.Sprintf("Heading%d", hd.Level))
		var prefix []string
		if hd.Number != "" {
			prefix = append(prefix, hd.Number)
		}
		if hd.Todo != "" {
			prefix = append(prefix, hd.Todo)
		}
		if hd.Priority != "" {
			prefix = append(prefix, "[#"+hd.Priority+"]")
		}
		if len(prefix) > 0 {
			p.AddText(strings.Join(prefix, " ") + " ")
		}
		r.emit(p, r.inline(hd.Title, format{}))
		if len(hd.Tags) > 0 {
			p.AddText("\t:" + strings.Join(hd.Tags, ":") + ":")
		}
	}
	r.element(h.Section)
	r.elements(h.Children)
}

func (r *renderer) para(n *orgtree.Node) {
	r.st.WithAffiliated(n.Affiliated, func() {
		if link := export.StandaloneLink(n); link != nil {
			if rl := r.st.ResolveLink(link); rl.Kind == export.LinkImage {
				r.figure(rl.URL, n.Affiliated)
				return
			}
		}
		r.emit(r.paragraph(), r.inline(n.Children, format{}))
	})
}

// figure links to the image; embedding needs the file bytes, which a tree
// does not carry.
func (r *renderer) figure(src string, aff *orgtree.Affiliated) {
	alt := export.ParseAttrPlist(aff.AttrFor("docx"))["alt"]
	if alt == "" {
		alt = src
	}
	r.doc.AddParagraph().Justification("center").AddLink(alt, src)
	if aff != nil && len(aff.Caption) > 0 {
		r.emit(r.doc.AddParagraph().Style("Caption"), r.inline(aff.Caption, format{}))
	}
}

func (r *renderer) code(value string) {
	r.paragraph().AddText(strings.TrimRight(value, "\n")).Font(codeFont, codeFont, codeFont, "default")
}

func (r *renderer) table(n *orgtree.Node) {
	var rows []*orgtree.Node
	cols, firstRule := 0, -1
	for _, row := range n.Children {
		if row.Properties.RowType == "rule" {
			if firstRule < 0 {
				firstRule = len(rows)
			}
			continue
		}
		rows = append(rows, row)
		cols = max(cols, len(row.Children))
	}
	if len(rows) == 0 || cols == 0 {
		return
	}
	if n.Affiliated != nil && len(n.Affiliated.Caption) > 0 {
		r.emit(r.doc.AddParagraph().Style("Caption"), r.inline(n.Affiliated.Caption, format{}))
	}
	header := 0
	if firstRule > 0 && firstRule < len(rows) {
		header = firstRule
	}
	tbl := r.doc.AddTable(len(rows), cols, 0, nil)
	for i, row := range rows {
		for j, cell := range row.Children {
			r.emit(tbl.TableRows[i].TableCells[j].AddParagraph(), r.inline(cell.Children, format{bold: i < header}))
		}
	}
}

func (r *renderer) list(n *orgtree.Node) {
	counter := 0
	for _, item := range n.Children {
		counter++
		if item.Properties.Counter > 0 {
			counter = item.Properties.Counter
		}
		r.item(item, n.Properties.ListType, counter)
	}
}

var checkboxes = map[string]string{
	"on":    "[X] ",
	"off":   "[ ] ",
	"trans": "[-] ",
}

// item writes the bullet or number prefix and the first paragraph on one
// line; further content follows one level deeper.
func (r *renderer) item(n *orgtree.Node, kind string, number int) {
	p := r.doc.AddParagraph().Style("ListParagraph")
	prefix := strings.Repeat("    ", r.depth)
	switch kind {
	case "ordered":
		prefix += fmt.Sprintf("%d. ", number)
	case "descriptive":
	default:
		prefix += "• "
	}
	prefix += checkboxes[n.Properties.Checkbox]
	p.AddText(prefix)
	if kind == "descriptive" {
		r.emit(p, r.inline(n.Properties.ItemTag, format{bold: true}))
		p.AddText(": ")
	}

	rest := n.Children
	if len(rest) > 0 && rest[0].Type == orgtree.Paragraph {
		r.emit(p, r.inline(rest[0].Children, format{}))
		rest = rest[1:]
	}
	r.depth++
	r.elements(rest)
	r.depth--
}

func (r *renderer) footnotes() {
	if !r.st.Options.Footnotes || len(r.st.FootnoteOrder) == 0 {
		return
	}
	r.doc.AddParagraph().Style("Heading1").AddText("Footnotes")
	for i := 0; i < len(r.st.FootnoteOrder); i++ {
		fn := r.st.Footnotes[r.st.FootnoteOrder[i]]
		p := r.doc.AddParagraph().Style("FootnoteText")
		p.AddText(fmt.Sprintf("%d. ", fn.Number))
		for _, c := range fn.Definition {
			switch {
			case c.Type == orgtree.Paragraph:
				r.emit(p, r.inline(c.Children, format{}))
			case c.Type.IsObject():
				r.emit(p, r.inline([]*orgtree.Node{c}, format{}))
			default:
				r.element(c)
			}
		}
	}
}

func (r *renderer) bibliography() {
	if len(r.st.CitationOrder) == 0 {
		return
	}
	r.doc.AddParagraph().Style("Heading1").AddText("References")
	for _, key := range r.st.CitationOrder {
		entry := r.st.Options.BibEntries[key]
		if entry == "" {
			entry = key
		}
		r.doc.AddParagraph().Style("Bibliography").AddText("[" + key + "] " + entry)
	}
}
