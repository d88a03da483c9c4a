// Package latexexp renders document trees as LaTeX source.
package latexexp

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func init() {
	export.Register(Backend{}, "tex")
}

// Backend is the LaTeX exporter.
type Backend struct{}

func (Backend) Name() string        { return "latex" }
func (Backend) Extension() string   { return ".tex" }
func (Backend) ContentType() string { return "application/x-latex; charset=utf-8" }

// ExportDocument renders doc as a complete LaTeX file, or only the body
// when BodyOnly is set.
func (Backend) ExportDocument(doc *orgtree.Document, ov export.Overrides) ([]byte, error) {
	opts := export.Resolve(doc, ov, export.Defaults())
	r := &renderer{st: export.NewState(doc, opts)}

	var body strings.Builder
	for _, n := range doc.Children {
		body.WriteString(r.element(n))
	}
	if opts.BodyOnly {
		return []byte(body.String()), nil
	}
	return []byte(r.shell(body.String())), nil
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
	st         *export.State
	printedBib bool
}

var esc = export.EscapeLaTeX

var defaultPackages = []string{
	`\usepackage[utf8]{inputenc}`,
	`\usepackage[T1]{fontenc}`,
	`\usepackage{graphicx}`,
	`\usepackage{longtable}`,
	`\usepackage{wrapfig}`,
	`\usepackage{rotating}`,
	`\usepackage[normalem]{ulem}`,
	`\usepackage{amsmath}`,
	`\usepackage{amssymb}`,
	`\usepackage{capt-of}`,
	`\usepackage{hyperref}`,
}

// shell wraps body in a preamble. A custom header replaces the whole
// preamble; LATEX_NO_DEFAULTS keeps only the class line and the user's
// header lines.
func (r *renderer) shell(body string) string {
	o := r.st.Options
	var sb strings.Builder

	switch {
	case strings.TrimSpace(o.CustomHeader) != "":
		sb.WriteString(strings.TrimRight(o.CustomHeader, "\n") + "\n")
	case o.LatexNoDefaults:
		sb.WriteString(r.documentClass())
		for _, h := range o.LatexHeader {
			sb.WriteString(h + "\n")
		}
	default:
		sb.WriteString(r.documentClass())
		for _, p := range defaultPackages {
			sb.WriteString(p + "\n")
		}
		if lang := babelLanguage(o.Language); lang != "" {
			fmt.Fprintf(&sb, "\\usepackage[%s]{babel}\n", lang)
		}
		if len(o.Bibliography) > 0 {
			style := o.BibStyle
			if style == "" {
				style = "numeric"
			}
			fmt.Fprintf(&sb, "\\usepackage[style=%s]{biblatex}\n", style)
			for _, b := range o.Bibliography {
				fmt.Fprintf(&sb, "\\addbibresource{%s}\n", b)
			}
		}
		for _, h := range o.LatexHeader {
			sb.WriteString(h + "\n")
		}
		r.metadata(&sb)
	}

	sb.WriteString("\\begin{document}\n\n")
	if o.WithTitle && o.Title != "" && strings.TrimSpace(o.CustomHeader) == "" {
		sb.WriteString("\\maketitle\n")
	}
	if o.TOC.Enabled {
		fmt.Fprintf(&sb, "\\setcounter{tocdepth}{%d}\n\\tableofcontents\n\n", r.st.TOCDepth())
	}
	sb.WriteString(body)
	if len(o.Bibliography) > 0 && len(r.st.CitationOrder) > 0 && !r.printedBib {
		sb.WriteString("\n\\printbibliography\n")
	}
	sb.WriteString("\\end{document}\n")
	return sb.String()
}

func (r *renderer) documentClass() string {
	o := r.st.Options
	class := o.DocumentClass
	if class == "" {
		class = "article"
	}
	if len(o.ClassOptions) > 0 {
		return fmt.Sprintf("\\documentclass[%s]{%s}\n", strings.Join(o.ClassOptions, ","), class)
	}
	return fmt.Sprintf("\\documentclass{%s}\n", class)
}

func (r *renderer) metadata(sb *strings.Builder) {
	o := r.st.Options
	if o.WithAuthor {
		fmt.Fprintf(sb, "\\author{%s}\n", esc(o.Author))
	}
	if o.WithDate {
		date := esc(o.Date)
		if date == "" {
			date = `\today`
		}
		fmt.Fprintf(sb, "\\date{%s}\n", date)
	}
	fmt.Fprintf(sb, "\\title{%s}\n", esc(o.Title))
	fmt.Fprintf(sb, "\\hypersetup{\n pdfauthor={%s},\n pdftitle={%s},\n pdfcreator={orgdoc}}\n", esc(o.Author), esc(o.Title))
}

// babelLanguage maps a LANGUAGE keyword to the babel option name. English
// needs no babel.
func babelLanguage(s string) string {
	if s == "" {
		return ""
	}
	tag, err := language.Parse(s)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if base.String() == "en" {
		return ""
	}
	name := display.English.Languages().Name(base)
	return strings.ToLower(strings.ReplaceAll(name, " ", ""))
}

var sectioning = map[string][]string{
	"article": {"section", "subsection", "subsubsection", "paragraph", "subparagraph"},
	"report":  {"chapter", "section", "subsection", "subsubsection", "paragraph", "subparagraph"},
	"book":    {"part", "chapter", "section", "subsection", "subsubsection", "paragraph", "subparagraph"},
}

func (r *renderer) sectionCommands() []string {
	if cmds, ok := sectioning[r.st.Options.DocumentClass]; ok {
		if r.st.Options.DocumentClass == "book" {
			return cmds[1:]
		}
		return cmds
	}
	return sectioning["article"]
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
		return verbatim(p.Value)
	case orgtree.ExampleBlock, orgtree.FixedWidth:
		return verbatim(p.Value)
	case orgtree.QuoteBlock:
		return environment("quote", r.elements(n.Children))
	case orgtree.CenterBlock:
		return environment("center", r.elements(n.Children))
	case orgtree.SpecialBlock:
		return environment(p.BlockType, r.elements(n.Children))
	case orgtree.VerseBlock:
		text := strings.TrimRight(r.objects(n.Children), "\n")
		return environment("verse", strings.ReplaceAll(text, "\n", "\\\\\n")+"\n")
	case orgtree.LatexEnvironment:
		r.st.MarkMath()
		return strings.TrimRight(p.Value, "\n") + "\n\n"
	case orgtree.Table:
		return r.table(n)
	case orgtree.TableRow:
		return r.row(n)
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
		return "\\noindent\\rule{\\textwidth}{0.5pt}\n\n"
	case orgtree.ExportBlock:
		if isLatex(p.Backend) {
			return p.Value
		}
		return ""
	case orgtree.PropertyDrawer, orgtree.NodeProperty, orgtree.Comment, orgtree.CommentBlock,
		orgtree.FootnoteDefinition, orgtree.Planning, orgtree.Clock:
		return ""
	}
	return "% " + export.Placeholder(n, false) + "\n"
}

func isLatex(backend string) bool {
	return strings.EqualFold(backend, "latex") || strings.EqualFold(backend, "tex")
}

func verbatim(code string) string {
	return "\\begin{verbatim}\n" + strings.TrimRight(code, "\n") + "\n\\end{verbatim}\n\n"
}

func environment(name, body string) string {
	return fmt.Sprintf("\\begin{%s}\n%s\\end{%s}\n\n", name, body, name)
}

func (r *renderer) elements(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(r.element(n))
	}
	return sb.String()
}

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
	cmds := r.sectionCommands()
	hd := r.st.Heading(h, 0, len(cmds))
	cmd := cmds[hd.Level-1]
	if !r.st.Options.Num || hd.Deep {
		cmd += "*"
	}

	var title strings.Builder
	if hd.Todo != "" {
		fmt.Fprintf(&title, "\\textbf{%s} ", esc(hd.Todo))
	}
	if hd.Priority != "" {
		fmt.Fprintf(&title, "\\framebox{\\#%s} ", esc(hd.Priority))
	}
	title.WriteString(r.objects(hd.Title))
	if len(hd.Tags) > 0 {
		fmt.Fprintf(&title, "\\hfill{}\\textsc{%s}", esc(strings.Join(hd.Tags, ":")))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\\%s{%s}\n\\label{%s}\n", cmd, title.String(), hd.ID)
	sb.WriteString(r.element(h.Section))
	sb.WriteString(r.elements(h.Children))
	return sb.String()
}

func (r *renderer) paragraph(n *orgtree.Node) string {
	var out string
	r.st.WithAffiliated(n.Affiliated, func() {
		if link := export.StandaloneLink(n); link != nil {
			if rl := r.st.ResolveLink(link); rl.Kind == export.LinkImage {
				out = r.figure(rl.URL, n.Affiliated)
				return
			}
		}
		out = strings.TrimRight(r.objects(n.Children), "\n") + "\n\n"
	})
	return out
}

func (r *renderer) figure(src string, aff *orgtree.Affiliated) string {
	var sb strings.Builder
	sb.WriteString("\\begin{figure}[htbp]\n\\centering\n")
	sb.WriteString(r.image(src) + "\n")
	if aff != nil && len(aff.Caption) > 0 {
		fmt.Fprintf(&sb, "\\caption{%s}\n", r.objects(aff.Caption))
	}
	if aff != nil && aff.Name != "" {
		fmt.Fprintf(&sb, "\\label{%s}\n", export.GenerateID(aff.Name))
	}
	sb.WriteString("\\end{figure}\n\n")
	return sb.String()
}

// image honours :width and :options from the enclosing #+ATTR_LATEX line.
func (r *renderer) image(src string) string {
	attrs := export.ParseAttrPlist(r.st.Affiliated().AttrFor("latex"))
	opts := attrs["options"]
	if opts == "" {
		width := attrs["width"]
		if width == "" {
			width = `.9\linewidth`
		}
		opts = "width=" + width
	}
	return fmt.Sprintf("\\includegraphics[%s]{%s}", opts, src)
}

func (r *renderer) table(n *orgtree.Node) string {
	cols := 0
	for _, row := range n.Children {
		cols = max(cols, len(row.Children))
	}
	spec := strings.Repeat("l", max(cols, 1))
	if a := export.ParseAttrPlist(n.Affiliated.AttrFor("latex")); a["align"] != "" {
		spec = a["align"]
	}

	var tab strings.Builder
	fmt.Fprintf(&tab, "\\begin{tabular}{%s}\n", spec)
	for _, row := range n.Children {
		tab.WriteString(r.row(row))
	}
	tab.WriteString("\\end{tabular}\n")

	if n.Affiliated == nil || (len(n.Affiliated.Caption) == 0 && n.Affiliated.Name == "") {
		return tab.String() + "\n"
	}
	var sb strings.Builder
	sb.WriteString("\\begin{table}[htbp]\n")
	if len(n.Affiliated.Caption) > 0 {
		fmt.Fprintf(&sb, "\\caption{%s}\n", r.objects(n.Affiliated.Caption))
	}
	if n.Affiliated.Name != "" {
		fmt.Fprintf(&sb, "\\label{%s}\n", export.GenerateID(n.Affiliated.Name))
	}
	sb.WriteString("\\centering\n")
	sb.WriteString(tab.String())
	sb.WriteString("\\end{table}\n\n")
	return sb.String()
}

func (r *renderer) row(n *orgtree.Node) string {
	if n.Properties.RowType == "rule" {
		return "\\hline\n"
	}
	cells := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		cells = append(cells, strings.TrimSpace(r.object(c)))
	}
	return strings.Join(cells, " & ") + " \\\\\n"
}

var listEnvironments = map[string]string{
	"ordered":     "enumerate",
	"descriptive": "description",
}

func (r *renderer) list(n *orgtree.Node) string {
	kind := n.Properties.ListType
	env, ok := listEnvironments[kind]
	if !ok {
		env = "itemize"
	}
	var sb strings.Builder
	for _, item := range n.Children {
		sb.WriteString(r.item(item, kind))
	}
	return environment(env, sb.String())
}

var checkboxes = map[string]string{
	"on":    `$\boxtimes$ `,
	"off":   `$\square$ `,
	"trans": `$\boxminus$ `,
}

func (r *renderer) item(n *orgtree.Node, kind string) string {
	p := n.Properties
	var sb strings.Builder
	sb.WriteString(`\item`)
	switch {
	case kind == "descriptive":
		fmt.Fprintf(&sb, "[{%s}]", r.objects(p.ItemTag))
	case kind == "ordered" && p.Counter > 0:
		fmt.Fprintf(&sb, "\\setcounter{enumi}{%d}", p.Counter-1)
	}
	sb.WriteString(" " + checkboxes[p.Checkbox])
	sb.WriteString(strings.TrimRight(r.elements(n.Children), "\n"))
	sb.WriteString("\n")
	return sb.String()
}

func (r *renderer) keyword(n *orgtree.Node) string {
	p := n.Properties
	switch strings.ToUpper(p.Key) {
	case "TOC":
		if depth, ok := r.st.TOCKeyword(p.Value); ok {
			return fmt.Sprintf("\\setcounter{tocdepth}{%d}\n\\tableofcontents\n\n", depth)
		}
	case "LATEX":
		return p.Value + "\n"
	case "PRINT_BIBLIOGRAPHY":
		r.printedBib = true
		return "\\printbibliography\n\n"
	}
	return ""
}
