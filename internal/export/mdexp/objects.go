package mdexp

import (
	"fmt"
	"strings"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func (r *renderer) objects(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(r.object(n))
	}
	return sb.String()
}

func (r *renderer) object(n *orgtree.Node) string {
	if n == nil {
		return ""
	}
	out := r.renderObject(n)
	if n.Properties.PostBlank > 0 {
		out += strings.Repeat(" ", n.Properties.PostBlank)
	}
	return out
}

func (r *renderer) renderObject(n *orgtree.Node) string {
	p := n.Properties
	switch n.Type {
	case orgtree.PlainText:
		return escape(p.Value)
	case orgtree.Bold:
		return "**" + r.objects(n.Children) + "**"
	case orgtree.Italic:
		return "*" + r.objects(n.Children) + "*"
	case orgtree.Underline:
		return "<u>" + r.objects(n.Children) + "</u>"
	case orgtree.StrikeThrough:
		return "~~" + r.objects(n.Children) + "~~"
	case orgtree.Code, orgtree.Verbatim, orgtree.InlineSrcBlock:
		return code(p.Value)
	case orgtree.Link:
		return r.link(n)
	case orgtree.Timestamp:
		return escape(orgtree.FormatTimestamp(n, false))
	case orgtree.Entity:
		if p.UTF8 != "" {
			return p.UTF8
		}
		return escape(p.Name)
	case orgtree.LatexFragment:
		r.st.MarkMath()
		return p.Value
	case orgtree.Subscript:
		if !r.st.Options.SubSuperscripts {
			return `\_` + r.objects(n.Children)
		}
		return "<sub>" + r.objects(n.Children) + "</sub>"
	case orgtree.Superscript:
		if !r.st.Options.SubSuperscripts {
			return "^" + r.objects(n.Children)
		}
		return "<sup>" + r.objects(n.Children) + "</sup>"
	case orgtree.FootnoteReference:
		if !r.st.Options.Footnotes {
			return ""
		}
		fn := r.st.FootnoteRef(p.Label, n.Children)
		return fmt.Sprintf("[^%d]", fn.Number)
	case orgtree.StatisticsCookie:
		return escape(p.Value)
	case orgtree.Target:
		return fmt.Sprintf("<a id=\"%s\"></a>", r.st.Targets[p.Value])
	case orgtree.RadioTarget:
		text := p.Value
		if text == "" {
			text = orgtree.Flatten(n.Children)
		}
		return fmt.Sprintf("<a id=\"%s\"></a>%s", r.st.RadioTargets[text], r.objects(n.Children))
	case orgtree.LineBreak:
		return "\\\n"
	case orgtree.InlineBabelCall:
		return ""
	case orgtree.ExportSnippet:
		if isMarkdown(p.Backend) {
			return p.Value
		}
		return ""
	case orgtree.Macro:
		if text, ok := r.st.ExpandMacro(p.Key, p.Args); ok {
			return escape(text)
		}
		return escape(export.MacroSource(p.Key, p.Args))
	case orgtree.TableCell:
		return r.objects(n.Children)
	case orgtree.Citation:
		return r.cite(export.CitationKeys(n), export.CiteStyle(p.Style))
	case orgtree.CitationReference:
		return r.cite([]string{p.Key}, "")
	}
	return "<!-- " + export.Placeholder(n, true) + " -->"
}

// code wraps s in a backtick run longer than any it contains.
func code(s string) string {
	ticks := "`"
	for strings.Contains(s, ticks) {
		ticks += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return ticks + " " + s + " " + ticks
	}
	return ticks + s + ticks
}

func (r *renderer) link(n *orgtree.Node) string {
	rl := r.st.ResolveLink(n)
	desc := r.objects(n.Children)
	switch rl.Kind {
	case export.LinkCitation:
		return r.cite(rl.Keys, rl.Style)
	case export.LinkImage:
		return r.image(rl.URL)
	case export.LinkInternal, export.LinkUnresolved, export.LinkCoderef:
		if desc == "" {
			desc = escape(strings.TrimPrefix(strings.TrimPrefix(n.Properties.Path, "*"), "#"))
		}
		return fmt.Sprintf("[%s](#%s)", desc, rl.Anchor)
	}
	if desc == "" {
		return "<" + rl.URL + ">"
	}
	return fmt.Sprintf("[%s](%s)", desc, strings.ReplaceAll(rl.URL, " ", "%20"))
}

// cite renders pandoc-style "[@a; @b]" keys linked to the reference list.
func (r *renderer) cite(keys []string, style string) string {
	if style == "nocite" {
		for _, k := range keys {
			r.st.NoCite(k)
		}
		return ""
	}
	var refs []string
	for _, k := range keys {
		r.st.Cite(k)
		refs = append(refs, fmt.Sprintf("[@%s](#ref-%s)", escape(k), k))
	}
	if style == "text" || style == "author" {
		return strings.Join(refs, "; ")
	}
	return "(" + strings.Join(refs, "; ") + ")"
}
