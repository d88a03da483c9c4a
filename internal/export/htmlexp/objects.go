package htmlexp

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
		return esc(p.Value)
	case orgtree.Bold:
		return "<b>" + r.objects(n.Children) + "</b>"
	case orgtree.Italic:
		return "<i>" + r.objects(n.Children) + "</i>"
	case orgtree.Underline:
		return "<span class=\"underline\">" + r.objects(n.Children) + "</span>"
	case orgtree.StrikeThrough:
		return "<del>" + r.objects(n.Children) + "</del>"
	case orgtree.Code, orgtree.Verbatim:
		return "<code>" + esc(p.Value) + "</code>"
	case orgtree.Link:
		return r.link(n)
	case orgtree.Timestamp:
		return "<span class=\"timestamp-wrapper\"><span class=\"timestamp\">" +
			esc(orgtree.FormatTimestamp(n, false)) + "</span></span>"
	case orgtree.Entity:
		if p.HTML != "" {
			return p.HTML
		}
		return esc(p.UTF8)
	case orgtree.LatexFragment:
		r.st.MarkMath()
		return esc(p.Value)
	case orgtree.Subscript, orgtree.Superscript:
		return r.script(n)
	case orgtree.FootnoteReference:
		return r.footnoteRef(n)
	case orgtree.StatisticsCookie:
		return "<code>" + esc(p.Value) + "</code>"
	case orgtree.Target:
		return fmt.Sprintf("<span id=\"%s\"></span>", r.st.Targets[p.Value])
	case orgtree.RadioTarget:
		text := p.Value
		if text == "" {
			text = orgtree.Flatten(n.Children)
		}
		return fmt.Sprintf("<span id=\"%s\">%s</span>", r.st.RadioTargets[text], r.objects(n.Children))
	case orgtree.LineBreak:
		return "<br />\n"
	case orgtree.InlineSrcBlock:
		return fmt.Sprintf("<code class=\"src src-%s\">%s</code>", esc(p.Language), esc(p.Value))
	case orgtree.InlineBabelCall:
		return ""
	case orgtree.ExportSnippet:
		if strings.EqualFold(p.Backend, "html") {
			return p.Value
		}
		return ""
	case orgtree.Macro:
		if text, ok := r.st.ExpandMacro(p.Key, p.Args); ok {
			return esc(text)
		}
		return esc(export.MacroSource(p.Key, p.Args))
	case orgtree.TableCell:
		return r.objects(n.Children)
	case orgtree.Citation:
		return r.cite(export.CitationKeys(n), export.CiteStyle(p.Style), p.Prefix, p.Suffix)
	case orgtree.CitationReference:
		return r.cite([]string{p.Key}, "", p.Prefix, p.Suffix)
	}
	return comment(export.Placeholder(n, true))
}

func (r *renderer) script(n *orgtree.Node) string {
	body := r.objects(n.Children)
	if !r.st.Options.SubSuperscripts {
		if n.Type == orgtree.Subscript {
			return "_" + body
		}
		return "^" + body
	}
	if n.Type == orgtree.Subscript {
		return "<sub>" + body + "</sub>"
	}
	return "<sup>" + body + "</sup>"
}

func (r *renderer) link(n *orgtree.Node) string {
	rl := r.st.ResolveLink(n)
	desc := r.objects(n.Children)
	path := n.Properties.Path
	switch rl.Kind {
	case export.LinkCitation:
		return r.cite(rl.Keys, rl.Style, nil, nil)
	case export.LinkImage:
		return r.image(rl.URL)
	case export.LinkCoderef:
		if desc == "" {
			desc = esc(path)
		}
		return fmt.Sprintf("<a href=\"#%s\">%s</a>", esc(rl.Anchor), desc)
	case export.LinkInternal, export.LinkUnresolved:
		if desc == "" {
			desc = esc(strings.TrimPrefix(strings.TrimPrefix(path, "*"), "#"))
		}
		return fmt.Sprintf("<a href=\"#%s\">%s</a>", esc(rl.Anchor), desc)
	}
	if desc == "" {
		desc = esc(rl.URL)
	}
	return fmt.Sprintf("<a href=\"%s\">%s</a>", esc(rl.URL), desc)
}

func (r *renderer) footnoteRef(n *orgtree.Node) string {
	if !r.st.Options.Footnotes {
		return ""
	}
	fn := r.st.FootnoteRef(n.Properties.Label, n.Children)
	id := fmt.Sprintf("fnr.%d", fn.Number)
	if fn.Refs > 1 {
		id = fmt.Sprintf("fnr.%d.%d", fn.Number, fn.Refs)
	}
	return fmt.Sprintf("<sup><a id=\"%s\" class=\"footref\" href=\"#fn.%d\" role=\"doc-backlink\">%d</a></sup>",
		id, fn.Number, fn.Number)
}

// cite renders in-text citation anchors. Every anchor gets a cite-N id that
// the bibliography links back to.
func (r *renderer) cite(keys []string, style string, prefix, suffix []*orgtree.Node) string {
	if style == "nocite" {
		for _, k := range keys {
			r.st.NoCite(k)
		}
		return ""
	}
	var links []string
	for _, k := range keys {
		id := r.st.Cite(k)
		links = append(links, fmt.Sprintf("<a id=\"%s\" href=\"#ref-%s\" class=\"citation\">%s</a>", id, esc(k), esc(k)))
	}
	inner := strings.Join(links, "; ")
	if pre := r.objects(prefix); pre != "" {
		inner = pre + inner
	}
	if suf := r.objects(suffix); suf != "" {
		inner += suf
	}
	switch style {
	case "text", "author", "year", "noauthor":
		return "<span class=\"citation\">" + inner + "</span>"
	}
	return "<span class=\"citation\">(" + inner + ")</span>"
}
