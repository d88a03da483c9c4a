package wordexp

import (
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// format is the character formatting accumulated down an object subtree.
type format struct {
	bold, italic, underline, strike, code bool
	vertAlign                             string
}

// span is one run of uniformly formatted text, or a hyperlink.
type span struct {
	text string
	fmt  format
	link string
}

func (r *renderer) inline(nodes []*orgtree.Node, f format) []span {
	var out []span
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, r.object(n, f)...)
		if n.Properties.PostBlank > 0 {
			out = append(out, span{text: strings.Repeat(" ", n.Properties.PostBlank), fmt: f})
		}
	}
	return out
}

func (r *renderer) object(n *orgtree.Node, f format) []span {
	p := n.Properties
	text := func(s string) []span { return []span{{text: s, fmt: f}} }

	switch n.Type {
	case orgtree.PlainText:
		return text(p.Value)
	case orgtree.Bold:
		f.bold = true
		return r.inline(n.Children, f)
	case orgtree.Italic:
		f.italic = true
		return r.inline(n.Children, f)
	case orgtree.Underline:
		f.underline = true
		return r.inline(n.Children, f)
	case orgtree.StrikeThrough:
		f.strike = true
		return r.inline(n.Children, f)
	case orgtree.Code, orgtree.Verbatim, orgtree.InlineSrcBlock:
		f.code = true
		return text(p.Value)
	case orgtree.Link:
		return r.link(n, f)
	case orgtree.Timestamp:
		return text(orgtree.FormatTimestamp(n, false))
	case orgtree.Entity:
		if p.UTF8 != "" {
			return text(p.UTF8)
		}
		return text(p.Name)
	case orgtree.LatexFragment:
		r.st.MarkMath()
		f.code = true
		return text(p.Value)
	case orgtree.Subscript, orgtree.Superscript:
		if !r.st.Options.SubSuperscripts {
			mark := "^"
			if n.Type == orgtree.Subscript {
				mark = "_"
			}
			return append(text(mark), r.inline(n.Children, f)...)
		}
		f.vertAlign = "superscript"
		if n.Type == orgtree.Subscript {
			f.vertAlign = "subscript"
		}
		return r.inline(n.Children, f)
	case orgtree.FootnoteReference:
		if !r.st.Options.Footnotes {
			return nil
		}
		fn := r.st.FootnoteRef(p.Label, n.Children)
		f.vertAlign = "superscript"
		return text(fmt.Sprintf("%d", fn.Number))
	case orgtree.StatisticsCookie:
		return text(p.Value)
	case orgtree.Target, orgtree.InlineBabelCall:
		return nil
	case orgtree.RadioTarget, orgtree.TableCell:
		return r.inline(n.Children, f)
	case orgtree.LineBreak:
		return text("\n")
	case orgtree.ExportSnippet:
		return nil
	case orgtree.Macro:
		if s, ok := r.st.ExpandMacro(p.Key, p.Args); ok {
			return text(s)
		}
		return text(export.MacroSource(p.Key, p.Args))
	case orgtree.Citation:
		return text(r.cite(export.CitationKeys(n), export.CiteStyle(p.Style)))
	case orgtree.CitationReference:
		return text(r.cite([]string{p.Key}, ""))
	}
	f.italic = true
	return text("[" + export.Placeholder(n, true) + "]")
}

func (r *renderer) link(n *orgtree.Node, f format) []span {
	rl := r.st.ResolveLink(n)
	desc := orgtree.Flatten(n.Children)
	switch rl.Kind {
	case export.LinkCitation:
		return []span{{text: r.cite(rl.Keys, rl.Style), fmt: f}}
	case export.LinkInternal, export.LinkUnresolved, export.LinkCoderef:
		if len(n.Children) > 0 {
			return r.inline(n.Children, f)
		}
		return []span{{text: strings.TrimPrefix(n.Properties.Path, "*"), fmt: f}}
	}
	if desc == "" {
		desc = rl.URL
	}
	return []span{{text: desc, fmt: f, link: rl.URL}}
}

// cite renders the bracketed fallback form "[key1; key2]".
func (r *renderer) cite(keys []string, style string) string {
	if style == "nocite" {
		for _, k := range keys {
			r.st.NoCite(k)
		}
		return ""
	}
	for _, k := range keys {
		r.st.Cite(k)
	}
	return "[" + strings.Join(keys, "; ") + "]"
}

// emit appends spans to p as formatted runs and hyperlinks.
func (r *renderer) emit(p *docx.Paragraph, spans []span) {
	for _, s := range spans {
		if s.text == "" {
			continue
		}
		if s.link != "" {
			p.AddLink(s.text, s.link)
			continue
		}
		run := p.AddText(s.text)
		if s.fmt.bold {
			run.Bold()
		}
		if s.fmt.italic {
			run.Italic()
		}
		if s.fmt.underline {
			run.Underline("single")
		}
		if s.fmt.strike {
			run.Strike(true)
		}
		if s.fmt.code {
			run.Font(codeFont, codeFont, codeFont, "default")
		}
		if s.fmt.vertAlign != "" {
			run.RunProperties.VertAlign = &docx.VertAlign{Val: s.fmt.vertAlign}
		}
	}
}
