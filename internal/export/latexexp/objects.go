package latexexp

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
		return `\textbf{` + r.objects(n.Children) + "}"
	case orgtree.Italic:
		return `\emph{` + r.objects(n.Children) + "}"
	case orgtree.Underline:
		return `\uline{` + r.objects(n.Children) + "}"
	case orgtree.StrikeThrough:
		return `\sout{` + r.objects(n.Children) + "}"
	case orgtree.Code, orgtree.Verbatim, orgtree.StatisticsCookie:
		return `\texttt{` + esc(p.Value) + "}"
	case orgtree.Link:
		return r.link(n)
	case orgtree.Timestamp:
		return `\textit{` + esc(orgtree.FormatTimestamp(n, false)) + "}"
	case orgtree.Entity:
		switch {
		case p.Latex != "" && p.LatexMath:
			return `\(` + p.Latex + `\)`
		case p.Latex != "":
			return p.Latex
		}
		return esc(p.UTF8)
	case orgtree.LatexFragment:
		r.st.MarkMath()
		return p.Value
	case orgtree.Subscript, orgtree.Superscript:
		return r.script(n)
	case orgtree.FootnoteReference:
		return r.footnote(n)
	case orgtree.Target:
		return fmt.Sprintf("\\label{%s}", r.st.Targets[p.Value])
	case orgtree.RadioTarget:
		text := p.Value
		if text == "" {
			text = orgtree.Flatten(n.Children)
		}
		return fmt.Sprintf("\\label{%s}%s", r.st.RadioTargets[text], r.objects(n.Children))
	case orgtree.LineBreak:
		return "\\\\\n"
	case orgtree.InlineSrcBlock:
		return `\texttt{` + esc(p.Value) + "}"
	case orgtree.InlineBabelCall:
		return ""
	case orgtree.ExportSnippet:
		if isLatex(p.Backend) {
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
	return "%" + export.Placeholder(n, true) + "\n"
}

func (r *renderer) script(n *orgtree.Node) string {
	body := r.objects(n.Children)
	switch {
	case !r.st.Options.SubSuperscripts && n.Type == orgtree.Subscript:
		return `\_` + body
	case !r.st.Options.SubSuperscripts:
		return `\^{}` + body
	case n.Type == orgtree.Subscript:
		return `\textsubscript{` + body + "}"
	}
	return `\textsuperscript{` + body + "}"
}

func (r *renderer) link(n *orgtree.Node) string {
	rl := r.st.ResolveLink(n)
	desc := r.objects(n.Children)
	switch rl.Kind {
	case export.LinkCitation:
		return r.cite(rl.Keys, rl.Style, nil, nil)
	case export.LinkImage:
		return r.image(rl.URL)
	case export.LinkInternal, export.LinkUnresolved, export.LinkCoderef:
		if desc == "" {
			desc = esc(strings.TrimPrefix(strings.TrimPrefix(n.Properties.Path, "*"), "#"))
		}
		return fmt.Sprintf("\\hyperref[%s]{%s}", rl.Anchor, desc)
	}
	url := strings.NewReplacer("%", `\%`, "#", `\#`).Replace(rl.URL)
	if desc == "" {
		return `\url{` + url + "}"
	}
	return fmt.Sprintf("\\href{%s}{%s}", url, desc)
}

// footnote emits the full \footnote at the first reference and a bare
// \footnotemark for later references to the same label.
func (r *renderer) footnote(n *orgtree.Node) string {
	if !r.st.Options.Footnotes {
		return ""
	}
	fn := r.st.FootnoteRef(n.Properties.Label, n.Children)
	if fn.Refs > 1 {
		return fmt.Sprintf("\\footnotemark[%d]", fn.Number)
	}
	return `\footnote{` + strings.TrimSpace(r.nodes(fn.Definition)) + "}"
}

var citeCommands = map[string]string{
	"":         `\cite`,
	"paren":    `\parencite`,
	"text":     `\textcite`,
	"author":   `\citeauthor`,
	"year":     `\citeyear`,
	"noauthor": `\cite*`,
	"nocite":   `\nocite`,
}

func (r *renderer) cite(keys []string, style string, prefix, suffix []*orgtree.Node) string {
	if len(keys) == 0 {
		return ""
	}
	cmd, ok := citeCommands[style]
	if !ok {
		cmd = citeCommands[""]
	}
	for _, k := range keys {
		if style == "nocite" {
			r.st.NoCite(k)
		} else {
			r.st.Cite(k)
		}
	}
	pre := strings.TrimSpace(r.objects(prefix))
	suf := strings.TrimSpace(r.objects(suffix))
	switch {
	case pre != "":
		cmd += "[" + pre + "][" + suf + "]"
	case suf != "":
		cmd += "[" + suf + "]"
	}
	return cmd + "{" + strings.Join(keys, ",") + "}"
}
