package interp

import (
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func (p printer) objects(nodes []*orgtree.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(p.object(n))
	}
	return sb.String()
}

func (p printer) object(n *orgtree.Node) string {
	if n == nil {
		return ""
	}
	return p.inline(n) + strings.Repeat(" ", n.Properties.PostBlank)
}

func (p printer) inline(n *orgtree.Node) string {
	pr := n.Properties
	switch n.Type {
	case orgtree.PlainText:
		return pr.Value
	case orgtree.Bold:
		return "*" + p.objects(n.Children) + "*"
	case orgtree.Italic:
		return "/" + p.objects(n.Children) + "/"
	case orgtree.Underline:
		return "_" + p.objects(n.Children) + "_"
	case orgtree.StrikeThrough:
		return "+" + p.objects(n.Children) + "+"
	case orgtree.Code:
		return "~" + pr.Value + "~"
	case orgtree.Verbatim:
		return "=" + pr.Value + "="
	case orgtree.Link:
		return p.link(n)
	case orgtree.Timestamp:
		return Timestamp(n, p.opts)
	case orgtree.Entity:
		if pr.UseBrackets {
			return `\` + pr.Name + "{}"
		}
		return `\` + pr.Name
	case orgtree.LatexFragment, orgtree.StatisticsCookie:
		return pr.Value
	case orgtree.Subscript:
		return "_" + p.script(n)
	case orgtree.Superscript:
		return "^" + p.script(n)
	case orgtree.FootnoteReference:
		if len(n.Children) > 0 {
			return "[fn:" + pr.Label + ":" + p.objects(n.Children) + "]"
		}
		return "[fn:" + pr.Label + "]"
	case orgtree.Target:
		return "<<" + pr.Value + ">>"
	case orgtree.RadioTarget:
		return "<<<" + p.objects(n.Children) + ">>>"
	case orgtree.LineBreak:
		return "\\\\\n"
	case orgtree.InlineSrcBlock:
		s := "src_" + pr.Language
		if pr.Parameters != "" {
			s += "[" + pr.Parameters + "]"
		}
		return s + "{" + pr.Value + "}"
	case orgtree.InlineBabelCall:
		s := "call_" + pr.Call
		if pr.InsideHeader != "" {
			s += "[" + pr.InsideHeader + "]"
		}
		s += "(" + pr.Arguments + ")"
		if pr.EndHeader != "" {
			s += "[" + pr.EndHeader + "]"
		}
		return s
	case orgtree.ExportSnippet:
		return "@@" + pr.Backend + ":" + pr.Value + "@@"
	case orgtree.Macro:
		return macro(pr.Key, pr.Args)
	case orgtree.TableCell:
		return p.objects(n.Children)
	case orgtree.Citation:
		return p.citation(n)
	case orgtree.CitationReference:
		return p.objects(pr.Prefix) + "@" + pr.Key + p.objects(pr.Suffix)
	}
	return ""
}

func (p printer) script(n *orgtree.Node) string {
	if n.Properties.UseBrackets {
		return "{" + p.objects(n.Children) + "}"
	}
	return p.objects(n.Children)
}

// macro writes "{{{name(a,b)}}}", protecting commas inside arguments.
func macro(name string, args []string) string {
	if len(args) == 0 {
		return "{{{" + name + "}}}"
	}
	escaped := make([]string, len(args))
	for i, a := range args {
		escaped[i] = strings.ReplaceAll(a, ",", `\,`)
	}
	return "{{{" + name + "(" + strings.Join(escaped, ",") + ")}}}"
}

func (p printer) citation(n *orgtree.Node) string {
	pr := n.Properties
	var sb strings.Builder
	sb.WriteString("[cite")
	if pr.Style != "" {
		sb.WriteString("/" + pr.Style)
	}
	sb.WriteString(":")
	if prefix := p.objects(pr.Prefix); prefix != "" {
		sb.WriteString(prefix + ";")
	}
	var refs []string
	for _, c := range n.Children {
		refs = append(refs, p.object(c))
	}
	sb.WriteString(strings.Join(refs, ";"))
	if suffix := p.objects(pr.Suffix); suffix != "" {
		sb.WriteString(";" + suffix)
	}
	sb.WriteString("]")
	return sb.String()
}

func (p printer) link(n *orgtree.Node) string {
	pr := n.Properties
	target := pr.RawLink
	if target == "" {
		target = linkTarget(pr.LinkType, pr.Path)
	}
	switch pr.Format {
	case "plain":
		return target
	case "angle":
		return "<" + target + ">"
	case "radio":
		return p.objects(n.Children)
	}
	if pr.LinkType == "radio" {
		if desc := p.objects(n.Children); desc != "" {
			return desc
		}
		return pr.Path
	}
	if len(n.Children) > 0 {
		return "[[" + target + "][" + p.objects(n.Children) + "]]"
	}
	return "[[" + target + "]]"
}

func linkTarget(linkType, path string) string {
	switch linkType {
	case "", "fuzzy":
		return path
	case "custom-id":
		return "#" + strings.TrimPrefix(path, "#")
	case "coderef":
		return "(" + path + ")"
	}
	return linkType + ":" + path
}
