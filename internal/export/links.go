package export

import (
	"path"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// LinkKind classifies a resolved link.
type LinkKind int

const (
	LinkExternal LinkKind = iota
	LinkImage
	LinkInternal
	LinkCitation
	LinkCoderef
	LinkUnresolved
)

// ResolvedLink is a link after lookup against the state's registries.
type ResolvedLink struct {
	Kind   LinkKind
	URL    string
	Anchor string
	Keys   []string
	Style  string
}

var citeLinkStyles = map[string]string{
	"cite":        "",
	"autocite":    "",
	"citep":       "paren",
	"parencite":   "paren",
	"citet":       "text",
	"textcite":    "text",
	"citeauthor":  "author",
	"citeyear":    "year",
	"citeyearpar": "year",
	"nocite":      "nocite",
	"footcite":    "",
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// IsImagePath reports whether p names an inline image.
func IsImagePath(p string) bool {
	return imageExts[strings.ToLower(path.Ext(p))]
}

// ResolveLink classifies a link node and computes its destination.
func (s *State) ResolveLink(n *orgtree.Node) ResolvedLink {
	t := strings.ToLower(n.Properties.LinkType)
	p := n.Properties.Path
	hasDesc := len(n.Children) > 0

	if style, ok := citeLinkStyles[t]; ok {
		return ResolvedLink{Kind: LinkCitation, Keys: SplitCiteKeys(p), Style: style}
	}

	switch t {
	case "custom-id":
		id := strings.TrimPrefix(p, "#")
		if anchor, ok := s.CustomIDs[id]; ok {
			return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
		}
		return ResolvedLink{Kind: LinkUnresolved, Anchor: GenerateID(id)}
	case "id":
		if anchor, ok := s.CustomIDs[p]; ok {
			return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
		}
		return ResolvedLink{Kind: LinkUnresolved, Anchor: GenerateID(p)}
	case "radio":
		if anchor, ok := s.RadioTargets[p]; ok {
			return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
		}
		return ResolvedLink{Kind: LinkUnresolved, Anchor: GenerateID(p)}
	case "coderef":
		return ResolvedLink{Kind: LinkCoderef, Anchor: "coderef-" + p}
	case "fuzzy", "":
		if title, ok := strings.CutPrefix(p, "*"); ok {
			if anchor, ok := s.Targets[title]; ok {
				return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
			}
			return ResolvedLink{Kind: LinkUnresolved, Anchor: GenerateID(title)}
		}
		if anchor, ok := s.Targets[p]; ok {
			return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
		}
		if anchor, ok := s.RadioTargets[p]; ok {
			return ResolvedLink{Kind: LinkInternal, Anchor: anchor}
		}
		if !hasDesc && IsImagePath(p) {
			return ResolvedLink{Kind: LinkImage, URL: p}
		}
		if strings.Contains(p, "/") || strings.Contains(p, ".") {
			return ResolvedLink{Kind: LinkExternal, URL: p}
		}
		return ResolvedLink{Kind: LinkUnresolved, Anchor: GenerateID(p)}
	case "file":
		target := strings.TrimPrefix(p, "file:")
		if !hasDesc && IsImagePath(target) {
			return ResolvedLink{Kind: LinkImage, URL: target}
		}
		return ResolvedLink{Kind: LinkExternal, URL: target}
	case "doi":
		return ResolvedLink{Kind: LinkExternal, URL: "https://doi.org/" + p}
	}

	url := t + ":" + p
	if !hasDesc && IsImagePath(p) && (t == "http" || t == "https") {
		return ResolvedLink{Kind: LinkImage, URL: url}
	}
	return ResolvedLink{Kind: LinkExternal, URL: url}
}

// SplitCiteKeys splits "a,&b;@c" style key lists.
func SplitCiteKeys(s string) []string {
	var keys []string
	for _, k := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
		k = strings.TrimLeft(k, "&@")
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// CitationKeys returns the keys of a citation object's references.
func CitationKeys(n *orgtree.Node) []string {
	var keys []string
	for _, c := range n.Children {
		if c.Type == orgtree.CitationReference && c.Properties.Key != "" {
			keys = append(keys, c.Properties.Key)
		}
	}
	return keys
}

var citeStyleAliases = map[string]string{
	"p": "paren", "paren": "paren", "parencite": "paren",
	"t": "text", "text": "text", "textcite": "text",
	"a": "author", "author": "author",
	"y": "year", "year": "year",
	"na": "noauthor", "noauthor": "noauthor",
	"n": "nocite", "nocite": "nocite",
}

// CiteStyle normalizes a citation style such as "t/bare" to one of
// paren, text, author, year, noauthor, nocite or "".
func CiteStyle(style string) string {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(style)), "/")
	return citeStyleAliases[base]
}

// StandaloneLink returns the link of a paragraph that holds nothing but
// that link and whitespace.
func StandaloneLink(p *orgtree.Node) *orgtree.Node {
	var link *orgtree.Node
	for _, c := range p.Children {
		switch {
		case c.Type == orgtree.Link && link == nil:
			link = c
		case c.Type == orgtree.PlainText && strings.TrimSpace(c.Properties.Value) == "":
		default:
			return nil
		}
	}
	return link
}
