// Package parser imports foreign document formats into outline document
// trees. Headings become headlines, text blocks become paragraphs and the
// structure each format can express (lists, tables, code) is kept.
package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// ErrUnsupported is returned for file extensions no importer handles.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser converts raw document bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string) (*orgtree.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".json":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".json":
		return &TreeParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// titleFromFilename strips directories and the extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// outline assembles a document from a flat stream of headings and blocks,
// nesting headlines by level.
type outline struct {
	doc   *orgtree.Document
	stack []*orgtree.Node
}

func newOutline(title string) *outline {
	doc := &orgtree.Document{}
	if title != "" {
		doc.SetKeyword("TITLE", title)
	}
	return &outline{doc: doc}
}

// heading opens a headline at level, closing any open headline at the same
// level or deeper.
func (o *outline) heading(level int, title []*orgtree.Node) {
	for len(o.stack) > 0 && o.stack[len(o.stack)-1].Properties.Level >= level {
		o.stack = o.stack[:len(o.stack)-1]
	}
	h := &orgtree.Node{Type: orgtree.Headline, Properties: orgtree.Properties{
		Level:    level,
		RawValue: orgtree.Flatten(title),
		Title:    title,
	}}
	if len(o.stack) == 0 {
		o.doc.Children = append(o.doc.Children, h)
	} else {
		parent := o.stack[len(o.stack)-1]
		parent.Children = append(parent.Children, h)
	}
	o.stack = append(o.stack, h)
}

// add appends an element to the body of the open headline, or to the
// preamble before the first headline.
func (o *outline) add(n *orgtree.Node) {
	if n == nil {
		return
	}
	if len(o.stack) == 0 {
		if len(o.doc.Children) == 0 || o.doc.Children[0].Type != orgtree.Section {
			o.doc.Children = append([]*orgtree.Node{orgtree.NewSection()}, o.doc.Children...)
		}
		sec := o.doc.Children[0]
		sec.Children = append(sec.Children, n)
		return
	}
	h := o.stack[len(o.stack)-1]
	if h.Section == nil {
		h.Section = orgtree.NewSection()
	}
	h.Section.Children = append(h.Section.Children, n)
}

// retitle replaces the title taken from the filename.
func (o *outline) retitle(title string) {
	delete(o.doc.Keywords, "TITLE")
	delete(o.doc.KeywordLists, "TITLE")
	o.doc.SetKeyword("TITLE", title)
}

func (o *outline) document() *orgtree.Document { return o.doc }

// textParagraph builds a paragraph of plain text, or nil for blank input.
func textParagraph(s string) *orgtree.Node {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return orgtree.NewParagraph(orgtree.Text(s))
}

// linkNode classifies a URL-ish destination into an outline link.
func linkNode(dest string, desc []*orgtree.Node) *orgtree.Node {
	switch {
	case strings.HasPrefix(dest, "#"):
		return orgtree.NewLink("custom-id", strings.TrimPrefix(dest, "#"), desc...)
	case strings.HasPrefix(dest, "mailto:"):
		return orgtree.NewLink("mailto", strings.TrimPrefix(dest, "mailto:"), desc...)
	}
	if scheme, rest, ok := strings.Cut(dest, "://"); ok && scheme != "" && !strings.ContainsAny(scheme, "/.") {
		return orgtree.NewLink(strings.ToLower(scheme), "//"+rest, desc...)
	}
	return orgtree.NewLink("file", dest, desc...)
}
