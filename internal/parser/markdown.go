package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// MarkdownParser handles Markdown files using goldmark with the GitHub
// extensions (tables, strikethrough, task lists).
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	reader := text.NewReader(src)
	doc := md.Parser().Parse(reader)

	c := mdConverter{src: src}
	out := newOutline(titleFromFilename(filename))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			out.heading(h.Level, c.inlines(h))
			continue
		}
		out.add(c.block(n))
	}
	return out.document(), nil
}

type mdConverter struct {
	src []byte
}

func (c mdConverter) blocks(parent ast.Node) []*orgtree.Node {
	var out []*orgtree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (c mdConverter) block(n ast.Node) *orgtree.Node {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		objs := c.inlines(node)
		if len(objs) == 0 {
			return nil
		}
		return orgtree.NewParagraph(objs...)
	case *ast.Heading:
		// Headings nested in quotes or lists cannot become headlines.
		return orgtree.NewParagraph(orgtree.Object(orgtree.Bold, c.inlines(node)...))
	case *ast.FencedCodeBlock:
		return orgtree.NewSrcBlock(string(node.Language(c.src)), "", c.lines(node))
	case *ast.CodeBlock:
		return &orgtree.Node{Type: orgtree.ExampleBlock, Properties: orgtree.Properties{Value: c.lines(node)}}
	case *ast.Blockquote:
		return &orgtree.Node{Type: orgtree.QuoteBlock, Children: c.blocks(node)}
	case *ast.List:
		return c.list(node)
	case *ast.ThematicBreak:
		return &orgtree.Node{Type: orgtree.HorizontalRule}
	case *ast.HTMLBlock:
		return &orgtree.Node{Type: orgtree.ExportBlock, Properties: orgtree.Properties{Backend: "html", Value: c.lines(node)}}
	case *east.Table:
		return c.table(node)
	}
	return nil
}

func (c mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(c.src))
	}
	return buf.String()
}

func (c mdConverter) list(l *ast.List) *orgtree.Node {
	list := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "unordered"}}
	if l.IsOrdered() {
		list.Properties.ListType = "ordered"
	}
	for li := l.FirstChild(); li != nil; li = li.NextSibling() {
		item := &orgtree.Node{Type: orgtree.Item}
		if l.IsOrdered() && li == l.FirstChild() && l.Start > 1 {
			item.Properties.Counter = l.Start
		}
		for b := li.FirstChild(); b != nil; b = b.NextSibling() {
			conv := c.block(b)
			if box := taskCheckbox(b); box != "" {
				item.Properties.Checkbox = box
				trimLeading(conv)
			}
			if conv != nil {
				item.Children = append(item.Children, conv)
			}
		}
		list.Children = append(list.Children, item)
	}
	return list
}

// taskCheckbox reads a GFM "[x]" marker at the start of a list item block.
func taskCheckbox(b ast.Node) string {
	if b.FirstChild() == nil {
		return ""
	}
	box, ok := b.FirstChild().(*east.TaskCheckBox)
	if !ok {
		return ""
	}
	if box.IsChecked {
		return "on"
	}
	return "off"
}

// trimLeading strips the space a task marker leaves before the item text.
func trimLeading(p *orgtree.Node) {
	if p == nil || len(p.Children) == 0 || p.Children[0].Type != orgtree.PlainText {
		return
	}
	p.Children[0].Properties.Value = strings.TrimLeft(p.Children[0].Properties.Value, " ")
}

func (c mdConverter) table(t *east.Table) *orgtree.Node {
	tbl := &orgtree.Node{Type: orgtree.Table}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		row := &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "standard"}}
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row.Children = append(row.Children, &orgtree.Node{Type: orgtree.TableCell, Children: c.inlines(cell)})
		}
		tbl.Children = append(tbl.Children, row)
		if _, ok := r.(*east.TableHeader); ok {
			tbl.Children = append(tbl.Children, &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "rule"}})
		}
	}
	return tbl
}

func (c mdConverter) inlines(parent ast.Node) []*orgtree.Node {
	var out []*orgtree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.inline(n)...)
	}
	return out
}

func (c mdConverter) inline(n ast.Node) []*orgtree.Node {
	switch node := n.(type) {
	case *ast.Text:
		s := string(node.Value(c.src))
		switch {
		case node.HardLineBreak():
			return []*orgtree.Node{orgtree.Text(s), {Type: orgtree.LineBreak}}
		case node.SoftLineBreak():
			s += "\n"
		}
		return []*orgtree.Node{orgtree.Text(s)}
	case *ast.String:
		return []*orgtree.Node{orgtree.Text(string(node.Value))}
	case *ast.Emphasis:
		t := orgtree.Italic
		if node.Level >= 2 {
			t = orgtree.Bold
		}
		return []*orgtree.Node{orgtree.Object(t, c.inlines(node)...)}
	case *east.Strikethrough:
		return []*orgtree.Node{orgtree.Object(orgtree.StrikeThrough, c.inlines(node)...)}
	case *ast.CodeSpan:
		var buf bytes.Buffer
		for t := node.FirstChild(); t != nil; t = t.NextSibling() {
			if seg, ok := t.(*ast.Text); ok {
				buf.Write(seg.Value(c.src))
			}
		}
		return []*orgtree.Node{{Type: orgtree.Code, Properties: orgtree.Properties{Value: buf.String()}}}
	case *ast.Link:
		return []*orgtree.Node{linkNode(string(node.Destination), c.inlines(node))}
	case *ast.AutoLink:
		return []*orgtree.Node{linkNode(string(node.URL(c.src)), nil)}
	case *ast.Image:
		return []*orgtree.Node{linkNode(string(node.Destination), nil)}
	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(c.src))
		}
		return []*orgtree.Node{{Type: orgtree.ExportSnippet, Properties: orgtree.Properties{Backend: "html", Value: buf.String()}}}
	case *east.TaskCheckBox:
		return nil
	}
	return c.inlines(n)
}
