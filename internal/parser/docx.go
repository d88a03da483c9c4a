package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// DOCXParser handles .docx files.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	// go-docx needs a ReaderAt plus size.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := newOutline(titleFromFilename(filename))
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			objs := trimObjects(docxRuns(doc, it))
			if len(objs) == 0 {
				continue
			}
			style := paragraphStyle(it)
			switch level := docxHeadingLevel(style); {
			case strings.EqualFold(style, "Title"):
				out.retitle(orgtree.Flatten(objs))
			case level > 0:
				out.heading(level, objs)
			default:
				out.add(orgtree.NewParagraph(objs...))
			}
		case *docx.Table:
			out.add(docxTable(doc, it))
		}
	}
	return out.document(), nil
}

func paragraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel accepts both style IDs ("Heading2") and display names
// ("heading 2").
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if rest, ok := strings.CutPrefix(s, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '9' {
		return int(rest[0] - '0')
	}
	return 0
}

// docxRuns maps each run to plain text wrapped in the objects its
// character formatting implies.
func docxRuns(doc *docx.Docx, para *docx.Paragraph) []*orgtree.Node {
	var out []*orgtree.Node
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			out = append(out, styledRun(c)...)
		case *docx.Hyperlink:
			text := c.Run.InstrText + runText(&c.Run)
			target, err := doc.ReferTarget(c.ID)
			if err != nil || target == "" {
				out = append(out, orgtree.Text(text))
				continue
			}
			var desc []*orgtree.Node
			if text != "" && text != target {
				desc = []*orgtree.Node{orgtree.Text(text)}
			}
			out = append(out, linkNode(target, desc))
		}
	}
	return out
}

func runText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func styledRun(run *docx.Run) []*orgtree.Node {
	text := runText(run)
	if text == "" {
		return nil
	}
	props := run.RunProperties
	if props == nil {
		return []*orgtree.Node{orgtree.Text(text)}
	}
	if props.Fonts != nil && isMonospace(props.Fonts.ASCII) {
		return []*orgtree.Node{{Type: orgtree.Code, Properties: orgtree.Properties{Value: text}}}
	}
	node := orgtree.Text(text)
	wrap := func(t orgtree.NodeType) { node = orgtree.Object(t, node) }
	if props.VertAlign != nil {
		switch props.VertAlign.Val {
		case "subscript":
			wrap(orgtree.Subscript)
		case "superscript":
			wrap(orgtree.Superscript)
		}
	}
	if props.Strike != nil && props.Strike.Val != "false" && props.Strike.Val != "0" {
		wrap(orgtree.StrikeThrough)
	}
	if props.Underline != nil && props.Underline.Val != "none" {
		wrap(orgtree.Underline)
	}
	if props.Italic != nil {
		wrap(orgtree.Italic)
	}
	if props.Bold != nil {
		wrap(orgtree.Bold)
	}
	return []*orgtree.Node{node}
}

var monospaceFonts = map[string]bool{
	"courier new": true, "courier": true, "consolas": true, "menlo": true,
	"monaco": true, "lucida console": true, "source code pro": true,
}

func isMonospace(font string) bool {
	return monospaceFonts[strings.ToLower(font)]
}

// docxTable treats a first row made entirely of bold runs as the header.
func docxTable(doc *docx.Docx, t *docx.Table) *orgtree.Node {
	tbl := &orgtree.Node{Type: orgtree.Table}
	for i, r := range t.TableRows {
		row := &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "standard"}}
		allBold := len(r.TableCells) > 0
		for _, cell := range r.TableCells {
			var objs []*orgtree.Node
			for _, para := range cell.Paragraphs {
				if len(objs) > 0 {
					objs = append(objs, orgtree.Text(" "))
				}
				objs = append(objs, docxRuns(doc, para)...)
			}
			objs = trimObjects(objs)
			if len(objs) != 1 || objs[0].Type != orgtree.Bold {
				allBold = false
			}
			row.Children = append(row.Children, &orgtree.Node{Type: orgtree.TableCell, Children: objs})
		}
		if i == 0 && allBold && len(t.TableRows) > 1 {
			for _, c := range row.Children {
				c.Children = c.Children[0].Children
			}
			tbl.Children = append(tbl.Children, row, &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "rule"}})
			continue
		}
		tbl.Children = append(tbl.Children, row)
	}
	return tbl
}
