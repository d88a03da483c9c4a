package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// HTMLParser handles HTML files.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := titleFromFilename(filename)
	// Extract title from <title> tag if present.
	if t := findTitle(doc); t != "" {
		title = t
	}
	out := newOutline(title)

	w := htmlWalker{heading: out.heading}
	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		w.blocks(body, out.add)
	} else {
		w.blocks(doc, out.add)
	}
	return out.document(), nil
}

// htmlWalker turns block-level HTML into elements. Headings go to heading
// when set and become bold paragraphs otherwise.
type htmlWalker struct {
	heading func(level int, title []*orgtree.Node)
}

var inlineTags = map[string]bool{
	"a": true, "abbr": true, "b": true, "br": true, "cite": true, "code": true,
	"del": true, "em": true, "i": true, "img": true, "kbd": true, "mark": true,
	"q": true, "s": true, "samp": true, "small": true, "span": true, "strike": true,
	"strong": true, "sub": true, "sup": true, "time": true, "u": true, "var": true, "ins": true,
}

func (w htmlWalker) blocks(parent *html.Node, emit func(*orgtree.Node)) {
	var pending []*orgtree.Node
	flush := func() {
		if p := inlineParagraph(pending); p != nil {
			emit(p)
		}
		pending = nil
	}

	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		switch {
		case n.Type == html.TextNode:
			pending = append(pending, inlineHTML(n)...)
			continue
		case n.Type != html.ElementNode:
			continue
		case inlineTags[n.Data]:
			pending = append(pending, inlineHTML(n)...)
			continue
		}
		flush()

		if level := headingLevel(n.Data); level > 0 {
			title := trimObjects(inlineChildren(n))
			if w.heading != nil {
				w.heading(level, title)
			} else {
				emit(orgtree.NewParagraph(orgtree.Object(orgtree.Bold, title...)))
			}
			continue
		}

		// Skip non-content elements.
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "template", "noscript":
		case "p":
			if p := inlineParagraph(inlineChildren(n)); p != nil {
				emit(p)
			}
		case "pre":
			emit(preBlock(n))
		case "blockquote":
			nested := htmlWalker{}
			quote := &orgtree.Node{Type: orgtree.QuoteBlock}
			nested.blocks(n, func(e *orgtree.Node) { quote.Children = append(quote.Children, e) })
			emit(quote)
		case "ul", "ol":
			emit(w.list(n))
		case "dl":
			emit(w.descriptionList(n))
		case "table":
			emit(htmlTable(n))
		case "hr":
			emit(&orgtree.Node{Type: orgtree.HorizontalRule})
		default:
			w.blocks(n, emit)
		}
	}
	flush()
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func inlineChildren(n *html.Node) []*orgtree.Node {
	var out []*orgtree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, inlineHTML(c)...)
	}
	return out
}

// inlineHTML converts phrasing content, collapsing whitespace runs the way
// a browser would.
func inlineHTML(n *html.Node) []*orgtree.Node {
	if n.Type == html.TextNode {
		s := strings.Join(strings.Fields(n.Data), " ")
		if s == "" {
			if n.Data != "" {
				return []*orgtree.Node{orgtree.Text(" ")}
			}
			return nil
		}
		if isSpace(n.Data[0]) {
			s = " " + s
		}
		if isSpace(n.Data[len(n.Data)-1]) {
			s += " "
		}
		return []*orgtree.Node{orgtree.Text(s)}
	}
	if n.Type != html.ElementNode {
		return nil
	}
	wrap := func(t orgtree.NodeType) []*orgtree.Node {
		return []*orgtree.Node{orgtree.Object(t, trimObjects(inlineChildren(n))...)}
	}
	switch n.Data {
	case "b", "strong":
		return wrap(orgtree.Bold)
	case "i", "em", "cite", "var":
		return wrap(orgtree.Italic)
	case "u", "ins":
		return wrap(orgtree.Underline)
	case "s", "del", "strike":
		return wrap(orgtree.StrikeThrough)
	case "sub":
		return wrap(orgtree.Subscript)
	case "sup":
		return wrap(orgtree.Superscript)
	case "code", "kbd", "samp":
		return []*orgtree.Node{{Type: orgtree.Code, Properties: orgtree.Properties{Value: textContent(n)}}}
	case "br":
		return []*orgtree.Node{{Type: orgtree.LineBreak}}
	case "a":
		href := attr(n, "href")
		if href == "" {
			return inlineChildren(n)
		}
		return []*orgtree.Node{linkNode(href, trimObjects(inlineChildren(n)))}
	case "img":
		if src := attr(n, "src"); src != "" {
			return []*orgtree.Node{linkNode(src, nil)}
		}
		return nil
	case "script", "style":
		return nil
	}
	return inlineChildren(n)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}

// trimObjects strips whitespace at the edges of an object run.
func trimObjects(objs []*orgtree.Node) []*orgtree.Node {
	for len(objs) > 0 && objs[0].Type == orgtree.PlainText && strings.TrimSpace(objs[0].Properties.Value) == "" {
		objs = objs[1:]
	}
	for len(objs) > 0 && objs[len(objs)-1].Type == orgtree.PlainText && strings.TrimSpace(objs[len(objs)-1].Properties.Value) == "" {
		objs = objs[:len(objs)-1]
	}
	if len(objs) == 0 {
		return nil
	}
	if first := objs[0]; first.Type == orgtree.PlainText {
		objs[0] = orgtree.Text(strings.TrimLeft(first.Properties.Value, " "))
	}
	if last := objs[len(objs)-1]; last.Type == orgtree.PlainText {
		objs[len(objs)-1] = orgtree.Text(strings.TrimRight(last.Properties.Value, " "))
	}
	return objs
}

func inlineParagraph(objs []*orgtree.Node) *orgtree.Node {
	objs = trimObjects(objs)
	if len(objs) == 0 {
		return nil
	}
	return orgtree.NewParagraph(objs...)
}

// preBlock maps <pre><code class="language-x"> to a source block and any
// other <pre> to an example block.
func preBlock(n *html.Node) *orgtree.Node {
	body := strings.Trim(rawText(n), "\n") + "\n"
	if c := n.FirstChild; c != nil && c.Type == html.ElementNode && c.Data == "code" {
		for _, class := range strings.Fields(attr(c, "class")) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return orgtree.NewSrcBlock(lang, "", body)
			}
		}
	}
	return &orgtree.Node{Type: orgtree.ExampleBlock, Properties: orgtree.Properties{Value: body}}
}

func (w htmlWalker) list(n *html.Node) *orgtree.Node {
	list := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "unordered"}}
	if n.Data == "ol" {
		list.Properties.ListType = "ordered"
	}
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		item := &orgtree.Node{Type: orgtree.Item}
		htmlWalker{}.blocks(li, func(e *orgtree.Node) { item.Children = append(item.Children, e) })
		list.Children = append(list.Children, item)
	}
	return list
}

func (w htmlWalker) descriptionList(n *html.Node) *orgtree.Node {
	list := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "descriptive"}}
	var item *orgtree.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "dt":
			item = &orgtree.Node{Type: orgtree.Item, Properties: orgtree.Properties{ItemTag: trimObjects(inlineChildren(c))}}
			list.Children = append(list.Children, item)
		case "dd":
			if item == nil {
				item = &orgtree.Node{Type: orgtree.Item}
				list.Children = append(list.Children, item)
			}
			target := item
			htmlWalker{}.blocks(c, func(e *orgtree.Node) { target.Children = append(target.Children, e) })
		}
	}
	return list
}

// htmlTable puts a rule after the last leading row made of <th> cells.
func htmlTable(n *html.Node) *orgtree.Node {
	tbl := &orgtree.Node{Type: orgtree.Table}
	headerDone := false
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data != "tr" {
				walk(c)
				continue
			}
			row := &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "standard"}}
			header := true
			for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
				if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
					continue
				}
				header = header && cell.Data == "th"
				row.Children = append(row.Children, &orgtree.Node{Type: orgtree.TableCell, Children: trimObjects(inlineChildren(cell))})
			}
			if !header && !headerDone {
				headerDone = true
				if len(tbl.Children) > 0 {
					tbl.Children = append(tbl.Children, &orgtree.Node{Type: orgtree.TableRow, Properties: orgtree.Properties{RowType: "rule"}})
				}
			}
			tbl.Children = append(tbl.Children, row)
		}
	}
	walk(n)
	return tbl
}

func textContent(n *html.Node) string {
	return strings.TrimSpace(rawText(n))
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
