package orgtree

// Text builds a plain-text object.
func Text(s string) *Node {
	return &Node{Type: PlainText, Properties: Properties{Value: s}}
}

// Object builds an inline object wrapping children.
func Object(t NodeType, children ...*Node) *Node {
	return &Node{Type: t, Children: children}
}

// NewParagraph builds a paragraph from inline objects.
func NewParagraph(objects ...*Node) *Node {
	return &Node{Type: Paragraph, Children: objects}
}

// NewSection builds a section from elements.
func NewSection(elements ...*Node) *Node {
	return &Node{Type: Section, Children: elements}
}

// NewHeadline builds a headline with a plain title, body and sub-headlines.
func NewHeadline(level int, title string, section *Node, children ...*Node) *Node {
	return &Node{
		Type: Headline,
		Properties: Properties{
			Level:    level,
			RawValue: title,
			Title:    []*Node{Text(title)},
		},
		Section:  section,
		Children: children,
	}
}

// NewSrcBlock builds a source block.
func NewSrcBlock(lang, params, code string) *Node {
	return &Node{Type: SrcBlock, Properties: Properties{Language: lang, Parameters: params, Value: code}}
}

// NewTable builds a table from rows of plain cell text. A nil row is a rule.
func NewTable(rows [][]string) *Node {
	tbl := &Node{Type: Table}
	for _, r := range rows {
		if r == nil {
			tbl.Children = append(tbl.Children, &Node{Type: TableRow, Properties: Properties{RowType: "rule"}})
			continue
		}
		row := &Node{Type: TableRow, Properties: Properties{RowType: "standard"}}
		for _, c := range r {
			row.Children = append(row.Children, &Node{Type: TableCell, Children: []*Node{Text(c)}})
		}
		tbl.Children = append(tbl.Children, row)
	}
	return tbl
}

// NewLink builds a link with an optional description.
func NewLink(linkType, path string, desc ...*Node) *Node {
	return &Node{Type: Link, Properties: Properties{LinkType: linkType, Path: path}, Children: desc}
}
