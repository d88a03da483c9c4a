package orgtree

// NodeType tags every node of the tree.
type NodeType string

// Element types.
const (
	Headline           NodeType = "headline"
	Section            NodeType = "section"
	Paragraph          NodeType = "paragraph"
	SrcBlock           NodeType = "src-block"
	ExampleBlock       NodeType = "example-block"
	QuoteBlock         NodeType = "quote-block"
	CenterBlock        NodeType = "center-block"
	SpecialBlock       NodeType = "special-block"
	VerseBlock         NodeType = "verse-block"
	LatexEnvironment   NodeType = "latex-environment"
	Table              NodeType = "table"
	TableRow           NodeType = "table-row"
	PlainList          NodeType = "plain-list"
	Item               NodeType = "item"
	Drawer             NodeType = "drawer"
	PropertyDrawer     NodeType = "property-drawer"
	NodeProperty       NodeType = "node-property"
	Keyword            NodeType = "keyword"
	HorizontalRule     NodeType = "horizontal-rule"
	Comment            NodeType = "comment"
	CommentBlock       NodeType = "comment-block"
	FixedWidth         NodeType = "fixed-width"
	FootnoteDefinition NodeType = "footnote-definition"
	ExportBlock        NodeType = "export-block"
	Planning           NodeType = "planning"
	Clock              NodeType = "clock"
)

// Object types.
const (
	Bold              NodeType = "bold"
	Italic            NodeType = "italic"
	Underline         NodeType = "underline"
	StrikeThrough     NodeType = "strike-through"
	Code              NodeType = "code"
	Verbatim          NodeType = "verbatim"
	Link              NodeType = "link"
	Timestamp         NodeType = "timestamp"
	Entity            NodeType = "entity"
	LatexFragment     NodeType = "latex-fragment"
	Subscript         NodeType = "subscript"
	Superscript       NodeType = "superscript"
	FootnoteReference NodeType = "footnote-reference"
	StatisticsCookie  NodeType = "statistics-cookie"
	Target            NodeType = "target"
	RadioTarget       NodeType = "radio-target"
	LineBreak         NodeType = "line-break"
	PlainText         NodeType = "plain-text"
	InlineSrcBlock    NodeType = "inline-src-block"
	InlineBabelCall   NodeType = "inline-babel-call"
	ExportSnippet     NodeType = "export-snippet"
	Macro             NodeType = "macro"
	TableCell         NodeType = "table-cell"
	Citation          NodeType = "citation"
	CitationReference NodeType = "citation-reference"
)

var elementTypes = map[NodeType]bool{
	Headline: true, Section: true, Paragraph: true, SrcBlock: true,
	ExampleBlock: true, QuoteBlock: true, CenterBlock: true, SpecialBlock: true,
	VerseBlock: true, LatexEnvironment: true, Table: true, TableRow: true,
	PlainList: true, Item: true, Drawer: true, PropertyDrawer: true,
	NodeProperty: true, Keyword: true, HorizontalRule: true, Comment: true,
	CommentBlock: true, FixedWidth: true, FootnoteDefinition: true,
	ExportBlock: true, Planning: true, Clock: true,
}

var objectTypes = map[NodeType]bool{
	Bold: true, Italic: true, Underline: true, StrikeThrough: true, Code: true,
	Verbatim: true, Link: true, Timestamp: true, Entity: true, LatexFragment: true,
	Subscript: true, Superscript: true, FootnoteReference: true,
	StatisticsCookie: true, Target: true, RadioTarget: true, LineBreak: true,
	PlainText: true, InlineSrcBlock: true, InlineBabelCall: true,
	ExportSnippet: true, Macro: true, TableCell: true, Citation: true,
	CitationReference: true,
}

// IsElement reports whether t is a block-level type.
func (t NodeType) IsElement() bool { return elementTypes[t] }

// IsObject reports whether t is an inline type.
func (t NodeType) IsObject() bool { return objectTypes[t] }

// Known reports whether t belongs to the closed type enumeration.
func (t NodeType) Known() bool { return elementTypes[t] || objectTypes[t] }
