package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func headlineTitle(h *orgtree.Node) string {
	return orgtree.Flatten(h.Properties.Title)
}

func sectionText(h *orgtree.Node) string {
	if h.Section == nil {
		return ""
	}
	return orgtree.Flatten(h.Section.Children)
}

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := doc.Keyword("TITLE"); got != "doc" {
		t.Errorf("expected title %q, got %q", "doc", got)
	}

	// Top-level: one h1 ("Title")
	if len(doc.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(doc.Children))
	}

	h1 := doc.Children[0]
	if headlineTitle(h1) != "Title" || h1.Properties.Level != 1 {
		t.Errorf("expected level 1 %q, got %d %q", "Title", h1.Properties.Level, headlineTitle(h1))
	}
	if !strings.Contains(sectionText(h1), "Intro text.") {
		t.Errorf("expected h1 section to contain %q, got %q", "Intro text.", sectionText(h1))
	}

	// h1 has two h2 children: "Section A" and "Section B"
	if len(h1.Children) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(h1.Children))
	}
	secA := h1.Children[0]
	if headlineTitle(secA) != "Section A" {
		t.Errorf("expected %q, got %q", "Section A", headlineTitle(secA))
	}
	if len(secA.Children) != 1 || headlineTitle(secA.Children[0]) != "Subsection A1" {
		t.Fatalf("expected Subsection A1 under Section A")
	}
	if secB := h1.Children[1]; headlineTitle(secB) != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", headlineTitle(secB))
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pre := doc.Preamble()
	if pre == nil || len(pre.Children) != 2 {
		t.Fatalf("expected a preamble with 2 paragraphs, got %+v", doc.Children)
	}
	for i, want := range []string{"Just some plain text.", "Another paragraph here."} {
		if got := orgtree.Flatten(pre.Children[i].Children); got != want {
			t.Errorf("paragraph %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestMarkdownParser_Blocks(t *testing.T) {
	input := "# API Reference\n\n" +
		"Some **bold** and *em* and `code` with a [link](https://go.dev) and ~~gone~~.\n\n" +
		"```go\nfmt.Println(1)\n```\n\n" +
		"> quoted\n\n" +
		"1. one\n2. two\n\n" +
		"- [x] done\n- [ ] todo\n\n" +
		"| a | b |\n|---|---|\n| 1 | 2 |\n\n" +
		"---\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 1 || doc.Children[0].Section == nil {
		t.Fatalf("expected one headline with a body")
	}
	body := doc.Children[0].Section.Children

	wantTypes := []orgtree.NodeType{
		orgtree.Paragraph, orgtree.SrcBlock, orgtree.QuoteBlock, orgtree.PlainList,
		orgtree.PlainList, orgtree.Table, orgtree.HorizontalRule,
	}
	if len(body) != len(wantTypes) {
		t.Fatalf("expected %d elements, got %d", len(wantTypes), len(body))
	}
	for i, w := range wantTypes {
		if body[i].Type != w {
			t.Errorf("element %d: expected %s, got %s", i, w, body[i].Type)
		}
	}

	var kinds []orgtree.NodeType
	for _, o := range body[0].Children {
		if o.Type != orgtree.PlainText {
			kinds = append(kinds, o.Type)
		}
	}
	wantKinds := []orgtree.NodeType{orgtree.Bold, orgtree.Italic, orgtree.Code, orgtree.Link, orgtree.StrikeThrough}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("expected objects %v, got %v", wantKinds, kinds)
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("object %d: expected %s, got %s", i, wantKinds[i], kinds[i])
		}
	}
	for _, o := range body[0].Children {
		if o.Type == orgtree.Link && (o.Properties.LinkType != "https" || o.Properties.Path != "//go.dev") {
			t.Errorf("unexpected link %+v", o.Properties)
		}
	}

	if src := body[1]; src.Properties.Language != "go" || src.Properties.Value != "fmt.Println(1)\n" {
		t.Errorf("unexpected src block %+v", src.Properties)
	}
	if body[3].Properties.ListType != "ordered" || len(body[3].Children) != 2 {
		t.Errorf("expected ordered list of 2")
	}
	tasks := body[4].Children
	if len(tasks) != 2 || tasks[0].Properties.Checkbox != "on" || tasks[1].Properties.Checkbox != "off" {
		t.Fatalf("expected checked and unchecked tasks")
	}
	if got := orgtree.Flatten(tasks[0].Children); got != "done" {
		t.Errorf("expected %q, got %q", "done", got)
	}
	rows := body[5].Children
	if len(rows) != 3 || rows[1].Properties.RowType != "rule" {
		t.Errorf("expected header, rule and one data row, got %d rows", len(rows))
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(doc.Children))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"docs/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if got := doc.Keyword("TITLE"); got != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, got)
		}
	}
}
