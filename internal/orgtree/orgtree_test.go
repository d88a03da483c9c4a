package orgtree

import (
	"strings"
	"testing"
)

const sampleTree = `{
  "keywords": {"title": "Notes", "OPTIONS": "toc:2"},
  "keywordLists": {"latex_header": ["\\usepackage{a}", "\\usepackage{b}"]},
  "children": [
    {"type": "section", "properties": {}, "children": [
      {"type": "paragraph", "properties": {}, "children": [
        {"type": "plain-text", "properties": {"value": "Intro "}},
        {"type": "bold", "properties": {}, "children": [{"type": "plain-text", "properties": {"value": "text"}}]}
      ]}
    ]},
    {"type": "headline", "properties": {"level": 1, "rawValue": "First", "title": [{"type": "plain-text", "properties": {"value": "First"}}]},
     "section": {"type": "section", "properties": {}, "children": [
       {"type": "footnote-definition", "properties": {"label": "1"}, "children": []}
     ]},
     "children": [
       {"type": "headline", "properties": {"level": 2, "rawValue": "Nested"}}
     ]}
  ]
}`

func TestDecode(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Keyword("TITLE") != "Notes" {
		t.Errorf("expected title Notes, got %q", doc.Keyword("TITLE"))
	}
	if doc.Keyword("options") != "toc:2" {
		t.Errorf("expected options toc:2, got %q", doc.Keyword("options"))
	}
	headers := doc.KeywordList("LATEX_HEADER")
	if len(headers) != 2 || headers[1] != `\usepackage{b}` {
		t.Errorf("unexpected header list %v", headers)
	}
	if doc.Preamble() == nil {
		t.Fatal("expected preamble section")
	}
	hs := doc.Headlines()
	if len(hs) != 1 || HeadlineText(hs[0]) != "First" {
		t.Fatalf("unexpected headlines %+v", hs)
	}
	if hs[0].Section == nil || len(hs[0].Children) != 1 {
		t.Fatal("headline section and children must stay separate")
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode(strings.NewReader("{not json")); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestKeywordFallbacks(t *testing.T) {
	doc := &Document{}
	doc.SetKeyword("macro", "a one")
	doc.SetKeyword("MACRO", "b two")
	if doc.Keyword("MACRO") != "b two" {
		t.Errorf("expected last value to win, got %q", doc.Keyword("MACRO"))
	}
	if got := doc.KeywordList("macro"); len(got) != 2 {
		t.Errorf("expected 2 macro entries, got %v", got)
	}

	listOnly := &Document{KeywordLists: map[string][]string{"AUTHOR": {"x", "y"}}}
	if listOnly.Keyword("AUTHOR") != "y" || !listOnly.HasKeyword("author") {
		t.Errorf("expected keyword list fallback, got %q", listOnly.Keyword("AUTHOR"))
	}
}

func TestWalkOrder(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	var types []string
	Walk(doc.Children, func(n *Node) bool {
		types = append(types, string(n.Type))
		return true
	})
	want := "section paragraph plain-text bold plain-text headline plain-text section footnote-definition headline"
	if got := strings.Join(types, " "); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestWalkHeadlinesSkip(t *testing.T) {
	doc := &Document{Children: []*Node{
		NewHeadline(1, "A", nil, NewHeadline(2, "A.1", nil)),
		NewHeadline(1, "B", nil, NewHeadline(2, "B.1", nil)),
	}}
	var seen []string
	WalkHeadlines(doc.Children, func(h *Node, parents []*Node) bool {
		seen = append(seen, HeadlineText(h))
		return HeadlineText(h) != "A"
	})
	if got := strings.Join(seen, ","); got != "A,B,B.1" {
		t.Fatalf("expected A,B,B.1, got %q", got)
	}
}

func TestFlatten(t *testing.T) {
	nodes := []*Node{
		Text("see "),
		NewLink("https", "//example.com"),
		Text(" and "),
		NewLink("fuzzy", "*Intro", Object(Italic, Text("intro"))),
		{Type: Entity, Properties: Properties{Name: "alpha", UTF8: "α"}},
	}
	if got := Flatten(nodes); got != "see //example.com and introα" {
		t.Fatalf("unexpected plain text %q", got)
	}
}

func TestNodeTypeClassification(t *testing.T) {
	tests := []struct {
		t       NodeType
		element bool
		object  bool
	}{
		{Headline, true, false},
		{FixedWidth, true, false},
		{Bold, false, true},
		{Citation, false, true},
		{NodeType("mystery"), false, false},
	}
	for _, tt := range tests {
		if tt.t.IsElement() != tt.element || tt.t.IsObject() != tt.object {
			t.Errorf("%s: expected element=%v object=%v", tt.t, tt.element, tt.object)
		}
		if tt.t.Known() != (tt.element || tt.object) {
			t.Errorf("%s: Known mismatch", tt.t)
		}
	}
}
