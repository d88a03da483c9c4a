package interp

import (
	"testing"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func ts(tsType string, start, end *orgtree.Moment) *orgtree.Node {
	return &orgtree.Node{Type: orgtree.Timestamp, Properties: orgtree.Properties{
		TimestampType: tsType, Start: start, End: end,
	}}
}

func TestDocument(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewSection(orgtree.NewParagraph(orgtree.Text("intro"))),
		orgtree.NewHeadline(1, "One", nil),
	}}
	doc.SetKeyword("LATEX_HEADER", `\usepackage{a}`)
	doc.SetKeyword("TITLE", "Notes")
	doc.SetKeyword("LATEX_HEADER", `\usepackage{b}`)
	doc.SetKeyword("AUTHOR", "Ada")

	want := "#+TITLE: Notes\n#+AUTHOR: Ada\n#+LATEX_HEADER: \\usepackage{a}\n#+LATEX_HEADER: \\usepackage{b}\n\nintro\n* One\n"
	if got := Document(doc, Options{}); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHeadline(t *testing.T) {
	h := orgtree.NewHeadline(2, "Plan", nil)
	h.Properties.TodoKeyword = "TODO"
	h.Properties.Priority = "A"
	h.Properties.Tags = []string{"work", "urgent"}
	if got, want := Element(h, Options{}), "** TODO [#A] Plan :work:urgent:\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	h = orgtree.NewHeadline(1, "Draft", nil)
	h.Properties.Commented = true
	if got, want := Element(h, Options{}), "* COMMENT Draft\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestHeadlinePlanningAndProperties(t *testing.T) {
	planning := &orgtree.Node{Type: orgtree.Planning, Properties: orgtree.Properties{
		Scheduled: ts("active", &orgtree.Moment{Year: 2024, Month: 3, Day: 15}, nil),
	}}
	drawer := &orgtree.Node{Type: orgtree.PropertyDrawer, Children: []*orgtree.Node{
		{Type: orgtree.NodeProperty, Properties: orgtree.Properties{Key: "ID", Value: "x"}},
	}}
	h := orgtree.NewHeadline(1, "Task", orgtree.NewSection(planning, drawer))
	want := "* Task\nSCHEDULED: <2024-03-15 Fri>\n:PROPERTIES:\n:ID: x\n:END:\n"
	if got := Element(h, Options{}); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	h = orgtree.NewHeadline(1, "Intro", nil)
	h.Properties.NodeProperties = map[string]string{"CUSTOM_ID": "intro"}
	want = "* Intro\n:PROPERTIES:\n:CUSTOM_ID: intro\n:END:\n"
	if got := Element(h, Options{}); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTimestamp(t *testing.T) {
	morning := &orgtree.Moment{Year: 2024, Month: 3, Day: 15, Hour: 9, Minute: 30, HasTime: true, DayName: "Mon"}
	stale := ts("active", morning, nil)
	stale.Properties.RawValue = "<2024-03-15 Mon 09:30>"

	repeat := ts("active", &orgtree.Moment{Year: 2024, Month: 3, Day: 15}, nil)
	repeat.Properties.RepeaterType = "+"
	repeat.Properties.RepeaterValue = 1
	repeat.Properties.RepeaterUnit = "w"

	tests := []struct {
		name string
		node *orgtree.Node
		opts Options
		want string
	}{
		{"recomputed weekday", stale, Options{}, "<2024-03-15 Fri 09:30>"},
		{"preserved", stale, Options{PreserveTimestamps: true}, "<2024-03-15 Mon 09:30>"},
		{"same-day range", ts("active", morning, &orgtree.Moment{Year: 2024, Month: 3, Day: 15, Hour: 11, HasTime: true}), Options{}, "<2024-03-15 Fri 09:30-11:00>"},
		{"date range", ts("inactive-range", &orgtree.Moment{Year: 2024, Month: 1, Day: 1}, &orgtree.Moment{Year: 2024, Month: 1, Day: 2}), Options{}, "[2024-01-01 Mon]--[2024-01-02 Tue]"},
		{"repeater", repeat, Options{}, "<2024-03-15 Fri +1w>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Timestamp(tt.node, tt.opts); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestObjects(t *testing.T) {
	tests := []struct {
		name string
		node *orgtree.Node
		want string
	}{
		{"bold", orgtree.Object(orgtree.Bold, orgtree.Text("b")), "*b*"},
		{"italic", orgtree.Object(orgtree.Italic, orgtree.Text("i")), "/i/"},
		{"underline", orgtree.Object(orgtree.Underline, orgtree.Text("u")), "_u_"},
		{"strike", orgtree.Object(orgtree.StrikeThrough, orgtree.Text("s")), "+s+"},
		{"code", &orgtree.Node{Type: orgtree.Code, Properties: orgtree.Properties{Value: "x"}}, "~x~"},
		{"verbatim", &orgtree.Node{Type: orgtree.Verbatim, Properties: orgtree.Properties{Value: "v"}}, "=v="},
		{"post blank", &orgtree.Node{Type: orgtree.Bold, Properties: orgtree.Properties{PostBlank: 1}, Children: []*orgtree.Node{orgtree.Text("b")}}, "*b* "},
		{"external link", orgtree.NewLink("https", "//go.dev", orgtree.Text("Go")), "[[https://go.dev][Go]]"},
		{"headline link", orgtree.NewLink("fuzzy", "*Intro"), "[[*Intro]]"},
		{"custom id link", orgtree.NewLink("custom-id", "start"), "[[#start]]"},
		{"file link", orgtree.NewLink("file", "img/cat.png"), "[[file:img/cat.png]]"},
		{"plain link", &orgtree.Node{Type: orgtree.Link, Properties: orgtree.Properties{LinkType: "https", Path: "//go.dev", Format: "plain"}}, "https://go.dev"},
		{"entity", &orgtree.Node{Type: orgtree.Entity, Properties: orgtree.Properties{Name: "alpha", UseBrackets: true}}, `\alpha{}`},
		{"subscript", &orgtree.Node{Type: orgtree.Subscript, Properties: orgtree.Properties{UseBrackets: true}, Children: []*orgtree.Node{orgtree.Text("10")}}, "_{10}"},
		{"superscript", orgtree.Object(orgtree.Superscript, orgtree.Text("2")), "^2"},
		{"footnote", &orgtree.Node{Type: orgtree.FootnoteReference, Properties: orgtree.Properties{Label: "1"}}, "[fn:1]"},
		{"inline footnote", &orgtree.Node{Type: orgtree.FootnoteReference, Children: []*orgtree.Node{orgtree.Text("aside")}}, "[fn::aside]"},
		{"target", &orgtree.Node{Type: orgtree.Target, Properties: orgtree.Properties{Value: "here"}}, "<<here>>"},
		{"radio target", orgtree.Object(orgtree.RadioTarget, orgtree.Text("term")), "<<<term>>>"},
		{"line break", &orgtree.Node{Type: orgtree.LineBreak}, "\\\\\n"},
		{"inline src", &orgtree.Node{Type: orgtree.InlineSrcBlock, Properties: orgtree.Properties{Language: "python", Parameters: ":results value", Value: "1+1"}}, "src_python[:results value]{1+1}"},
		{"inline call", &orgtree.Node{Type: orgtree.InlineBabelCall, Properties: orgtree.Properties{Call: "square", Arguments: "x=4"}}, "call_square(x=4)"},
		{"export snippet", &orgtree.Node{Type: orgtree.ExportSnippet, Properties: orgtree.Properties{Backend: "html", Value: "<br>"}}, "@@html:<br>@@"},
		{"macro", &orgtree.Node{Type: orgtree.Macro, Properties: orgtree.Properties{Key: "kbd", Args: []string{"C-x", "a,b"}}}, `{{{kbd(C-x,a\,b)}}}`},
		{"bare macro", &orgtree.Node{Type: orgtree.Macro, Properties: orgtree.Properties{Key: "date"}}, "{{{date}}}"},
		{"unknown", &orgtree.Node{Type: "gizmo"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Object(tt.node, Options{}); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestCitation(t *testing.T) {
	cite := &orgtree.Node{Type: orgtree.Citation, Properties: orgtree.Properties{Style: "t"}, Children: []*orgtree.Node{
		{Type: orgtree.CitationReference, Properties: orgtree.Properties{Key: "knuth", Prefix: []*orgtree.Node{orgtree.Text("see ")}}},
		{Type: orgtree.CitationReference, Properties: orgtree.Properties{Key: "lamport", Suffix: []*orgtree.Node{orgtree.Text(", p. 3")}}},
	}}
	if got, want := Object(cite, Options{}), "[cite/t:see @knuth;@lamport, p. 3]"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBlocks(t *testing.T) {
	tests := []struct {
		name string
		node *orgtree.Node
		want string
	}{
		{
			"src with comma escapes",
			orgtree.NewSrcBlock("python", ":results output", "* not a headline\n#+END_SRC\ncode\n"),
			"#+BEGIN_SRC python :results output\n,* not a headline\n,#+END_SRC\ncode\n#+END_SRC\n",
		},
		{
			"example",
			&orgtree.Node{Type: orgtree.ExampleBlock, Properties: orgtree.Properties{Value: "raw"}},
			"#+BEGIN_EXAMPLE\nraw\n#+END_EXAMPLE\n",
		},
		{
			"quote",
			&orgtree.Node{Type: orgtree.QuoteBlock, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("wise"))}},
			"#+BEGIN_QUOTE\nwise\n#+END_QUOTE\n",
		},
		{
			"special",
			&orgtree.Node{Type: orgtree.SpecialBlock, Properties: orgtree.Properties{BlockType: "note"}, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("n"))}},
			"#+BEGIN_NOTE\nn\n#+END_NOTE\n",
		},
		{
			"export",
			&orgtree.Node{Type: orgtree.ExportBlock, Properties: orgtree.Properties{Backend: "html", Value: "<hr>"}},
			"#+BEGIN_EXPORT html\n<hr>\n#+END_EXPORT\n",
		},
		{
			"drawer",
			&orgtree.Node{Type: orgtree.Drawer, Properties: orgtree.Properties{DrawerName: "NOTES"}, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("x"))}},
			":NOTES:\nx\n:END:\n",
		},
		{
			"comment",
			&orgtree.Node{Type: orgtree.Comment, Properties: orgtree.Properties{Value: "a\n\nb"}},
			"# a\n#\n# b\n",
		},
		{
			"fixed width results",
			&orgtree.Node{Type: orgtree.FixedWidth, Properties: orgtree.Properties{Value: "42"}, Affiliated: &orgtree.Affiliated{Results: true}},
			"#+RESULTS:\n: 42\n",
		},
		{
			"keyword",
			&orgtree.Node{Type: orgtree.Keyword, Properties: orgtree.Properties{Key: "toc", Value: "headlines 2"}},
			"#+TOC: headlines 2\n",
		},
		{
			"rule",
			&orgtree.Node{Type: orgtree.HorizontalRule, Properties: orgtree.Properties{PostBlank: 1}},
			"-----\n\n",
		},
		{
			"footnote definition",
			&orgtree.Node{Type: orgtree.FootnoteDefinition, Properties: orgtree.Properties{Label: "1"}, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("source"))}},
			"[fn:1] source\n",
		},
		{
			"clock",
			&orgtree.Node{Type: orgtree.Clock, Properties: orgtree.Properties{Duration: "1:00",
				Timestamp: ts("inactive-range", &orgtree.Moment{Year: 2024, Month: 3, Day: 15, Hour: 9, HasTime: true}, &orgtree.Moment{Year: 2024, Month: 3, Day: 15, Hour: 10, HasTime: true})}},
			"CLOCK: [2024-03-15 Fri 09:00-10:00] =>  1:00\n",
		},
		{
			"unknown",
			&orgtree.Node{Type: "widget"},
			"# unknown: widget\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Element(tt.node, Options{}); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAffiliated(t *testing.T) {
	p := orgtree.NewParagraph(orgtree.NewLink("file", "img/cat.png"))
	p.Affiliated = &orgtree.Affiliated{
		Name:    "fig",
		Caption: []*orgtree.Node{orgtree.Text("A cat")},
		Attr:    map[string]string{"latex": ":width 5cm", "html": ":width 300"},
	}
	want := "#+NAME: fig\n#+CAPTION: A cat\n#+ATTR_HTML: :width 300\n#+ATTR_LATEX: :width 5cm\n[[file:img/cat.png]]\n"
	if got := Element(p, Options{}); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTable(t *testing.T) {
	tbl := orgtree.NewTable([][]string{{"a", "qty"}, nil, {"pen", "3"}})
	tbl.Properties.TBLFM = []string{"$2=vsum(@2..@>)"}
	want := "| a   | qty |\n|-----+-----|\n| pen | 3   |\n#+TBLFM: $2=vsum(@2..@>)\n"
	if got := Element(tbl, Options{}); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLists(t *testing.T) {
	inner := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "unordered"},
		Children: []*orgtree.Node{{Type: orgtree.Item, Properties: orgtree.Properties{Checkbox: "on"},
			Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("done"))}}}}
	ordered := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "ordered"},
		Children: []*orgtree.Node{
			{Type: orgtree.Item, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("first"))}},
			{Type: orgtree.Item, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("second")), inner}},
			{Type: orgtree.Item, Properties: orgtree.Properties{Counter: 7}, Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("seventh"))}},
		}}
	descriptive := &orgtree.Node{Type: orgtree.PlainList, Properties: orgtree.Properties{ListType: "descriptive"},
		Children: []*orgtree.Node{{Type: orgtree.Item, Properties: orgtree.Properties{ItemTag: []*orgtree.Node{orgtree.Text("term")}},
			Children: []*orgtree.Node{orgtree.NewParagraph(orgtree.Text("meaning"))}}}}

	tests := []struct {
		name string
		node *orgtree.Node
		want string
	}{
		{"ordered", ordered, "1. first\n2. second\n   - [X] done\n7. [@7] seventh\n"},
		{"descriptive", descriptive, "- term :: meaning\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Element(tt.node, Options{}); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestAdjacentParagraphsStaySeparate(t *testing.T) {
	sec := orgtree.NewSection(orgtree.NewParagraph(orgtree.Text("one")), orgtree.NewParagraph(orgtree.Text("two")))
	if got, want := Element(sec, Options{}), "one\n\ntwo\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
