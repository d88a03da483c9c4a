package htmlexp

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/orgdoc/internal/export"
	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func render(t *testing.T, doc *orgtree.Document, ov export.Overrides) string {
	t.Helper()
	out, err := Backend{}.ExportDocument(doc, ov)
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	return string(out)
}

func parse(t *testing.T, s string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	return root
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// find returns every element node matching tag in document order.
func find(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(root)
	return out
}

func text(n *html.Node) string {
	var buf bytes.Buffer
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return buf.String()
}

func bodyOnly() export.Overrides {
	b := true
	return export.Overrides{BodyOnly: &b}
}

func para(objects ...*orgtree.Node) *orgtree.Node {
	return orgtree.NewParagraph(objects...)
}

func TestRegistered(t *testing.T) {
	for _, name := range []string{"html", "htm", "HTML"} {
		b, err := export.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if b.Name() != "html" {
			t.Errorf("expected html backend, got %q", b.Name())
		}
	}
}

func TestShell(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewSection(para(orgtree.Text("hello"))),
	}}
	doc.SetKeyword("TITLE", "My <Notes>")
	doc.SetKeyword("AUTHOR", "Ada")
	doc.SetKeyword("LANGUAGE", "de")
	doc.SetKeyword("HTML_HEAD", `<meta name="x" content="y" />`)

	out := render(t, doc, export.Overrides{})
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Fatalf("expected doctype, got %q", out[:40])
	}
	root := parse(t, out)

	htmls := find(root, "html")
	if len(htmls) != 1 || attr(htmls[0], "lang") != "de" {
		t.Errorf("expected lang de, got %q", attr(htmls[0], "lang"))
	}
	titles := find(root, "title")
	if len(titles) != 1 || text(titles[0]) != "My <Notes>" {
		t.Errorf("unexpected title %q", text(titles[0]))
	}
	var h1 string
	for _, h := range find(root, "h1") {
		if attr(h, "class") == "title" {
			h1 = text(h)
		}
	}
	if h1 != "My <Notes>" {
		t.Errorf("expected h1.title, got %q", h1)
	}
	var sawAuthor, sawHead bool
	for _, m := range find(root, "meta") {
		if attr(m, "name") == "author" && attr(m, "content") == "Ada" {
			sawAuthor = true
		}
		if attr(m, "name") == "x" {
			sawHead = true
		}
	}
	if !sawAuthor || !sawHead {
		t.Errorf("expected author meta and HTML_HEAD line, author=%v head=%v", sawAuthor, sawHead)
	}
	if strings.Contains(out, "MathJax") {
		t.Error("MathJax must not load without math")
	}
}

func TestLanguageTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"fr", "fr"},
		{"en-us", "en-US"},
		{"not a language!", "en"},
	}
	for _, tt := range tests {
		if got := languageTag(tt.in); got != tt.want {
			t.Errorf("languageTag(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestBodyOnly(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewSection(para(orgtree.Text("x"))),
	}}
	out := render(t, doc, bodyOnly())
	if strings.Contains(out, "<html") || strings.Contains(out, "<head") {
		t.Fatalf("body-only output carries a shell: %q", out)
	}
	if out != "<p>\nx</p>\n" {
		t.Errorf("expected bare paragraph, got %q", out)
	}
}

func TestHeadlineLinkResolution(t *testing.T) {
	intro := orgtree.NewHeadline(1, "Intro", orgtree.NewSection(para(orgtree.Text("text"))))
	intro.Properties.NodeProperties = map[string]string{"CUSTOM_ID": "start"}
	later := orgtree.NewHeadline(1, "Later", orgtree.NewSection(para(
		orgtree.NewLink("fuzzy", "*Intro"),
		orgtree.Text(" "),
		orgtree.NewLink("custom-id", "#start", orgtree.Text("back")),
	)))
	doc := &orgtree.Document{Children: []*orgtree.Node{intro, later}}

	root := parse(t, render(t, doc, bodyOnly()))
	ids := map[string]bool{}
	for _, h := range find(root, "h2") {
		ids[attr(h, "id")] = true
	}
	if !ids["org-intro"] || !ids["org-later"] {
		t.Fatalf("expected headline ids, got %v", ids)
	}
	links := find(root, "a")
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(links))
	}
	for _, a := range links {
		href := strings.TrimPrefix(attr(a, "href"), "#")
		if !ids[href] {
			t.Errorf("link %q does not resolve to a headline id", attr(a, "href"))
		}
	}
	if text(links[0]) != "Intro" {
		t.Errorf("expected description from path, got %q", text(links[0]))
	}
}

func TestHeadlineParts(t *testing.T) {
	h := orgtree.NewHeadline(1, "Task", nil)
	h.Properties.TodoKeyword = "TODO"
	h.Properties.TodoType = "todo"
	h.Properties.Priority = "A"
	h.Properties.Tags = []string{"work"}
	doc := &orgtree.Document{Children: []*orgtree.Node{h}}

	pri := true
	out := render(t, doc, export.Overrides{BodyOnly: bodyOnly().BodyOnly, Priority: &pri})
	for _, want := range []string{
		`<span class="section-number-2">1</span>`,
		`<span class="todo TODO">TODO</span>`,
		`<span class="priority">[A]</span>`,
		`<span class="tag"><span class="work">work</span></span>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}

	out = render(t, doc, bodyOnly())
	if strings.Contains(out, "priority") {
		t.Error("priority is off by default")
	}
}

func TestTagFiltering(t *testing.T) {
	draft := orgtree.NewHeadline(1, "Draft", orgtree.NewSection(para(orgtree.Text("secret"))))
	draft.Properties.Tags = []string{"draft"}
	doc := &orgtree.Document{Children: []*orgtree.Node{
		draft,
		orgtree.NewHeadline(1, "Public", nil),
	}}
	ov := bodyOnly()
	ov.SelectTags = []string{"draft"}
	ov.ExcludeTags = []string{"draft"}
	out := render(t, doc, ov)
	if strings.Contains(out, "secret") || strings.Contains(out, "Draft") {
		t.Fatalf("excluded headline rendered: %q", out)
	}

	commented := orgtree.NewHeadline(1, "Hidden", nil)
	commented.Properties.Commented = true
	out = render(t, &orgtree.Document{Children: []*orgtree.Node{commented}}, bodyOnly())
	if strings.Contains(out, "Hidden") {
		t.Fatalf("commented headline rendered: %q", out)
	}
}

func TestTOC(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewHeadline(1, "One", nil, orgtree.NewHeadline(2, "One A", nil)),
		orgtree.NewHeadline(1, "Two", nil),
	}}
	doc.SetKeyword("OPTIONS", "toc:t")
	root := parse(t, render(t, doc, bodyOnly()))

	var toc *html.Node
	for _, d := range find(root, "div") {
		if attr(d, "id") == "table-of-contents" {
			toc = d
		}
	}
	if toc == nil {
		t.Fatal("expected table of contents")
	}
	var hrefs []string
	for _, a := range find(toc, "a") {
		hrefs = append(hrefs, attr(a, "href"))
	}
	if got := strings.Join(hrefs, " "); got != "#org-one #org-one-a #org-two" {
		t.Errorf("unexpected toc links %q", got)
	}
	if n := len(find(toc, "ul")); n != 2 {
		t.Errorf("expected nested list, got %d ul", n)
	}
}

func TestTOCKeyword(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewSection(&orgtree.Node{Type: orgtree.Keyword, Properties: orgtree.Properties{Key: "TOC", Value: "headlines 1"}}),
		orgtree.NewHeadline(1, "One", nil, orgtree.NewHeadline(2, "Sub", nil)),
	}}
	out := render(t, doc, bodyOnly())
	if !strings.Contains(out, `href="#org-one"`) {
		t.Errorf("expected in-place toc, got %q", out)
	}
	if strings.Contains(out, `href="#org-sub"`) {
		t.Errorf("depth 1 must leave out level 2: %q", out)
	}
}

func TestDeepHeadline(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{
		orgtree.NewHeadline(1, "Top", nil, orgtree.NewHeadline(2, "Deep", nil)),
	}}
	doc.SetKeyword("OPTIONS", "H:1")
	out := render(t, doc, bodyOnly())
	if !strings.Contains(out, `<ul class="org-deep">`) {
		t.Fatalf("expected deep headline as list, got %q", out)
	}
	if strings.Contains(out, "1.1") {
		t.Errorf("deep headline must not be numbered: %q", out)
	}
}

func TestExportsPairing(t *testing.T) {
	results := func(v string) *orgtree.Node {
		return &orgtree.Node{Type: orgtree.FixedWidth, Properties: orgtree.Properties{Value: v}}
	}
	tests := []struct {
		name     string
		params   string
		wantCode bool
		wantRes  bool
	}{
		{"none", ":exports none", false, false},
		{"code", ":exports code", true, false},
		{"results", ":exports results", false, true},
		{"both", "", true, true},
	}
	for _, tt := range tests {
		doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(
			orgtree.NewSrcBlock("python", tt.params, "print(42)"),
			results("42"),
			para(orgtree.Text("after")),
		)}}
		out := render(t, doc, bodyOnly())
		if got := strings.Contains(out, "print(42)"); got != tt.wantCode {
			t.Errorf("%s: code shown=%v, expected %v", tt.name, got, tt.wantCode)
		}
		if got := strings.Contains(out, `<pre class="example">`); got != tt.wantRes {
			t.Errorf("%s: results shown=%v, expected %v", tt.name, got, tt.wantRes)
		}
		if !strings.Contains(out, "after") {
			t.Errorf("%s: following paragraph lost", tt.name)
		}
	}

	// Without a results block the armed signal does not hide unrelated content.
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(
		orgtree.NewSrcBlock("sh", ":exports none", "ls"),
		para(orgtree.Text("next")),
		results("later output"),
	)}}
	out := render(t, doc, bodyOnly())
	if !strings.Contains(out, "next") {
		t.Errorf("unrelated paragraph suppressed: %q", out)
	}
}

func TestUnknownNode(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(
		para(orgtree.Text("before")),
		&orgtree.Node{Type: "mystery-block"},
		para(orgtree.Text("after"), &orgtree.Node{Type: "mystery-object"}),
	)}}
	out := render(t, doc, bodyOnly())
	for _, want := range []string{"before", "after", "<!-- unsupported element: mystery-block -->", "<!-- unsupported object: mystery-object -->"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestEscaping(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(
		para(orgtree.Text(`<script>alert("x") & 'y'</script>`)),
		orgtree.NewSrcBlock("html", "", "<b>raw</b>"),
	)}}
	out := render(t, doc, bodyOnly())
	if strings.Contains(out, "<script>") || strings.Contains(out, "<b>raw") {
		t.Fatalf("unescaped markup in %q", out)
	}
	root := parse(t, out)
	if got := text(find(root, "p")[0]); !strings.Contains(got, `<script>alert("x") & 'y'</script>`) {
		t.Errorf("text did not survive escaping: %q", got)
	}
}

func TestFootnotes(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(
		para(
			orgtree.Text("a"),
			&orgtree.Node{Type: orgtree.FootnoteReference, Properties: orgtree.Properties{Label: "n"}},
			orgtree.Text(" b"),
			&orgtree.Node{Type: orgtree.FootnoteReference, Properties: orgtree.Properties{Label: "n"}},
		),
		&orgtree.Node{Type: orgtree.FootnoteDefinition, Properties: orgtree.Properties{Label: "n"},
			Children: []*orgtree.Node{para(orgtree.Text("the note"))}},
	)}}
	out := render(t, doc, bodyOnly())
	for _, want := range []string{`id="fnr.1"`, `id="fnr.1.2"`, `id="fn.1"`, "the note"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}

	doc.SetKeyword("OPTIONS", "f:nil")
	out = render(t, doc, bodyOnly())
	if strings.Contains(out, "footnotes") || strings.Contains(out, "fnr.") {
		t.Errorf("footnotes disabled but rendered: %q", out)
	}
}

func TestCitations(t *testing.T) {
	cite := &orgtree.Node{Type: orgtree.Citation, Properties: orgtree.Properties{Style: "t"},
		Children: []*orgtree.Node{
			{Type: orgtree.CitationReference, Properties: orgtree.Properties{Key: "knuth84"}},
		}}
	nocite := &orgtree.Node{Type: orgtree.Citation, Properties: orgtree.Properties{Style: "n"},
		Children: []*orgtree.Node{
			{Type: orgtree.CitationReference, Properties: orgtree.Properties{Key: "lamport94"}},
		}}
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(para(
		orgtree.Text("see "), cite, orgtree.Text(" and "), orgtree.NewLink("cite", "knuth84"), nocite,
	))}}
	ov := bodyOnly()
	ov.BibEntries = map[string]string{"knuth84": "Knuth, The TeXbook"}
	root := parse(t, render(t, doc, ov))

	var refs []string
	for _, li := range find(root, "li") {
		refs = append(refs, attr(li, "id"))
	}
	if got := strings.Join(refs, " "); got != "ref-knuth84 ref-lamport94" {
		t.Fatalf("unexpected bibliography %q", got)
	}
	var backlinks int
	for _, a := range find(root, "a") {
		if attr(a, "class") == "citation-backlink" {
			backlinks++
		}
	}
	if backlinks != 2 {
		t.Errorf("expected 2 backlinks, got %d", backlinks)
	}
	if !strings.Contains(text(root), "Knuth, The TeXbook") {
		t.Error("expected bibliography entry text")
	}
}

func TestMathLoadsMathJax(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(para(
		&orgtree.Node{Type: orgtree.LatexFragment, Properties: orgtree.Properties{Value: `\(x^2\)`}},
	))}}
	out := render(t, doc, export.Overrides{})
	if !strings.Contains(out, mathJaxURL) {
		t.Fatal("expected MathJax script")
	}
}

func TestImageFigure(t *testing.T) {
	p := para(orgtree.NewLink("file", "img/cat.png"))
	p.Affiliated = &orgtree.Affiliated{
		Name:    "fig-cat",
		Caption: []*orgtree.Node{orgtree.Text("A cat")},
		Attr:    map[string]string{"html": ":width 300 :alt Sleeping cat"},
	}
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(p)}}
	root := parse(t, render(t, doc, bodyOnly()))
	imgs := find(root, "img")
	if len(imgs) != 1 {
		t.Fatalf("expected one image, got %d", len(imgs))
	}
	if attr(imgs[0], "src") != "img/cat.png" || attr(imgs[0], "alt") != "Sleeping cat" || attr(imgs[0], "width") != "300" {
		t.Errorf("unexpected image attributes %v", imgs[0].Attr)
	}
	if !strings.Contains(text(root), "A cat") {
		t.Error("expected caption")
	}
}

func TestTable(t *testing.T) {
	tbl := orgtree.NewTable([][]string{{"name", "qty"}, nil, {"pen", "3"}})
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(tbl)}}
	root := parse(t, render(t, doc, bodyOnly()))
	if n := len(find(root, "th")); n != 2 {
		t.Errorf("expected 2 header cells, got %d", n)
	}
	tds := find(root, "td")
	if len(tds) != 2 || text(tds[0]) != "pen" {
		t.Errorf("unexpected body cells")
	}
}

func TestMacro(t *testing.T) {
	doc := &orgtree.Document{Children: []*orgtree.Node{orgtree.NewSection(para(
		&orgtree.Node{Type: orgtree.Macro, Properties: orgtree.Properties{Key: "greet", Args: []string{"Bob"}}},
		orgtree.Text(" "),
		&orgtree.Node{Type: orgtree.Macro, Properties: orgtree.Properties{Key: "missing"}},
	))}}
	doc.SetKeyword("MACRO", "greet Hello, $1!")
	out := render(t, doc, bodyOnly())
	if !strings.Contains(out, "Hello, Bob!") || !strings.Contains(out, "{{{missing}}}") {
		t.Errorf("unexpected macro output %q", out)
	}
}
