package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

func TestHTMLParser_Structure(t *testing.T) {
	input := `<html><head><title>Guide</title><style>p{}</style></head><body>
<nav>skip me</nav>
<p>Lead <b>bold</b> and <a href="https://go.dev">Go</a>.</p>
<h1>Setup</h1>
<pre><code class="language-sh">  make build
</code></pre>
<h2>Details</h2>
<ul><li>one</li><li>two</li></ul>
<table><tr><th>k</th><th>v</th></tr><tr><td>a</td><td>1</td></tr></table>
<blockquote><h3>Note</h3><p>quoted</p></blockquote>
</body></html>`

	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Keyword("TITLE"); got != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", got)
	}

	pre := doc.Preamble()
	if pre == nil || len(pre.Children) != 1 {
		t.Fatalf("expected one preamble paragraph")
	}
	lead := pre.Children[0].Children
	if got := orgtree.Flatten(lead); got != "Lead bold and Go." {
		t.Errorf("expected %q, got %q", "Lead bold and Go.", got)
	}
	var sawBold, sawLink bool
	for _, o := range lead {
		sawBold = sawBold || o.Type == orgtree.Bold
		sawLink = sawLink || (o.Type == orgtree.Link && o.Properties.LinkType == "https")
	}
	if !sawBold || !sawLink {
		t.Errorf("expected bold and link objects, got %+v", lead)
	}

	heads := doc.Headlines()
	if len(heads) != 1 || headlineTitle(heads[0]) != "Setup" {
		t.Fatalf("expected a single top-level Setup headline")
	}
	setup := heads[0]
	src := setup.Section.Children[0]
	if src.Type != orgtree.SrcBlock || src.Properties.Language != "sh" || src.Properties.Value != "  make build\n" {
		t.Errorf("unexpected src block %+v", src.Properties)
	}

	if len(setup.Children) != 1 || headlineTitle(setup.Children[0]) != "Details" {
		t.Fatalf("expected Details under Setup")
	}
	body := setup.Children[0].Section.Children
	if len(body) != 3 {
		t.Fatalf("expected list, table and quote, got %d elements", len(body))
	}
	if body[0].Type != orgtree.PlainList || len(body[0].Children) != 2 {
		t.Errorf("expected 2-item list")
	}
	if rows := body[1].Children; len(rows) != 3 || rows[1].Properties.RowType != "rule" {
		t.Errorf("expected header row, rule and data row")
	}
	quote := body[2]
	if quote.Type != orgtree.QuoteBlock || len(quote.Children) != 2 {
		t.Fatalf("expected quote with 2 paragraphs, got %+v", quote)
	}
	if first := quote.Children[0].Children; len(first) != 1 || first[0].Type != orgtree.Bold {
		t.Errorf("expected nested heading as bold paragraph")
	}
}

func TestHTMLParser_Inline(t *testing.T) {
	tests := []struct {
		html string
		want orgtree.NodeType
	}{
		{"<em>x</em>", orgtree.Italic},
		{"<u>x</u>", orgtree.Underline},
		{"<del>x</del>", orgtree.StrikeThrough},
		{"<sub>x</sub>", orgtree.Subscript},
		{"<sup>x</sup>", orgtree.Superscript},
		{"<code>x</code>", orgtree.Code},
	}
	for _, tt := range tests {
		doc, err := (&HTMLParser{}).Parse(strings.NewReader("<p>"+tt.html+"</p>"), "x.html")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		objs := doc.Preamble().Children[0].Children
		if len(objs) != 1 || objs[0].Type != tt.want {
			t.Errorf("%s: expected %s, got %+v", tt.html, tt.want, objs)
		}
	}
}

func TestHTMLParser_DescriptionList(t *testing.T) {
	input := `<dl><dt>term</dt><dd>meaning</dd></dl>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "dl.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	list := doc.Preamble().Children[0]
	if list.Properties.ListType != "descriptive" || len(list.Children) != 1 {
		t.Fatalf("expected one descriptive item")
	}
	item := list.Children[0]
	if orgtree.Flatten(item.Properties.ItemTag) != "term" || orgtree.Flatten(item.Children[0].Children) != "meaning" {
		t.Errorf("unexpected item %+v", item)
	}
}

func TestLinkNode(t *testing.T) {
	tests := []struct {
		dest     string
		wantType string
		wantPath string
	}{
		{"#intro", "custom-id", "intro"},
		{"mailto:a@b.c", "mailto", "a@b.c"},
		{"HTTPS://go.dev/x", "https", "//go.dev/x"},
		{"img/a.png", "file", "img/a.png"},
		{"./a.b://c", "file", "./a.b://c"},
	}
	for _, tt := range tests {
		n := linkNode(tt.dest, nil)
		if n.Properties.LinkType != tt.wantType || n.Properties.Path != tt.wantPath {
			t.Errorf("linkNode(%q): expected %s %q, got %s %q", tt.dest, tt.wantType, tt.wantPath, n.Properties.LinkType, n.Properties.Path)
		}
	}
}
