package htmlexp

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"

	"github.com/dgallion1/orgdoc/internal/export"
)

const mathJaxURL = "https://cdn.jsdelivr.net/npm/mathjax@3/es5/tex-mml-chtml.js"

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8" />
<meta name="viewport" content="width=device-width, initial-scale=1" />
<title>{{.Title}}</title>
{{- if .Author}}
<meta name="author" content="{{.Author}}" />
{{- end}}
<meta name="generator" content="orgdoc" />
{{- if .Stylesheet}}
<link rel="stylesheet" type="text/css" href="{{.Stylesheet}}" />
{{- else}}
<style>
  #content { max-width: 60em; margin: auto; }
  .title { text-align: center; margin-bottom: .2em; }
  .todo { font-family: monospace; color: red; }
  .done { font-family: monospace; color: green; }
  .priority { font-family: monospace; color: orange; }
  .tag { background-color: #eee; font-family: monospace; padding: 2px; font-size: 80%; font-weight: normal; }
  .underline { text-decoration: underline; }
  .timestamp { color: #bebebe; }
  pre.src, pre.example { border: 1px solid #e6e6e6; padding: 8pt; overflow: auto; }
  .figure { padding: 1em; }
  .footdef { margin-bottom: 1em; }
  .org-center { margin-left: auto; margin-right: auto; text-align: center; }
  .equation-container { display: table; text-align: center; width: 100%; }
  table { border-collapse: collapse; }
  caption.t-above { caption-side: top; }
</style>
{{- end}}
{{- range .Head}}
{{.}}
{{- end}}
{{- if .Math}}
<script>
  window.MathJax = {
    tex: {
      inlineMath: [['\\(', '\\)'], ['$', '$']],
      displayMath: [['\\[', '\\]'], ['$$', '$$']]
    }
  };
</script>
<script id="MathJax-script" async src="{{.MathJax}}"></script>
{{- end}}
</head>
<body>
<div id="content" class="content">
{{- if .ShowTitle}}
<h1 class="title">{{.Title}}</h1>
{{- end}}
{{.Body}}
</div>
<div id="postamble" class="status">
{{- if .Author}}
<p class="author">Author: {{.Author}}</p>
{{- end}}
{{- if .Email}}
<p class="email">Email: <a href="mailto:{{.Email}}">{{.Email}}</a></p>
{{- end}}
{{- if .Date}}
<p class="date">Date: {{.Date}}</p>
{{- end}}
</div>
</body>
</html>
`))

type shellData struct {
	Lang       string
	Title      string
	ShowTitle  bool
	Author     string
	Email      string
	Date       string
	Stylesheet string
	Head       []template.HTML
	Math       bool
	MathJax    string
	Body       template.HTML
}

func (r *renderer) shell(body string) ([]byte, error) {
	o := r.st.Options
	data := shellData{
		Lang:       languageTag(o.Language),
		Title:      o.Title,
		ShowTitle:  o.WithTitle && o.Title != "",
		Stylesheet: o.Stylesheet,
		Math:       r.st.UsedMath(),
		MathJax:    mathJaxURL,
		Body:       template.HTML(body),
	}
	if o.WithAuthor {
		data.Author = o.Author
	}
	if o.WithEmail {
		data.Email = o.Email
	}
	if o.WithDate {
		data.Date = o.Date
	}
	for _, h := range o.HTMLHead {
		data.Head = append(data.Head, template.HTML(h))
	}

	var buf bytes.Buffer
	if err := shellTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering html shell: %w", err)
	}
	return buf.Bytes(), nil
}

// languageTag canonicalizes the LANGUAGE keyword for the lang attribute.
func languageTag(s string) string {
	if s == "" {
		return "en"
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "en"
	}
	return tag.String()
}

func (r *renderer) toc(entries []export.TOCEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<div id=\"table-of-contents\" role=\"doc-toc\">\n<h2>Table of Contents</h2>\n")
	sb.WriteString("<div id=\"text-table-of-contents\" role=\"doc-toc\">")
	var levels []int
	for _, e := range entries {
		switch {
		case len(levels) == 0 || e.Level > levels[len(levels)-1]:
			sb.WriteString("\n<ul>\n")
			levels = append(levels, e.Level)
		default:
			for len(levels) > 0 && e.Level < levels[len(levels)-1] {
				sb.WriteString("</li>\n</ul>\n")
				levels = levels[:len(levels)-1]
			}
			if len(levels) == 0 {
				sb.WriteString("\n<ul>\n")
				levels = append(levels, e.Level)
			} else {
				sb.WriteString("</li>\n")
			}
		}
		fmt.Fprintf(&sb, "<li><a href=\"#%s\">%s</a>", e.ID, r.objects(e.Title))
	}
	for range levels {
		sb.WriteString("</li>\n</ul>\n")
	}
	sb.WriteString("</div>\n</div>\n")
	return sb.String()
}

func (r *renderer) footnotes() string {
	if !r.st.Options.Footnotes || len(r.st.FootnoteOrder) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<div id=\"footnotes\">\n<h2 class=\"footnotes\">Footnotes</h2>\n<div id=\"text-footnotes\">\n")
	// Definitions may reference further footnotes, which grows the order.
	for i := 0; i < len(r.st.FootnoteOrder); i++ {
		fn := r.st.Footnotes[r.st.FootnoteOrder[i]]
		fmt.Fprintf(&sb, "<div class=\"footdef\"><sup><a id=\"fn.%d\" class=\"footnum\" href=\"#fnr.%d\" role=\"doc-backlink\">%d</a></sup> ",
			fn.Number, fn.Number, fn.Number)
		fmt.Fprintf(&sb, "<div class=\"footpara\" role=\"doc-footnote\">%s</div></div>\n", r.nodes(fn.Definition))
	}
	sb.WriteString("</div>\n</div>\n")
	return sb.String()
}

func (r *renderer) bibliography() string {
	if len(r.st.CitationOrder) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<div id=\"bibliography\">\n<h2>References</h2>\n<ul class=\"org-bibliography\">\n")
	for _, key := range r.st.CitationOrder {
		entry := r.st.Options.BibEntries[key]
		if entry == "" {
			entry = key
		}
		fmt.Fprintf(&sb, "<li id=\"ref-%s\">%s", esc(key), esc(entry))
		for _, id := range r.st.Citations[key] {
			fmt.Fprintf(&sb, " <a href=\"#%s\" class=\"citation-backlink\">&#8617;</a>", id)
		}
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ul>\n</div>\n")
	return sb.String()
}
