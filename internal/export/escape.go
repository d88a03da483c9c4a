package export

import (
	"strings"

	"golang.org/x/net/html"
)

// EscapeHTML escapes & < > " ' in plain text.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

const backslashPlaceholder = "\x00BACKSLASH\x00"

var latexReplacer = strings.NewReplacer(
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"{", `\{`,
	"}", `\}`,
	"^", `\textasciicircum{}`,
	"~", `\textasciitilde{}`,
)

// EscapeLaTeX escapes plain text for LaTeX. Backslashes are parked behind a
// placeholder first so the braces of \textbackslash{} are never escaped.
func EscapeLaTeX(s string) string {
	s = strings.ReplaceAll(s, `\`, backslashPlaceholder)
	s = latexReplacer.Replace(s)
	return strings.ReplaceAll(s, backslashPlaceholder, `\textbackslash{}`)
}
