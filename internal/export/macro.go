package export

import (
	"strconv"
	"strings"
)

// ExpandMacro expands a macro call to plain text. Built-ins come first,
// then user definitions with $1..$n placeholders. Unknown macros report
// false.
func (s *State) ExpandMacro(name string, args []string) (string, bool) {
	o := s.Options
	switch strings.ToLower(name) {
	case "title":
		return o.Title, true
	case "author":
		return o.Author, true
	case "date":
		return o.Date, true
	case "email":
		return o.Email, true
	case "keyword":
		if len(args) == 0 {
			return "", true
		}
		return s.Keywords[strings.ToUpper(strings.TrimSpace(args[0]))], true
	}
	body, ok := o.Macros[name]
	if !ok {
		return "", false
	}
	// Replace higher indexes first so $1 does not eat the prefix of $10.
	for i := len(args); i >= 1; i-- {
		body = strings.ReplaceAll(body, "$"+strconv.Itoa(i), strings.TrimSpace(args[i-1]))
	}
	for i := len(args) + 1; i <= 9; i++ {
		body = strings.ReplaceAll(body, "$"+strconv.Itoa(i), "")
	}
	return body, true
}

// MacroSource renders an unexpanded macro call.
func MacroSource(name string, args []string) string {
	if len(args) == 0 {
		return "{{{" + name + "}}}"
	}
	return "{{{" + name + "(" + strings.Join(args, ",") + ")}}}"
}
