package export

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
	"gopkg.in/yaml.v3"
)

// TOC controls table-of-contents generation. Depth 0 means "down to the
// headline cutoff".
type TOC struct {
	Enabled bool
	Depth   int
}

// UnmarshalJSON accepts either a boolean or an integer depth.
func (t *TOC) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = TOC{Enabled: b}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("toc must be a boolean or a depth: %w", err)
	}
	*t = TOC{Enabled: n > 0, Depth: n}
	return nil
}

// UnmarshalYAML accepts either a boolean or an integer depth.
func (t *TOC) UnmarshalYAML(value *yaml.Node) error {
	var b bool
	if err := value.Decode(&b); err == nil {
		*t = TOC{Enabled: b}
		return nil
	}
	var n int
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("toc must be a boolean or a depth: %w", err)
	}
	*t = TOC{Enabled: n > 0, Depth: n}
	return nil
}

// Options is the effective export configuration.
type Options struct {
	Title    string
	Author   string
	Date     string
	Email    string
	Language string

	TOC             TOC
	Num             bool
	HeadlineLevels  int
	Todo            bool
	Priority        bool
	Tags            bool
	Footnotes       bool
	SubSuperscripts bool
	WithTitle       bool
	WithAuthor      bool
	WithDate        bool
	WithEmail       bool

	SelectTags  []string
	ExcludeTags []string

	BodyOnly       bool
	HeadlineOffset int

	// LaTeX
	DocumentClass   string
	ClassOptions    []string
	LatexHeader     []string
	LatexNoDefaults bool
	CustomHeader    string
	Bibliography    []string
	BibStyle        string

	// HTML
	CSLStyle   string
	Stylesheet string
	HTMLHead   []string
	BibEntries map[string]string

	Macros map[string]string
}

// Defaults returns the built-in option layer.
func Defaults() Options {
	return Options{
		Num:             true,
		HeadlineLevels:  3,
		Todo:            true,
		Tags:            true,
		Footnotes:       true,
		SubSuperscripts: true,
		WithTitle:       true,
		WithAuthor:      true,
		WithDate:        true,
		DocumentClass:   "article",
		ExcludeTags:     []string{"noexport"},
	}
}

// Overrides is the caller-supplied partial option layer. A nil field leaves
// the lower layers untouched.
type Overrides struct {
	Title    *string `json:"title,omitempty" yaml:"title,omitempty"`
	Author   *string `json:"author,omitempty" yaml:"author,omitempty"`
	Date     *string `json:"date,omitempty" yaml:"date,omitempty"`
	Email    *string `json:"email,omitempty" yaml:"email,omitempty"`
	Language *string `json:"language,omitempty" yaml:"language,omitempty"`

	TOC             *TOC  `json:"toc,omitempty" yaml:"toc,omitempty"`
	Num             *bool `json:"num,omitempty" yaml:"num,omitempty"`
	HeadlineLevels  *int  `json:"headlineLevels,omitempty" yaml:"headlineLevels,omitempty"`
	Todo            *bool `json:"todo,omitempty" yaml:"todo,omitempty"`
	Priority        *bool `json:"priority,omitempty" yaml:"priority,omitempty"`
	Tags            *bool `json:"tags,omitempty" yaml:"tags,omitempty"`
	Footnotes       *bool `json:"footnotes,omitempty" yaml:"footnotes,omitempty"`
	SubSuperscripts *bool `json:"subSuperscripts,omitempty" yaml:"subSuperscripts,omitempty"`
	WithTitle       *bool `json:"withTitle,omitempty" yaml:"withTitle,omitempty"`
	WithAuthor      *bool `json:"withAuthor,omitempty" yaml:"withAuthor,omitempty"`
	WithDate        *bool `json:"withDate,omitempty" yaml:"withDate,omitempty"`
	WithEmail       *bool `json:"withEmail,omitempty" yaml:"withEmail,omitempty"`

	SelectTags  []string `json:"selectTags,omitempty" yaml:"selectTags,omitempty"`
	ExcludeTags []string `json:"excludeTags,omitempty" yaml:"excludeTags,omitempty"`

	BodyOnly       *bool `json:"bodyOnly,omitempty" yaml:"bodyOnly,omitempty"`
	HeadlineOffset *int  `json:"headlineOffset,omitempty" yaml:"headlineOffset,omitempty"`

	DocumentClass   *string  `json:"documentClass,omitempty" yaml:"documentClass,omitempty"`
	ClassOptions    []string `json:"classOptions,omitempty" yaml:"classOptions,omitempty"`
	LatexHeader     []string `json:"latexHeader,omitempty" yaml:"latexHeader,omitempty"`
	LatexNoDefaults *bool    `json:"latexNoDefaults,omitempty" yaml:"latexNoDefaults,omitempty"`
	CustomHeader    *string  `json:"customHeader,omitempty" yaml:"customHeader,omitempty"`
	Bibliography    []string `json:"bibliography,omitempty" yaml:"bibliography,omitempty"`
	BibStyle        *string  `json:"bibStyle,omitempty" yaml:"bibStyle,omitempty"`

	CSLStyle   *string           `json:"cslStyle,omitempty" yaml:"cslStyle,omitempty"`
	Stylesheet *string           `json:"stylesheet,omitempty" yaml:"stylesheet,omitempty"`
	HTMLHead   []string          `json:"htmlHead,omitempty" yaml:"htmlHead,omitempty"`
	BibEntries map[string]string `json:"bibEntries,omitempty" yaml:"bibEntries,omitempty"`

	Macros map[string]string `json:"macros,omitempty" yaml:"macros,omitempty"`
}

// Resolve merges defaults, the document's #+OPTIONS flags and keywords, and
// the caller overrides into one effective configuration. LATEX_CLASS,
// LATEX_CLASS_OPTIONS and LATEX_NO_DEFAULTS from the document win over the
// caller; document LATEX_HEADER lines follow the caller's; document macros
// replace caller macros of the same name.
func Resolve(doc *orgtree.Document, ov Overrides, defaults Options) Options {
	o := defaults
	o.SelectTags = slices.Clone(defaults.SelectTags)
	o.ExcludeTags = slices.Clone(defaults.ExcludeTags)
	o.ClassOptions = slices.Clone(defaults.ClassOptions)
	o.LatexHeader = slices.Clone(defaults.LatexHeader)
	o.Bibliography = slices.Clone(defaults.Bibliography)
	o.HTMLHead = slices.Clone(defaults.HTMLHead)
	o.BibEntries = maps.Clone(defaults.BibEntries)
	o.Macros = maps.Clone(defaults.Macros)

	for _, line := range doc.KeywordList("OPTIONS") {
		ApplyOptionFlags(&o, line)
	}
	applyDocumentKeywords(&o, doc)
	applyOverrides(&o, ov)

	if v := doc.Keyword("LATEX_CLASS"); v != "" {
		o.DocumentClass = strings.TrimSpace(v)
	}
	if v := doc.Keyword("LATEX_CLASS_OPTIONS"); v != "" {
		o.ClassOptions = parseClassOptions(v)
	}
	if doc.HasKeyword("LATEX_NO_DEFAULTS") {
		v := strings.ToLower(strings.TrimSpace(doc.Keyword("LATEX_NO_DEFAULTS")))
		o.LatexNoDefaults = v == "t" || v == "true"
	}
	o.LatexHeader = append(o.LatexHeader, doc.KeywordList("LATEX_HEADER")...)
	o.HTMLHead = append(o.HTMLHead, doc.KeywordList("HTML_HEAD")...)
	for _, def := range doc.KeywordList("MACRO") {
		name, body, ok := parseMacroDefinition(def)
		if !ok {
			continue
		}
		if o.Macros == nil {
			o.Macros = make(map[string]string)
		}
		o.Macros[name] = body
	}
	return o
}

// ApplyOptionFlags applies one #+OPTIONS flag string. Unknown keys are
// ignored and malformed values leave the current value in place.
func ApplyOptionFlags(o *Options, flags string) {
	for _, tok := range strings.Fields(flags) {
		key, val, ok := strings.Cut(tok, ":")
		if !ok {
			continue
		}
		switch key {
		case "toc":
			if b, ok := parseFlagBool(val); ok {
				o.TOC = TOC{Enabled: b}
			} else if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				o.TOC = TOC{Enabled: n > 0, Depth: n}
			}
		case "num":
			if b, ok := parseFlagBool(val); ok {
				o.Num = b
			} else if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				o.Num = n > 0
			}
		case "H":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				o.HeadlineLevels = n
			}
		case "todo":
			setFlag(&o.Todo, val)
		case "pri":
			setFlag(&o.Priority, val)
		case "tags":
			if val == "not-in-toc" {
				o.Tags = true
			} else {
				setFlag(&o.Tags, val)
			}
		case "f":
			setFlag(&o.Footnotes, val)
		case "^":
			if val == "{}" {
				o.SubSuperscripts = true
			} else {
				setFlag(&o.SubSuperscripts, val)
			}
		case "title":
			setFlag(&o.WithTitle, val)
		case "author":
			setFlag(&o.WithAuthor, val)
		case "date":
			setFlag(&o.WithDate, val)
		case "email":
			setFlag(&o.WithEmail, val)
		}
	}
}

func parseFlagBool(v string) (bool, bool) {
	switch v {
	case "t":
		return true, true
	case "nil":
		return false, true
	}
	return false, false
}

func setFlag(dst *bool, v string) {
	if b, ok := parseFlagBool(v); ok {
		*dst = b
	}
}

func applyDocumentKeywords(o *Options, doc *orgtree.Document) {
	if doc.HasKeyword("TITLE") {
		o.Title = strings.Join(doc.KeywordList("TITLE"), " ")
	}
	if doc.HasKeyword("AUTHOR") {
		o.Author = doc.Keyword("AUTHOR")
	}
	if doc.HasKeyword("DATE") {
		o.Date = doc.Keyword("DATE")
	}
	if doc.HasKeyword("EMAIL") {
		o.Email = doc.Keyword("EMAIL")
	}
	if v := doc.Keyword("LANGUAGE"); v != "" {
		o.Language = strings.TrimSpace(v)
	}
	if v := doc.Keyword("SELECT_TAGS"); v != "" {
		o.SelectTags = strings.Fields(v)
	}
	if v := doc.Keyword("EXCLUDE_TAGS"); v != "" {
		o.ExcludeTags = strings.Fields(v)
	}
	if v := doc.Keyword("CSL_STYLE"); v != "" {
		o.CSLStyle = strings.TrimSpace(v)
	}
	for _, b := range doc.KeywordList("BIBLIOGRAPHY") {
		o.Bibliography = append(o.Bibliography, strings.Fields(b)...)
	}
}

func applyOverrides(o *Options, ov Overrides) {
	setString(&o.Title, ov.Title)
	setString(&o.Author, ov.Author)
	setString(&o.Date, ov.Date)
	setString(&o.Email, ov.Email)
	setString(&o.Language, ov.Language)
	if ov.TOC != nil {
		o.TOC = *ov.TOC
	}
	setBool(&o.Num, ov.Num)
	if ov.HeadlineLevels != nil && *ov.HeadlineLevels > 0 {
		o.HeadlineLevels = *ov.HeadlineLevels
	}
	setBool(&o.Todo, ov.Todo)
	setBool(&o.Priority, ov.Priority)
	setBool(&o.Tags, ov.Tags)
	setBool(&o.Footnotes, ov.Footnotes)
	setBool(&o.SubSuperscripts, ov.SubSuperscripts)
	setBool(&o.WithTitle, ov.WithTitle)
	setBool(&o.WithAuthor, ov.WithAuthor)
	setBool(&o.WithDate, ov.WithDate)
	setBool(&o.WithEmail, ov.WithEmail)
	if ov.SelectTags != nil {
		o.SelectTags = slices.Clone(ov.SelectTags)
	}
	if ov.ExcludeTags != nil {
		o.ExcludeTags = slices.Clone(ov.ExcludeTags)
	}
	setBool(&o.BodyOnly, ov.BodyOnly)
	if ov.HeadlineOffset != nil {
		o.HeadlineOffset = *ov.HeadlineOffset
	}
	setString(&o.DocumentClass, ov.DocumentClass)
	if ov.ClassOptions != nil {
		o.ClassOptions = slices.Clone(ov.ClassOptions)
	}
	o.LatexHeader = append(o.LatexHeader, ov.LatexHeader...)
	setBool(&o.LatexNoDefaults, ov.LatexNoDefaults)
	setString(&o.CustomHeader, ov.CustomHeader)
	if ov.Bibliography != nil {
		o.Bibliography = slices.Clone(ov.Bibliography)
	}
	setString(&o.BibStyle, ov.BibStyle)
	setString(&o.CSLStyle, ov.CSLStyle)
	setString(&o.Stylesheet, ov.Stylesheet)
	o.HTMLHead = append(o.HTMLHead, ov.HTMLHead...)
	if len(ov.BibEntries) > 0 {
		if o.BibEntries == nil {
			o.BibEntries = make(map[string]string, len(ov.BibEntries))
		}
		maps.Copy(o.BibEntries, ov.BibEntries)
	}
	if len(ov.Macros) > 0 {
		if o.Macros == nil {
			o.Macros = make(map[string]string, len(ov.Macros))
		}
		maps.Copy(o.Macros, ov.Macros)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// parseClassOptions splits "[a4paper, 11pt]" into its entries.
func parseClassOptions(v string) []string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseMacroDefinition splits "name replacement text".
func parseMacroDefinition(def string) (string, string, bool) {
	def = strings.TrimSpace(def)
	name, body, _ := strings.Cut(def, " ")
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(body), true
}
