// Package orgtree holds the typed outline document tree consumed by the
// exporters, the interpreter and the importers.
package orgtree

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Document is the root of a parsed outline document.
type Document struct {
	Keywords     map[string]string   `json:"keywords,omitempty"`     // unique keys, last value wins
	KeywordLists map[string][]string `json:"keywordLists,omitempty"` // repeated keys, all values in order
	Children     []*Node             `json:"children,omitempty"`     // leading section, then top-level headlines
}

// Node is one element or object of the tree.
type Node struct {
	Type       NodeType    `json:"type"`
	Properties Properties  `json:"properties"`
	Children   []*Node     `json:"children,omitempty"`
	Section    *Node       `json:"section,omitempty"` // headline body, never mixed into Children
	Affiliated *Affiliated `json:"affiliated,omitempty"`
}

// Affiliated keywords attached to a block-level element.
type Affiliated struct {
	Name    string            `json:"name,omitempty"`
	Caption []*Node           `json:"caption,omitempty"`
	Attr    map[string]string `json:"attr,omitempty"` // lower-case backend -> raw plist
	Results bool              `json:"results,omitempty"`
}

// Moment is one side of a timestamp.
type Moment struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Day     int    `json:"day"`
	Hour    int    `json:"hour,omitempty"`
	Minute  int    `json:"minute,omitempty"`
	HasTime bool   `json:"hasTime,omitempty"`
	DayName string `json:"dayName,omitempty"`
}

// Properties is the union of every per-type property. Each node type reads
// only the fields that apply to it.
type Properties struct {
	PostBlank int `json:"postBlank,omitempty"`

	// headline
	Level          int               `json:"level,omitempty"`
	RawValue       string            `json:"rawValue,omitempty"`
	Title          []*Node           `json:"title,omitempty"`
	TodoKeyword    string            `json:"todoKeyword,omitempty"`
	TodoType       string            `json:"todoType,omitempty"`
	Priority       string            `json:"priority,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	NodeProperties map[string]string `json:"nodeProperties,omitempty"`
	Commented      bool              `json:"commented,omitempty"`

	// blocks, keywords, drawers
	Language   string `json:"language,omitempty"`
	Parameters string `json:"parameters,omitempty"`
	Switches   string `json:"switches,omitempty"`
	Value      string `json:"value,omitempty"`
	BlockType  string `json:"blockType,omitempty"`
	Backend    string `json:"backend,omitempty"`
	Key        string `json:"key,omitempty"`
	DrawerName string `json:"drawerName,omitempty"`

	// lists
	ListType string  `json:"listType,omitempty"`
	Bullet   string  `json:"bullet,omitempty"`
	Checkbox string  `json:"checkbox,omitempty"`
	Counter  int     `json:"counter,omitempty"`
	ItemTag  []*Node `json:"itemTag,omitempty"`

	// tables
	RowType string   `json:"rowType,omitempty"`
	TBLFM   []string `json:"tblfm,omitempty"`

	// links
	LinkType string `json:"linkType,omitempty"`
	Path     string `json:"path,omitempty"`
	RawLink  string `json:"rawLink,omitempty"`
	Format   string `json:"format,omitempty"`

	// timestamps, planning, clock
	TimestampType string  `json:"timestampType,omitempty"`
	Start         *Moment `json:"start,omitempty"`
	End           *Moment `json:"end,omitempty"`
	RepeaterType  string  `json:"repeaterType,omitempty"`
	RepeaterValue int     `json:"repeaterValue,omitempty"`
	RepeaterUnit  string  `json:"repeaterUnit,omitempty"`
	WarningType   string  `json:"warningType,omitempty"`
	WarningValue  int     `json:"warningValue,omitempty"`
	WarningUnit   string  `json:"warningUnit,omitempty"`
	Scheduled     *Node   `json:"scheduled,omitempty"`
	Deadline      *Node   `json:"deadline,omitempty"`
	Closed        *Node   `json:"closed,omitempty"`
	Timestamp     *Node   `json:"timestamp,omitempty"`
	Duration      string  `json:"duration,omitempty"`

	// entities
	Name      string `json:"name,omitempty"`
	HTML      string `json:"html,omitempty"`
	Latex     string `json:"latex,omitempty"`
	LatexMath bool   `json:"latexMath,omitempty"`
	UTF8      string `json:"utf8,omitempty"`

	// footnotes, macros, citations, inline calls
	Label        string   `json:"label,omitempty"`
	FootnoteType string   `json:"footnoteType,omitempty"`
	UseBrackets  bool     `json:"useBrackets,omitempty"`
	Args         []string `json:"args,omitempty"`
	Style        string   `json:"style,omitempty"`
	Prefix       []*Node  `json:"prefix,omitempty"`
	Suffix       []*Node  `json:"suffix,omitempty"`
	Call         string   `json:"call,omitempty"`
	InsideHeader string   `json:"insideHeader,omitempty"`
	Arguments    string   `json:"arguments,omitempty"`
	EndHeader    string   `json:"endHeader,omitempty"`
}

// Decode reads a document tree from its JSON form.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding document tree: %w", err)
	}
	doc.normalize()
	return &doc, nil
}

// Keyword returns the value of a document keyword, case-insensitively.
func (d *Document) Keyword(key string) string {
	if d == nil {
		return ""
	}
	key = strings.ToUpper(key)
	if v, ok := d.Keywords[key]; ok {
		return v
	}
	if vs := d.KeywordLists[key]; len(vs) > 0 {
		return vs[len(vs)-1]
	}
	return ""
}

// HasKeyword reports whether the document sets key.
func (d *Document) HasKeyword(key string) bool {
	if d == nil {
		return false
	}
	key = strings.ToUpper(key)
	_, ok := d.Keywords[key]
	return ok || len(d.KeywordLists[key]) > 0
}

// KeywordList returns every value of a repeated keyword in document order.
func (d *Document) KeywordList(key string) []string {
	if d == nil {
		return nil
	}
	key = strings.ToUpper(key)
	if vs, ok := d.KeywordLists[key]; ok {
		return vs
	}
	if v, ok := d.Keywords[key]; ok {
		return []string{v}
	}
	return nil
}

// SetKeyword stores a keyword value and appends it to the keyword list.
func (d *Document) SetKeyword(key, value string) {
	key = strings.ToUpper(key)
	if d.Keywords == nil {
		d.Keywords = make(map[string]string)
	}
	if d.KeywordLists == nil {
		d.KeywordLists = make(map[string][]string)
	}
	d.Keywords[key] = value
	d.KeywordLists[key] = append(d.KeywordLists[key], value)
}

func (d *Document) normalize() {
	if len(d.Keywords) > 0 {
		kw := make(map[string]string, len(d.Keywords))
		for k, v := range d.Keywords {
			kw[strings.ToUpper(k)] = v
		}
		d.Keywords = kw
	}
	if len(d.KeywordLists) > 0 {
		kl := make(map[string][]string, len(d.KeywordLists))
		for k, v := range d.KeywordLists {
			kl[strings.ToUpper(k)] = append(kl[strings.ToUpper(k)], v...)
		}
		d.KeywordLists = kl
	}
}

// Headlines returns the top-level headlines of the document.
func (d *Document) Headlines() []*Node {
	var out []*Node
	for _, n := range d.Children {
		if n.Type == Headline {
			out = append(out, n)
		}
	}
	return out
}

// Preamble returns the section before the first headline, if any.
func (d *Document) Preamble() *Node {
	for _, n := range d.Children {
		if n.Type == Section {
			return n
		}
		if n.Type == Headline {
			return nil
		}
	}
	return nil
}

// Property returns a headline property drawer value, case-insensitively.
func (n *Node) Property(key string) string {
	if n == nil || n.Properties.NodeProperties == nil {
		return ""
	}
	if v, ok := n.Properties.NodeProperties[key]; ok {
		return v
	}
	for k, v := range n.Properties.NodeProperties {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// AttrFor returns the raw attribute plist for a backend.
func (a *Affiliated) AttrFor(backend string) string {
	if a == nil {
		return ""
	}
	return a.Attr[strings.ToLower(backend)]
}
