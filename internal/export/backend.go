// Package export holds the option resolution, export state and helpers
// shared by every backend, plus the backend registry.
package export

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// ErrUnknownFormat is returned by Lookup for unregistered formats.
var ErrUnknownFormat = errors.New("unknown export format")

// Backend renders a whole document into one target format.
type Backend interface {
	Name() string
	Extension() string
	ContentType() string
	ExportDocument(doc *orgtree.Document, ov Overrides) ([]byte, error)
}

var registry = map[string]Backend{}

// Register makes a backend available under its name and aliases.
func Register(b Backend, aliases ...string) {
	for _, name := range append([]string{b.Name()}, aliases...) {
		if _, ok := registry[name]; ok {
			panic(fmt.Sprintf("export backend %q already registered", name))
		}
		registry[name] = b
	}
}

// Lookup returns the backend registered for format.
func Lookup(format string) (Backend, error) {
	b, ok := registry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return b, nil
}

// Formats lists the canonical backend names, sorted.
func Formats() []string {
	var names []string
	for name, b := range registry {
		if name == b.Name() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Placeholder describes a node the dispatching backend does not know.
func Placeholder(n *orgtree.Node, inline bool) string {
	kind := "element"
	if inline {
		kind = "object"
	}
	return fmt.Sprintf("unsupported %s: %s", kind, n.Type)
}
