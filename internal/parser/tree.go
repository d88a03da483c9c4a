package parser

import (
	"io"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// TreeParser reads a document tree already serialized as JSON, the form
// the external outline parser hands over.
type TreeParser struct{}

func (p *TreeParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	return orgtree.Decode(r)
}
