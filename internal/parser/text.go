package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/orgdoc/internal/orgtree"
)

// TextParser handles plain text files. Each blank-line separated block
// becomes a paragraph of the preamble.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*orgtree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	out := newOutline(titleFromFilename(filename))
	for _, para := range splitParagraphs(strings.Join(lines, "\n")) {
		out.add(textParagraph(para))
	}
	return out.document(), nil
}

// splitParagraphs splits text on blank lines, keeping inner line breaks.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(strings.TrimRight(line, " \t\r"))
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}
