package export

import (
	"regexp"
	"strconv"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

const maxSlugLen = 50

// GenerateID derives the stable anchor for a piece of headline or target
// text. Identical text always yields the identical ID.
func GenerateID(text string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(text), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	if slug == "" {
		slug = "section"
	}
	return "org-" + slug
}

// NextSectionNumber advances the multi-level counter at level and returns
// the dotted number. Deeper levels are dropped, missing levels start at 0.
func (s *State) NextSectionNumber(level int) string {
	if level < 1 {
		level = 1
	}
	for len(s.SectionNumbers) < level {
		s.SectionNumbers = append(s.SectionNumbers, 0)
	}
	s.SectionNumbers = s.SectionNumbers[:level]
	s.SectionNumbers[level-1]++

	parts := make([]string, len(s.SectionNumbers))
	for i, n := range s.SectionNumbers {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}
