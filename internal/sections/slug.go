package sections

import (
	"regexp"
	"strconv"
	"strings"
)

const maxSlugLength = 50

var (
	slugDisallowed = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSeparators = regexp.MustCompile(`[\s-]+`)
)

// Slugify lowercases title, drops everything outside [a-z0-9 -], collapses
// runs of spaces and hyphens into one hyphen and truncates to 50 characters.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugDisallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugSeparators.ReplaceAllString(s, "-")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	s = strings.Trim(s, "-")
	if s == "" {
		return "section"
	}
	return s
}

// slugger hands out unique ids within one parse.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: map[string]int{}}
}

func (s *slugger) next(title string) string {
	base := Slugify(title)
	s.seen[base]++
	n := s.seen[base]
	if n == 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
