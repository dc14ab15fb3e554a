// Package sections splits a generated markdown document into the section
// tree shown by the documentation viewer.
package sections

import (
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

type Section struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Icon        string    `json:"icon"`
	Level       int       `json:"level"`
	ParentID    string    `json:"parent_id,omitempty"`
	FullContent string    `json:"full_content"`
	Edited      bool      `json:"edited"`
	Subsections []Section `json:"subsections,omitempty"`
}

var headingPattern = regexp.MustCompile(`^(#{1,4})\s+(.+?)\s*#*\s*$`)

// Parse builds the section tree of markdown. It is a pure function: the same
// input always yields the same ids in document order.
func Parse(markdown string) []Section {
	return ParseWithOverrides(markdown, nil)
}

// ParseWithOverrides parses markdown and replaces the content of every
// section whose id has an entry in overrides before quality filtering, so an
// edited section is shown even if its generated text was filtered out.
func ParseWithOverrides(markdown string, overrides map[string]string) []Section {
	p := &parser{
		lines:     strings.Split(stripFrontMatter(markdown), "\n"),
		ids:       newSlugger(),
		overrides: overrides,
	}
	return p.parse()
}

// Find returns the section or subsection with the given id.
func Find(tree []Section, id string) (*Section, bool) {
	for i := range tree {
		if tree[i].ID == id {
			return &tree[i], true
		}
		if s, ok := Find(tree[i].Subsections, id); ok {
			return s, true
		}
	}
	return nil, false
}

type openSection struct {
	section Section
	start   int
	// Line of the first subsection heading, or -1.
	leadEnd int
}

type parser struct {
	lines     []string
	ids       *slugger
	overrides map[string]string

	result []Section
	main   *openSection
	sub    *openSection
}

func (p *parser) parse() []Section {
	inFence := false
	for i, line := range p.lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}

		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		level := len(m[1])
		title := strings.TrimSpace(m[2])

		switch {
		case level == 1, level == 2 && p.main == nil:
			// A "##" before any "#" is promoted so documents that only use
			// second-level headings still get a tree.
			p.closeSub(i)
			p.closeMain(i)
			p.main = p.open(title, 1, "", i)
		case level == 2:
			p.closeSub(i)
			if p.main.leadEnd < 0 {
				p.main.leadEnd = i
			}
			p.sub = p.open(title, 2, p.main.section.ID, i)
		}
	}

	end := len(p.lines)
	p.closeSub(end)
	p.closeMain(end)
	return p.result
}

func (p *parser) open(title string, level int, parentID string, start int) *openSection {
	return &openSection{
		section: Section{
			ID:       p.ids.next(title),
			Title:    title,
			Icon:     Icon(title),
			Level:    level,
			ParentID: parentID,
		},
		start:   start,
		leadEnd: -1,
	}
}

func (p *parser) closeSub(end int) {
	if p.sub == nil {
		return
	}
	s := p.finish(p.sub, end)
	p.sub = nil
	if Keep(s.FullContent) {
		p.main.section.Subsections = append(p.main.section.Subsections, s)
	}
}

func (p *parser) closeMain(end int) {
	if p.main == nil {
		return
	}
	o := p.main
	s := p.finish(o, end)
	p.main = nil

	// A main section is judged on its own lead; the subsections were judged
	// when they closed, and any survivor keeps its parent.
	lead := s.FullContent
	if !s.Edited && o.leadEnd >= 0 {
		lead = strings.TrimRight(strings.Join(p.lines[o.start:o.leadEnd], "\n"), "\n\t ")
	}
	if len(s.Subsections) > 0 || Keep(lead) {
		p.result = append(p.result, s)
	}
}

func (p *parser) finish(o *openSection, end int) Section {
	s := o.section
	s.FullContent = strings.TrimRight(strings.Join(p.lines[o.start:end], "\n"), "\n\t ")
	if content, ok := p.overrides[s.ID]; ok {
		s.FullContent = content
		s.Edited = true
	}
	return s
}

func stripFrontMatter(markdown string) string {
	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	if !strings.HasPrefix(markdown, "---\n") && !strings.HasPrefix(markdown, "+++\n") {
		return markdown
	}

	var matter map[string]any
	rest, err := frontmatter.Parse(strings.NewReader(markdown), &matter)
	if err != nil {
		return markdown
	}
	return string(rest)
}

// Lead returns the part of a main section that precedes its first
// subsection heading. Sections without subsections are returned whole, and
// so are edited ones: an edit of a main section replaces only its lead.
func Lead(s Section) string {
	if s.Edited || len(s.Subsections) == 0 {
		return s.FullContent
	}

	lines := strings.Split(s.FullContent, "\n")
	inFence := false
	// Line 0 is the section's own heading.
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(strings.TrimSpace(lines[i]), "```") {
			inFence = !inFence
			continue
		}
		if m := headingPattern.FindStringSubmatch(lines[i]); !inFence && m != nil && len(m[1]) == 2 {
			return strings.TrimRight(strings.Join(lines[:i], "\n"), "\n\t ")
		}
	}
	return s.FullContent
}
