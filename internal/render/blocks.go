package render

import (
	"regexp"
	"strings"
	"unicode"
)

type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockCode
	BlockList
	BlockImage
	BlockTable
	BlockRule
	BlockHTML
)

// Block is one top-level element of a markdown document.
type Block struct {
	Kind BlockKind

	// Heading level 1-4.
	Level int
	// Inline content of headings and paragraphs.
	Inlines []Inline

	// Code blocks and raw HTML.
	Lang string
	Text string

	Ordered bool
	Items   [][]Inline

	// Images. Link is set for an image wrapped in a link.
	Alt  string
	URL  string
	Link string

	Header [][]Inline
	Rows   [][][]Inline
}

var (
	headingLine     = regexp.MustCompile(`^(#{1,4})\s+(.+?)\s*#*\s*$`)
	ruleLine        = regexp.MustCompile(`^(?:-\s*){3,}$|^(?:\*\s*){3,}$|^(?:_\s*){3,}$`)
	imageLine       = regexp.MustCompile(`^!\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)$`)
	linkedImageLine = regexp.MustCompile(`^\[!\[([^\]]*)\]\(([^)\s]+)\)\]\(([^)\s]+)\)$`)
	bulletItem      = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	orderedItem     = regexp.MustCompile(`^\s*\d+[.)]\s+(.*)$`)
	tableSeparator  = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)*\|?$`)
	htmlBlockStart  = regexp.MustCompile(`^</?([a-zA-Z][a-zA-Z0-9]*)[\s>/]`)
	placeholderItem = regexp.MustCompile(`(?i)^(?:__[a-z0-9_]+__|\{\{[^}]*\}\}|\[(?:placeholder|todo|tbd)\])$`)
)

var htmlBlockTags = map[string]bool{
	"div": true, "table": true, "details": true, "summary": true, "p": true,
	"blockquote": true, "pre": true, "ul": true, "ol": true, "dl": true,
	"section": true, "figure": true,
}

// ParseBlocks splits markdown into blocks.
func ParseBlocks(markdown string) []Block {
	p := &blockParser{lines: strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")}
	p.parse()
	return p.blocks
}

type blockParser struct {
	lines  []string
	pos    int
	blocks []Block
	para   []string
}

func (p *blockParser) parse() {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			p.flushParagraph()
			p.pos++
		case strings.HasPrefix(trimmed, "```"):
			p.fence(trimmed)
		case headingLine.MatchString(trimmed):
			p.flushParagraph()
			m := headingLine.FindStringSubmatch(trimmed)
			p.blocks = append(p.blocks, Block{
				Kind:    BlockHeading,
				Level:   len(m[1]),
				Inlines: ParseInlines(m[2]),
			})
			p.pos++
		case ruleLine.MatchString(trimmed):
			p.flushParagraph()
			p.blocks = append(p.blocks, Block{Kind: BlockRule})
			p.pos++
		case linkedImageLine.MatchString(trimmed):
			p.flushParagraph()
			m := linkedImageLine.FindStringSubmatch(trimmed)
			p.blocks = append(p.blocks, Block{Kind: BlockImage, Alt: m[1], URL: m[2], Link: m[3]})
			p.pos++
		case imageLine.MatchString(trimmed):
			p.flushParagraph()
			m := imageLine.FindStringSubmatch(trimmed)
			p.blocks = append(p.blocks, Block{Kind: BlockImage, Alt: m[1], URL: m[2]})
			p.pos++
		case p.isTableStart(trimmed):
			p.flushParagraph()
			p.table()
		case bulletItem.MatchString(line) || orderedItem.MatchString(line):
			p.flushParagraph()
			p.list(orderedItem.MatchString(line))
		case p.isHTMLStart(trimmed):
			p.flushParagraph()
			p.html()
		default:
			p.para = append(p.para, trimmed)
			p.pos++
		}
	}
	p.flushParagraph()
}

func (p *blockParser) flushParagraph() {
	if len(p.para) == 0 {
		return
	}
	p.blocks = append(p.blocks, Block{
		Kind:    BlockParagraph,
		Inlines: linkFileRefs(ParseInlines(strings.Join(p.para, "\n"))),
	})
	p.para = nil
}

func (p *blockParser) fence(trimmed string) {
	// ```npm install``` on one line.
	if inner, ok := singleLineFence(trimmed); ok {
		p.pos++
		if looksLikeCode(inner) {
			p.flushParagraph()
			p.blocks = append(p.blocks, Block{Kind: BlockCode, Text: inner})
		} else {
			p.para = append(p.para, "`"+inner+"`")
		}
		return
	}

	p.flushParagraph()
	lang := ""
	if fields := strings.Fields(strings.TrimPrefix(trimmed, "```")); len(fields) > 0 {
		lang = fields[0]
	}

	p.pos++
	var body []string
	for p.pos < len(p.lines) {
		if strings.HasPrefix(strings.TrimSpace(p.lines[p.pos]), "```") {
			p.pos++
			break
		}
		body = append(body, p.lines[p.pos])
		p.pos++
	}

	text := strings.Join(body, "\n")
	if isTrivialCode(text) {
		return
	}
	p.blocks = append(p.blocks, Block{Kind: BlockCode, Lang: lang, Text: text})
}

func (p *blockParser) list(ordered bool) {
	pattern := bulletItem
	if ordered {
		pattern = orderedItem
	}

	var items []string
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if m := pattern.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
			p.pos++
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// A blank line only continues the list if another item follows.
			if p.pos+1 < len(p.lines) && pattern.MatchString(p.lines[p.pos+1]) {
				p.pos++
				continue
			}
			break
		}
		if len(items) > 0 && (line[0] == ' ' || line[0] == '\t') && !bulletItem.MatchString(line) && !orderedItem.MatchString(line) {
			items[len(items)-1] += "\n" + trimmed
			p.pos++
			continue
		}
		break
	}

	block := Block{Kind: BlockList, Ordered: ordered}
	for _, item := range items {
		if isPlaceholderItem(item) {
			continue
		}
		block.Items = append(block.Items, linkFileRefs(ParseInlines(item)))
	}
	if len(block.Items) > 0 {
		p.blocks = append(p.blocks, block)
	}
}

func (p *blockParser) isTableStart(trimmed string) bool {
	if !strings.Contains(trimmed, "|") || p.pos+1 >= len(p.lines) {
		return false
	}
	return tableSeparator.MatchString(strings.TrimSpace(p.lines[p.pos+1]))
}

func (p *blockParser) table() {
	block := Block{Kind: BlockTable}
	for _, cell := range splitRow(p.lines[p.pos]) {
		block.Header = append(block.Header, ParseInlines(cell))
	}
	p.pos += 2

	for p.pos < len(p.lines) {
		trimmed := strings.TrimSpace(p.lines[p.pos])
		if trimmed == "" || !strings.Contains(trimmed, "|") {
			break
		}
		var row [][]Inline
		for _, cell := range splitRow(trimmed) {
			row = append(row, linkFileRefs(ParseInlines(cell)))
		}
		block.Rows = append(block.Rows, row)
		p.pos++
	}
	p.blocks = append(p.blocks, block)
}

func (p *blockParser) isHTMLStart(trimmed string) bool {
	m := htmlBlockStart.FindStringSubmatch(trimmed + " ")
	return m != nil && htmlBlockTags[strings.ToLower(m[1])]
}

func (p *blockParser) html() {
	var body []string
	for p.pos < len(p.lines) && strings.TrimSpace(p.lines[p.pos]) != "" {
		body = append(body, p.lines[p.pos])
		p.pos++
	}
	p.blocks = append(p.blocks, Block{Kind: BlockHTML, Text: strings.Join(body, "\n")})
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	cells := strings.Split(line, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func singleLineFence(trimmed string) (string, bool) {
	if len(trimmed) <= 6 || !strings.HasSuffix(trimmed, "```") {
		return "", false
	}
	inner := strings.TrimSpace(trimmed[3 : len(trimmed)-3])
	if inner == "" || strings.Contains(inner, "```") {
		return "", false
	}
	return inner, true
}

var commandWords = []string{
	"npm", "npx", "yarn", "pnpm", "pip", "pip3", "python", "python3", "node",
	"go", "cargo", "git", "docker", "kubectl", "make", "cd", "curl", "wget",
	"export", "sudo", "brew", "apt", "apt-get", "mvn", "gradle", "dotnet",
}

func looksLikeCode(s string) bool {
	if strings.ContainsAny(s, "(){};=<>|&$") {
		return true
	}
	first := strings.Fields(s)[0]
	for _, w := range commandWords {
		if first == w {
			return true
		}
	}
	return false
}

var (
	importLine  = regexp.MustCompile(`^(?:import\s|from\s+\S+\s+import\s|#include\s*[<"]|using\s+[\w.]+;?$|package\s+\w+$|require\(|(?:const|let|var)\s+\w+\s*=\s*require\(|use\s+[\w:]+;$)`)
	commentLine = regexp.MustCompile(`^(?://|#|/\*|\*(?:\s|/|$)|--\s|<!--|;|"""|''')`)
	barePath    = regexp.MustCompile(`^[\w.\-]*[/\\]?[\w.\-/\\]*\.[A-Za-z0-9]{1,8}$|^[\w.\-]+(?:/[\w.\-]+)*/$`)
)

// isTrivialCode reports whether a fenced block carries no information: it is
// empty or every line is an import, a comment or a bare path.
func isTrivialCode(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if importLine.MatchString(line) || commentLine.MatchString(line) || barePath.MatchString(line) {
			continue
		}
		return false
	}
	return true
}

func isPlaceholderItem(text string) bool {
	text = strings.TrimSpace(text)
	if strings.IndexFunc(text, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) < 0 {
		return true
	}
	return placeholderItem.MatchString(text)
}
