package render

import (
	"regexp"
	"strings"
)

type InlineKind int

const (
	InlineText InlineKind = iota
	InlineCode
	InlineStrong
	InlineEmphasis
	InlineLink
	InlineImage
	InlineFileRef
)

// Inline is a span inside a block. Text holds literal text, code, image alt
// text or a referenced file name. Strong, emphasis and links carry Children.
type Inline struct {
	Kind     InlineKind
	Text     string
	URL      string
	Children []Inline
}

const escapable = "\\`*_[]()#+-.!|"

// ParseInlines parses inline markdown: code spans, images, links, strong and
// emphasis. Everything else is text.
func ParseInlines(s string) []Inline {
	var (
		out  []Inline
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			out = append(out, Inline{Kind: InlineText, Text: text.String()})
			text.Reset()
		}
	}
	emit := func(in Inline) {
		flush()
		out = append(out, in)
	}

	for i := 0; i < len(s); {
		c := s[i]

		switch {
		case c == '\\' && i+1 < len(s) && strings.IndexByte(escapable, s[i+1]) >= 0:
			text.WriteByte(s[i+1])
			i += 2
			continue

		case c == '`':
			n := runLength(s, i, '`')
			fence := strings.Repeat("`", n)
			if end := strings.Index(s[i+n:], fence); end >= 0 {
				if code := strings.TrimSpace(s[i+n : i+n+end]); code != "" {
					emit(Inline{Kind: InlineCode, Text: code})
					i += n + end + n
					continue
				}
			}
			text.WriteString(fence)
			i += n
			continue

		case c == '!' && i+1 < len(s) && s[i+1] == '[':
			if alt, url, n, ok := linkTarget(s[i+1:]); ok {
				emit(Inline{Kind: InlineImage, Text: alt, URL: url})
				i += 1 + n
				continue
			}

		case c == '[':
			if label, url, n, ok := linkTarget(s[i:]); ok {
				emit(Inline{Kind: InlineLink, URL: url, Children: ParseInlines(label)})
				i += n
				continue
			}

		case (c == '*' || c == '_') && i+1 < len(s) && s[i+1] == c:
			if end := strongCloser(s, i); end > 0 {
				emit(Inline{Kind: InlineStrong, Children: ParseInlines(s[i+2 : end])})
				i = end + 2
				continue
			}

		case c == '*' || c == '_':
			if end := emphasisCloser(s, i); end > 0 {
				emit(Inline{Kind: InlineEmphasis, Children: ParseInlines(s[i+1 : end])})
				i = end + 1
				continue
			}
		}

		text.WriteByte(c)
		i++
	}

	flush()
	return out
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// linkTarget parses "[label](url)" at the start of s and returns the label,
// the url and the number of bytes consumed.
func linkTarget(s string) (label, url string, n int, ok bool) {
	depth, closeAt := 0, -1
	for j := 0; j < len(s) && closeAt < 0; j++ {
		switch s[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				closeAt = j
			}
		}
	}
	if closeAt < 0 || closeAt+1 >= len(s) || s[closeAt+1] != '(' {
		return "", "", 0, false
	}

	end := strings.IndexByte(s[closeAt+2:], ')')
	if end < 0 {
		return "", "", 0, false
	}
	fields := strings.Fields(s[closeAt+2 : closeAt+2+end])
	if len(fields) == 0 {
		return "", "", 0, false
	}
	return s[1:closeAt], fields[0], closeAt + 2 + end + 1, true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}

// strongCloser finds the closing "**" or "__" of a run opened at i.
func strongCloser(s string, i int) int {
	c := s[i]
	if i+2 >= len(s) || isSpace(s[i+2]) {
		return -1
	}
	if c == '_' && i > 0 && isWordByte(s[i-1]) {
		return -1
	}
	delim := s[i : i+2]
	for j := i + 3; j+1 < len(s); j++ {
		if s[j:j+2] != delim || isSpace(s[j-1]) {
			continue
		}
		// __init__.py is a file name, not strong text.
		if c == '_' && j+2 < len(s) && (isWordByte(s[j+2]) || s[j+2] == '.') {
			continue
		}
		return j
	}
	return -1
}

// emphasisCloser finds the closing "*" or "_" of a run opened at i.
// Underscores inside words (snake_case) never open or close emphasis.
func emphasisCloser(s string, i int) int {
	c := s[i]
	if i+1 >= len(s) || isSpace(s[i+1]) {
		return -1
	}
	if c == '_' && i > 0 && isWordByte(s[i-1]) {
		return -1
	}
	for j := i + 2; j < len(s); j++ {
		if s[j] != c || isSpace(s[j-1]) {
			continue
		}
		if c == '_' && j+1 < len(s) && (isWordByte(s[j+1]) || s[j+1] == '.') {
			continue
		}
		if j+1 < len(s) && s[j+1] == c {
			continue
		}
		return j
	}
	return -1
}

var fileRefExtensions = []string{
	"py", "js", "jsx", "ts", "tsx", "go", "java", "rb", "php", "cs", "cpp", "c", "h",
	"rs", "swift", "kt", "scala", "html", "css", "scss", "json", "yaml", "yml",
	"xml", "md", "sql", "sh", "toml", "ini", "txt", "vue",
}

var fileRefPattern = regexp.MustCompile(
	`[A-Za-z0-9_\-./]*[A-Za-z0-9_\-]\.(?:` + strings.Join(fileRefExtensions, "|") + `)\b`,
)

// linkFileRefs turns bare file names in text spans into file references.
// Code spans, links and images are left alone.
func linkFileRefs(nodes []Inline) []Inline {
	var out []Inline
	for _, n := range nodes {
		switch n.Kind {
		case InlineText:
			out = append(out, splitFileRefs(n.Text)...)
		case InlineStrong, InlineEmphasis:
			n.Children = linkFileRefs(n.Children)
			out = append(out, n)
		default:
			out = append(out, n)
		}
	}
	return out
}

func splitFileRefs(text string) []Inline {
	var out []Inline
	last := 0
	for _, loc := range fileRefPattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && strings.IndexByte(":@\\", text[start-1]) >= 0 {
			continue
		}
		if start > last {
			out = append(out, Inline{Kind: InlineText, Text: text[last:start]})
		}
		out = append(out, Inline{Kind: InlineFileRef, Text: text[start:end]})
		last = end
	}
	if last < len(text) {
		out = append(out, Inline{Kind: InlineText, Text: text[last:]})
	}
	return out
}
