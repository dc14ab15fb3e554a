package render

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// HTMLRenderer turns blocks into display markup. All text is escaped and
// every URL is checked against an allow-list of schemes.
type HTMLRenderer struct{}

func (r HTMLRenderer) Render(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, r.block(b))
	}
	return strings.Join(parts, "\n")
}

func (r HTMLRenderer) block(b Block) string {
	switch b.Kind {
	case BlockHeading:
		return fmt.Sprintf("<h%d>%s</h%d>", b.Level, r.inlines(b.Inlines), b.Level)
	case BlockParagraph:
		return "<p>" + r.inlines(b.Inlines) + "</p>"
	case BlockCode:
		if b.Lang == "" {
			return "<pre><code>" + html.EscapeString(b.Text) + "</code></pre>"
		}
		return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`,
			html.EscapeString(b.Lang), html.EscapeString(b.Text))
	case BlockList:
		tag := "ul"
		if b.Ordered {
			tag = "ol"
		}
		var sb strings.Builder
		sb.WriteString("<" + tag + ">\n")
		for _, item := range b.Items {
			sb.WriteString("<li>" + r.inlines(item) + "</li>\n")
		}
		sb.WriteString("</" + tag + ">")
		return sb.String()
	case BlockImage:
		img := r.image(b.Alt, b.URL)
		if b.Link != "" {
			img = r.anchor(b.Link, img)
		}
		return "<figure>" + img + "</figure>"
	case BlockTable:
		return r.table(b)
	case BlockRule:
		return "<hr>"
	case BlockHTML:
		return sanitizeHTML(b.Text)
	}
	return ""
}

func (r HTMLRenderer) table(b Block) string {
	var sb strings.Builder
	sb.WriteString("<table>\n<thead>\n<tr>")
	for _, cell := range b.Header {
		sb.WriteString("<th>" + r.inlines(cell) + "</th>")
	}
	sb.WriteString("</tr>\n</thead>\n<tbody>\n")
	for _, row := range b.Rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + r.inlines(cell) + "</td>")
		}
		sb.WriteString("</tr>\n")
	}
	sb.WriteString("</tbody>\n</table>")
	return sb.String()
}

func (r HTMLRenderer) inlines(nodes []Inline) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case InlineText:
			sb.WriteString(html.EscapeString(n.Text))
		case InlineCode:
			sb.WriteString("<code>" + html.EscapeString(n.Text) + "</code>")
		case InlineStrong:
			sb.WriteString("<strong>" + r.inlines(n.Children) + "</strong>")
		case InlineEmphasis:
			sb.WriteString("<em>" + r.inlines(n.Children) + "</em>")
		case InlineLink:
			sb.WriteString(r.anchor(n.URL, r.inlines(n.Children)))
		case InlineImage:
			sb.WriteString(r.image(n.Text, n.URL))
		case InlineFileRef:
			name := html.EscapeString(n.Text)
			fmt.Fprintf(&sb, `<span class="file-link" data-file="%s" role="button" tabindex="0">%s</span>`, name, name)
		}
	}
	return sb.String()
}

func (r HTMLRenderer) anchor(url, inner string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`, safeURL(url, false), inner)
}

func (r HTMLRenderer) image(alt, url string) string {
	return fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy">`, safeURL(url, true), html.EscapeString(alt))
}

var dataImage = regexp.MustCompile(`^data:image/(?:png|jpe?g|gif|webp|svg\+xml);base64,[A-Za-z0-9+/=]+$`)

// safeURL returns the escaped url, or "#" when its scheme is not allowed.
// Base64 data URLs are accepted for images only.
func safeURL(url string, image bool) string {
	url = strings.TrimSpace(url)
	lower := strings.ToLower(url)

	switch {
	case image && dataImage.MatchString(url):
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"), strings.HasPrefix(lower, "mailto:"):
	case isRelative(url):
	default:
		return "#"
	}
	return html.EscapeString(url)
}

func isRelative(url string) bool {
	colon := strings.IndexByte(url, ':')
	if colon < 0 {
		return true
	}
	sep := strings.IndexAny(url, "/?#")
	return sep >= 0 && sep < colon
}

var (
	htmlTag         = regexp.MustCompile(`<(/?)([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
	allowedHTMLTags = map[string]bool{
		"div": true, "p": true, "br": true, "hr": true, "span": true,
		"strong": true, "b": true, "em": true, "i": true, "u": true, "code": true, "pre": true,
		"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
		"table": true, "thead": true, "tbody": true, "tr": true, "th": true, "td": true,
		"blockquote": true, "details": true, "summary": true, "section": true, "figure": true,
		"h1": true, "h2": true, "h3": true, "h4": true,
	}
)

// sanitizeHTML keeps allow-listed tags with their attributes removed and
// escapes everything else.
func sanitizeHTML(src string) string {
	var sb strings.Builder
	last := 0
	for _, m := range htmlTag.FindAllStringSubmatchIndex(src, -1) {
		sb.WriteString(html.EscapeString(src[last:m[0]]))
		closing := src[m[2]:m[3]]
		name := strings.ToLower(src[m[4]:m[5]])
		if allowedHTMLTags[name] {
			sb.WriteString("<" + closing + name + ">")
		} else {
			sb.WriteString(html.EscapeString(src[m[0]:m[1]]))
		}
		last = m[1]
	}
	sb.WriteString(html.EscapeString(src[last:]))
	return sb.String()
}

// stripTags removes every tag and unescapes entities.
func stripTags(src string) string {
	return html.UnescapeString(htmlTag.ReplaceAllString(src, ""))
}
