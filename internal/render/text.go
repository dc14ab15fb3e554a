package render

import (
	"fmt"
	"strings"
)

// TextRenderer produces a plain-text rendition of blocks for exports.
type TextRenderer struct{}

func (r TextRenderer) Render(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := r.block(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (r TextRenderer) block(b Block) string {
	switch b.Kind {
	case BlockHeading:
		title := r.inlines(b.Inlines)
		if b.Level <= 2 {
			underline := "="
			if b.Level == 2 {
				underline = "-"
			}
			return title + "\n" + strings.Repeat(underline, len([]rune(title)))
		}
		return title
	case BlockParagraph:
		return r.inlines(b.Inlines)
	case BlockCode:
		lines := strings.Split(b.Text, "\n")
		for i, line := range lines {
			lines[i] = "    " + line
		}
		return strings.Join(lines, "\n")
	case BlockList:
		items := make([]string, len(b.Items))
		for i, item := range b.Items {
			marker := "-"
			if b.Ordered {
				marker = fmt.Sprintf("%d.", i+1)
			}
			items[i] = marker + " " + r.inlines(item)
		}
		return strings.Join(items, "\n")
	case BlockImage:
		return "[image: " + b.Alt + "]"
	case BlockTable:
		rows := []string{r.row(b.Header)}
		for _, row := range b.Rows {
			rows = append(rows, r.row(row))
		}
		return strings.Join(rows, "\n")
	case BlockRule:
		return strings.Repeat("-", 20)
	case BlockHTML:
		return strings.TrimSpace(stripTags(b.Text))
	}
	return ""
}

func (r TextRenderer) row(cells [][]Inline) string {
	out := make([]string, len(cells))
	for i, cell := range cells {
		out[i] = r.inlines(cell)
	}
	return strings.Join(out, " | ")
}

func (r TextRenderer) inlines(nodes []Inline) string {
	var sb strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case InlineText, InlineCode, InlineFileRef:
			sb.WriteString(n.Text)
		case InlineStrong, InlineEmphasis:
			sb.WriteString(r.inlines(n.Children))
		case InlineLink:
			label := r.inlines(n.Children)
			sb.WriteString(label)
			if label != n.URL {
				sb.WriteString(" (" + n.URL + ")")
			}
		case InlineImage:
			sb.WriteString("[image: " + n.Text + "]")
		}
	}
	return sb.String()
}
