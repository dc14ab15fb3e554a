// Package render turns section markdown into display markup and back into
// stored content for the section editor.
//
// Rendering goes through a small typed intermediate form: ParseBlocks splits
// markdown into Blocks holding Inlines, and a renderer (HTMLRenderer for the
// viewer, TextRenderer for exports) walks that tree. Content saved from the
// rich editor carries models.RichHTMLMarker and bypasses the markdown path.
package render

import (
	"strings"

	"docportal-backend/internal/models"
)

// Render returns the display markup of section content. Rich content is
// returned verbatim with only the marker removed.
func Render(content string) string {
	if IsRich(content) {
		return strings.ReplaceAll(content, models.RichHTMLMarker, "")
	}
	return HTMLRenderer{}.Render(ParseBlocks(content))
}

// RenderText returns a plain-text rendition of section content.
func RenderText(content string) string {
	if IsRich(content) {
		return strings.TrimSpace(stripTags(strings.ReplaceAll(content, models.RichHTMLMarker, "")))
	}
	return TextRenderer{}.Render(ParseBlocks(content))
}

func IsRich(content string) bool {
	return strings.Contains(content, models.RichHTMLMarker)
}

// ToEditableBuffer prepares display markup for the WYSIWYG editor.
func ToEditableBuffer(displayMarkup string) string {
	return strings.TrimSpace(strings.ReplaceAll(displayMarkup, models.RichHTMLMarker, ""))
}

// FromEditableBuffer turns an editor buffer into stored section content.
// Render(FromEditableBuffer(b)) == b for any buffer without the marker.
func FromEditableBuffer(buffer string) string {
	return models.RichHTMLMarker + strings.ReplaceAll(buffer, models.RichHTMLMarker, "")
}
