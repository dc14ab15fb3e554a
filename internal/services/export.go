package services

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"docportal-backend/internal/models"
	"docportal-backend/internal/render"
	"docportal-backend/internal/sections"
)

const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatText     = "text"
)

type Export struct {
	Filename    string
	ContentType string
	Body        string
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// Export renders the documentation, with section edits applied, in format.
func (s *DocumentationService) Export(ctx context.Context, actor *models.Actor, id uuid.UUID, format string) (*Export, error) {
	if format == "" {
		format = FormatMarkdown
	}

	project, err := s.GetProject(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	tree, err := projectSections(project)
	if err != nil {
		return nil, err
	}

	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(project.Title), "-"), "-")
	if base == "" {
		base = "documentation"
	}

	switch format {
	case FormatMarkdown:
		body := project.Documentation.String
		if len(project.SectionOverrides) > 0 {
			body = joinParts(tree, func(content string) string {
				return strings.TrimSpace(strings.ReplaceAll(content, models.RichHTMLMarker, ""))
			}, "\n\n")
		}
		return &Export{Filename: base + ".md", ContentType: "text/markdown; charset=utf-8", Body: body}, nil

	case FormatHTML:
		body := joinParts(tree, render.Render, "\n")
		return &Export{
			Filename:    base + ".html",
			ContentType: "text/html; charset=utf-8",
			Body:        htmlDocument(project.Title, body),
		}, nil

	case FormatText:
		body := joinParts(tree, render.RenderText, "\n\n")
		return &Export{Filename: base + ".txt", ContentType: "text/plain; charset=utf-8", Body: body}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// joinParts converts every visible piece of the tree in document order: the
// lead of each main section followed by its subsections.
func joinParts(tree []sections.Section, convert func(string) string, sep string) string {
	var parts []string
	for _, main := range tree {
		parts = append(parts, convert(sections.Lead(main)))
		for _, sub := range main.Subsections {
			parts = append(parts, convert(sub.FullContent))
		}
	}
	return strings.Join(parts, sep) + "\n"
}

func htmlDocument(title, body string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(html.EscapeString(title))
	b.WriteString("</title>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
