package docgen

import (
	"fmt"
	"strings"
)

const (
	excerptLimit     = 2000
	truncationMarker = "\n... [truncated]"
)

const systemInstruction = `You are a senior technical writer who documents software projects for developers.
Write clear, accurate Markdown based only on the material you are given.
Start with a single "#" heading holding the project title and use "##" headings for the major sections.
Use fenced code blocks with a language tag for commands and code.`

var requestedSections = []string{
	"Overview",
	"Installation",
	"Usage",
	"Architecture",
	"Configuration",
	"API Reference",
	"Deployment",
	"Troubleshooting",
}

// BuildPrompt renders the user message: project header, file manifest and a
// truncated excerpt of every file.
func BuildPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project title: %s\n", in.Title)
	if in.Description != "" {
		fmt.Fprintf(&b, "Project description: %s\n", in.Description)
	}

	b.WriteString("\nUploaded files:\n")
	for _, f := range in.Files {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", f.Name, Language(f.Name), sizeKB(f.Size))
	}

	b.WriteString("\nFile contents:\n")
	for _, f := range in.Files {
		fmt.Fprintf(&b, "\n### %s\n```%s\n%s\n```\n", f.Name, FenceTag(f.Name), excerpt(f.Content))
	}

	fmt.Fprintf(&b, "\nWrite the technical documentation for this project with these sections: %s.\n",
		strings.Join(requestedSections, ", "))
	return b.String()
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= excerptLimit {
		return content
	}
	return string(runes[:excerptLimit]) + truncationMarker
}

func sizeKB(size int64) string {
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}
