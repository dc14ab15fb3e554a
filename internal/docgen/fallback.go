package docgen

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

const (
	minFallbackDelay = 2 * time.Second
	maxFallbackDelay = 5 * time.Second
	perFileDelay     = 500 * time.Millisecond
	previewLines     = 15
)

//go:embed templates/fallback.md.tmpl
var fallbackSource string

var fallbackTemplate = template.Must(
	template.New("fallback").Funcs(sprig.TxtFuncMap()).Parse(fallbackSource),
)

type fallbackFile struct {
	Name     string
	Language string
	Fence    string
	SizeKB   string
	Lines    int
	Preview  string
}

type languageGroup struct {
	Language string
	Files    []string
}

type fallbackData struct {
	Title        string
	Description  string
	FileCount    int
	TotalKB      string
	Languages    []string
	Groups       []languageGroup
	Files        []fallbackFile
	PreviewLines int
}

// FallbackDelay is the simulated processing time of the offline generator.
func FallbackDelay(fileCount int) time.Duration {
	d := minFallbackDelay + time.Duration(fileCount)*perFileDelay
	if d > maxFallbackDelay {
		return maxFallbackDelay
	}
	return d
}

// RenderFallback builds the offline document. Output depends only on in.
func RenderFallback(in Input) (string, error) {
	data := fallbackData{
		Title:        in.Title,
		Description:  strings.TrimSpace(in.Description),
		FileCount:    len(in.Files),
		PreviewLines: previewLines,
	}

	var total int64
	byLanguage := map[string][]string{}
	for _, f := range in.Files {
		total += f.Size
		lang := Language(f.Name)
		byLanguage[lang] = append(byLanguage[lang], f.Name)
		data.Files = append(data.Files, fallbackFile{
			Name:     f.Name,
			Language: lang,
			Fence:    FenceTag(f.Name),
			SizeKB:   fmt.Sprintf("%.1f", float64(f.Size)/1024),
			Lines:    lineCount(f.Content),
			Preview:  preview(f.Content),
		})
	}
	data.TotalKB = fmt.Sprintf("%.1f", float64(total)/1024)

	for lang := range byLanguage {
		data.Languages = append(data.Languages, lang)
	}
	sort.Strings(data.Languages)
	for _, lang := range data.Languages {
		data.Groups = append(data.Groups, languageGroup{Language: lang, Files: byLanguage[lang]})
	}

	var buf bytes.Buffer
	if err := fallbackTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render fallback documentation: %w", err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

func lineCount(content string) int {
	content = strings.TrimRight(content, "\n")
	if content == "" {
		return 0
	}
	return strings.Count(content, "\n") + 1
}

func preview(content string) string {
	content = strings.TrimRight(content, "\n")
	if strings.TrimSpace(content) == "" {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > previewLines {
		lines = append(lines[:previewLines], "...")
	}
	for i, line := range lines {
		lines[i] = strings.ReplaceAll(strings.TrimRight(line, " \t\r"), "```", "'''")
	}
	return strings.Join(lines, "\n")
}
