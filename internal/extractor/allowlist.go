package extractor

import (
	"path"
	"strings"
)

var sourceExtensions = map[string]bool{
	"py": true, "js": true, "jsx": true, "ts": true, "tsx": true, "mjs": true, "cjs": true,
	"java": true, "kt": true, "kts": true, "scala": true, "groovy": true,
	"c": true, "h": true, "cc": true, "cpp": true, "hpp": true, "cs": true,
	"go": true, "rs": true, "swift": true, "m": true, "dart": true,
	"php": true, "rb": true, "pl": true, "lua": true, "r": true,
	"sh": true, "bash": true, "zsh": true, "ps1": true, "sql": true,
	"vue": true, "svelte": true,
}

var markupExtensions = map[string]bool{
	"html": true, "htm": true, "css": true, "scss": true, "sass": true, "less": true,
	"json": true, "xml": true, "yaml": true, "yml": true, "toml": true, "ini": true,
	"cfg": true, "conf": true, "properties": true, "gradle": true,
	"md": true, "markdown": true, "rst": true, "txt": true, "csv": true,
}

var documentExtensions = map[string]string{
	"pdf":  "application/pdf",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// Extension-less files worth documenting.
var knownBaseNames = map[string]bool{
	"dockerfile": true,
	"makefile":   true,
	"procfile":   true,
	"license":    true,
}

// Directories holding tool metadata, dependency or VCS trees.
var excludedDirs = map[string]bool{
	"__macosx":     true,
	"node_modules": true,
	"vendor":       true,
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// Allowed reports whether a file name has a supported extension.
func Allowed(name string) bool {
	ext := extension(name)
	if ext == "" {
		return knownBaseNames[strings.ToLower(path.Base(name))]
	}
	if sourceExtensions[ext] || markupExtensions[ext] {
		return true
	}
	_, ok := documentExtensions[ext]
	return ok
}

func isArchive(name string) bool {
	return extension(name) == "zip"
}

// isExcludedPath reports whether an archive entry is hidden or sits in an
// excluded directory. Directories are matched by whole segment.
func isExcludedPath(p string) bool {
	segments := strings.Split(p, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, ".") {
			return true
		}
		if i < len(segments)-1 && excludedDirs[strings.ToLower(segment)] {
			return true
		}
	}
	return false
}
