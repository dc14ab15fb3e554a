package docgen

import (
	"path"
	"strings"
)

var languages = map[string]string{
	"py":    "Python",
	"js":    "JavaScript",
	"jsx":   "React JSX",
	"ts":    "TypeScript",
	"tsx":   "React TSX",
	"java":  "Java",
	"cpp":   "C++",
	"c":     "C",
	"cs":    "C#",
	"php":   "PHP",
	"rb":    "Ruby",
	"go":    "Go",
	"rs":    "Rust",
	"swift": "Swift",
	"kt":    "Kotlin",
	"scala": "Scala",
	"html":  "HTML",
	"css":   "CSS",
	"json":  "JSON",
	"md":    "Markdown",
	"yaml":  "YAML",
	"yml":   "YAML",
	"sql":   "SQL",
	"sh":    "Shell",
}

// Language names the language of a file from its extension. Unknown
// extensions come back upper-cased, files without one as "Text".
func Language(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	if ext == "" {
		return "Text"
	}
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return strings.ToUpper(ext)
}

// FenceTag is the info string used when a file is quoted in a fenced block.
func FenceTag(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}
