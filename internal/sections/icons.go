package sections

import "strings"

const defaultIcon = "file-text"

// First matching rule wins.
var iconRules = []struct {
	keywords []string
	icon     string
}{
	{[]string{"overview", "introduction", "about", "summary"}, "book-open"},
	{[]string{"install", "setup", "getting started", "prerequisite"}, "download"},
	{[]string{"usage", "guide", "tutorial", "example"}, "play-circle"},
	{[]string{"api", "endpoint", "reference"}, "code"},
	{[]string{"architecture", "design", "structure", "component"}, "layers"},
	{[]string{"config", "setting", "environment"}, "settings"},
	{[]string{"deploy", "release", "production"}, "rocket"},
	{[]string{"troubleshoot", "faq", "debug", "issue"}, "help-circle"},
	{[]string{"security", "auth", "permission"}, "shield"},
	{[]string{"development", "contributing", "command", "cli"}, "terminal"},
	{[]string{"test", "quality"}, "check-circle"},
	{[]string{"maintenance", "update", "migration", "changelog"}, "refresh-cw"},
}

// Icon picks a display icon from keywords in the section title.
func Icon(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.icon
			}
		}
	}
	return defaultIcon
}
