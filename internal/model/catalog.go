package model

import (
	"path/filepath"
	"strings"
)

// Category names an issue grouping selectable for display.
type Category string

const (
	CategoryBugs          Category = "bugs"
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryBestPractices Category = "bestPractices"
	CategoryPositives     Category = "positives"
)

// Categories lists every category in tab order.
var Categories = []Category{
	CategoryBugs,
	CategorySecurity,
	CategoryPerformance,
	CategoryBestPractices,
	CategoryPositives,
}

// DefaultCategory is shown until the user picks another one.
const DefaultCategory = CategoryBugs

// Label is the human-readable tab name.
func (c Category) Label() string {
	switch c {
	case CategoryBugs:
		return "Bugs"
	case CategorySecurity:
		return "Security"
	case CategoryPerformance:
		return "Performance"
	case CategoryBestPractices:
		return "Best Practices"
	case CategoryPositives:
		return "Positives"
	default:
		return string(c)
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// ParseCategory matches a category name case-insensitively. It also
// accepts "best" and "best-practices" for bestPractices.
func ParseCategory(s string) (Category, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "best", "best-practices", "best_practices", "bestpractices":
		return CategoryBestPractices, true
	}
	for _, c := range Categories {
		if strings.ToLower(string(c)) == norm {
			return c, true
		}
	}
	return "", false
}

// LanguageTag identifies the language of submitted code.
type LanguageTag string

// Languages the service understands, in menu order.
var Languages = []LanguageTag{
	"python", "javascript", "typescript", "java", "c", "cpp", "csharp",
	"go", "rust", "php", "ruby", "swift", "kotlin", "sql", "bash", "html", "css",
}

// Known reports whether the tag is in the supported catalog.
func (l LanguageTag) Known() bool {
	for _, k := range Languages {
		if k == l {
			return true
		}
	}
	return false
}

// syntaxModes maps a language tag to a chroma lexer name.
var syntaxModes = map[LanguageTag]string{
	"python":     "python",
	"javascript": "javascript",
	"typescript": "typescript",
	"java":       "java",
	"c":          "c",
	"cpp":        "c++",
	"csharp":     "c#",
	"go":         "go",
	"rust":       "rust",
	"php":        "php",
	"ruby":       "ruby",
	"swift":      "swift",
	"kotlin":     "kotlin",
	"sql":        "sql",
	"bash":       "bash",
	"html":       "html",
	"css":        "css",
}

// SyntaxMode returns the highlighter mode for the tag. Unknown tags are
// passed through unchanged.
func (l LanguageTag) SyntaxMode() string {
	if m, ok := syntaxModes[l]; ok {
		return m
	}
	return string(l)
}

// ParseLanguage lower-cases and trims a language name. Known tags are
// canonicalized; unknown ones are kept as given.
func ParseLanguage(s string) LanguageTag {
	tag := LanguageTag(strings.ToLower(strings.TrimSpace(s)))
	if tag.Known() {
		return tag
	}
	return LanguageTag(strings.TrimSpace(s))
}

var extLanguages = map[string]LanguageTag{
	".py":    "python",
	".js":    "javascript",
	".mjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".go":    "go",
	".rs":    "rust",
	".php":   "php",
	".rb":    "ruby",
	".swift": "swift",
	".kt":    "kotlin",
	".sql":   "sql",
	".sh":    "bash",
	".bash":  "bash",
	".html":  "html",
	".htm":   "html",
	".css":   "css",
}

// LanguageForFile guesses a language from a file extension.
func LanguageForFile(name string) (LanguageTag, bool) {
	tag, ok := extLanguages[strings.ToLower(filepath.Ext(name))]
	return tag, ok
}
