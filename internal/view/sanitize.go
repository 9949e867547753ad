package view

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize makes untrusted service text safe to place in terminal output:
// escape sequences are stripped and remaining control characters other
// than newline and tab are dropped.
func Sanitize(s string) string {
	s = ansi.Strip(s)
	if strings.IndexFunc(s, isUnsafe) < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if isUnsafe(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLine is Sanitize with line breaks folded to spaces, for
// single-line fields such as titles.
func SanitizeLine(s string) string {
	s = Sanitize(s)
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	return strings.TrimSpace(s)
}

func isUnsafe(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.IsControl(r) || r == '\u200e' || r == '\u200f' || (r >= '\u202a' && r <= '\u202e')
}
