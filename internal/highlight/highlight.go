// Package highlight colors source code for terminal display.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/coderefine/internal/model"
)

// StyleName is the chroma style used for token colors.
const StyleName = "dracula"

// Line is a line of syntax-highlighted tokens.
type Line struct {
	Tokens []Token
}

// Token is a syntax-highlighted chunk of text.
type Token struct {
	Text  string
	Color string // hex color, empty for default
}

// Plain returns the concatenated plain text of all tokens.
func (l Line) Plain() string {
	var b strings.Builder
	for _, t := range l.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Lines tokenizes code in the given language. Unknown languages yield
// uncolored lines. The result has one Line per input line.
func Lines(lang model.LanguageTag, code string) []Line {
	src := strings.Split(strings.ReplaceAll(code, "\r\n", "\n"), "\n")

	lexer := lexerFor(lang)
	if lexer == nil {
		return plainLines(src)
	}

	iterator, err := lexer.Tokenise(nil, strings.Join(src, "\n"))
	if err != nil {
		return plainLines(src)
	}

	style := styles.Get(StyleName)
	if style == nil {
		style = styles.Fallback
	}

	result := make([]Line, 0, len(src))
	current := Line{}

	for _, token := range iterator.Tokens() {
		// Tokens may span lines
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				result = append(result, current)
				current = Line{}
			}
			if part != "" {
				current.Tokens = append(current.Tokens, Token{
					Text:  part,
					Color: tokenColor(style, token.Type),
				})
			}
		}
	}
	result = append(result, current)

	for len(result) < len(src) {
		result = append(result, Line{})
	}
	// chroma ensures a trailing newline, which shows up as an extra line
	return result[:len(src)]
}

// Render styles lines for the terminal. When numbered is set, each line
// is prefixed with its 1-based line number.
func Render(lines []Line, numbered bool) string {
	width := len(fmt.Sprint(len(lines)))
	numStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if numbered {
			b.WriteString(numStyle.Render(fmt.Sprintf("%*d", width, i+1)))
			b.WriteString("  ")
		}
		for _, tok := range l.Tokens {
			if tok.Color != "" {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
			} else {
				b.WriteString(tok.Text)
			}
		}
	}
	return b.String()
}

// Code is Render(Lines(lang, code), numbered).
func Code(lang model.LanguageTag, code string, numbered bool) string {
	return Render(Lines(lang, code), numbered)
}

// Supported reports whether lang has a lexer.
func Supported(lang model.LanguageTag) bool {
	return lexerFor(lang) != nil
}

func plainLines(lines []string) []Line {
	result := make([]Line, len(lines))
	for i, line := range lines {
		if line != "" {
			result[i] = Line{Tokens: []Token{{Text: line}}}
		}
	}
	return result
}

func lexerFor(lang model.LanguageTag) chroma.Lexer {
	lexer := lexers.Get(lang.SyntaxMode())
	if lexer == nil {
		return nil
	}
	return chroma.Coalesce(lexer)
}

func tokenColor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
