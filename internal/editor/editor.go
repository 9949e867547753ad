// Package editor provides the code-editing widget driven by the result
// surface, plus bundled sample snippets.
package editor

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/coderefine/internal/model"
)

// Editor is the contract the core uses to drive a code widget.
type Editor interface {
	Text() string
	SetText(string)
	SetSyntaxMode(model.LanguageTag)
}

// Area is a textarea-backed Editor.
type Area struct {
	ta   textarea.Model
	mode model.LanguageTag
}

var _ Editor = (*Area)(nil)

// New returns an empty, unfocused editor in python mode.
func New(placeholder string) *Area {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.Prompt = ""
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(lipgloss.Color("#343746"))
	ta.FocusedStyle.LineNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272a4"))
	ta.BlurredStyle.LineNumber = lipgloss.NewStyle().Foreground(lipgloss.Color("#44475a"))
	return &Area{ta: ta, mode: "python"}
}

// Text returns the current contents.
func (a *Area) Text() string { return a.ta.Value() }

// SetText replaces the contents and moves the cursor to the start.
func (a *Area) SetText(s string) {
	a.ta.SetValue(strings.ReplaceAll(s, "\r\n", "\n"))
	for a.ta.Line() > 0 {
		a.ta.CursorUp()
	}
	a.ta.CursorStart()
}

// SetSyntaxMode selects the language used for display.
func (a *Area) SetSyntaxMode(l model.LanguageTag) { a.mode = l }

// SyntaxMode returns the selected language.
func (a *Area) SyntaxMode() model.LanguageTag { return a.mode }

// Len is the character count of the contents.
func (a *Area) Len() int { return utf8.RuneCountInString(a.ta.Value()) }

// CharCount is the status line label for Len.
func (a *Area) CharCount() string { return fmt.Sprintf("%d chars", a.Len()) }

// SetSize sets the visible dimensions.
func (a *Area) SetSize(width, height int) {
	a.ta.SetWidth(width)
	a.ta.SetHeight(height)
}

// Focus gives the editor keyboard input.
func (a *Area) Focus() tea.Cmd { return a.ta.Focus() }

// Blur removes keyboard input.
func (a *Area) Blur() { a.ta.Blur() }

// Focused reports whether the editor takes keyboard input.
func (a *Area) Focused() bool { return a.ta.Focused() }

// Update forwards a message to the textarea.
func (a *Area) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.ta, cmd = a.ta.Update(msg)
	return cmd
}

// View renders the editor.
func (a *Area) View() string { return a.ta.View() }

//go:embed samples
var samples embed.FS

var sampleFiles = map[model.LanguageTag]string{
	"python":     "python.py",
	"javascript": "javascript.js",
	"java":       "java.java",
}

// Sample returns bundled example code for lang, falling back to the
// python sample.
func Sample(lang model.LanguageTag) string {
	name, ok := sampleFiles[lang]
	if !ok {
		name = sampleFiles["python"]
	}
	data, err := samples.ReadFile(path.Join("samples", name))
	if err != nil {
		panic(fmt.Sprintf("editor: missing bundled sample %s: %v", name, err))
	}
	return string(data)
}

// LoadSample puts the sample for lang into e and selects lang's mode.
func LoadSample(e Editor, lang model.LanguageTag) {
	e.SetText(Sample(lang))
	e.SetSyntaxMode(lang)
}
