package tui

import (
	"errors"
	"fmt"
	"os"

	"github.com/sprite-ai/coderefine/internal/model"
)

// Outcome holds the result of an interactive session.
type Outcome struct {
	// Path is the file the editor was loaded from, if any.
	Path     string
	Language model.LanguageTag
	// Original is the editor text at start.
	Original string
	// Code is the editor text at exit.
	Code string
	// Accepted counts how often optimized code was moved into the editor.
	Accepted int
}

// Changed reports whether the editor text differs from what was loaded.
func (o Outcome) Changed() bool {
	return o.Code != o.Original
}

// Summary is a one-line description for the terminal after exit.
func (o Outcome) Summary() string {
	switch {
	case !o.Changed():
		return "No changes to the source."
	case o.Accepted == 1:
		return "Source changed; optimized code accepted once."
	case o.Accepted > 1:
		return fmt.Sprintf("Source changed; optimized code accepted %d times.", o.Accepted)
	default:
		return "Source edited."
	}
}

// WriteBack saves Code to Path, keeping the file's permissions. It is a
// no-op when nothing changed.
func (o Outcome) WriteBack() error {
	if !o.Changed() {
		return nil
	}
	if o.Path == "" || o.Path == "-" {
		return errors.New("no source file to write back to")
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(o.Path); err == nil {
		mode = info.Mode().Perm()
	}

	code := o.Code
	if code != "" && code[len(code)-1] != '\n' {
		code += "\n"
	}
	if err := os.WriteFile(o.Path, []byte(code), mode); err != nil {
		return fmt.Errorf("writing %s: %w", o.Path, err)
	}
	return nil
}
