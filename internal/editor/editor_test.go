package editor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sprite-ai/coderefine/internal/model"
)

func TestSampleFallsBackToPython(t *testing.T) {
	py := Sample("python")
	assert.True(t, strings.HasPrefix(py, "# Sample: Buggy Python code"))
	assert.Equal(t, py, Sample("rust"))
	assert.Contains(t, Sample("javascript"), "require('express')")
	assert.Contains(t, Sample("java"), "public class UserService")
}

func TestLoadSampleSetsTextAndMode(t *testing.T) {
	a := New("")
	LoadSample(a, "javascript")
	assert.Equal(t, model.LanguageTag("javascript"), a.SyntaxMode())
	assert.Equal(t, Sample("javascript"), a.Text())

	LoadSample(a, "go")
	assert.Equal(t, model.LanguageTag("go"), a.SyntaxMode())
	assert.Equal(t, Sample("python"), a.Text())
}

func TestCharCount(t *testing.T) {
	a := New("")
	assert.Equal(t, "0 chars", a.CharCount())
	a.SetText("héllo\r\nworld")
	assert.Equal(t, "héllo\nworld", a.Text())
	assert.Equal(t, 11, a.Len())
	assert.Equal(t, "11 chars", a.CharCount())
}
