package session

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprite-ai/coderefine/internal/logging"
)

var uuidV4 = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestGetOrCreateIsStable(t *testing.T) {
	s := NewStore(NewMemoryKV(), logging.Discard())

	first := s.GetOrCreate()
	second := s.GetOrCreate()

	assert.Equal(t, first, second)
	assert.Regexp(t, uuidV4, first)
}

func TestGetOrCreateRegeneratesWhenCleared(t *testing.T) {
	kv := NewMemoryKV()
	s := NewStore(kv, logging.Discard())

	first := s.GetOrCreate()
	kv.Delete(Key)
	second := s.GetOrCreate()

	assert.NotEqual(t, first, second)
	stored, ok, err := kv.Get(Key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, stored)
}

func TestGetOrCreateReusesExisting(t *testing.T) {
	kv := NewMemoryKV()
	require.NoError(t, kv.Set(Key, "existing-id"))

	s := NewStore(kv, logging.Discard())
	assert.Equal(t, "existing-id", s.GetOrCreate())
}

func TestFileKVPersistsAcrossStores(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	first := NewStore(NewFileKV(path), logging.Discard()).GetOrCreate()
	second := NewStore(NewFileKV(path), logging.Discard()).GetOrCreate()
	assert.Equal(t, first, second)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), Key)
	assert.Contains(t, string(data), first)
}

type brokenKV struct{ getErr, setErr error }

func (b brokenKV) Get(string) (string, bool, error) { return "", false, b.getErr }
func (b brokenKV) Set(string, string) error       { return b.setErr }

func TestGetOrCreateDegradesToMemory(t *testing.T) {
	tests := []struct {
		name string
		kv   KV
	}{
		{"unreadable", brokenKV{getErr: errors.New("permission denied")}},
		{"unwritable", brokenKV{setErr: errors.New("read-only file system")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.kv, logging.Discard())
			first := s.GetOrCreate()
			assert.Regexp(t, uuidV4, first)
			assert.Equal(t, first, s.GetOrCreate())
		})
	}
}
