// Package session owns the durable per-user session identifier that
// correlates requests and history on the analysis service.
package session

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sprite-ai/coderefine/internal/logging"
)

// Key is the single persisted key holding the session id.
const Key = "coderefine_session"

// Store hands out the session id, creating and persisting it on first use.
type Store struct {
	kv     KV
	logger *log.Logger

	mu       sync.Mutex
	fallback string // in-memory id used while persistence is unavailable
	newID    func() string
}

// NewStore returns a Store over kv.
func NewStore(kv KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{kv: kv, logger: logger, newID: uuid.NewString}
}

// GetOrCreate returns the persisted session id, generating and saving a
// random UUIDv4 when storage holds none. It never fails: if storage cannot
// be read or written the id lives in memory for the life of the process.
func (s *Store) GetOrCreate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.kv.Get(Key)
	if err == nil && ok {
		return id
	}
	if err != nil {
		s.logger.Warn("session storage unreadable, using in-memory id", logging.FieldError, err)
		if s.fallback == "" {
			s.fallback = s.newID()
		}
		return s.fallback
	}

	id = s.newID()
	if err := s.kv.Set(Key, id); err != nil {
		s.logger.Warn("session id not persisted", logging.FieldError, err)
		if s.fallback == "" {
			s.fallback = id
		}
		return s.fallback
	}
	s.fallback = ""
	return id
}
