// Package history keeps the locally displayed copy of the session's past
// analyses in step with the service.
package history

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sprite-ai/coderefine/internal/logging"
	"github.com/sprite-ai/coderefine/internal/model"
	"github.com/sprite-ai/coderefine/internal/notify"
)

// Toast texts for clear outcomes.
const (
	MsgCleared     = "History cleared"
	MsgClearFailed = "Failed to clear history"
)

// Service is the subset of the remote API used for history.
type Service interface {
	History(ctx context.Context, sessionID string) ([]model.HistoryEntry, error)
	ClearHistory(ctx context.Context, sessionID string) error
}

// Sync fetches and invalidates history. The session id is looked up per
// call so an id adopted by the workflow is honored.
type Sync struct {
	svc     Service
	session func() string
	notes   notify.Notifier
	logger  *log.Logger

	mu      sync.Mutex
	gen     uint64
	entries []model.HistoryEntry
}

// New returns a Sync with an empty list.
func New(svc Service, session func() string, notes notify.Notifier, logger *log.Logger) *Sync {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sync{svc: svc, session: session, notes: notes, logger: logger}
}

// Load fetches the history. Failures are logged and yield an empty list.
// A response overtaken by a later Load or a successful Clear is dropped
// and the current list is returned instead.
func (s *Sync) Load(ctx context.Context) []model.HistoryEntry {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	entries, err := s.svc.History(ctx, s.session())
	if err != nil {
		s.logger.Warn("history load failed", logging.FieldError, err)
		entries = []model.HistoryEntry{}
	}

	s.mu.Lock()
	if gen != s.gen {
		current := append([]model.HistoryEntry{}, s.entries...)
		s.mu.Unlock()
		s.logger.Debug("discarding stale history", logging.FieldCount, len(entries))
		return current
	}
	s.entries = entries
	s.mu.Unlock()

	s.logger.Debug("history loaded", logging.FieldCount, len(entries))
	return entries
}

// Clear deletes the session's history and reports the outcome to the
// user. On success the local list is emptied immediately.
func (s *Sync) Clear(ctx context.Context) error {
	if err := s.svc.ClearHistory(ctx, s.session()); err != nil {
		s.logger.Error("history clear failed", logging.FieldError, err)
		s.notes.Push(MsgClearFailed, notify.KindError)
		return err
	}

	s.mu.Lock()
	s.gen++
	s.entries = []model.HistoryEntry{}
	s.mu.Unlock()

	s.notes.Push(MsgCleared, notify.KindInfo)
	return nil
}

// Entries returns the last known list.
func (s *Sync) Entries() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HistoryEntry(nil), s.entries...)
}
