package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"

	"github.com/apotek/apotek/internal/log"
)

// Memory is the in-process session store. It is the default backend and
// the one used in tests; sessions vanish on restart.
//
// Memory is safe for concurrent use by multiple goroutines. Get returns
// copies, so callers can mutate the returned session freely and persist
// through Append.
type Memory struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   log.Logger
}

// NewMemory creates an empty in-memory store.
func NewMemory(logger log.Logger) *Memory {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Memory{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger,
	}
}

// Create starts a new, empty session.
func (m *Memory) Create(_ context.Context) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("session created", "id", s.ID)
	return copySession(s), nil
}

// Get returns a copy of the session with its full history.
func (m *Memory) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, found := m.sessions[id]
	m.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return copySession(s), nil
}

// List returns session summaries, newest first.
func (m *Memory) List(_ context.Context, limit, offset int) ([]Summary, error) {
	m.mu.RLock()
	all := make([]Summary, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s.Summary())
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	if offset >= len(all) {
		return []Summary{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

// Delete removes a session.
func (m *Memory) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, found := m.sessions[id]; !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", "id", id)
	return nil
}

// Append adds the turn's messages and snapshots the state.
func (m *Memory) Append(_ context.Context, id uuid.UUID, state State, messages ...*ai.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, found := m.sessions[id]
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Messages = append(s.Messages, messages...)
	s.State = state.Clone()
	s.UpdatedAt = time.Now()

	m.logger.Debug("session updated",
		"id", id, "new_messages", len(messages), "total", len(s.Messages))
	return nil
}

func copySession(s *Session) *Session {
	out := *s
	out.Messages = make([]*ai.Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.State = s.State.Clone()
	return &out
}
