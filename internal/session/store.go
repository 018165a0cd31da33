package session

import (
	"sort"
	"sync"
	"time"

	"github.com/mitra-ai/docchat/internal/model"
	appErr "github.com/mitra-ai/docchat/internal/pkg/errors"
)

// Store is the process-wide chat transcript store. Sessions live until
// explicitly deleted (or swept when a TTL is configured). Appends on the
// same session id are serialized by a per-session lock; different ids
// proceed independently.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	mu sync.Mutex
	s  model.Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

func (st *Store) getOrCreate(id string) *entry {
	st.mu.RLock()
	e := st.sessions[id]
	st.mu.RUnlock()
	if e != nil {
		return e
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if e = st.sessions[id]; e != nil {
		return e
	}
	now := st.now()
	e = &entry{s: model.Session{
		ChatID:      id,
		Messages:    []model.Message{},
		CreatedAt:   now,
		LastUpdated: now,
	}}
	st.sessions[id] = e
	return e
}

// GetOrCreate returns the session for id, creating it lazily.
func (st *Store) GetOrCreate(id string) model.Session {
	e := st.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.s)
}

// Append adds messages to the session for id, creating it if absent.
func (st *Store) Append(id string, msgs ...model.Message) model.Session {
	e := st.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.Messages = append(e.s.Messages, msgs...)
	e.s.LastUpdated = st.now()
	return copySession(e.s)
}

func (st *Store) Get(id string) (model.Session, error) {
	st.mu.RLock()
	e := st.sessions[id]
	st.mu.RUnlock()
	if e == nil {
		return model.Session{}, appErr.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.s), nil
}

// List returns all sessions ordered by creation time.
func (st *Store) List() []model.Session {
	st.mu.RLock()
	entries := make([]*entry, 0, len(st.sessions))
	for _, e := range st.sessions {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	out := make([]model.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, copySession(e.s))
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ChatID < out[j].ChatID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Clear drops the session's messages but keeps the session itself.
func (st *Store) Clear(id string) (model.Session, error) {
	st.mu.RLock()
	e := st.sessions[id]
	st.mu.RUnlock()
	if e == nil {
		return model.Session{}, appErr.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.Messages = []model.Message{}
	e.s.LastUpdated = st.now()
	return copySession(e.s), nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return appErr.ErrSessionNotFound
	}
	delete(st.sessions, id)
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle longer than maxIdle and reports how many were
// dropped. Used by the optional TTL job; never called when TTL is disabled.
func (st *Store) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := st.now().Add(-maxIdle)
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, e := range st.sessions {
		e.mu.Lock()
		idle := e.s.LastUpdated.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func copySession(s model.Session) model.Session {
	out := s
	out.Messages = make([]model.Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}
