package memory

import (
	"context"
	"sync"

	"github.com/remedyhq/remedy/pkg/domain"
)

// Store implements ports.CheckpointStore in memory.
// Safe for concurrent use.
type Store struct {
	data   map[string]*domain.Checkpoint
	tokens map[string]string // token -> session ID
	mu     sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:   make(map[string]*domain.Checkpoint),
		tokens: make(map[string]string),
	}
}

// Save persists the checkpoint in memory, replacing any previous one.
// The previous checkpoint's token stops resolving.
func (s *Store) Save(ctx context.Context, sessionID string, cp *domain.Checkpoint) error {
	copied := cloneCheckpoint(cp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.data[sessionID]; ok && prev.Token != "" {
		delete(s.tokens, prev.Token)
	}
	s.data[sessionID] = copied
	if copied.Token != "" {
		s.tokens[copied.Token] = sessionID
	}
	return nil
}

// Load retrieves the checkpoint from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller can't mutate store state by pointer.
	return cloneCheckpoint(cp), nil
}

// FindToken resolves a resumption token to its checkpoint.
func (s *Store) FindToken(ctx context.Context, token string) (*domain.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.tokens[token]
	if !ok || token == "" {
		return nil, domain.ErrTokenNotFound
	}
	cp, ok := s.data[sessionID]
	if !ok || cp.Token != token {
		return nil, domain.ErrTokenNotFound
	}
	return cloneCheckpoint(cp), nil
}

// Delete removes the checkpoint and its token.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cp, ok := s.data[sessionID]; ok && cp.Token != "" {
		delete(s.tokens, cp.Token)
	}
	delete(s.data, sessionID)
	return nil
}

// List returns stored sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

func cloneCheckpoint(cp *domain.Checkpoint) *domain.Checkpoint {
	out := *cp
	out.State = cp.State.Clone()
	if cp.Prompt != nil {
		p := *cp.Prompt
		p.Requests = append([]domain.InfoRequest(nil), cp.Prompt.Requests...)
		if cp.Prompt.Context != nil {
			p.Context = make(map[string]any, len(cp.Prompt.Context))
			for k, v := range cp.Prompt.Context {
				p.Context[k] = v
			}
		}
		out.Prompt = &p
	}
	return &out
}
