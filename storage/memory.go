// In-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral sessions

package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/richinex/kbagent/llm"
)

// InMemoryStorage implements ConversationStorage using an in-memory map.
// Data is lost when process terminates.
type InMemoryStorage struct {
	mu       sync.RWMutex
	sessions map[string][]llm.ChatMessage
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		sessions: make(map[string][]llm.ChatMessage),
	}
}

// Save saves conversation history for a session.
func (s *InMemoryStorage) Save(_ context.Context, sessionID string, history []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = append([]llm.ChatMessage(nil), history...)
	return nil
}

// Load loads conversation history for a session.
// Returns empty slice if session doesn't exist.
func (s *InMemoryStorage) Load(_ context.Context, sessionID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.sessions[sessionID]
	return append([]llm.ChatMessage{}, history...), nil
}

// Delete deletes conversation history for a session.
func (s *InMemoryStorage) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// ListSessions lists all session IDs in sorted order.
func (s *InMemoryStorage) ListSessions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.sessions))
	for sessionID := range s.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)
	return sessions, nil
}

// Exists checks if a session exists.
func (s *InMemoryStorage) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// Verify InMemoryStorage implements ConversationStorage
var _ ConversationStorage = (*InMemoryStorage)(nil)
