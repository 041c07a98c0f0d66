package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemorySessionStore is an in-memory SessionStore for tests and local runs
// without Redis.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
}

type memorySession struct {
	userID    uuid.UUID
	expiresAt time.Time
}

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, sessionTokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return token, nil
}

func (s *MemorySessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return uuid.Nil, ErrSessionNotFound
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.sessions, token)
		return uuid.Nil, ErrSessionNotFound
	}
	return sess.userID, nil
}

func (s *MemorySessionStore) Purge(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
