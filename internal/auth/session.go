package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionTokenLen = 32

// ErrSessionNotFound is returned when a presented token resolves to no live
// session, whether it never existed, expired, or was purged.
var ErrSessionNotFound = errors.New("auth: session not found")

// SessionStore is the server-side session authority. Tokens are opaque random
// strings; all meaning lives behind this interface.
type SessionStore interface {
	// Create mints a fresh token bound to userID, valid for the store's TTL.
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	// Resolve maps a presented token to the user it was minted for.
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
	// Purge invalidates a token. Purging an unknown token is not an error.
	Purge(ctx context.Context, token string) error
}

// RedisSessionStore keeps sessions in Redis under keys derived from an HMAC of
// the token, so a Redis snapshot alone cannot be replayed as cookies.
type RedisSessionStore struct {
	client *redis.Client
	secret []byte
	ttl    time.Duration
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, secret []byte, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, secret: secret, ttl: ttl}
}

func (s *RedisSessionStore) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	raw := make([]byte, sessionTokenLen)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	if err := s.client.Set(ctx, s.key(token), userID.String(), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

func (s *RedisSessionStore) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	val, err := s.client.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrSessionNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt session value: %w", err)
	}
	return userID, nil
}

func (s *RedisSessionStore) Purge(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("purging session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) key(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return "session:" + hex.EncodeToString(mac.Sum(nil))
}
