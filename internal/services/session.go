package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a session token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is the per-browser state kept between requests. PendingMobile
// bridges the gap between requesting a code and verifying it; UserID is set
// once verification succeeds.
type Session struct {
	PendingMobile string `json:"pending_mobile,omitempty"`
	UserID        uint   `json:"user_id,omitempty"`
}

// SessionStore persists sessions keyed by an opaque token.
type SessionStore interface {
	Get(ctx context.Context, token string) (Session, error)
	Put(ctx context.Context, token string, session Session, expiration time.Duration) error
	Delete(ctx context.Context, token string) error
}

const sessionKeyPrefix = "session:"

// RedisSessionStore keeps sessions in Redis so they survive restarts.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore creates a session store backed by Redis.
func NewRedisSessionStore(redisURL string) (*RedisSessionStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Println("Redis connection established")
	return &RedisSessionStore{client: client}, nil
}

// Get retrieves a session by token.
func (s *RedisSessionStore) Get(ctx context.Context, token string) (Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, err
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Put stores a session with expiration, replacing any previous state.
func (s *RedisSessionStore) Put(ctx context.Context, token string, session Session, expiration time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, sessionKeyPrefix+token, data, expiration).Err()
}

// Delete removes a session.
func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, sessionKeyPrefix+token).Err()
}

// Close closes the Redis connection.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

type memorySession struct {
	session   Session
	expiresAt time.Time
}

// MemorySessionStore is an in-process fallback used in development and
// tests when no Redis instance is configured. Sessions are lost on restart.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

// Get retrieves a session by token.
func (s *MemorySessionStore) Get(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[token]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.sessions, token)
		return Session{}, ErrSessionNotFound
	}
	return entry.session, nil
}

// Put stores a session with expiration, replacing any previous state.
func (s *MemorySessionStore) Put(ctx context.Context, token string, session Session, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = memorySession{session: session, expiresAt: s.now().Add(expiration)}
	return nil
}

// Delete removes a session.
func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
