// Package agent holds the conversation engine: session persistence, the
// turn router, and the nodes it dispatches to.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"planmate/config"
	"planmate/models"
	"planmate/utils"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// SessionStore persists conversation sessions between turns. Get returns
// (nil, nil) when the chat has no session yet.
type SessionStore interface {
	Get(ctx context.Context, chatID string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, chatID string) error
}

func sessionTTL() time.Duration {
	minutes := config.AppConfig.SessionTTLMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func sessionKey(chatID string) string {
	return "session:" + chatID
}

// RedisSessionStore keeps sessions in Redis as JSON with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps the shared session cache client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// Get implements SessionStore.
func (r *RedisSessionStore) Get(ctx context.Context, chatID string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(chatID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupt session blocks the chat forever; drop it instead.
		utils.GetLogger().Warn("discarding corrupt session",
			zap.String("chatID", chatID), zap.Error(err))
		_ = r.client.Del(ctx, sessionKey(chatID)).Err()
		return nil, nil
	}
	return &s, nil
}

// Save implements SessionStore.
func (r *RedisSessionStore) Save(ctx context.Context, s *models.Session) error {
	s.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ChatID), data, sessionTTL()).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Delete implements SessionStore.
func (r *RedisSessionStore) Delete(ctx context.Context, chatID string) error {
	return r.client.Del(ctx, sessionKey(chatID)).Err()
}

// MemorySessionStore keeps sessions in process memory. Used when Redis
// is not configured, and in tests.
type MemorySessionStore struct {
	cache *gocache.Cache
}

// NewMemorySessionStore builds an in-memory store with the configured TTL.
func NewMemorySessionStore() *MemorySessionStore {
	ttl := sessionTTL()
	return &MemorySessionStore{cache: gocache.New(ttl, 2*ttl)}
}

// Get implements SessionStore.
func (m *MemorySessionStore) Get(_ context.Context, chatID string) (*models.Session, error) {
	v, ok := m.cache.Get(sessionKey(chatID))
	if !ok {
		return nil, nil
	}
	s, ok := v.(*models.Session)
	if !ok {
		return nil, nil
	}
	return s, nil
}

// Save implements SessionStore.
func (m *MemorySessionStore) Save(_ context.Context, s *models.Session) error {
	s.UpdatedAt = time.Now().UTC()
	m.cache.Set(sessionKey(s.ChatID), s, gocache.DefaultExpiration)
	return nil
}

// Delete implements SessionStore.
func (m *MemorySessionStore) Delete(_ context.Context, chatID string) error {
	m.cache.Delete(sessionKey(chatID))
	return nil
}
