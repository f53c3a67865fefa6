package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL — сколько живёт незавершённый диалог.
const DefaultSessionTTL = 5 * time.Minute

// SessionStore хранит диалоги админов. Get возвращает (nil, nil), если
// диалога нет или он истёк.
type SessionStore interface {
	Get(ctx context.Context, adminID int64) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context, adminID int64) error
	// Sweep удаляет истёкшие диалоги и возвращает их число.
	Sweep(ctx context.Context) (int, error)
}

// MemorySessions — диалоги в памяти процесса.
type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemorySessions создаёт хранилище диалогов в памяти.
func NewMemorySessions(ttl time.Duration) *MemorySessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessions{
		sessions: make(map[int64]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemorySessions) Get(_ context.Context, adminID int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[adminID]
	if !ok || m.now().After(s.ExpiresAt) {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemorySessions) Set(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *s
	cp.ExpiresAt = m.now().Add(m.ttl)
	m.sessions[s.AdminID] = &cp
	return nil
}

func (m *MemorySessions) Clear(_ context.Context, adminID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, adminID)
	return nil
}

func (m *MemorySessions) Sweep(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// RedisSessions — диалоги в Redis, истечение через TTL ключа.
// Переживает рестарт бота.
type RedisSessions struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessions создаёт хранилище диалогов поверх client.
// Ключи: <prefix>session:<adminID>.
func NewRedisSessions(client *redis.Client, prefix string, ttl time.Duration) *RedisSessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisSessions{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisSessions) key(adminID int64) string {
	return fmt.Sprintf("%ssession:%d", r.prefix, adminID)
}

func (r *RedisSessions) Get(ctx context.Context, adminID int64) (*Session, error) {
	raw, err := r.client.Get(ctx, r.key(adminID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения диалога: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("повреждённый диалог: %w", err)
	}
	return &s, nil
}

func (r *RedisSessions) Set(ctx context.Context, s *Session) error {
	cp := *s
	cp.ExpiresAt = time.Now().Add(r.ttl)
	raw, err := json.Marshal(&cp)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(s.AdminID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи диалога: %w", err)
	}
	return nil
}

func (r *RedisSessions) Clear(ctx context.Context, adminID int64) error {
	return r.client.Del(ctx, r.key(adminID)).Err()
}

// Sweep ничего не делает: Redis сам удаляет ключи по TTL.
func (r *RedisSessions) Sweep(context.Context) (int, error) {
	return 0, nil
}
