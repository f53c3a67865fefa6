package admin

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/numbers-bot/internal/common"
)

// AuthRepository — журнал входов по паролю.
type AuthRepository interface {
	CreateSession(ctx context.Context, session *AuthSession) error
	// GetActiveSession возвращает common.ErrNotFound, если активной сессии нет.
	GetActiveSession(ctx context.Context, userID int64) (*AuthSession, error)
	DeactivateSession(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	// GetRecentAttempts — число неудачных попыток за period.
	GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error)
}

// Repository работает с таблицами admin_sessions и admin_login_attempts.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий входов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateSession(ctx context.Context, session *AuthSession) error {
	query := `
		INSERT INTO admin_sessions (user_id, session_token, expires_at, is_active)
		VALUES ($1, $2, $3, TRUE)
	`
	if _, err := r.db.Exec(ctx, query, session.UserID, session.SessionToken, session.ExpiresAt); err != nil {
		return fmt.Errorf("ошибка создания сессии: %w", err)
	}
	return nil
}

func (r *Repository) GetActiveSession(ctx context.Context, userID int64) (*AuthSession, error) {
	query := `
		SELECT id, user_id, session_token, authenticated_at, expires_at, is_active
		FROM admin_sessions
		WHERE user_id = $1 AND is_active = TRUE AND expires_at > NOW()
		ORDER BY authenticated_at DESC
		LIMIT 1
	`
	var s AuthSession
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.SessionToken, &s.AuthenticatedAt, &s.ExpiresAt, &s.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("активная сессия: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сессии: %w", err)
	}
	return &s, nil
}

func (r *Repository) DeactivateSession(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE admin_sessions SET is_active = FALSE WHERE user_id = $1`, userID)
	return err
}

func (r *Repository) LogAttempt(ctx context.Context, userID int64, success bool) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_login_attempts (user_id, success) VALUES ($1, $2)`, userID, success)
	return err
}

func (r *Repository) GetRecentAttempts(ctx context.Context, userID int64, period time.Duration) (int, error) {
	query := `
		SELECT COUNT(*) FROM admin_login_attempts
		WHERE user_id = $1 AND success = FALSE AND attempt_time >= $2
	`
	var count int
	err := r.db.QueryRow(ctx, query, userID, time.Now().Add(-period)).Scan(&count)
	return count, err
}

type loginAttempt struct {
	at      time.Time
	success bool
}

// MemoryRepository — журнал входов в памяти (STORAGE_DRIVER=memory и тесты).
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[int64]*AuthSession
	attempts map[int64][]loginAttempt
	now      func() time.Time
}

// NewMemoryRepository создаёт журнал входов в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[int64]*AuthSession),
		attempts: make(map[int64][]loginAttempt),
		now:      time.Now,
	}
}

func (m *MemoryRepository) CreateSession(_ context.Context, session *AuthSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *session
	cp.AuthenticatedAt = m.now()
	cp.IsActive = true
	m.sessions[session.UserID] = &cp
	return nil
}

func (m *MemoryRepository) GetActiveSession(_ context.Context, userID int64) (*AuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || !s.IsActive || !m.now().Before(s.ExpiresAt) {
		return nil, fmt.Errorf("активная сессия: %w", common.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryRepository) DeactivateSession(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		s.IsActive = false
	}
	return nil
}

func (m *MemoryRepository) LogAttempt(_ context.Context, userID int64, success bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[userID] = append(m.attempts[userID], loginAttempt{at: m.now(), success: success})
	return nil
}

func (m *MemoryRepository) GetRecentAttempts(_ context.Context, userID int64, period time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	since := m.now().Add(-period)
	count := 0
	for _, a := range m.attempts[userID] {
		if !a.success && !a.at.Before(since) {
			count++
		}
	}
	return count, nil
}
