// Package users — ленивое создание покупателей при первом обращении.
package users

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/store"
)

// Store — часть журнала, нужная сервису.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, username string) (*store.User, error)
	GetUser(ctx context.Context, userID int64) (*store.User, error)
}

// Service управляет покупателями.
type Service struct {
	store Store
}

// NewService создаёт сервис.
func NewService(s Store) *Service {
	return &Service{store: s}
}

// Ensure создаёт пользователя, если его ещё нет. Username у существующего
// пользователя не обновляется.
func (s *Service) Ensure(ctx context.Context, userID int64, username string) (*store.User, error) {
	u, err := s.store.UpsertUser(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if u.Username != username {
		log.WithFields(log.Fields{
			"user_id": userID,
			"stored":  u.Username,
			"current": username,
		}).Debug("username изменился, в базе остаётся первый")
	}
	return u, nil
}

// Get возвращает пользователя или common.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID int64) (*store.User, error) {
	return s.store.GetUser(ctx, userID)
}
