// Package balance — начисления и списания с баланса покупателя.
// Сама арифметика и блокировки живут в хранилище, сервис проверяет суммы и роли.
package balance

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// HistoryLimit — сколько последних движений показываем на экране баланса.
const HistoryLimit = 5

// Store — часть журнала, нужная сервису.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*store.User, error)
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error)
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error)
	ListMovements(ctx context.Context, userID int64, limit int) ([]*store.Movement, error)
}

// Service — операции с балансом.
type Service struct {
	store   Store
	adminID int64
}

// NewService создаёт сервис баланса.
func NewService(s Store, adminID int64) *Service {
	return &Service{store: s, adminID: adminID}
}

// Credit начисляет amount > 0. Возвращает новый баланс.
func (s *Service) Credit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	return s.store.Credit(ctx, userID, amount, m)
}

// Debit списывает amount > 0. ErrInsufficientFunds тогда и только тогда,
// когда баланс меньше amount. Проверка и списание атомарны.
func (s *Service) Debit(ctx context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	return s.store.Debit(ctx, userID, amount, m)
}

// GetBalance возвращает баланс, 0 для неизвестного пользователя.
func (s *Service) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.GetBalance(ctx, userID)
}

// AdminCredit — выдача баланса админом. Пользователь должен уже писать боту.
func (s *Service) AdminCredit(ctx context.Context, adminID, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if adminID != s.adminID {
		return decimal.Zero, common.ErrForbidden
	}
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return decimal.Zero, err
	}

	balance, err := s.store.Credit(ctx, userID, amount, store.Movement{
		Kind:        store.MovementAdminCredit,
		Description: "Начисление администратором",
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка начисления: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"amount":  amount.String(),
		"balance": balance.String(),
	}).Info("Админ выдал баланс")
	return balance, nil
}

// History возвращает последние движения баланса, новые первыми.
func (s *Service) History(ctx context.Context, userID int64, limit int) ([]*store.Movement, error) {
	return s.store.ListMovements(ctx, userID, limit)
}
