// Package deposits — пополнение баланса переводом TON.
//
// Покупатель присылает check_<хэш>. Бот проверяет, что транзакция есть в сети,
// и регистрирует заявку (хэш уникален, повтор не пройдёт). Сумму toncenter не
// проверяет, поэтому зачисляет её админ командой /deposit_ok.
package deposits

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// CheckPrefix — префикс сообщения с хэшем транзакции.
const CheckPrefix = "check_"

// Store — часть журнала, нужная депозитам.
type Store interface {
	GetUser(ctx context.Context, userID int64) (*store.User, error)
	RecordTransaction(ctx context.Context, userID int64, amount decimal.Decimal, hash string) (int64, error)
	GetTransaction(ctx context.Context, id int64) (*store.Transaction, error)
	FindTransactionByHash(ctx context.Context, hash string) (*store.Transaction, error)
	SetTransactionStatus(ctx context.Context, id int64, status store.TxStatus) error
	ListUserTransactions(ctx context.Context, userID int64) ([]*store.Transaction, error)
	ListTransactionsByStatus(ctx context.Context, status store.TxStatus) ([]*store.Transaction, error)
	ConfirmDeposit(ctx context.Context, txID int64, amount decimal.Decimal) (*store.Transaction, decimal.Decimal, error)
}

// Verifier проверяет, что транзакция с таким хэшем существует.
type Verifier interface {
	TransactionExists(ctx context.Context, hash string) (bool, error)
}

// Notifier сообщает о заявках. Ошибки доставки только логируются.
type Notifier interface {
	DepositRecorded(ctx context.Context, tx *store.Transaction, user *store.User) error
	DepositConfirmed(ctx context.Context, tx *store.Transaction, balance decimal.Decimal) error
	DepositRejected(ctx context.Context, tx *store.Transaction) error
}

// ErrVerifierUnavailable — toncenter не ответил, заявку можно повторить позже.
var ErrVerifierUnavailable = errors.New("сервис проверки транзакций недоступен")

// CheckResult — итог проверки хэша.
type CheckResult struct {
	// Found — транзакция есть в сети и заявка зарегистрирована
	Found bool
	Tx    *store.Transaction
}

// Service обрабатывает заявки на пополнение.
type Service struct {
	store      Store
	verifier   Verifier
	notifier   Notifier
	adminID    int64
	minDeposit decimal.Decimal
}

// NewService создаёт сервис депозитов.
func NewService(s Store, verifier Verifier, notifier Notifier, adminID int64, minDeposit decimal.Decimal) *Service {
	return &Service{
		store:      s,
		verifier:   verifier,
		notifier:   notifier,
		adminID:    adminID,
		minDeposit: minDeposit,
	}
}

// MinDeposit — минимальная сумма пополнения.
func (s *Service) MinDeposit() decimal.Decimal {
	return s.minDeposit
}

// ParseHash убирает префикс check_ и пробелы. Префикс 0x не трогаем.
func ParseHash(text string) (string, error) {
	text = strings.TrimSpace(text)
	if len(text) >= len(CheckPrefix) && strings.EqualFold(text[:len(CheckPrefix)], CheckPrefix) {
		text = text[len(CheckPrefix):]
	}
	hash := strings.TrimSpace(text)
	if hash == "" || strings.ContainsAny(hash, " \n\t") {
		return "", fmt.Errorf("пустой или некорректный хэш: %w", common.ErrInvalidInput)
	}
	return hash, nil
}

// Check проверяет хэш и регистрирует заявку.
//
// ErrDuplicate — хэш уже присылали (в ошибке не теряется существующая заявка, см. Tx).
// ErrVerifierUnavailable — toncenter не ответил.
func (s *Service) Check(ctx context.Context, userID int64, text string) (*CheckResult, error) {
	hash, err := ParseHash(text)
	if err != nil {
		return nil, err
	}

	if existing, err := s.store.FindTransactionByHash(ctx, hash); err == nil {
		return &CheckResult{Found: true, Tx: existing}, fmt.Errorf("хэш %s: %w", hash, common.ErrDuplicate)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	ok, err := s.verifier.TransactionExists(ctx, hash)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Проверка транзакции не удалась")
		return nil, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	if !ok {
		return &CheckResult{Found: false}, nil
	}

	id, err := s.store.RecordTransaction(ctx, userID, decimal.Zero, hash)
	if err != nil {
		// Параллельная заявка с тем же хэшем успела раньше
		return nil, err
	}
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"tx_id": id, "user_id": userID}).Info("Заявка на пополнение зарегистрирована")

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		user = &store.User{UserID: userID}
	}
	if err := s.notifier.DepositRecorded(context.Background(), tx, user); err != nil {
		log.WithError(fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)).
			WithField("tx_id", id).Warn("Админ не получил заявку на пополнение")
	}
	return &CheckResult{Found: true, Tx: tx}, nil
}

// Confirm зачисляет сумму по заявке. Это начисление администратора:
// сумма берётся со слов админа, сверившего перевод в кошельке.
func (s *Service) Confirm(ctx context.Context, adminID, txID int64, amount decimal.Decimal) (*store.Transaction, decimal.Decimal, error) {
	if adminID != s.adminID {
		return nil, decimal.Zero, common.ErrForbidden
	}
	if !amount.IsPositive() {
		return nil, decimal.Zero, common.ErrInvalidAmount
	}
	if amount.LessThan(s.minDeposit) {
		return nil, decimal.Zero, fmt.Errorf("минимум %s: %w", s.minDeposit, common.ErrBelowMinimum)
	}

	tx, balance, err := s.store.ConfirmDeposit(ctx, txID, amount)
	if err != nil {
		return nil, decimal.Zero, err
	}

	log.WithFields(log.Fields{
		"tx_id":   tx.ID,
		"user_id": tx.UserID,
		"amount":  amount.String(),
	}).Info("Пополнение зачислено")

	if err := s.notifier.DepositConfirmed(context.Background(), tx, balance); err != nil {
		log.WithError(fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)).
			WithField("tx_id", tx.ID).Warn("Покупатель не получил уведомление о пополнении")
	}
	return tx, balance, nil
}

// Reject отклоняет заявку без изменения баланса.
func (s *Service) Reject(ctx context.Context, adminID, txID int64) (*store.Transaction, error) {
	if adminID != s.adminID {
		return nil, common.ErrForbidden
	}
	if err := s.store.SetTransactionStatus(ctx, txID, store.TxRejected); err != nil {
		return nil, err
	}
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}

	log.WithField("tx_id", txID).Info("Заявка на пополнение отклонена")

	if err := s.notifier.DepositRejected(context.Background(), tx); err != nil {
		log.WithError(fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)).
			WithField("tx_id", txID).Warn("Покупатель не получил уведомление об отказе")
	}
	return tx, nil
}

// ListPending — заявки, ожидающие решения админа.
func (s *Service) ListPending(ctx context.Context, adminID int64) ([]*store.Transaction, error) {
	if adminID != s.adminID {
		return nil, common.ErrForbidden
	}
	return s.store.ListTransactionsByStatus(ctx, store.TxPending)
}

// UserDeposits — заявки покупателя, новые первыми.
func (s *Service) UserDeposits(ctx context.Context, userID int64) ([]*store.Transaction, error) {
	return s.store.ListUserTransactions(ctx, userID)
}
