// Package orders — жизненный цикл заказа:
//
//	pending → processing → completed
//	                     ↘ rejected (с возвратом суммы)
//
// Переходы выполняются атомарно в хранилище. Уведомления отправляются после
// фиксации и никогда не откатывают переход.
package orders

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Store — часть журнала, нужная жизненному циклу.
type Store interface {
	GetProduct(ctx context.Context, id int64) (*store.Product, error)
	CreateOrder(ctx context.Context, userID, productID int64) (int64, error)
	GetOrder(ctx context.Context, id int64) (*store.Order, error)
	ListOrdersByStatus(ctx context.Context, status store.OrderStatus) ([]*store.Order, error)
	ListUserOrders(ctx context.Context, userID int64, status store.OrderStatus) ([]*store.Order, error)
	ConfirmOrder(ctx context.Context, orderID, buyerID, adminID int64) (*store.Order, error)
	CompleteOrder(ctx context.Context, orderID int64) (*store.Order, error)
	RejectOrder(ctx context.Context, orderID int64) (*store.Order, error)
}

// Notifier доставляет события заказа участникам. Ошибка доставки
// логируется и больше ни на что не влияет.
type Notifier interface {
	// AdminNotified — админу пришёл оплаченный заказ.
	AdminNotified(ctx context.Context, o *store.Order) error
	// BuyerChatOpened — покупателю: оплата прошла, можно писать админу.
	BuyerChatOpened(ctx context.Context, o *store.Order) error
	OrderCompleted(ctx context.Context, o *store.Order) error
	OrderRejected(ctx context.Context, o *store.Order) error
}

// Service управляет заказами.
type Service struct {
	store    Store
	notifier Notifier
	adminID  int64
}

// NewService создаёт сервис заказов.
func NewService(s Store, notifier Notifier, adminID int64) *Service {
	return &Service{store: s, notifier: notifier, adminID: adminID}
}

// CreateOrder создаёт заказ в pending с ценой товара на этот момент.
func (s *Service) CreateOrder(ctx context.Context, buyerID, productID int64) (*store.Order, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	id, err := s.store.CreateOrder(ctx, buyerID, productID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"order_id": id, "user_id": buyerID, "product_id": productID}).Info("Заказ создан")
	return s.store.GetOrder(ctx, id)
}

// ConfirmPayment оплачивает заказ с баланса покупателя.
//
// Ошибки: ErrNotFound, ErrForbidden (чужой заказ), ErrInvalidState (уже оплачен),
// ErrInsufficientFunds. Повторный вызов не спишет деньги второй раз.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, buyerID int64) (*store.Order, error) {
	o, err := s.store.ConfirmOrder(ctx, orderID, buyerID, s.adminID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_id": o.ID,
		"user_id":  buyerID,
		"amount":   o.Amount.String(),
	}).Info("Заказ оплачен")

	s.notify("admin_notified", o, s.notifier.AdminNotified)
	s.notify("buyer_chat_opened", o, s.notifier.BuyerChatOpened)
	return o, nil
}

// CompleteOrder завершает заказ в processing. Вызывает только админ.
func (s *Service) CompleteOrder(ctx context.Context, orderID, actingAdminID int64) (*store.Order, error) {
	if actingAdminID != s.adminID {
		return nil, common.ErrForbidden
	}
	o, err := s.store.CompleteOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log.WithField("order_id", o.ID).Info("Заказ выполнен")
	s.notify("order_completed", o, s.notifier.OrderCompleted)
	return o, nil
}

// RejectOrder отклоняет заказ в processing и возвращает сумму покупателю.
// Повторное отклонение или отклонение выполненного заказа — ErrInvalidState.
func (s *Service) RejectOrder(ctx context.Context, orderID, actingAdminID int64) (*store.Order, error) {
	if actingAdminID != s.adminID {
		return nil, common.ErrForbidden
	}
	o, err := s.store.RejectOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"order_id": o.ID,
		"refund":   o.Amount.String(),
	}).Info("Заказ отклонён, сумма возвращена")
	s.notify("order_rejected", o, s.notifier.OrderRejected)
	return o, nil
}

// Get возвращает заказ. Покупатель видит только свои заказы.
func (s *Service) Get(ctx context.Context, orderID, actingID int64) (*store.Order, error) {
	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actingID != s.adminID && o.UserID != actingID {
		return nil, common.ErrForbidden
	}
	return o, nil
}

// UserOrders — заказы покупателя, новые первыми.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]*store.Order, error) {
	return s.store.ListUserOrders(ctx, userID, "")
}

// ListByStatus — заказы с данным статусом (пустой статус — все). Только для админа.
func (s *Service) ListByStatus(ctx context.Context, actingID int64, status store.OrderStatus) ([]*store.Order, error) {
	if actingID != s.adminID {
		return nil, common.ErrForbidden
	}
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("статус %q: %w", status, common.ErrInvalidInput)
	}
	return s.store.ListOrdersByStatus(ctx, status)
}

// notify отправляет событие и проглатывает ошибку доставки.
// Контекст запроса не передаём: уведомление должно уйти, даже если апдейт уже отменён.
func (s *Service) notify(event string, o *store.Order, send func(context.Context, *store.Order) error) {
	if err := send(context.Background(), o); err != nil {
		log.WithError(fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)).WithFields(log.Fields{
			"event":    event,
			"order_id": o.ID,
		}).Warn("Уведомление не доставлено")
	}
}
