// Package store описывает журнал магазина (Ledger Store): пользователей,
// товары, заказы, депозиты и движения баланса.
// models.go — структуры строк, store.go — контракт хранилища.
package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// User — покупатель (или админ). Создаётся лениво при первом обращении.
type User struct {
	UserID    int64           `db:"user_id"`    // Telegram user ID
	Username  string          `db:"username"`   // @username на момент первого контакта (может быть пустым)
	Balance   decimal.Decimal `db:"balance"`    // Баланс в TON, никогда не отрицательный
	CreatedAt time.Time       `db:"created_at"`
}

// Product — товар в каталоге. Остатков нет: каждый товар доступен бесконечно.
type Product struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
}

// OrderStatus — статус заказа.
type OrderStatus string

// Жизненный цикл: pending → processing → {completed | rejected}
const (
	OrderPending    OrderStatus = "pending"    // Создан, деньги не списаны
	OrderProcessing OrderStatus = "processing" // Оплачен, открыт чат с админом
	OrderCompleted  OrderStatus = "completed"  // Выдан (терминальный)
	OrderRejected   OrderStatus = "rejected"   // Отклонён, деньги возвращены (терминальный)
)

// Valid сообщает, известен ли статус.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderRejected:
		return true
	}
	return false
}

// Terminal — из этого статуса переходов нет.
func (s OrderStatus) Terminal() bool {
	return s == OrderCompleted || s == OrderRejected
}

// Order — заказ вместе с денормализованными полями для отображения
// (username покупателя и название товара).
type Order struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	ProductID   *int64          `db:"product_id"` // nil, если товар удалён из каталога
	Amount      decimal.Decimal `db:"amount"`     // Цена на момент создания, не меняется
	Status      OrderStatus     `db:"status"`
	ChatID      *int64          `db:"chat_id"`       // ID покупателя, заполняется при переходе в processing
	AdminChatID *int64          `db:"admin_chat_id"` // ID админа
	CreatedAt   time.Time       `db:"created_at"`
	CompletedAt *time.Time      `db:"completed_at"`

	Username    string `db:"username"`
	ProductName string `db:"product_name"`
}

// ActiveChat — пара покупатель/админ, у которой есть заказ в processing.
type ActiveChat struct {
	UserID      int64  `db:"user_id"`
	Username    string `db:"username"`
	ChatID      int64  `db:"chat_id"`
	AdminChatID int64  `db:"admin_chat_id"`
}

// TxStatus — статус депозита.
type TxStatus string

const (
	TxPending   TxStatus = "pending"   // Транзакция найдена в блокчейне, ждёт админа
	TxConfirmed TxStatus = "confirmed" // Админ зачислил сумму
	TxRejected  TxStatus = "rejected"  // Админ отказал
)

// Transaction — заявка на пополнение по хэшу транзакции TON.
type Transaction struct {
	ID        int64           `db:"id"`
	UserID    int64           `db:"user_id"`
	Amount    decimal.Decimal `db:"amount"` // 0, пока админ не подтвердил сумму
	TxHash    string          `db:"tx_hash"`
	Status    TxStatus        `db:"status"`
	CreatedAt time.Time       `db:"created_at"`
}

// MovementKind — источник изменения баланса.
type MovementKind string

// Баланс меняется только этими путями
const (
	MovementAdminCredit   MovementKind = "admin_credit"   // Выдача админом
	MovementDepositCredit MovementKind = "deposit_credit" // Подтверждённый депозит (тоже решение админа)
	MovementOrderDebit    MovementKind = "order_debit"    // Оплата заказа
	MovementOrderRefund   MovementKind = "order_refund"   // Возврат при отклонении
)

// Movement — запись журнала баланса. Delta положительна для начислений
// и отрицательна для списаний.
type Movement struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	Delta       decimal.Decimal `db:"delta"`
	Kind        MovementKind    `db:"kind"`
	OrderID     *int64          `db:"order_id"`
	Description string          `db:"description"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Statistics — сводка для админ-панели.
type Statistics struct {
	TotalUsers        int                 `json:"total_users"`
	TotalProducts     int                 `json:"total_products"`
	PendingOrders     int                 `json:"pending_orders"`
	OrdersByStatus    map[OrderStatus]int `json:"orders_by_status"`
	TotalBalance      decimal.Decimal     `json:"total_balance"`
	TotalSales        decimal.Decimal     `json:"total_sales"`
	TotalTransactions int                 `json:"total_transactions"`
}
