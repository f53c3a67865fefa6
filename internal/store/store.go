package store

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store — полный контракт журнала. Реализации: db/postgres (pgx, строковые
// блокировки FOR UPDATE) и db/memory (один мьютекс на всё хранилище).
//
// Все ошибки «не найдено» оборачивают common.ErrNotFound.
// Составные операции (Credit, Debit, ConfirmOrder, CompleteOrder, RejectOrder,
// ConfirmDeposit) атомарны: чтение баланса/статуса и запись идут одной единицей,
// параллельные вызовы по той же строке сериализуются.
type Store interface {
	// --- Пользователи ---
	UpsertUser(ctx context.Context, userID int64, username string) (*User, error)
	GetUser(ctx context.Context, userID int64) (*User, error)
	// GetBalance возвращает 0 для неизвестного пользователя.
	GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error)

	// --- Каталог ---
	CreateProduct(ctx context.Context, name string, price decimal.Decimal) (int64, error)
	// EditProduct возвращает false, если товара нет или не передано ни одного поля.
	EditProduct(ctx context.Context, id int64, name *string, price *decimal.Decimal) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context) ([]*Product, error)

	// --- Заказы ---
	// CreateOrder фиксирует текущую цену товара в amount.
	CreateOrder(ctx context.Context, userID, productID int64) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListPendingOrders(ctx context.Context) ([]*Order, error)
	// ListOrdersByStatus: пустой статус — все заказы.
	ListOrdersByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)
	ListUserOrders(ctx context.Context, userID int64, status OrderStatus) ([]*Order, error)
	ListActiveChats(ctx context.Context) ([]*ActiveChat, error)
	ListUserChats(ctx context.Context, userID int64) ([]*Order, error)

	// ConfirmOrder: pending → processing со списанием amount у покупателя.
	// Ошибки: ErrNotFound, ErrForbidden (чужой заказ), ErrInvalidState, ErrInsufficientFunds.
	ConfirmOrder(ctx context.Context, orderID, buyerID, adminID int64) (*Order, error)
	// CompleteOrder: processing → completed, completed_at = now.
	CompleteOrder(ctx context.Context, orderID int64) (*Order, error)
	// RejectOrder: processing → rejected с возвратом amount покупателю.
	RejectOrder(ctx context.Context, orderID int64) (*Order, error)

	// --- Баланс ---
	// Credit начисляет amount и пишет движение m. Возвращает новый баланс.
	Credit(ctx context.Context, userID int64, amount decimal.Decimal, m Movement) (decimal.Decimal, error)
	// Debit списывает amount; ErrInsufficientFunds, если баланса не хватает.
	Debit(ctx context.Context, userID int64, amount decimal.Decimal, m Movement) (decimal.Decimal, error)
	ListMovements(ctx context.Context, userID int64, limit int) ([]*Movement, error)

	// --- Депозиты ---
	// RecordTransaction возвращает ErrDuplicate, если хэш уже есть.
	RecordTransaction(ctx context.Context, userID int64, amount decimal.Decimal, hash string) (int64, error)
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	FindTransactionByHash(ctx context.Context, hash string) (*Transaction, error)
	// SetTransactionStatus переводит депозит из pending; иначе ErrInvalidState.
	SetTransactionStatus(ctx context.Context, id int64, status TxStatus) error
	ListUserTransactions(ctx context.Context, userID int64) ([]*Transaction, error)
	ListTransactionsByStatus(ctx context.Context, status TxStatus) ([]*Transaction, error)
	// ConfirmDeposit: pending → confirmed, фиксирует amount и начисляет его пользователю.
	ConfirmDeposit(ctx context.Context, txID int64, amount decimal.Decimal) (*Transaction, decimal.Decimal, error)

	Statistics(ctx context.Context) (*Statistics, error)
	Ping(ctx context.Context) error
}
