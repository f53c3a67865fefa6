// Package memory — хранилище журнала в памяти процесса.
// Используется в тестах и при STORAGE_DRIVER=memory (локальная отладка без Postgres).
// Все операции идут под одним мьютексом, поэтому составные
// read-modify-write последовательности атомарны.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Store реализует store.Store.
type Store struct {
	mu sync.Mutex

	users        map[int64]*store.User
	products     map[int64]*store.Product
	orders       map[int64]*store.Order
	transactions map[int64]*store.Transaction
	movements    []*store.Movement

	nextProductID  int64
	nextOrderID    int64
	nextTxID       int64
	nextMovementID int64

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:        make(map[int64]*store.User),
		products:     make(map[int64]*store.Product),
		orders:       make(map[int64]*store.Order),
		transactions: make(map[int64]*store.Transaction),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// --- Пользователи ---

func (s *Store) UpsertUser(_ context.Context, userID int64, username string) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		u = &store.User{UserID: userID, Username: username, Balance: decimal.Zero, CreatedAt: s.now()}
		s.users[userID] = u
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUser(_ context.Context, userID int64) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("пользователь %d: %w", userID, common.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetBalance(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[userID]; ok {
		return u.Balance, nil
	}
	return decimal.Zero, nil
}

// --- Каталог ---

func (s *Store) CreateProduct(_ context.Context, name string, price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, common.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProductID++
	s.products[s.nextProductID] = &store.Product{
		ID: s.nextProductID, Name: name, Price: price, CreatedAt: s.now(),
	}
	return s.nextProductID, nil
}

func (s *Store) EditProduct(_ context.Context, id int64, name *string, price *decimal.Decimal) (bool, error) {
	if name == nil && price == nil {
		return false, nil
	}
	if price != nil && price.IsNegative() {
		return false, common.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return false, nil
	}
	if name != nil {
		p.Name = *name
	}
	if price != nil {
		p.Price = *price
	}
	return true, nil
}

func (s *Store) DeleteProduct(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	// Заказы остаются, ссылка на товар обнуляется (как ON DELETE SET NULL)
	for _, o := range s.orders {
		if o.ProductID != nil && *o.ProductID == id {
			o.ProductID = nil
		}
	}
	return true, nil
}

func (s *Store) GetProduct(_ context.Context, id int64) (*store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("товар %d: %w", id, common.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *Store) ListProducts(_ context.Context) ([]*store.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*store.Product, 0, len(s.products))
	for _, p := range s.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- Заказы ---

func (s *Store) CreateOrder(_ context.Context, userID, productID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return 0, fmt.Errorf("товар %d: %w", productID, common.ErrNotFound)
	}
	if _, ok := s.users[userID]; !ok {
		return 0, fmt.Errorf("пользователь %d: %w", userID, common.ErrNotFound)
	}
	s.nextOrderID++
	pid := productID
	s.orders[s.nextOrderID] = &store.Order{
		ID:          s.nextOrderID,
		UserID:      userID,
		ProductID:   &pid,
		Amount:      p.Price,
		Status:      store.OrderPending,
		CreatedAt:   s.now(),
		ProductName: p.Name,
	}
	return s.nextOrderID, nil
}

// view копирует заказ и подставляет актуальные username и название товара.
// Вызывать под мьютексом.
func (s *Store) view(o *store.Order) *store.Order {
	cp := *o
	if u, ok := s.users[o.UserID]; ok {
		cp.Username = u.Username
	}
	if o.ProductID != nil {
		if p, ok := s.products[*o.ProductID]; ok {
			cp.ProductName = p.Name
		}
	} else {
		cp.ProductName = ""
	}
	return &cp
}

func (s *Store) GetOrder(_ context.Context, id int64) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("заказ %d: %w", id, common.ErrNotFound)
	}
	return s.view(o), nil
}

// filterOrders возвращает заказы по условию, новые первыми. Вызывать под мьютексом.
func (s *Store) filterOrders(match func(*store.Order) bool) []*store.Order {
	var out []*store.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, s.view(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) ListPendingOrders(ctx context.Context) ([]*store.Order, error) {
	return s.ListOrdersByStatus(ctx, store.OrderPending)
}

func (s *Store) ListOrdersByStatus(_ context.Context, status store.OrderStatus) ([]*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterOrders(func(o *store.Order) bool {
		return status == "" || o.Status == status
	}), nil
}

func (s *Store) ListUserOrders(_ context.Context, userID int64, status store.OrderStatus) ([]*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filterOrders(func(o *store.Order) bool {
		return o.UserID == userID && (status == "" || o.Status == status)
	}), nil
}

func (s *Store) ListActiveChats(_ context.Context) ([]*store.ActiveChat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ user, chat, admin int64 }
	seen := make(map[key]bool)
	var out []*store.ActiveChat
	for _, o := range s.filterOrders(func(o *store.Order) bool {
		return o.Status == store.OrderProcessing && o.ChatID != nil
	}) {
		var admin int64
		if o.AdminChatID != nil {
			admin = *o.AdminChatID
		}
		k := key{o.UserID, *o.ChatID, admin}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, &store.ActiveChat{
			UserID: o.UserID, Username: o.Username, ChatID: *o.ChatID, AdminChatID: admin,
		})
	}
	return out, nil
}

func (s *Store) ListUserChats(ctx context.Context, userID int64) ([]*store.Order, error) {
	return s.ListUserOrders(ctx, userID, store.OrderProcessing)
}

func (s *Store) ConfirmOrder(_ context.Context, orderID, buyerID, adminID int64) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("заказ %d: %w", orderID, common.ErrNotFound)
	}
	if o.UserID != buyerID {
		return nil, fmt.Errorf("заказ %d принадлежит другому пользователю: %w", orderID, common.ErrForbidden)
	}
	if o.Status != store.OrderPending {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, o.Status, common.ErrInvalidState)
	}
	u, ok := s.users[buyerID]
	if !ok || u.Balance.LessThan(o.Amount) {
		return nil, common.ErrInsufficientFunds
	}

	u.Balance = u.Balance.Sub(o.Amount)
	s.appendMovement(buyerID, o.Amount.Neg(), store.Movement{
		Kind: store.MovementOrderDebit, OrderID: &o.ID,
		Description: fmt.Sprintf("Оплата заказа #%d", o.ID),
	})

	chat, admin := buyerID, adminID
	o.Status = store.OrderProcessing
	o.ChatID = &chat
	o.AdminChatID = &admin
	return s.view(o), nil
}

func (s *Store) CompleteOrder(_ context.Context, orderID int64) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("заказ %d: %w", orderID, common.ErrNotFound)
	}
	if o.Status != store.OrderProcessing {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, o.Status, common.ErrInvalidState)
	}
	now := s.now()
	o.Status = store.OrderCompleted
	o.CompletedAt = &now
	return s.view(o), nil
}

func (s *Store) RejectOrder(_ context.Context, orderID int64) (*store.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("заказ %d: %w", orderID, common.ErrNotFound)
	}
	if o.Status != store.OrderProcessing {
		return nil, fmt.Errorf("заказ %d в статусе %s: %w", orderID, o.Status, common.ErrInvalidState)
	}
	u, ok := s.users[o.UserID]
	if !ok {
		return nil, fmt.Errorf("пользователь %d: %w", o.UserID, common.ErrNotFound)
	}
	u.Balance = u.Balance.Add(o.Amount)
	s.appendMovement(o.UserID, o.Amount, store.Movement{
		Kind: store.MovementOrderRefund, OrderID: &o.ID,
		Description: fmt.Sprintf("Возврат по заказу #%d", o.ID),
	})
	o.Status = store.OrderRejected
	return s.view(o), nil
}

// --- Баланс ---

// appendMovement пишет запись журнала. Вызывать под мьютексом.
func (s *Store) appendMovement(userID int64, delta decimal.Decimal, m store.Movement) {
	s.nextMovementID++
	m.ID = s.nextMovementID
	m.UserID = userID
	m.Delta = delta
	m.CreatedAt = s.now()
	s.movements = append(s.movements, &m)
}

func (s *Store) Credit(_ context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return decimal.Zero, fmt.Errorf("пользователь %d: %w", userID, common.ErrNotFound)
	}
	u.Balance = u.Balance.Add(amount)
	s.appendMovement(userID, amount, m)
	return u.Balance, nil
}

func (s *Store) Debit(_ context.Context, userID int64, amount decimal.Decimal, m store.Movement) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, common.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.Balance.LessThan(amount) {
		return decimal.Zero, common.ErrInsufficientFunds
	}
	u.Balance = u.Balance.Sub(amount)
	s.appendMovement(userID, amount.Neg(), m)
	return u.Balance, nil
}

func (s *Store) ListMovements(_ context.Context, userID int64, limit int) ([]*store.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*store.Movement
	for i := len(s.movements) - 1; i >= 0; i-- {
		if s.movements[i].UserID != userID {
			continue
		}
		cp := *s.movements[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// --- Депозиты ---

func (s *Store) RecordTransaction(_ context.Context, userID int64, amount decimal.Decimal, hash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.TxHash == hash {
			return 0, fmt.Errorf("хэш %s: %w", hash, common.ErrDuplicate)
		}
	}
	s.nextTxID++
	s.transactions[s.nextTxID] = &store.Transaction{
		ID: s.nextTxID, UserID: userID, Amount: amount, TxHash: hash,
		Status: store.TxPending, CreatedAt: s.now(),
	}
	return s.nextTxID, nil
}

func (s *Store) GetTransaction(_ context.Context, id int64) (*store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("транзакция %d: %w", id, common.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) FindTransactionByHash(_ context.Context, hash string) (*store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.transactions {
		if t.TxHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("транзакция %s: %w", hash, common.ErrNotFound)
}

func (s *Store) SetTransactionStatus(_ context.Context, id int64, status store.TxStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return fmt.Errorf("транзакция %d: %w", id, common.ErrNotFound)
	}
	if t.Status != store.TxPending {
		return fmt.Errorf("транзакция %d в статусе %s: %w", id, t.Status, common.ErrInvalidState)
	}
	t.Status = status
	return nil
}

func (s *Store) filterTransactions(match func(*store.Transaction) bool) []*store.Transaction {
	var out []*store.Transaction
	for _, t := range s.transactions {
		if match(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Store) ListUserTransactions(_ context.Context, userID int64) ([]*store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterTransactions(func(t *store.Transaction) bool { return t.UserID == userID }), nil
}

func (s *Store) ListTransactionsByStatus(_ context.Context, status store.TxStatus) ([]*store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterTransactions(func(t *store.Transaction) bool { return status == "" || t.Status == status }), nil
}

func (s *Store) ConfirmDeposit(_ context.Context, txID int64, amount decimal.Decimal) (*store.Transaction, decimal.Decimal, error) {
	if !amount.IsPositive() {
		return nil, decimal.Zero, common.ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[txID]
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("транзакция %d: %w", txID, common.ErrNotFound)
	}
	if t.Status != store.TxPending {
		return nil, decimal.Zero, fmt.Errorf("транзакция %d в статусе %s: %w", txID, t.Status, common.ErrInvalidState)
	}
	u, ok := s.users[t.UserID]
	if !ok {
		return nil, decimal.Zero, fmt.Errorf("пользователь %d: %w", t.UserID, common.ErrNotFound)
	}
	u.Balance = u.Balance.Add(amount)
	s.appendMovement(t.UserID, amount, store.Movement{
		Kind:        store.MovementDepositCredit,
		Description: fmt.Sprintf("Пополнение, транзакция #%d", t.ID),
	})
	t.Amount = amount
	t.Status = store.TxConfirmed
	cp := *t
	return &cp, u.Balance, nil
}

// --- Статистика ---

func (s *Store) Statistics(_ context.Context) (*store.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &store.Statistics{
		TotalUsers:        len(s.users),
		TotalProducts:     len(s.products),
		OrdersByStatus:    make(map[store.OrderStatus]int),
		TotalBalance:      decimal.Zero,
		TotalSales:        decimal.Zero,
		TotalTransactions: len(s.transactions),
	}
	for _, u := range s.users {
		st.TotalBalance = st.TotalBalance.Add(u.Balance)
	}
	for _, o := range s.orders {
		st.OrdersByStatus[o.Status]++
		if o.Status == store.OrderCompleted {
			st.TotalSales = st.TotalSales.Add(o.Amount)
		}
	}
	st.PendingOrders = st.OrdersByStatus[store.OrderPending]
	return st, nil
}

func (s *Store) Ping(context.Context) error { return nil }
