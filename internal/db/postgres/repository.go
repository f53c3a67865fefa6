package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Repository — журнал магазина поверх PostgreSQL.
//
// Составные операции идут в одной транзакции с блокировкой строк
// (SELECT ... FOR UPDATE). Порядок блокировок всегда один: сначала строка
// заказа или депозита, потом строка пользователя. Так два параллельных
// подтверждения не могут взаимно заблокироваться.
type Repository struct {
	db *pgxpool.Pool
}

var _ store.Store = (*Repository)(nil)

// NewRepository создаёт репозиторий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Ping проверяет соединение с базой (для /healthz).
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// --- Пользователи ---

// UpsertUser создаёт пользователя, если его нет. Существующая строка
// возвращается без изменений, username не обновляется.
func (r *Repository) UpsertUser(ctx context.Context, userID int64, username string) (*store.User, error) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (user_id, username) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
	`, userID, username)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return r.GetUser(ctx, userID)
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (*store.User, error) {
	var u store.User
	err := r.db.QueryRow(ctx, `
		SELECT user_id, username, balance, created_at FROM users WHERE user_id = $1
	`, userID).Scan(&u.UserID, &u.Username, &u.Balance, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("пользователь %d", userID))
	}
	return &u, nil
}

func (r *Repository) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// --- Каталог ---

func (r *Repository) CreateProduct(ctx context.Context, name string, price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, common.ErrInvalidAmount
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, price) VALUES ($1, $2) RETURNING id
	`, name, price).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания товара: %w", err)
	}
	return id, nil
}

// EditProduct меняет только переданные поля. COALESCE оставляет NULL-поля как есть.
func (r *Repository) EditProduct(ctx context.Context, id int64, name *string, price *decimal.Decimal) (bool, error) {
	if name == nil && price == nil {
		return false, nil
	}
	if price != nil && price.IsNegative() {
		return false, common.ErrInvalidAmount
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = COALESCE($2, name), price = COALESCE($3, price)
		WHERE id = $1
	`, id, name, price)
	if err != nil {
		return false, fmt.Errorf("ошибка изменения товара: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("ошибка удаления товара: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*store.Product, error) {
	var p store.Product
	err := r.db.QueryRow(ctx, `
		SELECT id, name, price, created_at FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("товар %d", id))
	}
	return &p, nil
}

func (r *Repository) ListProducts(ctx context.Context) ([]*store.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, price, created_at FROM products ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	var out []*store.Product
	for rows.Next() {
		var p store.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка чтения товара: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
