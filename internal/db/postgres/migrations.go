package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Migration — одна версия схемы. Изменения схемы только добавляются:
// уже применённые версии не редактируются.
type Migration struct {
	Version int
	SQL     string
}

// Migrations — схема магазина по порядку применения.
var Migrations = []Migration{
	{1, migration001Users},
	{2, migration002Products},
	{3, migration003Orders},
	{4, migration004Transactions},
	{5, migration005Movements},
	{6, migration006Admin},
}

// Migrate создаёт schema_migrations и применяет недостающие версии.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	for _, m := range Migrations {
		if err := ExecMigrationSQL(ctx, pool, m.Version, m.SQL); err != nil {
			return fmt.Errorf("миграция %d: %w", m.Version, err)
		}
		log.WithField("component", "postgres").Debugf("Миграция %d применена", m.Version)
	}
	return nil
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGINT PRIMARY KEY,
    username TEXT NOT NULL DEFAULT '',
    balance NUMERIC(20,9) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration002Products = `
CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    price NUMERIC(20,9) NOT NULL CHECK (price >= 0),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration003Orders = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    product_id BIGINT REFERENCES products(id) ON DELETE SET NULL,
    amount NUMERIC(20,9) NOT NULL,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    chat_id BIGINT,
    admin_chat_id BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

var migration004Transactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    amount NUMERIC(20,9) NOT NULL DEFAULT 0,
    tx_hash TEXT NOT NULL UNIQUE,
    status VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
`

var migration005Movements = `
CREATE TABLE IF NOT EXISTS balance_movements (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    delta NUMERIC(20,9) NOT NULL,
    kind VARCHAR(32) NOT NULL,
    order_id BIGINT REFERENCES orders(id),
    description TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_movements_user_created ON balance_movements(user_id, created_at DESC);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(64) UNIQUE,
    authenticated_at TIMESTAMPTZ DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMPTZ DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
`
