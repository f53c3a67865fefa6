// Package admin — админ-панель магазина: пошаговые диалоги, парольный вход
// и статистика.
package admin

import "time"

// Step — шаг диалога с админом (конечный автомат).
type Step string

// Возможные шаги диалога
const (
	StepNone             Step = ""
	StepAwaitingPassword Step = "awaiting_password"
	StepProductName      Step = "product_name"   // ждём название товара
	StepProductPrice     Step = "product_price"  // ждём цену
	StepBalanceUser      Step = "balance_user"   // ждём ID пользователя
	StepBalanceAmount    Step = "balance_amount" // ждём сумму начисления
)

// Session — состояние диалога одного админа. Живёт SessionTTL с последнего шага.
type Session struct {
	AdminID      int64     `json:"admin_id"`
	Step         Step      `json:"step"`
	ProductName  string    `json:"product_name,omitempty"`
	TargetUserID int64     `json:"target_user_id,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthSession — вход по паролю, хранится в admin_sessions.
type AuthSession struct {
	ID              int64
	UserID          int64
	SessionToken    string
	AuthenticatedAt time.Time
	ExpiresAt       time.Time
	IsActive        bool
}
