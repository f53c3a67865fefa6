// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с суммами в TON, форматирование дат, часовой пояс.
package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TONPrecision — сколько знаков после запятой хранит NUMERIC(20,9) (1 нанотон).
const TONPrecision = 9

// ParseTON разбирает сумму, введённую пользователем.
// Принимает и точку, и запятую: "1.5", "1,5", " 3 ".
//
// Возвращает ErrInvalidAmount, если это не число, число <= 0
// или в нём больше 9 знаков после запятой.
func ParseTON(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() || d.Exponent() < -TONPrecision {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePrice — как ParseTON, но допускает ноль (бесплатный товар).
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.Exponent() < -TONPrecision {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatTON форматирует сумму: FormatTON(3) → "3 TON", FormatTON(0.1) → "0.1 TON".
func FormatTON(d decimal.Decimal) string {
	return fmt.Sprintf("%s TON", d.String())
}

var location = loadLocation("Europe/Moscow")

// SetTimezone меняет часовой пояс для отображения дат (APP_TIMEZONE).
func SetTimezone(name string) {
	location = loadLocation(name)
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// Если tzdata нет в контейнере — используем UTC+3 вручную
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// Location возвращает часовой пояс бота.
func Location() *time.Location {
	return location
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
func FormatDateTime(t time.Time) string {
	return t.In(location).Format("02.01.2006 15:04")
}

// DisplayName возвращает @username, а если его нет — ID пользователя.
func DisplayName(userID int64, username string) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("ID %d", userID)
}
