package telegram

import (
	"errors"

	"serotonyl.ru/numbers-bot/internal/common"
)

// ErrorText переводит ошибку сервиса в текст для пользователя.
// Неизвестные ошибки не раскрываются.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "❌ Недостаточно средств на балансе"
	case errors.Is(err, common.ErrNotFound):
		return "❌ Не найдено"
	case errors.Is(err, common.ErrForbidden):
		return "⛔ Нет доступа"
	case errors.Is(err, common.ErrInvalidState):
		return "⚠️ Действие уже выполнено или недоступно"
	case errors.Is(err, common.ErrBelowMinimum):
		return "❌ Сумма меньше минимальной"
	case errors.Is(err, common.ErrInvalidAmount):
		return "❌ Некорректная сумма"
	case errors.Is(err, common.ErrDuplicate):
		return "⚠️ Эта транзакция уже была отправлена"
	case errors.Is(err, common.ErrWrongPassword):
		return "❌ Неверный пароль"
	case errors.Is(err, common.ErrTooManyAttempts):
		return "⛔ Слишком много попыток, подождите 1 час"
	case errors.Is(err, common.ErrInvalidInput):
		return "❌ Некорректный ввод"
	default:
		return "❌ Произошла ошибка, попробуйте позже"
	}
}
