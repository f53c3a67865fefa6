// Package common — errors.go определяет ошибки предметной области,
// которые используются во всех модулях бота.
// Обработчики различают их через errors.Is и отвечают пользователю
// понятным текстом, а не стектрейсом.
package common

import "errors"

// Ошибки хранилища и жизненного цикла заказа
var (
	// ErrNotFound — пользователь, товар, заказ или транзакция не найдены
	ErrNotFound = errors.New("запись не найдена")
	// ErrForbidden — у вызывающего нет нужной роли (например, не админ)
	ErrForbidden = errors.New("доступ запрещён")
	// ErrInvalidState — переход запрещён текущим статусом (в т.ч. повторное завершение)
	ErrInvalidState = errors.New("недопустимый статус для операции")
	// ErrDuplicate — хэш транзакции уже зарегистрирован
	ErrDuplicate = errors.New("запись уже существует")
)

// Ошибки баланса
var (
	// ErrInsufficientFunds — на балансе меньше, чем требуется
	ErrInsufficientFunds = errors.New("недостаточно средств на балансе")
	// ErrInvalidAmount — сумма не число, ноль или отрицательная
	ErrInvalidAmount = errors.New("сумма должна быть положительным числом")
	// ErrBelowMinimum — сумма пополнения меньше минимальной
	ErrBelowMinimum = errors.New("сумма меньше минимального пополнения")
	// ErrInvalidInput — пустое название, пустой хэш и т.п.
	ErrInvalidInput = errors.New("некорректные данные")
)

// Ошибки доставки уведомлений. Никогда не откатывают уже выполненную операцию.
var (
	// ErrDeliveryFailure — сообщение собеседнику не доставлено
	ErrDeliveryFailure = errors.New("не удалось доставить сообщение")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
)
