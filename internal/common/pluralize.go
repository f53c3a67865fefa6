// Package common — pluralize.go склоняет русские существительные после числительных.
package common

import "fmt"

// Pluralize возвращает форму слова для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → one (1, 21, 101)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 22)
//   - остальные → many (0, 5-20, 25)
//
// Пример:
//
//	Pluralize(3, "заказ", "заказа", "заказов") → "заказа"
func Pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeOrders: 1 заказ, 2 заказа, 5 заказов.
func PluralizeOrders(n int) string {
	return fmt.Sprintf("%d %s", n, Pluralize(n, "заказ", "заказа", "заказов"))
}
