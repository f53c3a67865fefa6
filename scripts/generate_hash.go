//go:build ignore

// generate_hash.go печатает Argon2id-хэш пароля админки.
// Запуск: go run scripts/generate_hash.go <пароль>
//
// Результат положить в .env как ADMIN_PASSWORD_HASH.
package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"serotonyl.ru/numbers-bot/internal/features/admin"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "" {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		fmt.Printf("Ошибка генерации соли: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Хэш пароля (добавьте в .env как ADMIN_PASSWORD_HASH):")
	fmt.Println(admin.HashPassword(os.Args[1], salt))
}
