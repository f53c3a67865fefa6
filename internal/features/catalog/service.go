// Package catalog — товары магазина: список для покупателей и правка для админа.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// MaxNameLength — ограничение на название товара (помещается в кнопку).
const MaxNameLength = 64

// Store — часть журнала, нужная каталогу.
type Store interface {
	CreateProduct(ctx context.Context, name string, price decimal.Decimal) (int64, error)
	EditProduct(ctx context.Context, id int64, name *string, price *decimal.Decimal) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	GetProduct(ctx context.Context, id int64) (*store.Product, error)
	ListProducts(ctx context.Context) ([]*store.Product, error)
}

// Service управляет каталогом. Изменять его может только админ.
type Service struct {
	store   Store
	adminID int64
}

// NewService создаёт сервис каталога.
func NewService(s Store, adminID int64) *Service {
	return &Service{store: s, adminID: adminID}
}

// ValidateName обрезает пробелы и проверяет длину названия.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("название от 1 до %d символов: %w", MaxNameLength, common.ErrInvalidInput)
	}
	return name, nil
}

// Create добавляет товар и возвращает его ID.
func (s *Service) Create(ctx context.Context, actingID int64, name string, price decimal.Decimal) (int64, error) {
	if actingID != s.adminID {
		return 0, common.ErrForbidden
	}
	name, err := ValidateName(name)
	if err != nil {
		return 0, err
	}
	if price.IsNegative() {
		return 0, common.ErrInvalidAmount
	}
	id, err := s.store.CreateProduct(ctx, name, price)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"product_id": id, "price": price.String()}).Info("Товар добавлен")
	return id, nil
}

// Edit меняет название и/или цену. Уже созданные заказы сохраняют свою сумму.
func (s *Service) Edit(ctx context.Context, actingID, id int64, name *string, price *decimal.Decimal) error {
	if actingID != s.adminID {
		return common.ErrForbidden
	}
	if name == nil && price == nil {
		return fmt.Errorf("нечего менять: %w", common.ErrInvalidInput)
	}
	if name != nil {
		n, err := ValidateName(*name)
		if err != nil {
			return err
		}
		name = &n
	}
	if price != nil && price.IsNegative() {
		return common.ErrInvalidAmount
	}
	ok, err := s.store.EditProduct(ctx, id, name, price)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("товар %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// Delete убирает товар из каталога. Заказы на него остаются.
func (s *Service) Delete(ctx context.Context, actingID, id int64) error {
	if actingID != s.adminID {
		return common.ErrForbidden
	}
	ok, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("товар %d: %w", id, common.ErrNotFound)
	}
	log.WithField("product_id", id).Info("Товар удалён")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*store.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*store.Product, error) {
	return s.store.ListProducts(ctx)
}
