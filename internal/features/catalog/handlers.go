package catalog

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/telegram"
)

// Handler показывает каталог покупателю.
type Handler struct {
	service *Service
	sender  *telegram.Sender
}

// NewHandler создаёт обработчик каталога.
func NewHandler(service *Service, sender *telegram.Sender) *Handler {
	return &Handler{service: service, sender: sender}
}

// List — «📱 Номера»: кнопка на каждый товар.
func (h *Handler) List(ctx context.Context, chatID int64, messageID int) {
	products, err := h.service.List(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения каталога")
		h.sender.Show(chatID, messageID, telegram.ErrorText(err), nil)
		return
	}
	if len(products) == 0 {
		kb := telegram.BackToMain()
		h.sender.Show(chatID, messageID, "❌ Товары временно отсутствуют!", &kb)
		return
	}
	kb := telegram.ProductList(products)
	h.sender.Show(chatID, messageID, "🍕 Наши номера 🍕\n\n👇 Выберите номер для покупки:", &kb)
}

// Detail — карточка товара с кнопкой «Купить».
func (h *Handler) Detail(ctx context.Context, chatID int64, messageID int, productID int64) {
	p, err := h.service.Get(ctx, productID)
	if err != nil {
		h.sender.Show(chatID, messageID, "❌ Товар не найден!", nil)
		return
	}
	text := fmt.Sprintf("📱 %s\n\n%s\n\n💰 Цена: %s\n🆔 ID товара: #%d\n📅 Добавлен: %s\n\n👇 Выберите действие:",
		p.Name, Description(p.Name), common.FormatTON(p.Price), p.ID, common.FormatDateTime(p.CreatedAt))
	kb := telegram.ProductDetail(p.ID)
	h.sender.Show(chatID, messageID, text, &kb)
}
