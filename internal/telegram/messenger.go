// Package telegram — тонкая обёртка над telegram-bot-api: отправка,
// редактирование сообщений, ответы на callback и клавиатуры магазина.
package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
)

// Messenger — то, что нужно от *tgbotapi.BotAPI. В тестах подменяется записывающим фейком.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender отправляет сообщения. Все ошибки Telegram оборачиваются в
// common.ErrDeliveryFailure: вызывающий логирует их и идёт дальше.
type Sender struct {
	api Messenger
}

// NewSender создаёт отправителя поверх api.
func NewSender(api Messenger) *Sender {
	return &Sender{api: api}
}

// Send отправляет текст с необязательной клавиатурой (markup может быть nil).
func (s *Sender) Send(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("%w: чат %d: %v", common.ErrDeliveryFailure, chatID, err)
	}
	return nil
}

// SendText — Send без клавиатуры.
func (s *Sender) SendText(chatID int64, text string) error {
	return s.Send(chatID, text, nil)
}

// Reply отправляет ответ пользователю и только логирует сбой доставки.
func (s *Sender) Reply(chatID int64, text string, markup any) {
	if err := s.Send(chatID, text, markup); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Ошибка отправки сообщения")
	}
}

// Edit заменяет текст сообщения с inline-кнопкой. Если сообщение нельзя
// отредактировать (слишком старое, не текст), отправляет новое.
func (s *Sender) Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := s.api.Request(edit); err == nil {
		return
	}
	if markup != nil {
		s.Reply(chatID, text, *markup)
		return
	}
	s.Reply(chatID, text, nil)
}

// Show редактирует сообщение, если пришли с inline-кнопки (messageID != 0),
// иначе отправляет новое.
func (s *Sender) Show(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 {
		s.Edit(chatID, messageID, text, markup)
		return
	}
	if markup != nil {
		s.Reply(chatID, text, *markup)
		return
	}
	s.Reply(chatID, text, nil)
}

// AnswerCallback убирает «часики» на нажатой кнопке.
func (s *Sender) AnswerCallback(callbackID, text string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("Не удалось ответить на callback")
	}
}
