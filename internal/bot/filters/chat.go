// Package filters решает, какие апдейты бот вообще обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает только личные сообщения от людей: магазин, баланс
// и переписка с админом в группах не работают.
type ChatFilter struct{}

// NewChatFilter создаёт фильтр.
func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// CheckAccess — можно ли обработать апдейт из chat от from.
func (f *ChatFilter) CheckAccess(chat *tgbotapi.Chat, from *tgbotapi.User) bool {
	if chat == nil || from == nil {
		log.WithField("component", "ChatFilter").Debug("deny: нет чата или отправителя")
		return false
	}
	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   chat.ID,
		"chat_type": chat.Type,
		"user_id":   from.ID,
	})
	if from.IsBot {
		logger.Debug("deny: сообщение от бота")
		return false
	}
	if !chat.IsPrivate() {
		logger.Debug("deny: не личный чат")
		return false
	}
	return true
}
