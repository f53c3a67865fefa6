// Package bot содержит главный модуль бота: polling апдейтов и маршрутизацию
// кнопок, callback'ов и команд к обработчикам фич.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/config"
)

// Bot — polling Telegram и ограничение параллелизма. Сама обработка в Dispatcher.
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        *config.Config
	dispatcher *Dispatcher

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт бота поверх готового диспетчера.
func New(api *tgbotapi.BotAPI, cfg *config.Config, dispatcher *Dispatcher) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}
	return &Bot{
		api:        api,
		cfg:        cfg,
		dispatcher: dispatcher,
		inflight:   make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Блокирует до отмены ctx.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"bot":          b.api.Self.UserName,
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.dispatcher.HandleUpdate(ctx, upd)
			}(update)
		}
	}
}
