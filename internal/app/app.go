// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: хранилище, сессии админки, сервисы, обработчики,
// бот, планировщик и служебный HTTP.
package app

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/bot"
	"serotonyl.ru/numbers-bot/internal/bot/filters"
	"serotonyl.ru/numbers-bot/internal/bot/middleware"
	"serotonyl.ru/numbers-bot/internal/config"
	"serotonyl.ru/numbers-bot/internal/db/memory"
	"serotonyl.ru/numbers-bot/internal/db/postgres"
	"serotonyl.ru/numbers-bot/internal/features/admin"
	"serotonyl.ru/numbers-bot/internal/features/balance"
	"serotonyl.ru/numbers-bot/internal/features/catalog"
	"serotonyl.ru/numbers-bot/internal/features/deposits"
	"serotonyl.ru/numbers-bot/internal/features/orders"
	"serotonyl.ru/numbers-bot/internal/features/relay"
	"serotonyl.ru/numbers-bot/internal/features/users"
	"serotonyl.ru/numbers-bot/internal/httpapi"
	"serotonyl.ru/numbers-bot/internal/jobs"
	"serotonyl.ru/numbers-bot/internal/store"
	"serotonyl.ru/numbers-bot/internal/telegram"
	"serotonyl.ru/numbers-bot/internal/ton"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	HTTP      *httpapi.Server // nil, если HTTP_ADDR пуст
	BotAPI    *tgbotapi.BotAPI

	closers []func()
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// === 1. Хранилище ===
	db, authRepo, err := a.openStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// === 2. Диалоги админки ===
	sessions, err := a.openSessions(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)
	a.BotAPI = botAPI

	sender := telegram.NewSender(botAPI)
	notifier := bot.NewNotifier(sender, cfg.AdminID)

	// === 4. Сервисы ===
	userService := users.NewService(db)
	catalogService := catalog.NewService(db, cfg.AdminID)
	balanceService := balance.NewService(db, cfg.AdminID)
	orderService := orders.NewService(db, notifier, cfg.AdminID)
	depositService := deposits.NewService(db, ton.NewClient(cfg.TonCenterAPIURL, cfg.TonCenterAPIKey),
		notifier, cfg.AdminID, cfg.MinDeposit)
	adminService := admin.NewService(db, sessions, authRepo, cfg.AdminID, cfg.AdminPasswordHash)
	router := relay.NewRouter(db, sender, cfg.AdminID, cfg.RelayFanoutPerOrder)

	// === 5. Обработчики ===
	handlers := bot.Handlers{
		Admin: admin.NewHandler(adminService, catalogService, balanceService,
			orderService, depositService, userService, sender),
		Catalog:  catalog.NewHandler(catalogService, sender),
		Balance:  balance.NewHandler(balanceService, sender),
		Orders:   orders.NewHandler(orderService, balanceService, sender),
		Deposits: deposits.NewHandler(depositService, sender, cfg.WalletTON),
		Relay:    relay.NewHandler(router, sender),
	}

	// === 6. Фильтры и лимиты ===
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
	a.closers = append(a.closers, rateLimiter.Close)

	// === 7. Собираем бота ===
	dispatcher := bot.NewDispatcher(sender, userService, adminService, handlers, filters.NewChatFilter(), rateLimiter)
	a.Bot = bot.New(botAPI, cfg, dispatcher)

	// === 8. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(adminService, cfg.AdminID, cfg.ReportCron, sender.SendText)

	// === 9. Служебный HTTP ===
	if cfg.HTTPAddr != "" {
		a.HTTP = httpapi.NewServer(cfg.HTTPAddr, httpapi.NewRouter(db, adminService, cfg.AdminID))
	}

	return a, nil
}

// openStore открывает хранилище по STORAGE_DRIVER.
func (a *App) openStore(ctx context.Context, cfg *config.Config) (store.Store, admin.AuthRepository, error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("STORAGE_DRIVER=memory: данные будут потеряны при перезапуске")
		return memory.New(), admin.NewMemoryRepository(), nil
	}

	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := postgres.Migrate(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return postgres.NewRepository(pool), admin.NewRepository(pool), nil
}

// openSessions выбирает хранилище диалогов админки по SESSION_STORE.
func (a *App) openSessions(ctx context.Context, cfg *config.Config) (admin.SessionStore, error) {
	if cfg.SessionStore != "redis" {
		return admin.NewMemorySessions(cfg.SessionTTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}
	log.WithField("addr", cfg.RedisAddr).Info("Диалоги админки хранятся в Redis")
	return admin.NewRedisSessions(client, cfg.RedisKeyPrefix, cfg.SessionTTL), nil
}

// Close освобождает ресурсы в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
