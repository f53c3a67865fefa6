// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Файл .env (если есть) подгружается в cmd/bot до вызова Load.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"serotonyl.ru/numbers-bot/internal/ton"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Единственный администратор магазина
	AdminID int64 `envconfig:"ADMIN_ID" required:"true"`

	// --- TON ---
	WalletTON       string `envconfig:"WALLET_TON" required:"true"`
	TonCenterAPIKey string `envconfig:"TONCENTER_API_KEY"`
	TonCenterAPIURL string `envconfig:"TONCENTER_API_URL" default:"https://toncenter.com/api/v2/"`
	// decimal.Decimal разбирается через UnmarshalText без потери точности
	MinDeposit decimal.Decimal `envconfig:"MIN_DEPOSIT_TON" default:"0.1"`

	// --- Storage ---
	// postgres — рабочий режим, memory — отладка без базы (данные теряются при рестарте)
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// --- Database ---
	// В Docker дефолт "postgres" (имя сервиса в docker-compose), для локалки DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"numbers_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Admin sessions ---
	// memory или redis: где хранить незавершённые диалоги админки
	SessionStore   string        `envconfig:"SESSION_STORE" default:"memory"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"5m"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	RedisKeyPrefix string        `envconfig:"REDIS_KEY_PREFIX" default:"numbers-bot:admin:"`

	// Хэш argon2id пароля админки (scripts/generate_hash.go). Пусто — пароль не спрашиваем.
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	// --- Relay ---
	// true: сообщение покупателя уходит админу отдельно по каждому заказу в работе.
	// false: одно сообщение со списком заказов.
	RelayFanoutPerOrder bool `envconfig:"RELAY_FANOUT_PER_ORDER" default:"true"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"20"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- HTTP (healthz, stats) ---
	// Пусто — HTTP-сервер не запускается
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	// --- Jobs ---
	// Ежедневный отчёт админу, cron-выражение в часовом поясе APP_TIMEZONE
	ReportCron string `envconfig:"REPORT_CRON" default:"0 9 * * *"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin — является ли userID администратором магазина.
func (c *Config) IsAdmin(userID int64) bool {
	return userID == c.AdminID
}

func (c *Config) Validate() error {
	if c.AdminID == 0 {
		return fmt.Errorf("ADMIN_ID не задан или равен 0")
	}
	if _, err := ton.ParseWallet(c.WalletTON); err != nil {
		return fmt.Errorf("WALLET_TON не похож на адрес TON: %w", err)
	}
	if !c.MinDeposit.IsPositive() {
		return fmt.Errorf("MIN_DEPOSIT_TON должен быть > 0")
	}

	switch c.StorageDriver {
	case "postgres":
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORAGE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_DRIVER: неизвестное значение %q", c.StorageDriver)
	}

	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("SESSION_STORE: неизвестное значение %q", c.SessionStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL должен быть > 0")
	}

	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
