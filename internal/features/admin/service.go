package admin

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/store"
)

// Защита от перебора: MaxLoginAttempts неудач за AttemptWindow блокируют вход.
const (
	MaxLoginAttempts = 3
	AttemptWindow    = time.Hour
	AuthSessionTTL   = 24 * time.Hour
)

// StatsStore отдаёт сводку для панели.
type StatsStore interface {
	Statistics(ctx context.Context) (*store.Statistics, error)
}

// Service — состояние админки: диалоги, вход по паролю, статистика.
type Service struct {
	stats        StatsStore
	sessions     SessionStore
	auth         AuthRepository
	adminID      int64
	passwordHash string
}

// NewService создаёт сервис админки. Пустой passwordHash отключает вход по паролю:
// админ определяется только по ADMIN_ID.
func NewService(stats StatsStore, sessions SessionStore, auth AuthRepository, adminID int64, passwordHash string) *Service {
	return &Service{
		stats:        stats,
		sessions:     sessions,
		auth:         auth,
		adminID:      adminID,
		passwordHash: passwordHash,
	}
}

// IsAdmin сравнивает id с ADMIN_ID.
func (s *Service) IsAdmin(userID int64) bool {
	return userID == s.adminID
}

// PasswordRequired — настроен ли ADMIN_PASSWORD_HASH.
func (s *Service) PasswordRequired() bool {
	return s.passwordHash != ""
}

// Authorized — админ и (если пароль настроен) вошёл в последние 24 часа.
func (s *Service) Authorized(ctx context.Context, userID int64) bool {
	if !s.IsAdmin(userID) {
		return false
	}
	if !s.PasswordRequired() {
		return true
	}
	session, err := s.auth.GetActiveSession(ctx, userID)
	return err == nil && session != nil
}

// VerifyPassword проверяет пароль по хэшу Argon2id и открывает сессию на 24 часа.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrForbidden
	}

	attempts, err := s.auth.GetRecentAttempts(ctx, userID, AttemptWindow)
	if err != nil {
		return err
	}
	if attempts >= MaxLoginAttempts {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.passwordHash)
	if err := s.auth.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль админки")
		return common.ErrWrongPassword
	}

	session := &AuthSession{
		UserID:       userID,
		SessionToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(AuthSessionTTL),
	}
	if err := s.auth.CreateSession(ctx, session); err != nil {
		return err
	}
	log.WithField("user_id", userID).Info("Админ вошёл в панель")
	return nil
}

// Logout закрывает сессию входа.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.auth.DeactivateSession(ctx, userID)
}

// Session — текущий диалог админа или nil.
func (s *Service) Session(ctx context.Context, adminID int64) *Session {
	sess, err := s.sessions.Get(ctx, adminID)
	if err != nil {
		log.WithError(err).WithField("admin_id", adminID).Warn("Ошибка чтения диалога")
		return nil
	}
	return sess
}

// SetStep сохраняет диалог с новым шагом; TTL отсчитывается заново.
func (s *Service) SetStep(ctx context.Context, sess *Session, step Step) error {
	sess.Step = step
	return s.sessions.Set(ctx, sess)
}

// Begin начинает диалог с чистого состояния.
func (s *Service) Begin(ctx context.Context, adminID int64, step Step) error {
	return s.sessions.Set(ctx, &Session{AdminID: adminID, Step: step})
}

// Cancel сбрасывает диалог.
func (s *Service) Cancel(ctx context.Context, adminID int64) {
	if err := s.sessions.Clear(ctx, adminID); err != nil {
		log.WithError(err).WithField("admin_id", adminID).Warn("Ошибка сброса диалога")
	}
}

// SweepSessions удаляет истёкшие диалоги (вызывается по расписанию).
func (s *Service) SweepSessions(ctx context.Context) (int, error) {
	return s.sessions.Sweep(ctx)
}

// Statistics — сводка магазина, только для админа.
func (s *Service) Statistics(ctx context.Context, actingID int64) (*store.Statistics, error) {
	if !s.IsAdmin(actingID) {
		return nil, common.ErrForbidden
	}
	return s.stats.Statistics(ctx)
}

// verifyArgon2id проверяет пароль по хэшу Argon2id.
// Формат хэша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хэша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хэша")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	// Сравнение за постоянное время
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// HashPassword кодирует пароль в формат, который понимает verifyArgon2id.
func HashPassword(password string, salt []byte) string {
	const (
		memory      = 64 * 1024
		iterations  = 3
		parallelism = 2
		keyLen      = 32
	)
	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}
