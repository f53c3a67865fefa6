// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ежедневный отчёт админу
// и чистку просроченных диалогов админки.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/common"
	"serotonyl.ru/numbers-bot/internal/features/admin"
	"serotonyl.ru/numbers-bot/internal/store"
)

// sweepSpec — как часто чистим просроченные диалоги.
const sweepSpec = "@every 1m"

// AdminService — то, что планировщику нужно от админки.
type AdminService interface {
	Statistics(ctx context.Context, actingID int64) (*store.Statistics, error)
	SweepSessions(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	admin      AdminService
	adminID    int64
	reportSpec string
	sendFunc   func(userID int64, text string) error
}

// NewScheduler создаёт планировщик в часовом поясе приложения (APP_TIMEZONE).
func NewScheduler(adminService AdminService, adminID int64, reportSpec string, sendFunc func(userID int64, text string) error) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(common.Location())),
		admin:      adminService,
		adminID:    adminID,
		reportSpec: reportSpec,
		sendFunc:   sendFunc,
	}
}

// Start регистрирует задачи и запускает cron. Ошибка — некорректное расписание.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.reportSpec != "" {
		if _, err := s.cron.AddFunc(s.reportSpec, func() {
			log.Info("[CRON] Ежедневный отчёт админу")
			if err := s.DailyReport(ctx); err != nil {
				log.WithError(err).Error("[CRON] Ошибка отчёта")
			}
		}); err != nil {
			return fmt.Errorf("REPORT_CRON %q: %w", s.reportSpec, err)
		}
	}

	if _, err := s.cron.AddFunc(sweepSpec, func() { s.Sweep(ctx) }); err != nil {
		return err
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"report": s.reportSpec,
		"tz":     common.Location().String(),
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт текущие задачи.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// DailyReport отправляет админу сводку магазина.
func (s *Scheduler) DailyReport(ctx context.Context) error {
	st, err := s.admin.Statistics(ctx, s.adminID)
	if err != nil {
		return fmt.Errorf("статистика: %w", err)
	}
	title := "📊 Отчёт за " + common.FormatDateTime(time.Now())
	if err := s.sendFunc(s.adminID, admin.FormatStatistics(title, st)); err != nil {
		return fmt.Errorf("%w: %v", common.ErrDeliveryFailure, err)
	}
	return nil
}

// Sweep удаляет просроченные диалоги админки.
func (s *Scheduler) Sweep(ctx context.Context) {
	n, err := s.admin.SweepSessions(ctx)
	if err != nil {
		log.WithError(err).Warn("[CRON] Ошибка чистки диалогов")
		return
	}
	if n > 0 {
		log.WithField("removed", n).Debug("[CRON] Просроченные диалоги удалены")
	}
}
