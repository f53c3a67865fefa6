// Package httpapi — служебный HTTP: проверка живости для Docker и сводка магазина.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/numbers-bot/internal/store"
)

// Pinger — хранилище, которое умеет проверить соединение.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsSource отдаёт сводку от имени админа.
type StatsSource interface {
	Statistics(ctx context.Context, actingID int64) (*store.Statistics, error)
}

// NewRouter собирает маршруты /healthz и /stats.
func NewRouter(db Pinger, stats StatsSource, adminID int64) *gin.Engine {
	router := gin.New()
	router.Use(requestID(), accessLog(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.WithError(err).WithField("component", "httpapi").Warn("healthz: хранилище недоступно")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/stats", func(c *gin.Context) {
		st, err := stats.Statistics(c.Request.Context(), adminID)
		if err != nil {
			log.WithError(err).WithField("component", "httpapi").Error("stats: ошибка статистики")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "statistics unavailable"})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	return router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"component":  "httpapi",
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency":    time.Since(start),
		}).Debug("http request")
	}
}

// Server — http.Server с graceful shutdown.
type Server struct {
	srv *http.Server
}

// NewServer создаёт сервер на addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// Start запускает сервер в горутине.
func (s *Server) Start() {
	go func() {
		log.WithField("addr", s.srv.Addr).Info("HTTP сервер запущен")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP сервер упал")
		}
	}()
}

// Shutdown дожидается активных запросов, но не дольше ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
