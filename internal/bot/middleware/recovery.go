package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// RecoverFromPanic вызывается через defer в обработчике апдейта:
// паника одного апдейта не роняет бота.
func RecoverFromPanic(logger *log.Entry) {
	if r := recover(); r != nil {
		if logger == nil {
			logger = log.NewEntry(log.StandardLogger())
		}
		logger.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", r),
			"stack":     string(debug.Stack()),
		}).Error("Паника в обработчике восстановлена")
	}
}
