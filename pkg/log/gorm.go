package log

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormLogger forwards gorm's SQL logging into a LoggerService.
type GormLogger struct {
	log           LoggerService
	level         logger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log LoggerService) *GormLogger {
	return &GormLogger{
		log:           log,
		level:         logger.Warn,
		slowThreshold: 200 * time.Millisecond,
	}
}

// ParseGormLevel maps a textual level onto gorm's log levels. "SILENT" and
// "OFF" disable SQL logging.
func ParseGormLevel(level string) logger.LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "SILENT", "OFF":
		return logger.Silent
	}

	switch Parse(level) {
	case Debug, Info:
		return logger.Info
	case Warn:
		return logger.Warn
	case Error, Fatal:
		return logger.Error
	}
	return logger.Silent
}

func (gl *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	copied := *gl
	copied.level = level
	return &copied
}

func (gl *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if gl.level >= logger.Info {
		gl.log.Debug(msg, args...)
	}
}

func (gl *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if gl.level >= logger.Warn {
		gl.log.Warn(msg, args...)
	}
}

func (gl *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if gl.level >= logger.Error {
		gl.log.Error(msg, args...)
	}
}

func (gl *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if gl.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && gl.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		gl.log.Error("%s [%s, rows=%d]: %v", sql, elapsed, rows, err)
	case elapsed > gl.slowThreshold && gl.level >= logger.Warn:
		sql, rows := fc()
		gl.log.Warn("slow query %s [%s, rows=%d]", sql, elapsed, rows)
	case gl.level >= logger.Info:
		sql, rows := fc()
		gl.log.Debug("%s [%s, rows=%d]", sql, elapsed, rows)
	}
}
