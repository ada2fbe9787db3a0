package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

const slowQueryThreshold = 200 * time.Millisecond

// slogLogger writes gorm's log and trace output to a slog.Logger.
type slogLogger struct {
	log           *slog.Logger
	level         logger.LogLevel
	slowThreshold time.Duration
}

// NewLogger returns a gorm logger at warn level: errors and slow queries are
// logged, record-not-found is not.
func NewLogger(log *slog.Logger) logger.Interface {
	return &slogLogger{log: log, level: logger.Warn, slowThreshold: slowQueryThreshold}
}

func (l *slogLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(msg, args...), "source", utils.FileWithLineNum())
	}
}

func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	attrs := func() []any {
		sql, rows := fc()
		return []any{
			"sql", sql,
			"rows", rows,
			"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
			"source", utils.FileWithLineNum(),
		}
	}

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, logger.ErrRecordNotFound):
		l.log.ErrorContext(ctx, "gorm.query", append(attrs(), "error", err)...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		l.log.WarnContext(ctx, "gorm.slow_query", append(attrs(), "threshold_ms", l.slowThreshold.Milliseconds())...)
	case l.level >= logger.Info:
		l.log.InfoContext(ctx, "gorm.query", attrs()...)
	}
}
