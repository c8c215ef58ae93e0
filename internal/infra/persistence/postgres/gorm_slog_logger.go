package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/errors"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowKVQuery = 100 * time.Millisecond

// kvQueryLogger routes GORM output of the KV table to slog. Missing keys are
// ordinary cache misses and never logged as failures.
type kvQueryLogger struct {
	logger *slog.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

func newGormSlogLogger(baseLogger *slog.Logger, cfg *config.Config) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.Env.Debug {
		level = gormlogger.Info
	}

	return &kvQueryLogger{
		logger: baseLogger.With(slog.String("component", "kv_postgres")),
		level:  level,
		slow:   slowKVQuery,
	}
}

func (l *kvQueryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

func (l *kvQueryLogger) Info(ctx context.Context, msg string, args ...any) {
	l.message(ctx, gormlogger.Info, slog.LevelInfo, msg, args)
}

func (l *kvQueryLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.message(ctx, gormlogger.Warn, slog.LevelWarn, msg, args)
}

func (l *kvQueryLogger) Error(ctx context.Context, msg string, args ...any) {
	l.message(ctx, gormlogger.Error, slog.LevelError, msg, args)
}

func (l *kvQueryLogger) message(ctx context.Context, threshold gormlogger.LogLevel, level slog.Level, msg string, args []any) {
	if l.level < threshold {
		return
	}

	l.logger.Log(ctx, level, "GORM "+fmt.Sprintf(msg, args...))
}

// Trace logs failed statements, statements slower than the threshold and, at info,
// every statement.
func (l *kvQueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)

	var (
		level slog.Level
		msg   string
	)
	switch {
	case failed && l.level >= gormlogger.Error:
		level, msg = slog.LevelError, "KV query failed"
	case elapsed > l.slow && l.level >= gormlogger.Warn:
		level, msg = slog.LevelWarn, "KV query slow"
	case l.level >= gormlogger.Info:
		level, msg = slog.LevelDebug, "KV query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", sql),
	}
	if failed {
		attrs = append(attrs, slog.Any("error", err))
	}

	l.logger.LogAttrs(ctx, level, msg, attrs...)
}
