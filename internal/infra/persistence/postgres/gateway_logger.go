package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// gatewayLogger routes gorm output into the service logger. Failed and slow
// gateway queries are always reported; every query is traced in debug mode.
type gatewayLogger struct {
	logger    *slog.Logger
	level     logger.LogLevel
	slowQuery time.Duration
}

func newGatewayLogger(base *slog.Logger, cfg *config.Config) logger.Interface {
	gl := &gatewayLogger{
		logger: base,
		level:  logger.Warn,
	}
	if cfg == nil {
		return gl
	}
	if cfg.Env.Debug {
		gl.level = logger.Info
	}
	if cfg.Gateway != nil {
		gl.slowQuery = cfg.Gateway.SlowQuery
	}

	return gl
}

func (l *gatewayLogger) LogMode(level logger.LogLevel) logger.Interface {
	cloned := *l
	cloned.level = level

	return &cloned
}

func (l *gatewayLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l *gatewayLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l *gatewayLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l *gatewayLogger) printf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, args []any) {
	if l.logger == nil || l.level < threshold {
		return
	}

	l.logger.LogAttrs(ctx, level, "Gateway driver message",
		slog.String("message", fmt.Sprintf(msg, args...)),
	)
}

func (l *gatewayLogger) Trace(ctx context.Context, begin time.Time, sqlAndRowsFn func() (string, int64), err error) {
	if l.logger == nil || l.level == logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	level, msg, extra, ok := l.classify(elapsed, err)
	if !ok {
		return
	}

	query, rows := sqlAndRowsFn()
	attrs := append([]slog.Attr{
		slog.Duration("elapsed", elapsed),
		slog.Int64("rows", rows),
		slog.String("sql", query),
	}, extra...)
	if requestID := deliverycontext.GetRequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// classify decides whether and how a finished query is reported. Missing rows
// are an expected outcome of lookups and are not errors here.
func (l *gatewayLogger) classify(elapsed time.Duration, err error) (slog.Level, string, []slog.Attr, bool) {
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		return slog.LevelError, "Gateway query failed", []slog.Attr{slog.String("error", err.Error())}, true
	case l.slowQuery > 0 && elapsed > l.slowQuery && l.level >= logger.Warn:
		return slog.LevelWarn, "Gateway query slow", []slog.Attr{slog.Duration("threshold", l.slowQuery)}, true
	case l.level >= logger.Info:
		return slog.LevelDebug, "Gateway query", nil, true
	default:
		return 0, "", nil, false
	}
}
