package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/errors"

	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	dbPoolMonitorInterval       = 5 * time.Second
	dbPoolWarnDurationThreshold = 50 * time.Millisecond
)

type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// New opens the PostgreSQL gateway, migrating the schema on start when configured
func New(params Params) (*gorm.DB, error) {
	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PostgreSQL client")
	}
	// Driver errors become gorm.ErrDuplicatedKey and friends
	db.TranslateError = true
	db = db.Session(&gorm.Session{
		// Single-statement writes need no implicit transaction; message inserts open their own.
		SkipDefaultTransaction: true,
		Logger:                 newGatewayLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get PostgreSQL sql.DB")
	}

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())

	params.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to ping PostgreSQL")
			}

			if params.Config.Gateway.Migrate {
				if err := Migrate(ctx, db, params.Logger); err != nil {
					return err
				}
			}

			go monitorDBPool(monitorCtx, params.Logger, sqlDB, dbPoolMonitorInterval)

			return nil
		},
		OnStop: func(_ context.Context) error {
			cancelMonitor()

			return sqlDB.Close()
		},
	})

	return db, nil
}

// poolSampler compares consecutive pool statistics and reports new waits for a connection.
type poolSampler struct {
	prev sql.DBStats
	warn time.Duration
}

// sample records cur and returns the log level and attributes for the waits
// since the previous sample. ok is false when no caller waited.
func (p *poolSampler) sample(cur sql.DBStats) (level slog.Level, attrs []slog.Attr, ok bool) {
	waits := cur.WaitCount - p.prev.WaitCount
	waited := cur.WaitDuration - p.prev.WaitDuration
	p.prev = cur
	if waits <= 0 {
		return 0, nil, false
	}

	attrs = []slog.Attr{
		slog.Int64("waits", waits),
		slog.Duration("waited", waited),
		slog.Duration("avgWait", waited/time.Duration(waits)),
		slog.Int("maxOpenConns", cur.MaxOpenConnections),
		slog.Int("openConns", cur.OpenConnections),
		slog.Int("inUseConns", cur.InUse),
		slog.Int("idleConns", cur.Idle),
	}
	level = slog.LevelDebug
	if waited >= p.warn {
		level = slog.LevelWarn
	}

	return level, attrs, true
}

func monitorDBPool(ctx context.Context, logger *slog.Logger, sqlDB *sql.DB, interval time.Duration) {
	if logger == nil || sqlDB == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sampler := &poolSampler{prev: sqlDB.Stats(), warn: dbPoolWarnDurationThreshold}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if level, attrs, ok := sampler.sample(sqlDB.Stats()); ok {
				logger.LogAttrs(ctx, level, "Gateway connection pool saturated", attrs...)
			}
		}
	}
}
