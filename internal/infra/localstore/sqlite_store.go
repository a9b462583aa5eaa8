// Package localstore keeps client-side state (favorites, active conversation,
// language) in a local sqlite database that survives restarts.
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/config"
	"storefront/internal/domain/service"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/fx"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

type sqliteStore struct {
	db *sqlx.DB
}

type kvRow struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt string `db:"updated_at"`
}

// StoreParams holds dependencies for the local store, injected by Fx
type StoreParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewLocalStore opens the configured sqlite database and closes it on shutdown.
func NewLocalStore(params StoreParams) (service.LocalStore, error) {
	store, err := Open(params.Config.LocalStore.Path)
	if err != nil {
		return nil, err
	}

	params.Logger.Info("Local store opened", slog.String("path", params.Config.LocalStore.Path))

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

// Open opens (and creates if needed) the sqlite database at path.
func Open(path string) (*sqliteStore, error) {
	dsn := path
	if path != memoryPath {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open local store")
	}
	if strings.HasPrefix(path, memoryPath) {
		// Every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, errors.Wrap(err, "connect local store")
	}

	store := &sqliteStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()

		return nil, err
	}

	return store, nil
}

func (s *sqliteStore) ensureSchema(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "create local store schema")
	}

	return nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row kvRow
	err := s.db.GetContext(ctx, &row, `SELECT key, value, updated_at FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %s", key)
	}

	return row.Value, true, nil
}

func (s *sqliteStore) Set(ctx context.Context, key, value string) error {
	const stmt = `INSERT INTO kv (key, value, updated_at) VALUES (:key, :value, :updated_at)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.NamedExecContext(ctx, stmt, kvRow{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return errors.Wrapf(err, "set %s", key)
	}

	return nil
}

func (s *sqliteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}

	return nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
