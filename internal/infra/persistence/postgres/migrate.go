package postgres

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"sort"

	"storefront/internal/errors"

	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies every embedded migration in file-name order. Each file is idempotent.
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return errors.Wrap(err, "list migrations")
	}
	sort.Strings(names)

	for _, name := range names {
		script, err := migrationFiles.ReadFile(name)
		if err != nil {
			return errors.Wrapf(err, "read migration %s", name)
		}

		if err := db.WithContext(ctx).Exec(string(script)).Error; err != nil {
			return errors.Wrapf(err, "apply migration %s", name)
		}

		logger.Info("Migration applied", slog.String("file", name))
	}

	return nil
}
