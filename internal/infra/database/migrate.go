package database

import (
	"context"
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

const createSchemaMigrations = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Migrate aplica, em ordem, os arquivos do dialeto que ainda não constam em schema_migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := path.Join("migrations", string(dialect))

	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return 0, errors.Wrapf(err, "read migrations for %s", dialect)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return 0, errors.Wrap(err, "create schema_migrations")
	}

	applied := 0
	for _, filename := range files {
		version := strings.SplitN(filename, "_", 2)[0]

		var exists bool
		err := db.QueryRowContext(ctx,
			dialect.rebind("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"), version,
		).Scan(&exists)
		if err != nil {
			return applied, errors.Wrapf(err, "check %s", filename)
		}
		if exists {
			logger.Debug("migration already applied", zap.String("migration", filename))
			continue
		}

		body, err := migrations.ReadFile(path.Join(dir, filename))
		if err != nil {
			return applied, errors.Wrapf(err, "read %s", filename)
		}

		logger.Info("applying migration", zap.String("migration", filename), zap.String("dialect", string(dialect)))

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return applied, errors.Wrapf(err, "begin tx for %s", filename)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "execute %s", filename)
		}
		if _, err := tx.ExecContext(ctx,
			dialect.rebind("INSERT INTO schema_migrations (version) VALUES ($1)"), version,
		); err != nil {
			_ = tx.Rollback()
			return applied, errors.Wrapf(err, "record %s", filename)
		}
		if err := tx.Commit(); err != nil {
			return applied, errors.Wrapf(err, "commit %s", filename)
		}
		applied++
	}

	logger.Info("migrations complete", zap.Int("applied", applied), zap.Int("total", len(files)))
	return applied, nil
}
