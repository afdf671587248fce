// SPDX-License-Identifier: Apache-2.0

// Package sqlite is the SQLite-backed Repository implementation.
// Blank-importing github.com/ncruces/go-sqlite3/driver and /embed
// registers the "sqlite3" database/sql driver without cgo.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/google/uuid"

	"github.com/cchexcode/qop/pkg/qoperr"
	"github.com/cchexcode/qop/pkg/repository"
	"github.com/cchexcode/qop/pkg/repository/retry"
)

// poolSize is fixed: SQLite pools a single connection to
// avoid file-lock contention between pool members.
const poolSize = 1

// sqliteBusyErrorText is substring-matched against the driver's error
// message to detect SQLITE_BUSY; ncruces/go-sqlite3 does not expose a
// typed error code through database/sql in the version this engine
// targets, so text matching mirrors how callers commonly detect it.
const sqliteBusyErrorText = "SQLITE_BUSY"

type Config struct {
	Path            string
	MigrationsTable string
	LogTable        string
	ToolVersion     string
	BusyTimeoutMs   int
}

type Repository struct {
	db     *sql.DB
	cfg    Config
	mTable string
	lTable string
}

func New(cfg Config) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, qoperr.Wrap(qoperr.DBError, "failed to open sqlite connection", err)
	}
	db.SetMaxOpenConns(poolSize)

	if cfg.BusyTimeoutMs > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMs)); err != nil {
			return nil, qoperr.Wrap(qoperr.DBError, "failed to set busy_timeout", err)
		}
	}

	return &Repository{
		db:     db,
		cfg:    cfg,
		mTable: quoteIdent(cfg.MigrationsTable),
		lTable: quoteIdent(cfg.LogTable),
	}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) InitStore(ctx context.Context) error {
	stmt := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	id         TEXT PRIMARY KEY,
	version    TEXT NOT NULL,
	up         TEXT NOT NULL,
	down       TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')),
	pre        TEXT,
	comment    TEXT,
	locked     BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS %[2]s (
	id           TEXT PRIMARY KEY,
	migration_id TEXT NOT NULL,
	operation    TEXT NOT NULL,
	sql_command  TEXT NOT NULL,
	executed_at  TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);
`, r.mTable, r.lTable)

	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return qoperr.Wrap(qoperr.DBError, "failed to initialize sqlite ledger", err)
	}
	return nil
}

func (r *Repository) AppliedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s", r.mTable))
	if err != nil {
		return nil, qoperr.Wrap(qoperr.DBError, "failed to read applied ids", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, qoperr.Wrap(qoperr.DBError, "failed to scan applied id", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func (r *Repository) LastID(ctx context.Context) (string, error) {
	var id sql.NullString
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT id FROM %s ORDER BY id DESC LIMIT 1", r.mTable)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", qoperr.Wrap(qoperr.DBError, "failed to read last id", err)
	}
	return id.String, nil
}

func (r *Repository) LastVersion(ctx context.Context) (string, error) {
	var v sql.NullString
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT version FROM %s ORDER BY id DESC LIMIT 1", r.mTable)).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", qoperr.Wrap(qoperr.DBError, "failed to read last version", err)
	}
	return v.String, nil
}

func (r *Repository) Apply(ctx context.Context, id, up, down, comment, pre string, timeoutSeconds int, dryRun, locked bool) error {
	err := retry.WithRetryableTx(ctx, r.db, isBusy, func(ctx context.Context, tx *sql.Tx) error {
		if timeoutSeconds > 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", timeoutSeconds*1000)); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, up); err != nil {
			return err
		}

		var preArg interface{}
		if pre != "" {
			preArg = pre
		}

		insert := fmt.Sprintf(`INSERT INTO %s (id, version, up, down, pre, comment, locked) VALUES (?, ?, ?, ?, ?, ?, ?)`, r.mTable)
		if _, err := tx.ExecContext(ctx, insert, id, r.cfg.ToolVersion, up, down, preArg, comment, locked); err != nil {
			return err
		}

		if err := r.appendLog(ctx, tx, id, "up", up); err != nil {
			return err
		}

		if dryRun {
			return errDryRun
		}
		return nil
	})

	if errors.Is(err, errDryRun) {
		return nil
	}
	if err != nil {
		return qoperr.Wrap(qoperr.DBError, fmt.Sprintf("failed to apply migration %s", id), err)
	}
	return nil
}

func (r *Repository) Revert(ctx context.Context, id, down string, timeoutSeconds int, dryRun, unlock bool) error {
	err := retry.WithRetryableTx(ctx, r.db, isBusy, func(ctx context.Context, tx *sql.Tx) error {
		if timeoutSeconds > 0 {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", timeoutSeconds*1000)); err != nil {
				return err
			}
		}

		var locked bool
		err := tx.QueryRowContext(ctx, fmt.Sprintf("SELECT locked FROM %s WHERE id = ?", r.mTable), id).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return errNotApplied
		}
		if err != nil {
			return err
		}
		if locked && !unlock {
			return errLocked
		}

		if _, err := tx.ExecContext(ctx, down); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", r.mTable), id); err != nil {
			return err
		}

		if err := r.appendLog(ctx, tx, id, "down", down); err != nil {
			return err
		}

		if dryRun {
			return errDryRun
		}
		return nil
	})

	switch {
	case errors.Is(err, errDryRun):
		return nil
	case errors.Is(err, errNotApplied):
		return qoperr.New(qoperr.NotApplied, fmt.Sprintf("migration %s is not applied", id))
	case errors.Is(err, errLocked):
		return qoperr.New(qoperr.LockedMigration, fmt.Sprintf("migration %s is locked; pass --unlock to override", id))
	case err != nil:
		return qoperr.Wrap(qoperr.DBError, fmt.Sprintf("failed to revert migration %s", id), err)
	default:
		return nil
	}
}

func (r *Repository) History(ctx context.Context) ([]repository.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, created_at, COALESCE(comment, ''), locked FROM %s ORDER BY id ASC", r.mTable))
	if err != nil {
		return nil, qoperr.Wrap(qoperr.DBError, "failed to read history", err)
	}
	defer rows.Close()

	var out []repository.HistoryEntry
	for rows.Next() {
		var e repository.HistoryEntry
		var at string
		if err := rows.Scan(&e.ID, &at, &e.Comment, &e.Locked); err != nil {
			return nil, qoperr.Wrap(qoperr.DBError, "failed to scan history row", err)
		}
		if t, err := time.Parse("2006-01-02T15:04:05.000Z", at); err == nil {
			at = t.UTC().Format(time.RFC3339)
		}
		e.AppliedAt = at
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) DownSQL(ctx context.Context, id string) (string, error) {
	var down string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT down FROM %s WHERE id = ?", r.mTable), id).Scan(&down)
	if errors.Is(err, sql.ErrNoRows) {
		return "", qoperr.New(qoperr.NotApplied, fmt.Sprintf("migration %s is not applied", id))
	}
	if err != nil {
		return "", qoperr.Wrap(qoperr.DBError, "failed to read down sql", err)
	}
	return down, nil
}

func (r *Repository) AllMigrations(ctx context.Context) ([]repository.FullMigration, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT id, up, down, COALESCE(comment, '') FROM %s ORDER BY id ASC", r.mTable))
	if err != nil {
		return nil, qoperr.Wrap(qoperr.DBError, "failed to read all migrations", err)
	}
	defer rows.Close()

	var out []repository.FullMigration
	for rows.Next() {
		var m repository.FullMigration
		if err := rows.Scan(&m.ID, &m.Up, &m.Down, &m.Comment); err != nil {
			return nil, qoperr.Wrap(qoperr.DBError, "failed to scan migration row", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) appendLog(ctx context.Context, tx *sql.Tx, migrationID, operation, sqlCommand string) error {
	logID, err := uuid.NewV7()
	if err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s (id, migration_id, operation, sql_command) VALUES (?, ?, ?, ?)", r.lTable)
	_, err = tx.ExecContext(ctx, insert, logID.String(), migrationID, operation, sqlCommand)
	return err
}

func isBusy(err error) bool {
	return err != nil && strings.Contains(err.Error(), sqliteBusyErrorText)
}

// quoteIdent applies doubled-double-quote identifier escaping, the same
// scheme pq.QuoteIdentifier implements for Postgres and which SQLite
// accepts identically for "..." identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var (
	errDryRun     = errors.New("dry run: rolling back")
	errNotApplied = errors.New("not applied")
	errLocked     = errors.New("locked")
)

var _ repository.Repository = (*Repository)(nil)
