package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"temposquare/state"

	_ "modernc.org/sqlite"
)

const metaKeyLastSync = "last_sync"

// SQLiteStore persists sync state and a history of completed runs.
type SQLiteStore struct {
	db *sql.DB
}

// RunRecord is one row of sync history.
type RunRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	From       string
	To         string
	DryRun     bool
	Fetched    int
	Created    int
	Skipped    int
	Errors     int
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sync_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS synced_worklogs (
	worklog_id TEXT PRIMARY KEY,
	synced_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	window_from TEXT NOT NULL,
	window_to TEXT NOT NULL,
	dry_run INTEGER NOT NULL CHECK(dry_run IN (0, 1)),
	fetched INTEGER NOT NULL CHECK(fetched >= 0),
	created INTEGER NOT NULL CHECK(created >= 0),
	skipped INTEGER NOT NULL CHECK(skipped >= 0),
	errors INTEGER NOT NULL CHECK(errors >= 0)
);`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*state.State, error) {
	out := state.New()

	var lastSync string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_meta WHERE key = ?;`, metaKeyLastSync).Scan(&lastSync)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("query last sync: %w", err)
	default:
		parsed, err := state.ParseWatermark(lastSync)
		if err != nil {
			return nil, err
		}
		out.LastSync = &parsed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT worklog_id FROM synced_worklogs;`)
	if err != nil {
		return nil, fmt.Errorf("query synced worklogs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan synced worklog: %w", err)
		}
		out.SyncedWorklogIDs[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate synced worklogs: %w", err)
	}

	return out, nil
}

// Save replaces the stored state in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, st *state.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if st.LastSync != nil {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO sync_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value;`,
			metaKeyLastSync,
			state.FormatWatermark(*st.LastSync),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write last sync: %w", err)
		}
	} else if _, err := tx.ExecContext(ctx, `DELETE FROM sync_meta WHERE key = ?;`, metaKeyLastSync); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear last sync: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM synced_worklogs;`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear synced worklogs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO synced_worklogs (worklog_id) VALUES (?);`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range st.IDs() {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert synced worklog %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run RunRecord) (int64, error) {
	const insertStmt = `
INSERT INTO sync_runs (
	started_at,
	finished_at,
	window_from,
	window_to,
	dry_run,
	fetched,
	created,
	skipped,
	errors
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	dryRun := 0
	if run.DryRun {
		dryRun = 1
	}

	res, err := s.db.ExecContext(
		ctx,
		insertStmt,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.From,
		run.To,
		dryRun,
		run.Fetched,
		run.Created,
		run.Skipped,
		run.Errors,
	)
	if err != nil {
		return 0, fmt.Errorf("insert sync run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted row id: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
SELECT
	id,
	started_at,
	finished_at,
	window_from,
	window_to,
	dry_run,
	fetched,
	created,
	skipped,
	errors
FROM sync_runs
ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0, 16)
	for rows.Next() {
		var (
			run         RunRecord
			startedRaw  string
			finishedRaw string
			dryRun      int
		)
		if err := rows.Scan(
			&run.ID,
			&startedRaw,
			&finishedRaw,
			&run.From,
			&run.To,
			&dryRun,
			&run.Fetched,
			&run.Created,
			&run.Skipped,
			&run.Errors,
		); err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		run.DryRun = dryRun == 1

		run.StartedAt, err = time.Parse(time.RFC3339, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
		}
		run.FinishedAt, err = time.Parse(time.RFC3339, finishedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at %q: %w", finishedRaw, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}

	return runs, nil
}
