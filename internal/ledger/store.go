package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"bundlepull/internal/config"
)

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerPath())
}

// OpenPath opens the ledger at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a run and its bundle rows in one transaction. Recording
// the same run ID twice replaces the earlier entry.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("record run: id is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM bundle_results WHERE run_id = ?", run.ID); err != nil {
		return fmt.Errorf("clear bundle results: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", run.ID); err != nil {
		return fmt.Errorf("clear run: %w", err)
	}
	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, command, base_url, started_at, finished_at,
            resolved, unresolved, skipped_bundles, bytes, error_message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Command,
		nullableString(run.BaseURL),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Resolved,
		run.Unresolved,
		run.SkippedBundles,
		run.Bytes,
		nullableString(run.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, bundle := range run.Bundles {
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO bundle_results (
                run_id, bundle, status, resolved, unresolved, bytes, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			bundle.Bundle,
			string(bundle.Status),
			bundle.Resolved,
			bundle.Unresolved,
			bundle.Bytes,
			nullableString(bundle.ErrorMessage),
		)
		if err != nil {
			return fmt.Errorf("insert bundle %s: %w", bundle.Bundle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = "id, command, base_url, started_at, finished_at, resolved, unresolved, skipped_bundles, bytes, error_message"

// Recent returns up to limit runs, newest first, without bundle rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns one run with its bundle rows, or nil when unknown.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT bundle, status, resolved, unresolved, bytes, error_message
         FROM bundle_results WHERE run_id = ? ORDER BY bundle`, id)
	if err != nil {
		return nil, fmt.Errorf("query bundle results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			result BundleResult
			status string
			errMsg sql.NullString
		)
		if err := rows.Scan(&result.Bundle, &status, &result.Resolved, &result.Unresolved, &result.Bytes, &errMsg); err != nil {
			return nil, fmt.Errorf("scan bundle result: %w", err)
		}
		result.Status = BundleStatus(status)
		result.ErrorMessage = errMsg.String
		run.Bundles = append(run.Bundles, result)
	}
	return run, rows.Err()
}

// Prune deletes all but the newest keep runs and reports how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	// foreign_keys is per connection, so orphans are cleared explicitly.
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM bundle_results WHERE run_id NOT IN (SELECT id FROM runs)"); err != nil {
		return 0, fmt.Errorf("prune bundle results: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run         Run
		baseURL     sql.NullString
		startedRaw  string
		finishedRaw string
		errMsg      sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Command,
		&baseURL,
		&startedRaw,
		&finishedRaw,
		&run.Resolved,
		&run.Unresolved,
		&run.SkippedBundles,
		&run.Bytes,
		&errMsg,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	run.BaseURL = baseURL.String
	run.ErrorMessage = errMsg.String
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedRaw)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedRaw)
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout keeps fractional seconds fixed-width so stored timestamps sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}
