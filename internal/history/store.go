package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MaxRuns is how many runs are kept; older rows are trimmed on insert.
const MaxRuns = 1000

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Store is a SQLite-backed run history.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// Single writer; the CLI records at most one run at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores most DSN parameters.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		directory TEXT NOT NULL,
		pattern TEXT NOT NULL,
		regex INTEGER NOT NULL DEFAULT 0,
		case_sensitive INTEGER NOT NULL DEFAULT 0,
		ocr INTEGER NOT NULL DEFAULT 0,
		files_scanned INTEGER NOT NULL DEFAULT 0,
		files_matched INTEGER NOT NULL DEFAULT 0,
		total_matches INTEGER NOT NULL DEFAULT 0,
		files_skipped INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		cache_state TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS pattern_counts (
		pattern TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_run INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pattern_counts_count ON pattern_counts(count DESC);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create history schema: %w", err)
	}
	return nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Record stores run, bumps its pattern counter and trims the table to
// MaxRuns rows.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.DurationMS == 0 && run.Duration > 0 {
		run.DurationMS = run.Duration.Milliseconds()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, directory, pattern, regex, case_sensitive, ocr,
			files_scanned, files_matched, total_matches, files_skipped, duration_ms, cache_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UnixMilli(), run.Directory, run.Pattern,
		run.Regex, run.CaseSensitive, run.OCR,
		run.FilesScanned, run.FilesMatched, run.TotalMatches, run.FilesSkipped,
		run.DurationMS, run.CacheState)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pattern_counts (pattern, count, last_run)
		VALUES (?, 1, ?)
		ON CONFLICT(pattern) DO UPDATE SET
			count = count + 1,
			last_run = MAX(last_run, excluded.last_run)
	`, run.Pattern, run.StartedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert pattern count: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs
			ORDER BY started_at DESC
			LIMIT ?
		)
	`, MaxRuns)
	if err != nil {
		return fmt.Errorf("trim runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const runColumns = `id, started_at, directory, pattern, regex, case_sensitive, ocr,
	files_scanned, files_matched, total_matches, files_skipped, duration_ms, cache_state`

// List returns up to limit runs, newest first. A limit of zero or less
// returns every stored run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = MaxRuns
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt int64
	)
	err := row.Scan(&run.ID, &startedAt, &run.Directory, &run.Pattern,
		&run.Regex, &run.CaseSensitive, &run.OCR,
		&run.FilesScanned, &run.FilesMatched, &run.TotalMatches, &run.FilesSkipped,
		&run.DurationMS, &run.CacheState)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(startedAt)
	run.Duration = time.Duration(run.DurationMS) * time.Millisecond
	return run, nil
}

// TopPatterns returns the most searched patterns.
func (s *Store) TopPatterns(ctx context.Context, limit int) ([]PatternCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, count, last_run
		FROM pattern_counts
		ORDER BY count DESC, last_run DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top patterns: %w", err)
	}
	defer rows.Close()

	patterns := []PatternCount{}
	for rows.Next() {
		var (
			pc      PatternCount
			lastRun int64
		)
		if err := rows.Scan(&pc.Pattern, &pc.Count, &lastRun); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		pc.LastRun = time.UnixMilli(lastRun)
		patterns = append(patterns, pc)
	}
	return patterns, rows.Err()
}

// Summarize aggregates the stored runs with the topN most searched patterns.
func (s *Store) Summarize(ctx context.Context, topN int) (Summary, error) {
	summary := Summary{ByLatency: make(map[LatencyBucket]int64, len(Buckets))}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN files_matched = 0 THEN 1 ELSE 0 END), 0)
		FROM runs
	`).Scan(&summary.Runs, &summary.ZeroResults)
	if err != nil {
		return Summary{}, fmt.Errorf("count runs: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT duration_ms FROM runs`)
	if err != nil {
		return Summary{}, fmt.Errorf("query durations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return Summary{}, fmt.Errorf("scan row: %w", err)
		}
		summary.ByLatency[LatencyToBucket(time.Duration(ms)*time.Millisecond)]++
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	if topN > 0 {
		summary.TopPatterns, err = s.TopPatterns(ctx, topN)
		if err != nil {
			return Summary{}, err
		}
	}
	return summary, nil
}

// Clear deletes every stored run and pattern counter.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"runs", "pattern_counts"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
