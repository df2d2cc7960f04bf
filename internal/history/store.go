// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records stage runs in a SQLite database so later stages
// can find the previous stage's output without being told a path.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/novel-engine/pkg/types"
)

const (
	// DBFile is the database file name inside the output directory.
	DBFile = "history.db"

	defaultListLimit = 20

	// timeLayout is fixed-width UTC so created_at sorts as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNoRuns is returned by Latest when a stage has never run.
var ErrNoRuns = errors.New("no recorded runs")

// Store manages the run history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates dir/history.db and its schema.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			stage TEXT NOT NULL,
			model TEXT,
			source TEXT,
			path TEXT NOT NULL,
			bytes INTEGER,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run, filling in ID and CreatedAt when they are empty, and
// returns the stored record.
func (s *Store) Record(ctx context.Context, run types.Run) (types.Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.now()
	}
	run.CreatedAt = run.CreatedAt.UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, model, source, path, bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Stage), string(run.Model), run.Source, run.Path, run.Bytes,
		run.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return types.Run{}, fmt.Errorf("recording %s run: %w", run.Stage, err)
	}
	return run, nil
}

// Latest returns the most recent run of stage, or ErrNoRuns.
func (s *Store) Latest(ctx context.Context, stage types.Stage) (types.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, stage, model, source, path, bytes, created_at
		 FROM runs WHERE stage = ?
		 ORDER BY created_at DESC, seq DESC LIMIT 1`,
		string(stage),
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Run{}, fmt.Errorf("%s: %w", stage, ErrNoRuns)
	}
	if err != nil {
		return types.Run{}, fmt.Errorf("querying latest %s run: %w", stage, err)
	}
	return run, nil
}

// List returns up to limit runs, newest first. An empty stage lists every
// stage; a non-positive limit uses the default of 20.
func (s *Store) List(ctx context.Context, stage types.Stage, limit int) ([]types.Run, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT id, stage, model, source, path, bytes, created_at FROM runs`
	args := []any{}
	if stage != "" {
		query += ` WHERE stage = ?`
		args = append(args, string(stage))
	}
	query += ` ORDER BY created_at DESC, seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []types.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (types.Run, error) {
	var (
		run           types.Run
		stage, stamp  string
		model, source sql.NullString
		n             sql.NullInt64
	)
	if err := sc.Scan(&run.ID, &stage, &model, &source, &run.Path, &n, &stamp); err != nil {
		return types.Run{}, err
	}

	created, err := time.Parse(timeLayout, stamp)
	if err != nil {
		return types.Run{}, fmt.Errorf("parsing created_at %q: %w", stamp, err)
	}

	run.Stage = types.Stage(stage)
	run.Model = types.ModelID(model.String)
	run.Source = source.String
	run.Bytes = n.Int64
	run.CreatedAt = created
	return run, nil
}
