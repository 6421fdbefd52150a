// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal records batch runs, per-file outcomes, and date
// replacements in a SQLite database so later runs can skip documents whose
// content has not changed.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/jalali-docx/pkg/types"
)

// DefaultRunLimit is the number of runs Runs returns when limit is not positive.
const DefaultRunLimit = 20

const timeLayout = time.RFC3339Nano

// Store manages the journal database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens or creates the journal database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
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
			id TEXT PRIMARY KEY,
			input_dir TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			processed INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT NOT NULL,
			input_path TEXT NOT NULL,
			output_path TEXT,
			input_hash TEXT,
			status TEXT NOT NULL,
			runs_visited INTEGER NOT NULL DEFAULT 0,
			runs_changed INTEGER NOT NULL DEFAULT 0,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_output_hash ON files(output_path, input_hash)`,
		`CREATE TABLE IF NOT EXISTS replacements (
			file_id INTEGER NOT NULL REFERENCES files(rowid) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			part TEXT NOT NULL,
			original TEXT NOT NULL,
			converted TEXT,
			reason TEXT,
			PRIMARY KEY (file_id, seq)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun inserts a new run row and returns its id.
func (s *Store) BeginRun(ctx context.Context, inputDir string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_dir, started_at) VALUES (?, ?, ?)`,
		id, inputDir, s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}
	return id, nil
}

// FinishRun stores the final counts and times of a run.
func (s *Store) FinishRun(ctx context.Context, summary types.RunSummary) error {
	finished := summary.FinishedAt
	if finished.IsZero() {
		finished = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET input_dir = ?, finished_at = ?, processed = ?, skipped = ?, failed = ?
		 WHERE id = ?`,
		summary.InputDir, finished.UTC().Format(timeLayout),
		summary.Processed, summary.Skipped, summary.Failed, summary.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run %s: %w", summary.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", summary.ID)
	}
	return nil
}

// RecordFile stores one file outcome with its replacements and invalid
// tokens in a single transaction.
func (s *Store) RecordFile(ctx context.Context, runID string, fr types.FileResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO files (run_id, name, input_path, output_path, input_hash, status, runs_visited, runs_changed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, fr.Name, fr.InputPath, fr.OutputPath, fr.InputHash, string(fr.Status),
		fr.RunsVisited, fr.RunsChanged, fr.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", fr.Name, err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading file id: %w", err)
	}

	if len(fr.Replacements)+len(fr.Invalid) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO replacements (file_id, seq, part, original, converted, reason) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		seq := 0
		for _, r := range fr.Replacements {
			if _, err := stmt.ExecContext(ctx, fileID, seq, r.Part, r.Original, r.Converted, nil); err != nil {
				return fmt.Errorf("inserting replacement %q: %w", r.Original, err)
			}
			seq++
		}
		for _, inv := range fr.Invalid {
			if _, err := stmt.ExecContext(ctx, fileID, seq, inv.Part, inv.Token, nil, inv.Reason); err != nil {
				return fmt.Errorf("inserting invalid token %q: %w", inv.Token, err)
			}
			seq++
		}
	}

	return tx.Commit()
}

// Unchanged reports whether an earlier run rewrote input with this content
// hash into outputPath and left no invalid date behind. Keying on the output
// path ties the match to the input directory and output suffix.
func (s *Store) Unchanged(ctx context.Context, outputPath, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM files f
		 WHERE f.output_path = ? AND f.input_hash = ? AND f.status IN (?, ?)
		   AND NOT EXISTS (SELECT 1 FROM replacements r WHERE r.file_id = f.rowid AND r.reason IS NOT NULL)`,
		outputPath, hash, string(types.StatusRewritten), string(types.StatusUnchanged),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying file history: %w", err)
	}
	return n > 0, nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]types.RunSummary, error) {
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_dir, started_at, finished_at, processed, skipped, failed
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []types.RunSummary
	for rows.Next() {
		var (
			r        types.RunSummary
			started  string
			finished sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.InputDir, &started, &finished, &r.Processed, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		if finished.Valid {
			r.FinishedAt, _ = time.Parse(timeLayout, finished.String)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Files returns the file outcomes of one run, with their replacements and
// invalid tokens, in the order they were recorded.
func (s *Store) Files(ctx context.Context, runID string) ([]types.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid, name, input_path, output_path, input_hash, status, runs_visited, runs_changed, error
		 FROM files WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files: %w", err)
	}

	var (
		out []types.FileResult
		ids []int64
	)
	for rows.Next() {
		var (
			id                    int64
			fr                    types.FileResult
			status                string
			output, hash, errText sql.NullString
		)
		if err := rows.Scan(&id, &fr.Name, &fr.InputPath, &output, &hash, &status,
			&fr.RunsVisited, &fr.RunsChanged, &errText); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		fr.OutputPath = output.String
		fr.InputHash = hash.String
		fr.Error = errText.String
		fr.Status = types.FileStatus(status)
		out = append(out, fr)
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		if err := s.loadReplacements(ctx, id, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadReplacements(ctx context.Context, fileID int64, fr *types.FileResult) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT part, original, converted, reason FROM replacements WHERE file_id = ? ORDER BY seq`, fileID)
	if err != nil {
		return fmt.Errorf("querying replacements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			part, original    string
			converted, reason sql.NullString
		)
		if err := rows.Scan(&part, &original, &converted, &reason); err != nil {
			return fmt.Errorf("scanning replacement: %w", err)
		}
		if reason.Valid {
			fr.Invalid = append(fr.Invalid, types.InvalidToken{Part: part, Token: original, Reason: reason.String})
			continue
		}
		fr.Replacements = append(fr.Replacements, types.Replacement{Part: part, Original: original, Converted: converted.String})
	}
	return rows.Err()
}
