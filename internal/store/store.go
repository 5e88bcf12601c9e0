package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lumais/antpair/internal/pairing"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store keeps the history of resolution runs in PostgreSQL.
type Store struct {
	conn *pgx.Conn
}

// Run summarizes one resolve invocation against an annotation file.
type Run struct {
	ID        uuid.UUID
	FileID    string
	Path      string
	Strategy  string
	Passes    int
	Frames    int
	Pairs     int
	Unpaired  int
	Warnings  int
	CreatedAt time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	// Initialize schema (Auto-Migration)
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS annotation_files (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			seen_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS resolution_runs (
			id UUID PRIMARY KEY,
			file_id TEXT NOT NULL REFERENCES annotation_files(id) ON DELETE CASCADE,
			strategy TEXT NOT NULL,
			passes INT NOT NULL,
			frames INT NOT NULL,
			pairs INT NOT NULL,
			unpaired INT NOT NULL,
			warnings INT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS run_pairs (
			run_id UUID NOT NULL REFERENCES resolution_runs(id) ON DELETE CASCADE,
			body_id TEXT NOT NULL,
			head_id TEXT NOT NULL,
			support INT NOT NULL,
			PRIMARY KEY (run_id, body_id),
			UNIQUE (run_id, head_id)
		);
		CREATE TABLE IF NOT EXISTS run_diagnostics (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES resolution_runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			frame INT NOT NULL,
			body_id TEXT NOT NULL,
			head_id TEXT NOT NULL,
			message TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS resolution_runs_file_id_idx ON resolution_runs (file_id);
		CREATE INDEX IF NOT EXISTS run_diagnostics_run_id_idx ON run_diagnostics (run_id);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// EnsureAnnotationFile registers the file. If it exists, it updates the path and timestamp.
func (s *Store) EnsureAnnotationFile(ctx context.Context, fileID, path string) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO annotation_files (id, path, seen_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET seen_at = NOW(), path = EXCLUDED.path
	`, fileID, path)
	return err
}

// RecordRun stores a run with its pairs and diagnostics in one transaction.
// The file must have been registered with EnsureAnnotationFile.
func (s *Store) RecordRun(ctx context.Context, fileID string, frames, passes int, res *pairing.Result, diags []pairing.Diagnostic) (Run, error) {
	run := Run{
		ID:       uuid.New(),
		FileID:   fileID,
		Strategy: string(res.Strategy),
		Passes:   passes,
		Frames:   frames,
		Pairs:    len(res.Pairs),
		Unpaired: len(res.Unpaired),
		Warnings: len(diags),
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return Run{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO resolution_runs (id, file_id, strategy, passes, frames, pairs, unpaired, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, run.ID, run.FileID, run.Strategy, run.Passes, run.Frames, run.Pairs, run.Unpaired, run.Warnings).Scan(&run.CreatedAt)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range res.Pairs {
		batch.Queue("INSERT INTO run_pairs (run_id, body_id, head_id, support) VALUES ($1, $2, $3, $4)",
			run.ID, p.Body, p.Head, p.Support)
	}
	for _, d := range append(append([]pairing.Diagnostic(nil), res.Unpaired...), diags...) {
		batch.Queue("INSERT INTO run_diagnostics (run_id, kind, frame, body_id, head_id, message) VALUES ($1, $2, $3, $4, $5, $6)",
			run.ID, string(d.Kind), d.Frame, d.Body, d.Head, d.Message)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return Run{}, fmt.Errorf("failed to insert run details: %w", err)
		}
	}

	return run, tx.Commit(ctx)
}

// ListRuns returns runs newest first. An empty fileID lists every file.
func (s *Store) ListRuns(ctx context.Context, fileID string) ([]Run, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT r.id, r.file_id, f.path, r.strategy, r.passes, r.frames, r.pairs, r.unpaired, r.warnings, r.created_at
		FROM resolution_runs r
		JOIN annotation_files f ON f.id = r.file_id
		WHERE $1 = '' OR r.file_id = $1
		ORDER BY r.created_at DESC, r.id
	`, fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.FileID, &r.Path, &r.Strategy, &r.Passes, &r.Frames,
			&r.Pairs, &r.Unpaired, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunPairs returns the pairs recorded for a run, sorted by body.
func (s *Store) RunPairs(ctx context.Context, runID uuid.UUID) ([]pairing.Pair, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, "SELECT body_id, head_id, support FROM run_pairs WHERE run_id = $1 ORDER BY body_id", runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pairing.Pair, error) {
		var p pairing.Pair
		err := row.Scan(&p.Body, &p.Head, &p.Support)
		return p, err
	})
}

// RunDiagnostics returns the diagnostics recorded for a run in insertion order.
func (s *Store) RunDiagnostics(ctx context.Context, runID uuid.UUID) ([]pairing.Diagnostic, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.conn.Query(ctx, "SELECT kind, frame, body_id, head_id, message FROM run_diagnostics WHERE run_id = $1 ORDER BY id", runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (pairing.Diagnostic, error) {
		var d pairing.Diagnostic
		var kind string
		err := row.Scan(&kind, &d.Frame, &d.Body, &d.Head, &d.Message)
		d.Kind = pairing.Kind(kind)
		return d, err
	})
}

func (s *Store) runExists(ctx context.Context, runID uuid.UUID) error {
	var one int
	err := s.conn.QueryRow(ctx, "SELECT 1 FROM resolution_runs WHERE id = $1", runID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}

// Reset drops all application tables to clear the database state.
// The schema is recreated on the next connection.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, `
		DROP TABLE IF EXISTS run_diagnostics CASCADE;
		DROP TABLE IF EXISTS run_pairs CASCADE;
		DROP TABLE IF EXISTS resolution_runs CASCADE;
		DROP TABLE IF EXISTS annotation_files CASCADE;
	`)
	return err
}
