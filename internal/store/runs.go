package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Run statuses.
const (
	StatusWritten     = "written"
	StatusWriteFailed = "write_failed"
	StatusInspected   = "inspected"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded filtering run.
type Run struct {
	ID          string  `json:"id"`
	Seq         int64   `json:"seq"`
	Input       string  `json:"input"`
	Output      string  `json:"output"`
	Tolerance   float64 `json:"tolerance"`
	Epsilon     float64 `json:"epsilon"`
	InputCount  int     `json:"input_count"`
	Skipped     int     `json:"skipped"`
	Degenerate  int     `json:"degenerate"`
	Junctions   int     `json:"junctions"`
	PairCount   int     `json:"pair_count"`
	OutputCount int     `json:"output_count"`
	ResultHash  string  `json:"result_hash"`
	Status      string  `json:"status"`
	StartedAt   string  `json:"started_at"`
}

// Pair is a recorded qualifying pair. A and B are dataset feature ids.
type Pair struct {
	A         int64   `json:"a"`
	B         int64   `json:"b"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	Deviation float64 `json:"deviation"`
}

// RecordRun inserts a run and its pairs in one transaction and returns the
// run with its assigned seq.
func (s *Store) RecordRun(ctx context.Context, run Run, pairs []Pair) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return run, fmt.Errorf("record run: next seq: %w", err)
	}
	run.Seq = seq

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, input, output, tolerance, epsilon, input_count, skipped, degenerate,
		 junctions, pair_count, output_count, result_hash, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Seq, run.Input, run.Output, run.Tolerance, run.Epsilon,
		run.InputCount, run.Skipped, run.Degenerate, run.Junctions,
		run.PairCount, run.OutputCount, run.ResultHash, run.Status, run.StartedAt,
	)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}

	for i, p := range pairs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_pairs (run_id, ord, a_id, b_id, x, y, angle, deviation)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, p.A, p.B, p.X, p.Y, p.Angle, p.Deviation)
		if err != nil {
			return run, fmt.Errorf("record run: pair %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

const runColumns = `id, seq, input, output, tolerance, epsilon, input_count, skipped, degenerate,
	junctions, pair_count, output_count, result_hash, status, started_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(
		&r.ID, &r.Seq, &r.Input, &r.Output, &r.Tolerance, &r.Epsilon,
		&r.InputCount, &r.Skipped, &r.Degenerate, &r.Junctions,
		&r.PairCount, &r.OutputCount, &r.ResultHash, &r.Status, &r.StartedAt,
	)
	return r, err
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// RunPairs returns the pairs recorded for a run in discovery order.
// Returns an empty slice (not nil) when there are none.
func (s *Store) RunPairs(ctx context.Context, id string) ([]Pair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a_id, b_id, x, y, angle, deviation
		FROM run_pairs
		WHERE run_id = ?
		ORDER BY ord ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	pairs := []Pair{}
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.A, &p.B, &p.X, &p.Y, &p.Angle, &p.Deviation); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	return pairs, nil
}

// RunsWithHash returns ids of runs that produced the given digest, oldest first.
func (s *Store) RunsWithHash(ctx context.Context, hash string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE result_hash = ? ORDER BY seq ASC`, hash)
	if err != nil {
		return nil, fmt.Errorf("query runs by hash: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
