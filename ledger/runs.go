package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lucasjlepore/har-normalizer/readers"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID              string
	Source          string
	Root            string
	OutputDir       string
	Format          string
	StartedAt       time.Time
	FinishedAt      time.Time
	Records         int
	Windows         int
	SessionsOK      int
	SessionsSkipped int
	RecordsSHA256   string

	// Sessions is filled by GetRun only.
	Sessions []readers.SessionOutcome
}

// Duration returns the wall time of the run.
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun stores run and its session outcomes in one transaction.
func (l *Ledger) RecordRun(ctx context.Context, run Run, sessions []readers.SessionOutcome) error {
	ctx = ensureContext(ctx)
	if run.ID == "" {
		return errors.New("run id is required")
	}
	return retryOnBusy(ctx, func() error {
		tx, err := l.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin run tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			id, source, root, output_dir, format, started_at, finished_at,
			records, windows, sessions_ok, sessions_skipped, records_sha256
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Source, run.Root, run.OutputDir, run.Format,
			formatTime(run.StartedAt), formatTime(run.FinishedAt),
			run.Records, run.Windows, run.SessionsOK, run.SessionsSkipped, run.RecordsSHA256,
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_sessions (
			run_id, seq, session, user, position, status, reason, windows, samples, quality_dropped, files
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare session insert: %w", err)
		}
		defer stmt.Close()

		for i, s := range sessions {
			files, err := json.Marshal(s.Files)
			if err != nil {
				return fmt.Errorf("encode files: %w", err)
			}
			if s.Files == nil {
				files = []byte("[]")
			}
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, s.Session, s.User, s.Position, string(s.Status), s.Reason,
				s.Windows, s.Samples, s.QualityDropped, string(files),
			); err != nil {
				return fmt.Errorf("insert session %s: %w", s.Session, err)
			}
		}
		return tx.Commit()
	})
}

const runColumns = `id, source, root, output_dir, format, started_at, finished_at,
	records, windows, sessions_ok, sessions_skipped, records_sha256`

// ListRuns returns the most recent runs first. limit <= 0 returns all runs.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRun returns one run with its sessions in discovery order.
func (l *Ledger) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	row := l.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx, `SELECT session, user, position, status, reason, windows, samples, quality_dropped, files
		FROM run_sessions WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			s      readers.SessionOutcome
			status string
			files  string
		)
		if err := rows.Scan(&s.Session, &s.User, &s.Position, &status, &s.Reason,
			&s.Windows, &s.Samples, &s.QualityDropped, &files); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Status = readers.Status(status)
		if err := json.Unmarshal([]byte(files), &s.Files); err != nil {
			return nil, fmt.Errorf("decode files for %s: %w", s.Session, err)
		}
		run.Sessions = append(run.Sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	err := s.Scan(&run.ID, &run.Source, &run.Root, &run.OutputDir, &run.Format, &started, &finished,
		&run.Records, &run.Windows, &run.SessionsOK, &run.SessionsSkipped, &run.RecordsSHA256)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Run{}, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Run{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return run, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
