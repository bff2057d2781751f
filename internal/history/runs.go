package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"dualsub/internal/services"
)

const runColumns = `id, source_path, output_dir, source_language, detected_language, target_language,
	engine, status, stage, segments, cues, fallback, error_kind, error_message,
	original_path, translated_path, started_at, finished_at`

// Start inserts run in the running state. StartedAt defaults to now.
func (s *Store) Start(ctx context.Context, run Run) error {
	if run.ID == "" {
		return services.Wrap(services.ErrValidation, "history", "start", "run id required", nil)
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	run.Status = StatusRunning
	_, err := s.exec(ctx, `INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourcePath, run.OutputDir, run.SourceLanguage, run.DetectedLanguage, run.TargetLanguage,
		run.Engine, string(run.Status), run.Stage, run.Segments, run.Cues, boolToInt(run.Fallback),
		run.ErrorKind, run.ErrorMessage, run.OriginalPath, run.TranslatedPath,
		formatTime(run.StartedAt), nullableTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// Finish records the outcome of a started run. FinishedAt defaults to now.
func (s *Store) Finish(ctx context.Context, run Run) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	res, err := s.exec(ctx, `UPDATE runs SET
		detected_language = ?, status = ?, stage = ?, segments = ?, cues = ?, fallback = ?,
		error_kind = ?, error_message = ?, original_path = ?, translated_path = ?, finished_at = ?
		WHERE id = ?`,
		run.DetectedLanguage, string(run.Status), run.Stage, run.Segments, run.Cues, boolToInt(run.Fallback),
		run.ErrorKind, run.ErrorMessage, run.OriginalPath, run.TranslatedPath, nullableTime(run.FinishedAt),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish", "run "+run.ID+" not found", nil)
	}
	return nil
}

// Get loads one run.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, services.Wrap(services.ErrNotFound, "history", "get", "run "+id+" not found", nil)
	}
	return run, err
}

// List returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats counts runs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()
	stats := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Clear deletes every run and returns the number removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		status     string
		fallback   int
		startedAt  string
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &run.SourcePath, &run.OutputDir, &run.SourceLanguage, &run.DetectedLanguage, &run.TargetLanguage,
		&run.Engine, &status, &run.Stage, &run.Segments, &run.Cues, &fallback, &run.ErrorKind, &run.ErrorMessage,
		&run.OriginalPath, &run.TranslatedPath, &startedAt, &finishedAt,
	); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.Fallback = fallback != 0
	started, err := parseTime(startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("run %s started_at: %w", run.ID, err)
	}
	run.StartedAt = started
	if finishedAt.Valid && finishedAt.String != "" {
		finished, err := parseTime(finishedAt.String)
		if err != nil {
			return Run{}, fmt.Errorf("run %s finished_at: %w", run.ID, err)
		}
		run.FinishedAt = &finished
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
