package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"squeeze/internal/config"
)

// Store manages job history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "history.db"))
}

// OpenPath connects to the history database at an explicit location.
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

// Path returns the on-disk database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

const jobColumns = `id, job_id, kind, source_url, source_path, output_path,
	preset, target_mb, status, pass, error_message, output_size_mb,
	created_at, updated_at`

// NewJob inserts a pending job and returns the stored row.
func (s *Store) NewJob(ctx context.Context, job *Job) (*Job, error) {
	if job == nil {
		return nil, errors.New("job required")
	}
	if strings.TrimSpace(job.JobID) == "" {
		return nil, errors.New("job id required")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
            job_id, kind, source_url, source_path, output_path, preset,
            target_mb, status, pass, error_message, output_size_mb,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID,
		string(job.Kind),
		job.SourceURL,
		job.SourcePath,
		job.OutputPath,
		job.Preset,
		job.TargetMB,
		string(StatusPending),
		0,
		"",
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a job by row identifier. Missing rows return nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// SetStatus transitions a job to the given status and pass number.
func (s *Store) SetStatus(ctx context.Context, id int64, status Status, pass int) error {
	if !ValidStatus(status) {
		return fmt.Errorf("unknown status %q", status)
	}
	return s.update(ctx, id, `UPDATE jobs SET status = ?, pass = ?, updated_at = ? WHERE id = ?`,
		string(status), pass, now(), id)
}

// MarkCompleted finalizes a successful job with its output location and size.
func (s *Store) MarkCompleted(ctx context.Context, id int64, outputPath string, sizeMB float64) error {
	return s.update(ctx, id,
		`UPDATE jobs SET status = ?, pass = 0, output_path = ?, output_size_mb = ?, updated_at = ? WHERE id = ?`,
		string(StatusCompleted), outputPath, sizeMB, now(), id)
}

// MarkFailed finalizes a failed job with a human-readable reason.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.update(ctx, id,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		string(StatusFailed), strings.TrimSpace(message), now(), id)
}

// SetSourcePath records the on-disk source once a download resolves it.
func (s *Store) SetSourcePath(ctx context.Context, id int64, sourcePath string) error {
	return s.update(ctx, id,
		`UPDATE jobs SET source_path = ?, updated_at = ? WHERE id = ?`,
		sourcePath, now(), id)
}

// List returns the most recent jobs, newest first. A non-positive limit
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Clear removes every job from the journal.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs`)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return affected, nil
}

func (s *Store) update(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %d not found", id)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var kind, status, createdAt, updatedAt string
	if err := row.Scan(
		&job.ID,
		&job.JobID,
		&kind,
		&job.SourceURL,
		&job.SourcePath,
		&job.OutputPath,
		&job.Preset,
		&job.TargetMB,
		&status,
		&job.Pass,
		&job.ErrorMessage,
		&job.OutputSizeMB,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	job.Kind = Kind(kind)
	job.Status = Status(status)
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	return &job, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
