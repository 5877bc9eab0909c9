package jobs

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	Create(ctx context.Context, j *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, limit int) ([]*Job, error)
	ListPending(ctx context.Context) ([]*Job, error)
	Claim(ctx context.Context, id string) (bool, error)
	UpdateStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	SetResult(ctx context.Context, id string, result []byte) error
	FailInterrupted(ctx context.Context) (int, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const jobColumns = "id, type, status, progress, payload, result, error, created_at, updated_at"

func (r *SQLiteRepository) Create(ctx context.Context, j *Job) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.Type, j.Status, j.Progress,
		nullString(string(j.Payload)), nullString(string(j.Result)), nullString(j.Error),
		j.CreatedAt.Format(time.RFC3339), j.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var payload, result, errMsg sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.Type, &j.Status, &j.Progress, &payload, &result, &errMsg, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fillJob(&j, payload, result, errMsg, createdAt, updatedAt)
	return &j, nil
}

func fillJob(j *Job, payload, result, errMsg sql.NullString, createdAt, updatedAt string) {
	if payload.Valid {
		j.Payload = []byte(payload.String)
	}
	if result.Valid {
		j.Result = []byte(result.String)
	}
	j.Error = errMsg.String
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]*Job, error) {
	var jobs []*Job
	for rows.Next() {
		var j Job
		var payload, result, errMsg sql.NullString
		var createdAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.Type, &j.Status, &j.Progress, &payload, &result, &errMsg, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		fillJob(&j, payload, result, errMsg, createdAt, updatedAt)
		jobs = append(jobs, &j)
	}
	return jobs, rows.Err()
}

// Claim flips a pending job to running. It reports false when the job was
// cancelled (or picked up) between listing and claiming.
func (r *SQLiteRepository) Claim(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'running', updated_at = ? WHERE id = ? AND status = 'pending'
	`, now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), now(), id)
	return err
}

func (r *SQLiteRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, now(), id)
	return err
}

func (r *SQLiteRepository) SetResult(ctx context.Context, id string, result []byte) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET result = ?, updated_at = ? WHERE id = ?
	`, nullString(string(result)), now(), id)
	return err
}

// FailInterrupted marks jobs left running by a crashed process as failed.
// Called once on startup, before the runner begins polling.
func (r *SQLiteRepository) FailInterrupted(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'failed', error = 'interrupted by restart', updated_at = ?
		WHERE status = 'running'
	`, now())
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
