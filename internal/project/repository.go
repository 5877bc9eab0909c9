package project

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	Upsert(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	GetByName(ctx context.Context, name string) (*Project, error)
	List(ctx context.Context) ([]*Project, error)
	Delete(ctx context.Context, id string) error
	SaveAutosave(ctx context.Context, a *Autosave) error
	LoadAutosave(ctx context.Context) (*Autosave, error)
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, revision, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			revision = excluded.revision,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, p.ID, p.Name, p.Revision, string(p.Document),
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, revision, document, created_at, updated_at
		FROM projects WHERE id = ?
	`, id)
	return scanProject(row)
}

func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, revision, document, created_at, updated_at
		FROM projects WHERE name = ?
	`, name)
	return scanProject(row)
}

func scanProject(row *sql.Row) (*Project, error) {
	var p Project
	var document, createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Revision, &document, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.Document = []byte(document)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, revision, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		var p Project
		var createdAt, updatedAt string

		if err := rows.Scan(&p.ID, &p.Name, &p.Revision, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) SaveAutosave(ctx context.Context, a *Autosave) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO autosave (slot, revision, document, saved_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			revision = excluded.revision,
			document = excluded.document,
			saved_at = excluded.saved_at
	`, a.Revision, string(a.Document), a.SavedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) LoadAutosave(ctx context.Context) (*Autosave, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT revision, document, saved_at FROM autosave WHERE slot = 1")

	var a Autosave
	var document, savedAt string

	err := row.Scan(&a.Revision, &document, &savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a.Document = []byte(document)
	a.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
	return &a, nil
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
