package media

import (
	"context"
	"database/sql"
	"time"

	"github.com/cutroom/cutroom-engine/internal/proxy"
)

type Repository interface {
	Create(ctx context.Context, file *MediaFile) error
	Get(ctx context.Context, id string) (*MediaFile, error)
	GetByPath(ctx context.Context, path string) (*MediaFile, error)
	List(ctx context.Context) ([]*MediaFile, error)
	Delete(ctx context.Context, id string) error
	UpdateOnline(ctx context.Context, id string, online bool) error
	UpdateProxyStatus(ctx context.Context, id string, status proxy.Status) error
	UpdateProbe(ctx context.Context, id string, kind Kind, duration float64, hasAudio bool) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const mediaColumns = "id, path, filename, kind, duration, has_audio, online, proxy_status, created_at"

func (r *SQLiteRepository) Create(ctx context.Context, f *MediaFile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_files (`+mediaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.Path, f.Filename, f.Kind.Value, f.Duration, boolToInt(f.HasAudio),
		boolToInt(f.Online), f.ProxyStatus.Value, f.CreatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+mediaColumns+" FROM media_files WHERE id = ?", id)
	return scanMediaFile(row)
}

func (r *SQLiteRepository) GetByPath(ctx context.Context, path string) (*MediaFile, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+mediaColumns+" FROM media_files WHERE path = ?", path)
	return scanMediaFile(row)
}

func scanMediaFile(row *sql.Row) (*MediaFile, error) {
	var f MediaFile
	var kind, proxyStatus, createdAt string
	var hasAudio, online int

	err := row.Scan(&f.ID, &f.Path, &f.Filename, &kind, &f.Duration, &hasAudio, &online, &proxyStatus, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	fillMediaFile(&f, kind, proxyStatus, createdAt, hasAudio, online)
	return &f, nil
}

func fillMediaFile(f *MediaFile, kind, proxyStatus, createdAt string, hasAudio, online int) {
	if k := Kinds.Parse(kind); k != nil {
		f.Kind = *k
	} else {
		f.Kind = KindVideo
	}
	if s := proxy.Statuses.Parse(proxyStatus); s != nil {
		f.ProxyStatus = *s
	} else {
		f.ProxyStatus = proxy.StatusNone
	}
	f.HasAudio = hasAudio == 1
	f.Online = online == 1
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*MediaFile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mediaColumns+" FROM media_files ORDER BY created_at DESC, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*MediaFile
	for rows.Next() {
		var f MediaFile
		var kind, proxyStatus, createdAt string
		var hasAudio, online int

		if err := rows.Scan(&f.ID, &f.Path, &f.Filename, &kind, &f.Duration, &hasAudio, &online, &proxyStatus, &createdAt); err != nil {
			return nil, err
		}
		fillMediaFile(&f, kind, proxyStatus, createdAt, hasAudio, online)
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_files WHERE id = ?", id)
	return err
}

func (r *SQLiteRepository) UpdateOnline(ctx context.Context, id string, online bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE media_files SET online = ? WHERE id = ?", boolToInt(online), id)
	return err
}

func (r *SQLiteRepository) UpdateProxyStatus(ctx context.Context, id string, status proxy.Status) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE media_files SET proxy_status = ? WHERE id = ?", status.Value, id)
	return err
}

func (r *SQLiteRepository) UpdateProbe(ctx context.Context, id string, kind Kind, duration float64, hasAudio bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE media_files SET kind = ?, duration = ?, has_audio = ? WHERE id = ?",
		kind.Value, duration, boolToInt(hasAudio), id)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
