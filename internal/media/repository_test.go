package media

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/cutroom/cutroom-engine/internal/db"
	"github.com/cutroom/cutroom-engine/internal/proxy"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestDB(t *testing.T) (*db.DB, Repository) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, testLogger())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return database, NewRepository(database.Conn())
}

func testFile(id, path string, createdAt time.Time) *MediaFile {
	return &MediaFile{
		ID:          id,
		Path:        path,
		Filename:    filepath.Base(path),
		Kind:        KindVideo,
		Duration:    12.5,
		HasAudio:    true,
		Online:      true,
		ProxyStatus: proxy.StatusNone,
		CreatedAt:   createdAt,
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	created := time.Now().UTC().Truncate(time.Second)
	want := testFile("mf-1", "/footage/a-roll.mov", created)
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "mf-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for existing file")
	}
	if got.Path != want.Path {
		t.Errorf("Path = %s, want %s", got.Path, want.Path)
	}
	if got.Filename != "a-roll.mov" {
		t.Errorf("Filename = %s, want a-roll.mov", got.Filename)
	}
	if got.Kind != KindVideo {
		t.Errorf("Kind = %v, want video", got.Kind)
	}
	if got.Duration != 12.5 {
		t.Errorf("Duration = %v, want 12.5", got.Duration)
	}
	if !got.HasAudio {
		t.Error("HasAudio = false, want true")
	}
	if !got.Online {
		t.Error("Online = false, want true")
	}
	if got.ProxyStatus != proxy.StatusNone {
		t.Errorf("ProxyStatus = %v, want none", got.ProxyStatus)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestRepository_GetMissing(t *testing.T) {
	_, repo := setupTestDB(t)

	got, err := repo.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing file", got)
	}
}

func TestRepository_GetByPath(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	file := testFile("mf-1", "/footage/b-roll.mov", time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByPath(ctx, "/footage/b-roll.mov")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if got == nil || got.ID != "mf-1" {
		t.Errorf("GetByPath() = %+v, want mf-1", got)
	}

	missing, err := repo.GetByPath(ctx, "/footage/missing.mov")
	if err != nil {
		t.Fatalf("GetByPath() error = %v", err)
	}
	if missing != nil {
		t.Errorf("GetByPath() = %+v, want nil for unknown path", missing)
	}
}

func TestRepository_ListNewestFirst(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	older := testFile("mf-old", "/footage/old.mov", base.Add(-time.Hour))
	newer := testFile("mf-new", "/footage/new.mov", base)
	if err := repo.Create(ctx, older); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, newer); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	files, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("List() returned %d files, want 2", len(files))
	}
	if files[0].ID != "mf-new" || files[1].ID != "mf-old" {
		t.Errorf("List() order = [%s, %s], want [mf-new, mf-old]", files[0].ID, files[1].ID)
	}
}

func TestRepository_UpdateOnline(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	file := testFile("mf-1", "/footage/a.mov", time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdateOnline(ctx, "mf-1", false); err != nil {
		t.Fatalf("UpdateOnline() error = %v", err)
	}

	got, err := repo.Get(ctx, "mf-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Online {
		t.Error("Online = true after UpdateOnline(false)")
	}
}

func TestRepository_UpdateProxyStatus(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	file := testFile("mf-1", "/footage/a.mov", time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.UpdateProxyStatus(ctx, "mf-1", proxy.StatusReady); err != nil {
		t.Fatalf("UpdateProxyStatus() error = %v", err)
	}

	got, err := repo.Get(ctx, "mf-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ProxyStatus != proxy.StatusReady {
		t.Errorf("ProxyStatus = %v, want ready", got.ProxyStatus)
	}
}

func TestRepository_Delete(t *testing.T) {
	_, repo := setupTestDB(t)
	ctx := context.Background()

	file := testFile("mf-1", "/footage/a.mov", time.Now().UTC().Truncate(time.Second))
	if err := repo.Create(ctx, file); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Delete(ctx, "mf-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := repo.Get(ctx, "mf-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil after delete", got)
	}
}

func TestRepository_UnknownEnumValuesFallBack(t *testing.T) {
	database, repo := setupTestDB(t)
	ctx := context.Background()

	// Rows written by a future schema version should still load.
	_, err := database.Conn().ExecContext(ctx, `
		INSERT INTO media_files (id, path, filename, kind, duration, has_audio, online, proxy_status, created_at)
		VALUES ('mf-1', '/footage/a.mov', 'a.mov', 'hologram', 1.0, 0, 1, 'transcoding', ?)
	`, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := repo.Get(ctx, "mf-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Kind != KindVideo {
		t.Errorf("Kind = %v, want video fallback", got.Kind)
	}
	if got.ProxyStatus != proxy.StatusNone {
		t.Errorf("ProxyStatus = %v, want none fallback", got.ProxyStatus)
	}
}
