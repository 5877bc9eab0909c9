package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

const (
	defaultAutosaveInterval = 30 * time.Second
	lastProjectKey          = "last_project_id"
)

type Service struct {
	store     *store.Store
	repo      Repository
	logger    *slog.Logger
	interval  time.Duration
	running   atomic.Bool
	lastSaved atomic.Int64
}

func NewService(st *store.Store, repo Repository, interval time.Duration, logger *slog.Logger) *Service {
	if interval <= 0 {
		interval = defaultAutosaveInterval
	}
	return &Service{store: st, repo: repo, interval: interval, logger: logger}
}

// Save snapshots the working timeline under a project name. Saving an
// existing name overwrites that project in place.
func (s *Service) Save(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name required")
	}

	doc := s.store.Document()
	data, err := doc.Snapshot()
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Revision:  doc.Revision,
		CreatedAt: now,
		UpdatedAt: now,
		Document:  data,
	}
	if existing != nil {
		p.ID = existing.ID
		p.CreatedAt = existing.CreatedAt
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	// Keep the recovery slot in step so a restart never resurrects a state
	// older than an explicit save.
	if err := s.repo.SaveAutosave(ctx, &Autosave{Revision: doc.Revision, Document: data, SavedAt: now}); err != nil {
		return nil, err
	}
	s.lastSaved.Store(doc.Revision)

	if err := s.repo.SetConfig(ctx, lastProjectKey, p.ID); err != nil {
		return nil, err
	}

	s.logger.Info("project saved", "project_id", p.ID, "name", p.Name, "revision", p.Revision)
	return p, nil
}

// Load replaces the working timeline with a saved project. The replacement
// clears undo history. Unknown IDs return nil, nil.
func (s *Service) Load(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil || p == nil {
		return p, err
	}

	doc, err := timeline.Load(p.Document)
	if err != nil {
		return nil, fmt.Errorf("project %q is unreadable: %w", p.Name, err)
	}

	s.store.Replace(doc)
	s.lastSaved.Store(doc.Revision)

	if err := s.repo.SetConfig(ctx, lastProjectKey, p.ID); err != nil {
		return nil, err
	}

	s.logger.Info("project loaded", "project_id", p.ID, "name", p.Name, "revision", p.Revision)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	last, err := s.repo.GetConfig(ctx, lastProjectKey)
	if err != nil {
		return err
	}
	if last == id {
		if err := s.repo.SetConfig(ctx, lastProjectKey, ""); err != nil {
			return err
		}
	}

	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// Restore brings back the most recent state on startup: the autosave slot
// if one is readable, otherwise the project that was open last. A corrupt
// slot or project is logged and skipped, never fatal.
func (s *Service) Restore(ctx context.Context) error {
	auto, err := s.repo.LoadAutosave(ctx)
	if err != nil {
		return err
	}
	if auto != nil {
		doc, err := timeline.Load(auto.Document)
		if err == nil {
			s.store.Replace(doc)
			s.lastSaved.Store(doc.Revision)
			s.logger.Info("autosave restored", "revision", auto.Revision, "saved_at", auto.SavedAt)
			return nil
		}
		s.logger.Warn("autosave unreadable, falling back to last project", "error", err)
	}

	id, err := s.repo.GetConfig(ctx, lastProjectKey)
	if err != nil {
		return err
	}
	if id == "" {
		s.logger.Info("no previous session to restore")
		return nil
	}

	p, err := s.Load(ctx, id)
	if err != nil {
		s.logger.Warn("last project unreadable, starting fresh", "project_id", id, "error", err)
		return nil
	}
	if p == nil {
		s.logger.Info("last project no longer exists, starting fresh", "project_id", id)
	}
	return nil
}

// StartAutosave runs the periodic autosave loop until ctx is cancelled.
func (s *Service) StartAutosave(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}

	s.logger.Info("autosave loop started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("autosave loop stopping")
			s.running.Store(false)
			return
		case <-ticker.C:
			if err := s.Autosave(ctx); err != nil {
				s.logger.Warn("autosave failed", "error", err)
			}
		}
	}
}

func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// Autosave writes the working document to the recovery slot when it changed
// since the last write. The shutdown path calls this directly for a final
// flush.
func (s *Service) Autosave(ctx context.Context) error {
	doc := s.store.Document()
	if doc.Revision == s.lastSaved.Load() {
		return nil
	}

	data, err := doc.Snapshot()
	if err != nil {
		return err
	}
	if err := s.repo.SaveAutosave(ctx, &Autosave{
		Revision: doc.Revision,
		Document: data,
		SavedAt:  time.Now().UTC(),
	}); err != nil {
		return err
	}

	s.lastSaved.Store(doc.Revision)
	s.logger.Debug("timeline autosaved", "revision", doc.Revision)
	return nil
}
