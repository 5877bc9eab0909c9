package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cutroom/cutroom-engine/internal/ffmpeg"
	"github.com/cutroom/cutroom-engine/internal/proxy"
)

type Service struct {
	repo    Repository
	tool    ffmpeg.FFmpeg
	proxies proxy.Client
	logger  *slog.Logger
}

func NewService(repo Repository, tool ffmpeg.FFmpeg, proxies proxy.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, tool: tool, proxies: proxies, logger: logger}
}

// Register adds a file to the registry, probing it for duration and stream
// layout. Registering a path twice returns the existing entry.
func (s *Service) Register(ctx context.Context, path string) (*MediaFile, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory")
	}

	existing, err := s.repo.GetByPath(ctx, absPath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	probe, err := s.tool.Probe(ctx, absPath)
	if err != nil {
		return nil, err
	}

	file := &MediaFile{
		ID:          uuid.NewString(),
		Path:        absPath,
		Filename:    filepath.Base(absPath),
		Kind:        kindFor(probe),
		Duration:    probe.Duration,
		HasAudio:    probe.HasAudio,
		Online:      true,
		ProxyStatus: proxy.StatusNone,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, file); err != nil {
		return nil, err
	}

	s.logger.Info("media file registered",
		"media_file_id", file.ID,
		"filename", file.Filename,
		"kind", file.Kind.Value,
		"duration", file.Duration)
	return file, nil
}

// kindFor classifies a probed file. Still images probe as a video stream
// with no duration.
func kindFor(probe *ffmpeg.ProbeResult) Kind {
	switch {
	case probe.HasVideo && probe.Duration == 0:
		return KindImage
	case probe.HasVideo:
		return KindVideo
	case probe.HasAudio:
		return KindAudio
	default:
		return KindVideo
	}
}

// Reprobe refreshes stream metadata for an already registered file, for use
// after a file comes back online or was replaced in place.
func (s *Service) Reprobe(ctx context.Context, id string) (*MediaFile, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil || file == nil {
		return file, err
	}

	probe, err := s.tool.Probe(ctx, file.Path)
	if err != nil {
		return nil, err
	}

	kind := kindFor(probe)
	if err := s.repo.UpdateProbe(ctx, file.ID, kind, probe.Duration, probe.HasAudio); err != nil {
		return nil, err
	}

	file.Kind = kind
	file.Duration = probe.Duration
	file.HasAudio = probe.HasAudio
	s.logger.Info("media file reprobed",
		"media_file_id", file.ID,
		"filename", file.Filename,
		"duration", file.Duration)
	return file, nil
}

func (s *Service) Get(ctx context.Context, id string) (*MediaFile, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*MediaFile, error) {
	return s.repo.List(ctx)
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// RefreshProxyStatus asks the proxy service for the file's current render
// state and records it. Lookup failures keep the stored status.
func (s *Service) RefreshProxyStatus(ctx context.Context, id string) (*MediaFile, error) {
	file, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}

	status, err := s.proxies.Status(ctx, file.ID)
	if err != nil {
		s.logger.Warn("proxy status lookup failed", "media_file_id", file.ID, "error", err)
		return file, nil
	}
	if status == file.ProxyStatus {
		return file, nil
	}

	if err := s.repo.UpdateProxyStatus(ctx, file.ID, status); err != nil {
		return nil, err
	}
	s.logger.Info("proxy status changed",
		"media_file_id", file.ID,
		"from", file.ProxyStatus.Value,
		"to", status.Value)
	file.ProxyStatus = status
	return file, nil
}

// RefreshAllProxyStatuses sweeps every registered file. Individual lookup
// failures are logged and skipped.
func (s *Service) RefreshAllProxyStatuses(ctx context.Context) error {
	files, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	for _, file := range files {
		if _, err := s.RefreshProxyStatus(ctx, file.ID); err != nil {
			return err
		}
	}
	return nil
}
