package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cutroom/cutroom-engine/internal/ffmpeg"
	"github.com/cutroom/cutroom-engine/internal/jobs"
	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/playback"
	"github.com/cutroom/cutroom-engine/internal/project"
	"github.com/cutroom/cutroom-engine/internal/session"
	"github.com/cutroom/cutroom-engine/internal/store"
)

// ConfigReader resolves config-table values for request authentication.
type ConfigReader interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

type ServerConfig struct {
	Port      int
	Store     *store.Store
	Sessions  *session.Manager
	Projects  *project.Service
	Media     *media.Service
	Poller    *media.Poller
	Jobs      *jobs.Runner
	JobsRepo  jobs.Repository
	Playback  playback.Service
	Config    ConfigReader
	Doctor    *ffmpeg.CachedDoctor
	Logger    *slog.Logger
	StartTime time.Time
	DeviceID  string
}

func NewServer(cfg ServerConfig) *Server {
	router := NewRouter(cfg)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}
