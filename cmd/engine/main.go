package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cutroom/cutroom-engine/internal/api"
	"github.com/cutroom/cutroom-engine/internal/config"
	"github.com/cutroom/cutroom-engine/internal/db"
	"github.com/cutroom/cutroom-engine/internal/ffmpeg"
	"github.com/cutroom/cutroom-engine/internal/jobs"
	"github.com/cutroom/cutroom-engine/internal/logging"
	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/multicam"
	"github.com/cutroom/cutroom-engine/internal/playback"
	"github.com/cutroom/cutroom-engine/internal/project"
	"github.com/cutroom/cutroom-engine/internal/proxy"
	"github.com/cutroom/cutroom-engine/internal/session"
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/ui"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting cutroom engine", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	projectRepo := project.NewRepository(database.Conn())
	mediaRepo := media.NewRepository(database.Conn())
	jobsRepo := jobs.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(projectRepo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(projectRepo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                  CUTROOM ENGINE v%-8s                 ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	st := store.New(logger)
	sessions := session.NewManager(st, logger)

	toolCfg := ffmpeg.DefaultConfig(logger)
	toolCfg.FFmpegPath = cfg.FFmpegPath()
	toolCfg.FFprobePath = cfg.FFprobePath()
	toolCfg.SampleRate = cfg.SampleRate()

	var tool ffmpeg.FFmpeg
	sub, err := ffmpeg.NewSubprocess(toolCfg)
	if err != nil {
		logger.Warn("ffmpeg unavailable, media analysis disabled", "error", err)
		tool = ffmpeg.NewStubFFmpeg(logger)
	} else {
		tool = sub
	}

	doctor := ffmpeg.NewCachedDoctor(tool, logger)

	initCtx, initCancel := context.WithTimeout(context.Background(), toolCfg.DoctorTimeout)
	defer initCancel()
	if caps, err := doctor.Refresh(initCtx); err != nil {
		logger.Warn("initial toolchain probe failed", "error", err)
	} else {
		logger.Info("toolchain capabilities detected",
			"can_probe", caps.CanProbe,
			"can_sync", caps.CanSync,
		)
	}

	var proxies proxy.Client
	if cfg.ProxyBaseURL() != "" {
		proxies = proxy.NewHTTPClient(cfg.ProxyBaseURL(), cfg.ProxyToken(), logger)
		logger.Info("proxy rendering enabled", "base_url", cfg.ProxyBaseURL())
	} else {
		proxies = proxy.NewStubClient(logger)
	}

	mediaSvc := media.NewService(mediaRepo, tool, proxies, logger)
	poller := media.NewPoller(mediaRepo, logging.WithComponent(logger, "poller"))

	syncSvc := multicam.NewService(tool, &mediaResolver{media: mediaSvc}, logging.WithComponent(logger, "multicam"))
	runner := jobs.NewRunner(jobsRepo, syncSvc, mediaSvc, st, logging.WithComponent(logger, "jobs"))

	projects := project.NewService(st, projectRepo, cfg.AutosaveInterval(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := projects.Restore(ctx); err != nil {
		logger.Warn("failed to restore previous state", "error", err)
	}

	go runner.Start(ctx)
	go poller.Start(ctx)
	go projects.StartAutosave(ctx)

	streamer := playback.NewStreamer(proxies, logger)

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Store:     st,
		Sessions:  sessions,
		Projects:  projects,
		Media:     mediaSvc,
		Poller:    poller,
		Jobs:      runner,
		JobsRepo:  jobsRepo,
		Playback:  streamer,
		Config:    projectRepo,
		Doctor:    doctor,
		Logger:    logger,
		StartTime: startTime,
		DeviceID:  deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received shutdown signal", "signal", sig)
			close(quitCh)
		case <-quitCh:
		}
	}()

	if cfg.Headless() {
		logger.Info("running in headless mode (no system tray)")
	} else {
		tray := ui.NewTray(ui.TrayConfig{
			Runner: runner,
			Logger: logger,
			OnQuit: func() {
				close(quitCh)
			},
		})
		go tray.Run()
		go refreshTray(ctx, tray, st, projects, projectRepo, jobsRepo)
	}

	<-quitCh

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Flush the working document before the process exits so a clean quit
	// never loses edits.
	if err := projects.Autosave(shutdownCtx); err != nil {
		logger.Warn("final autosave failed", "error", err)
	}

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// mediaResolver adapts the media registry to the lookup interface the sync
// service expects.
type mediaResolver struct {
	media *media.Service
}

func (r *mediaResolver) Resolve(ctx context.Context, mediaFileID string) (multicam.MediaInfo, error) {
	f, err := r.media.Get(ctx, mediaFileID)
	if err != nil {
		return multicam.MediaInfo{}, err
	}
	if f == nil {
		return multicam.MediaInfo{}, fmt.Errorf("media file not found: %s", mediaFileID)
	}
	return multicam.MediaInfo{Path: f.Path, HasAudio: f.HasAudio, Online: f.Online}, nil
}

// refreshTray keeps the tray menu items in step with the engine state.
func refreshTray(ctx context.Context, tray *ui.Tray, st *store.Store, projects *project.Service, repo project.Repository, jobsRepo jobs.Repository) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tray.UpdateStatus(jobStatus(ctx, jobsRepo))

		name := ""
		if id, err := repo.GetConfig(ctx, "last_project_id"); err == nil && id != "" {
			if p, err := projects.Get(ctx, id); err == nil && p != nil {
				name = p.Name
			}
		}
		tray.UpdateProject(name, st.Document().Revision)

		if auto, err := repo.LoadAutosave(ctx); err == nil && auto != nil {
			tray.UpdateSaved(auto.SavedAt)
		}
	}
}

func jobStatus(ctx context.Context, repo jobs.Repository) string {
	list, err := repo.List(ctx, 10)
	if err != nil {
		return "Idle"
	}
	for _, j := range list {
		if j.Status != jobs.StatusRunning {
			continue
		}
		switch j.Type {
		case jobs.TypeMulticamSync:
			return "Syncing"
		case jobs.TypeMediaProbe:
			return "Probing"
		}
		return "Working"
	}
	return "Idle"
}

func ensureDeviceID(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo project.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
