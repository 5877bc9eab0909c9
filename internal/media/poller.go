package media

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

const defaultPollInterval = 10 * time.Second

// Poller periodically checks that registered files still exist on disk and
// flips their online flag when drives come and go.
type Poller struct {
	repo         Repository
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	stat         func(path string) error
	onChange     func(file *MediaFile, online bool)
}

func NewPoller(repo Repository, logger *slog.Logger) *Poller {
	return &Poller{
		repo:         repo,
		logger:       logger,
		pollInterval: defaultPollInterval,
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
	}
}

// OnChange registers a callback fired whenever a file's presence flips.
func (p *Poller) OnChange(callback func(file *MediaFile, online bool)) {
	p.onChange = callback
}

func (p *Poller) Start(ctx context.Context) {
	if p.running.Swap(true) {
		return
	}

	p.logger.Info("media poller started", "interval", p.pollInterval)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("media poller stopping")
			p.running.Store(false)
			return
		case <-ticker.C:
			if err := p.Sweep(ctx); err != nil {
				p.logger.Warn("media sweep failed", "error", err)
			}
		}
	}
}

func (p *Poller) IsRunning() bool {
	return p.running.Load()
}

// Sweep stats every registered file once and records presence changes.
func (p *Poller) Sweep(ctx context.Context) error {
	files, err := p.repo.List(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		online := p.stat(file.Path) == nil
		if online == file.Online {
			continue
		}

		if err := p.repo.UpdateOnline(ctx, file.ID, online); err != nil {
			return err
		}
		p.logger.Info("media presence changed",
			"media_file_id", file.ID,
			"filename", file.Filename,
			"online", online)
		file.Online = online
		if p.onChange != nil {
			p.onChange(file, online)
		}
	}
	return nil
}
