package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getlantern/systray"

	"github.com/cutroom/cutroom-engine/internal/jobs"
)

type Tray struct {
	runner *jobs.Runner
	logger *slog.Logger

	statusItem  *systray.MenuItem
	projectItem *systray.MenuItem
	savedItem   *systray.MenuItem
	pauseItem   *systray.MenuItem

	mu sync.Mutex

	onQuit func()
}

type TrayConfig struct {
	Runner *jobs.Runner
	Logger *slog.Logger
	OnQuit func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		runner: cfg.Runner,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("Cutroom")
	systray.SetTooltip("Cutroom Engine")

	t.statusItem = systray.AddMenuItem("Status: Idle", "Current engine status")
	t.statusItem.Disable()

	t.projectItem = systray.AddMenuItem("Project: unsaved", "Active project")
	t.projectItem.Disable()

	t.savedItem = systray.AddMenuItem("Saved: never", "Last save time")
	t.savedItem.Disable()

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause", "Pause background jobs")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Cutroom Engine")

	go func() {
		for {
			select {
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause")
		t.statusItem.SetTitle("Status: Idle")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume")
		t.statusItem.SetTitle("Status: Paused")
	}
}

func (t *Tray) UpdateStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.statusItem == nil {
		return
	}
	if t.runner != nil && t.runner.IsPaused() {
		return
	}
	t.statusItem.SetTitle("Status: " + status)
}

func (t *Tray) UpdateProject(name string, revision int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.projectItem == nil {
		return
	}
	if name == "" {
		t.projectItem.SetTitle("Project: unsaved")
		return
	}
	t.projectItem.SetTitle(fmt.Sprintf("Project: %s (rev %d)", name, revision))
}

func (t *Tray) UpdateSaved(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.savedItem == nil {
		return
	}
	if at.IsZero() {
		t.savedItem.SetTitle("Saved: never")
		return
	}
	t.savedItem.SetTitle("Saved: " + humanize.Time(at))
}

func (t *Tray) Quit() {
	systray.Quit()
}
