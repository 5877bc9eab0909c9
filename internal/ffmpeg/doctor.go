package ffmpeg

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ToolInfo describes one probed binary.
type ToolInfo struct {
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

// Capabilities reports what the host's media toolchain can do.
type Capabilities struct {
	FFmpeg  ToolInfo `json:"ffmpeg"`
	FFprobe ToolInfo `json:"ffprobe"`

	// Derived flags
	CanProbe bool `json:"canProbe"`
	CanSync  bool `json:"canSync"`

	ProbedAt time.Time `json:"probedAt"`
}

// RunDoctor probes both binaries and reports their versions.
func (f *Subprocess) RunDoctor(ctx context.Context) (*Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.DoctorTimeout)
	defer cancel()

	caps := &Capabilities{
		FFmpeg:   probeTool(ctx, f.ffmpeg),
		FFprobe:  probeTool(ctx, f.ffprobe),
		ProbedAt: time.Now(),
	}
	caps.CanProbe = caps.FFprobe.Available
	caps.CanSync = caps.FFmpeg.Available && caps.FFprobe.Available

	f.cfg.Logger.Info("doctor probe complete",
		"ffmpeg", caps.FFmpeg.Available,
		"ffmpeg_version", caps.FFmpeg.Version,
		"ffprobe", caps.FFprobe.Available,
		"ffprobe_version", caps.FFprobe.Version,
	)

	return caps, nil
}

func (f *StubFFmpeg) RunDoctor(ctx context.Context) (*Capabilities, error) {
	f.logger.Info("ffmpeg stub: doctor probe requested")
	return &Capabilities{ProbedAt: time.Now()}, nil
}

// probeTool runs `<bin> -version` and extracts the version token from the
// first output line ("ffmpeg version 6.1.1 ...").
func probeTool(ctx context.Context, bin string) ToolInfo {
	out, err := exec.CommandContext(ctx, bin, "-version").Output()
	if err != nil {
		return ToolInfo{Path: bin, Error: err.Error()}
	}

	info := ToolInfo{Path: bin, Available: true}
	line, _, _ := strings.Cut(string(out), "\n")
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			info.Version = fields[i+1]
			break
		}
	}
	return info
}

// CachedDoctor wraps an FFmpeg to cache doctor probes with a TTL, so every
// sync request does not spawn version subprocesses.
type CachedDoctor struct {
	tool   FFmpeg
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching wrapper around doctor probes.
func NewCachedDoctor(tool FFmpeg, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		tool:   tool,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new doctor probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.tool.RunDoctor(ctx)
	if err != nil {
		d.logger.Warn("doctor probe failed", "error", err)
		// Return stale cache if available
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
