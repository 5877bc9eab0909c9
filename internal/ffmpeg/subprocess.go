package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/merry/v2"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
)

// Config holds the subprocess configuration.
type Config struct {
	FFmpegPath     string        // path to ffmpeg binary; empty = auto-detect
	FFprobePath    string        // path to ffprobe binary; empty = auto-detect
	SampleRate     int           // decode rate for envelope extraction
	BandRate       int           // envelope bands per second
	ProbeTimeout   time.Duration // timeout for ffprobe calls
	ExtractTimeout time.Duration // timeout for envelope decodes
	DoctorTimeout  time.Duration // timeout for version probes
	Logger         *slog.Logger
	DebugPaths     bool // if true, log full file paths; otherwise sanitise
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig(logger *slog.Logger) Config {
	return Config{
		FFmpegPath:     "", // auto-detect
		FFprobePath:    "", // auto-detect
		SampleRate:     DefaultSampleRate,
		BandRate:       DefaultBandRate,
		ProbeTimeout:   15 * time.Second,
		ExtractTimeout: 2 * time.Minute,
		DoctorTimeout:  10 * time.Second,
		Logger:         logger,
		DebugPaths:     false,
	}
}

// Subprocess is the production implementation of FFmpeg.
type Subprocess struct {
	cfg     Config
	ffmpeg  string // resolved ffmpeg path
	ffprobe string // resolved ffprobe path
}

// NewSubprocess creates a Subprocess, resolving both binary paths.
func NewSubprocess(cfg Config) (*Subprocess, error) {
	ffmpeg, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}
	ffprobe, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffprobe: %w", err)
	}

	cfg.Logger.Info("ffmpeg subprocess initialised",
		"ffmpeg", ffmpeg,
		"ffprobe", ffprobe,
		"sample_rate", cfg.SampleRate,
		"band_rate", cfg.BandRate,
	)

	return &Subprocess{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe}, nil
}

// Probe runs ffprobe against a file and parses its JSON report.
func (f *Subprocess) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	out, err := f.run(ctx, f.ffprobe,
		"-hide_banner",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	)
	if err != nil {
		return nil, merry.Prepend(err, "probing "+f.safePath(filePath))
	}
	return parseProbeOutput(out)
}

// ExtractEnvelope decodes the window's audio to mono PCM on stdout and folds
// it into RMS bands. Video, subtitle and data streams are stripped so ffmpeg
// only spends time on the audio path.
func (f *Subprocess) ExtractEnvelope(ctx context.Context, filePath string, window EnvelopeWindow) (*Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ExtractTimeout)
	defer cancel()

	args := []string{"-hide_banner", "-v", "error", "-nostdin"}
	if window.Start > 0 {
		args = append(args, "-ss", formatSeconds(window.Start))
	}
	if window.Duration > 0 {
		args = append(args, "-t", formatSeconds(window.Duration))
	}
	args = append(args,
		"-i", filePath,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", strconv.Itoa(f.cfg.SampleRate),
		"-f", "s16le",
		"pipe:1",
	)

	pcm, err := f.run(ctx, f.ffmpeg, args...)
	if err != nil {
		return nil, merry.Prepend(err, "decoding "+f.safePath(filePath))
	}
	return envelopeFromPCM(pcm, f.cfg.SampleRate, f.cfg.BandRate), nil
}

// run is the core subprocess execution helper. Stdout is captured in full,
// stderr keeps only a bounded tail.
func (f *Subprocess) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)

	var stdout bytes.Buffer
	var stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	stderrTail := stderrBuf.String()

	if exitCode != 0 {
		f.cfg.Logger.Warn("ffmpeg command failed",
			"binary", filepath.Base(bin),
			"exit_code", exitCode,
			"duration_ms", elapsed.Milliseconds(),
			"stderr_tail", truncate(stderrTail, 512),
		)
		return nil, fmt.Errorf("%s exited %d: %s", filepath.Base(bin), exitCode, truncate(stderrTail, 512))
	}

	f.cfg.Logger.Info("ffmpeg command succeeded",
		"binary", filepath.Base(bin),
		"duration_ms", elapsed.Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)

	return stdout.Bytes(), nil
}

func (f *Subprocess) safePath(path string) string {
	if f.cfg.DebugPaths {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Base(path)
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return filepath.Base(path)
}

// resolveBinary finds a usable binary for the given tool.
func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("no %s binary found on PATH", name)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		lw.w.Reset()
		lw.w.Write(b[len(b)-lw.limit:])
	}
	return n, nil
}
