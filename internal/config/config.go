// Package config provides configuration management for the Cutroom engine.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8765
	DefaultLogLevel = "info"
	DefaultDataDir  = ".cutroom"

	// Environment variable names
	EnvPort     = "CUTROOM_PORT"
	EnvLogLevel = "CUTROOM_LOG_LEVEL"
	EnvDataDir  = "CUTROOM_DATA_DIR"

	// Toolchain environment variable names
	EnvFFmpegPath  = "CUTROOM_FFMPEG"
	EnvFFprobePath = "CUTROOM_FFPROBE"

	// Behavior environment variable names
	EnvSampleRate       = "CUTROOM_SAMPLE_RATE"
	EnvAutosaveInterval = "CUTROOM_AUTOSAVE_S"
	EnvHeadless         = "CUTROOM_HEADLESS"
	EnvProxyBaseURL     = "CUTROOM_PROXY_URL"
	EnvProxyToken       = "CUTROOM_PROXY_TOKEN"

	// Database filename
	DBFilename = "cutroom.db"

	// Analysis defaults
	DefaultSampleRate = 8000 // Hz, audio decode rate for sync analysis

	// Autosave default
	DefaultAutosaveSeconds = 30
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	FFmpegPath() string
	FFprobePath() string
	SampleRate() int
	AutosaveInterval() time.Duration
	Headless() bool
	ProxyBaseURL() string
	ProxyToken() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port            int
	logLevel        string
	dataDir         string
	ffmpegPath      string
	ffprobePath     string
	sampleRate      int
	autosaveSeconds int
	headless        bool
	proxyBaseURL    string
	proxyToken      string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		sampleRate:      DefaultSampleRate,
		autosaveSeconds: DefaultAutosaveSeconds,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)

	if sr := os.Getenv(EnvSampleRate); sr != "" {
		rate, err := strconv.Atoi(sr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvSampleRate, err)
		}
		if rate < 1000 {
			return nil, fmt.Errorf("invalid %s: sample rate must be at least 1000 Hz", EnvSampleRate)
		}
		cfg.sampleRate = rate
	}

	if as := os.Getenv(EnvAutosaveInterval); as != "" {
		seconds, err := strconv.Atoi(as)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvAutosaveInterval, err)
		}
		if seconds < 1 {
			return nil, fmt.Errorf("invalid %s: interval must be at least 1 second", EnvAutosaveInterval)
		}
		cfg.autosaveSeconds = seconds
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.proxyBaseURL = os.Getenv(EnvProxyBaseURL)
	cfg.proxyToken = os.Getenv(EnvProxyToken)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// FFmpegPath returns the configured ffmpeg binary path, empty for auto-detect
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFprobePath returns the configured ffprobe binary path, empty for auto-detect
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// SampleRate returns the audio decode rate used for sync analysis
func (c *EnvConfig) SampleRate() int {
	return c.sampleRate
}

// AutosaveInterval returns how often the working document is snapshotted
func (c *EnvConfig) AutosaveInterval() time.Duration {
	return time.Duration(c.autosaveSeconds) * time.Second
}

// Headless reports whether the system tray should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// ProxyBaseURL returns the proxy render service base URL, empty to disable
func (c *EnvConfig) ProxyBaseURL() string {
	return c.proxyBaseURL
}

// ProxyToken returns the bearer token for the proxy render service
func (c *EnvConfig) ProxyToken() string {
	return c.proxyToken
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
