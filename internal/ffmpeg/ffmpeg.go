// Package ffmpeg provides subprocess-based probing and audio-envelope
// extraction through the ffmpeg/ffprobe binaries, with structured result
// parsing and a capabilities doctor.
package ffmpeg

import (
	"context"
	"log/slog"
)

// FFmpeg is the execution contract the engine depends on. The subprocess
// implementation shells out to the real binaries; the stub keeps headless
// and binary-less environments alive.
type FFmpeg interface {
	// Probe inspects a media file and returns its stream summary.
	Probe(ctx context.Context, filePath string) (*ProbeResult, error)

	// ExtractEnvelope decodes the window of a file's audio into a coarse
	// amplitude envelope for alignment work.
	ExtractEnvelope(ctx context.Context, filePath string, window EnvelopeWindow) (*Envelope, error)

	// RunDoctor probes the installed binaries and reports capabilities.
	RunDoctor(ctx context.Context) (*Capabilities, error)
}

// ProbeResult is the distilled stream summary the engine cares about.
type ProbeResult struct {
	Duration    float64 `json:"duration"`
	HasVideo    bool    `json:"hasVideo"`
	HasAudio    bool    `json:"hasAudio"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	FrameRate   float64 `json:"frameRate,omitempty"`
	VideoCodec  string  `json:"videoCodec,omitempty"`
	AudioCodec  string  `json:"audioCodec,omitempty"`
	SampleRate  int     `json:"sampleRate,omitempty"`
	Channels    int     `json:"channels,omitempty"`
	ContainerMB float64 `json:"containerMb,omitempty"`
}

// EnvelopeWindow restricts extraction to a span of the source, in seconds.
// A zero Duration means "to the end".
type EnvelopeWindow struct {
	Start    float64
	Duration float64
}

// StubFFmpeg satisfies the contract without binaries on the machine.
type StubFFmpeg struct {
	logger *slog.Logger
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{logger: logger}
}

func (f *StubFFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	f.logger.Info("ffmpeg stub: probe requested (no ffprobe on this host)",
		"path", filePath)
	return &ProbeResult{}, nil
}

func (f *StubFFmpeg) ExtractEnvelope(ctx context.Context, filePath string, window EnvelopeWindow) (*Envelope, error) {
	f.logger.Info("ffmpeg stub: envelope extraction requested (no ffmpeg on this host)",
		"path", filePath, "start", window.Start, "duration", window.Duration)
	return &Envelope{BandRate: DefaultBandRate}, nil
}
