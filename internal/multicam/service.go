// Package multicam estimates time offsets between cameras that rolled on the
// same scene by correlating their audio envelopes, so the clips can be folded
// into a linked group that keeps them in sync on the timeline.
package multicam

import (
	"context"
	"log/slog"
	"time"

	"github.com/ansel1/merry/v2"

	"github.com/cutroom/cutroom-engine/internal/ffmpeg"
)

// ErrPrecondition marks sync requests that cannot produce a meaningful
// result and are rejected before any document change.
var ErrPrecondition = merry.Sentinel("sync precondition failed")

const (
	defaultMaxLag   = 30 * time.Second
	defaultSilence  = 0.01 // RMS floor below which a source counts as silent
	defaultMinScore = 0.25 // correlation peaks below this are not trusted
	minOverlapSecs  = 1.0
)

// ClipRef names one clip taking part in a sync: which media file to decode,
// the trimmed window within it, and where the clip currently sits so silent
// sources can keep their relative position.
type ClipRef struct {
	MediaFileID string
	ClipID      string
	StartTime   float64
	InPoint     float64
	Duration    float64
}

// MediaInfo is what the synchronizer needs to know about a media reference.
type MediaInfo struct {
	Path     string
	HasAudio bool
	Online   bool
}

// MediaResolver looks up media references, usually backed by the media
// registry.
type MediaResolver interface {
	Resolve(ctx context.Context, mediaFileID string) (MediaInfo, error)
}

// Skip records why a target was excluded from correlation and fell back to
// its current relative offset.
type Skip struct {
	ClipID string `json:"clipId"`
	Reason string `json:"reason"`
}

// Report is the outcome of one sync batch. Offsets carries a signed
// millisecond offset per target clip, relative to the master.
type Report struct {
	Offsets map[string]float64 `json:"offsets"`
	Skipped []Skip             `json:"skipped,omitempty"`
}

// Service runs audio alignment batches through the ffmpeg seam.
type Service struct {
	tool   ffmpeg.FFmpeg
	media  MediaResolver
	logger *slog.Logger

	maxLag   time.Duration
	silence  float64
	minScore float64
}

func NewService(tool ffmpeg.FFmpeg, media MediaResolver, logger *slog.Logger) *Service {
	return &Service{
		tool:     tool,
		media:    media,
		logger:   logger,
		maxLag:   defaultMaxLag,
		silence:  defaultSilence,
		minScore: defaultMinScore,
	}
}

type targetState struct {
	ref  ClipRef
	info MediaInfo
	skip string // non-empty when excluded before decoding
}

// SyncClips aligns every target against the master and returns one offset per
// target. Targets without usable audio keep their current relative offset and
// are listed in the report's Skipped diagnostics; a master that cannot be
// decoded fails the whole batch up front. Progress is reported as 0 to 100
// across completed targets.
func (s *Service) SyncClips(ctx context.Context, master ClipRef, targets []ClipRef, onProgress func(percent int)) (*Report, error) {
	if master.MediaFileID == "" {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("master clip has no media reference"))
	}
	if len(targets) == 0 {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("no target clips to synchronise"))
	}

	masterMedia, err := s.media.Resolve(ctx, master.MediaFileID)
	if err != nil {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessagef("master media %s is not registered", master.MediaFileID))
	}
	if !masterMedia.Online {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("master media is offline"))
	}
	if !masterMedia.HasAudio {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("master media carries no audio"))
	}

	// Classify targets before decoding anything so a doomed batch fails
	// without spawning subprocesses.
	states := make([]targetState, 0, len(targets))
	usable := 0
	for _, tgt := range targets {
		st := targetState{ref: tgt}
		if tgt.MediaFileID == "" {
			st.skip = "no media reference"
		} else if info, err := s.media.Resolve(ctx, tgt.MediaFileID); err != nil {
			st.skip = "media not registered"
		} else if !info.Online {
			st.skip = "media offline"
		} else if !info.HasAudio {
			st.skip = "no audio stream"
		} else {
			st.info = info
		}
		if st.skip == "" {
			usable++
		}
		states = append(states, st)
	}
	if usable == 0 {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("no target carries usable audio"))
	}

	masterEnv, err := s.tool.ExtractEnvelope(ctx, masterMedia.Path, window(master))
	if err != nil {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessagef("decoding master audio: %v", err))
	}
	if masterEnv.IsSilent(s.silence) {
		return nil, merry.Wrap(ErrPrecondition, merry.AppendMessage("master audio is silent"))
	}

	emit := func(pct int) {
		if onProgress != nil {
			onProgress(pct)
		}
	}
	emit(0)

	report := &Report{Offsets: make(map[string]float64, len(targets))}
	for i, st := range states {
		if err := ctx.Err(); err != nil {
			return nil, merry.Prepend(err, "sync cancelled")
		}

		offset, reason := s.alignTarget(ctx, masterEnv, master, st)
		report.Offsets[st.ref.ClipID] = offset
		if reason != "" {
			report.Skipped = append(report.Skipped, Skip{ClipID: st.ref.ClipID, Reason: reason})
		}
		emit((i + 1) * 100 / len(states))
	}

	s.logger.Info("multicam sync complete",
		"targets", len(targets),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

// alignTarget returns the target's offset in milliseconds and, when
// correlation was not possible, the reason it fell back to the current
// relative position.
func (s *Service) alignTarget(ctx context.Context, masterEnv *ffmpeg.Envelope, master ClipRef, st targetState) (float64, string) {
	fallback := (st.ref.StartTime - master.StartTime) * 1000

	if st.skip != "" {
		return fallback, st.skip
	}

	env, err := s.tool.ExtractEnvelope(ctx, st.info.Path, window(st.ref))
	if err != nil {
		s.logger.Warn("target audio decode failed, keeping current offset",
			"clip_id", st.ref.ClipID, "error", err)
		return fallback, "audio decode failed"
	}
	if env.IsSilent(s.silence) {
		return fallback, "audio is silent"
	}

	rate := masterEnv.BandRate
	if rate <= 0 || env.BandRate != rate {
		return fallback, "analysis rate mismatch"
	}

	maxLag := int(s.maxLag.Seconds() * float64(rate))
	minOverlap := int(minOverlapSecs * float64(rate))
	lag, score, ok := correlate(masterEnv.Bands, env.Bands, maxLag, minOverlap)
	if !ok {
		return fallback, "insufficient overlap for correlation"
	}
	if score < s.minScore {
		return fallback, "no confident correlation peak"
	}

	offset := float64(lag) / float64(rate) * 1000
	s.logger.Debug("target aligned",
		"clip_id", st.ref.ClipID,
		"offset_ms", offset,
		"score", score,
	)
	return offset, ""
}

func window(ref ClipRef) ffmpeg.EnvelopeWindow {
	return ffmpeg.EnvelopeWindow{Start: ref.InPoint, Duration: ref.Duration}
}
