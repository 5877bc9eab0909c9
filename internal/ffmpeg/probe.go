package ffmpeg

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ansel1/merry/v2"
	"github.com/samber/lo"
)

// probeStream mirrors the subset of ffprobe's per-stream JSON the engine
// reads. ffprobe emits numeric fields as strings, so they stay strings here
// and get parsed during conversion.
type probeStream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	RFrameRate string `json:"r_frame_rate,omitempty"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Duration   string `json:"duration,omitempty"`
}

type probeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

// parseProbeOutput turns raw ffprobe JSON into a ProbeResult. Missing or
// malformed numeric fields degrade to zero values rather than failing the
// whole probe.
func parseProbeOutput(raw []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, merry.Prepend(err, "parsing ffprobe output")
	}

	result := &ProbeResult{
		Duration: parseFloat(out.Format.Duration),
	}
	if sizeBytes := parseFloat(out.Format.Size); sizeBytes > 0 {
		result.ContainerMB = sizeBytes / (1024 * 1024)
	}

	if video, ok := lo.Find(out.Streams, func(s probeStream) bool {
		return s.CodecType == "video"
	}); ok {
		result.HasVideo = true
		result.Width = video.Width
		result.Height = video.Height
		result.VideoCodec = video.CodecName
		result.FrameRate = parseFrameRate(video.RFrameRate)
	}

	if audio, ok := lo.Find(out.Streams, func(s probeStream) bool {
		return s.CodecType == "audio"
	}); ok {
		result.HasAudio = true
		result.AudioCodec = audio.CodecName
		result.Channels = audio.Channels
		if rate, err := strconv.Atoi(audio.SampleRate); err == nil {
			result.SampleRate = rate
		}
		// Some containers only carry duration on the stream.
		if result.Duration == 0 {
			result.Duration = parseFloat(audio.Duration)
		}
	}

	return result, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseFrameRate resolves ffprobe's rational notation ("25/1", "30000/1001").
func parseFrameRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}
