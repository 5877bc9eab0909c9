package ffmpeg

import "math"

const (
	// DefaultSampleRate is the decode rate for envelope extraction. 8 kHz
	// keeps decode cheap while leaving plenty of detail for alignment.
	DefaultSampleRate = 8000

	// DefaultBandRate is how many envelope bands cover one second of audio.
	DefaultBandRate = 100
)

// Envelope is a coarse loudness contour: one RMS amplitude per band,
// normalized to [0, 1].
type Envelope struct {
	BandRate int       `json:"bandRate"`
	Bands    []float64 `json:"bands"`
}

// Duration reports the span of audio the envelope covers, in seconds.
func (e *Envelope) Duration() float64 {
	if e.BandRate <= 0 {
		return 0
	}
	return float64(len(e.Bands)) / float64(e.BandRate)
}

// IsSilent reports whether every band sits below the threshold.
func (e *Envelope) IsSilent(threshold float64) bool {
	for _, b := range e.Bands {
		if b >= threshold {
			return false
		}
	}
	return true
}

// envelopeFromPCM folds signed 16-bit little-endian mono samples into RMS
// bands. A trailing partial band is dropped so every band covers the same
// span; odd trailing bytes are ignored.
func envelopeFromPCM(pcm []byte, sampleRate, bandRate int) *Envelope {
	env := &Envelope{BandRate: bandRate}
	if sampleRate <= 0 || bandRate <= 0 {
		return env
	}
	window := sampleRate / bandRate
	if window == 0 {
		return env
	}

	samples := len(pcm) / 2
	bands := samples / window
	env.Bands = make([]float64, 0, bands)
	for b := 0; b < bands; b++ {
		var sum float64
		base := b * window * 2
		for i := 0; i < window; i++ {
			off := base + i*2
			sample := int16(uint16(pcm[off]) | uint16(pcm[off+1])<<8)
			v := float64(sample) / 32768.0
			sum += v * v
		}
		env.Bands = append(env.Bands, math.Sqrt(sum/float64(window)))
	}
	return env
}
