package timeline

import (
	"encoding/json"

	"github.com/orsinium-labs/enum"
)

// TrackKind partitions tracks into the two lane families. Layer order and
// Y-position are ranked inside one partition, never across both.
type TrackKind enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (k TrackKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (k *TrackKind) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	kind := TrackKinds.Parse(stringValue)
	if kind == nil {
		return ErrInvalid
	}
	*k = *kind
	return nil
}

var (
	TrackVideo = TrackKind{Value: "video"}
	TrackAudio = TrackKind{Value: "audio"}
	TrackKinds = enum.New(TrackVideo, TrackAudio)
)

// SourceKind is the closed set of things a clip can place on a track.
// video/audio/nested are finite (bounded by NaturalDuration), text/image/solid
// are generative and extend without bound.
type SourceKind enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (k SourceKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (k *SourceKind) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	kind := SourceKinds.Parse(stringValue)
	if kind == nil {
		return ErrInvalid
	}
	*k = *kind
	return nil
}

var (
	SourceVideo  = SourceKind{Value: "video"}
	SourceAudio  = SourceKind{Value: "audio"}
	SourceImage  = SourceKind{Value: "image"}
	SourceText   = SourceKind{Value: "text"}
	SourceSolid  = SourceKind{Value: "solid"}
	SourceNested = SourceKind{Value: "nested"}
	SourceKinds  = enum.New(SourceVideo, SourceAudio, SourceImage, SourceText, SourceSolid, SourceNested)
)

// Finite reports whether the source runs out of media. Finite sources bound
// InPoint/OutPoint by [0, NaturalDuration]; generative ones only bound the
// clip's StartTime at zero.
//
//goland:noinspection GoMixedReceiverTypes
func (k SourceKind) Finite() bool {
	switch k {
	case SourceVideo, SourceAudio, SourceNested:
		return true
	}
	return false
}

// TrackKindFor returns the lane family a source belongs on. Everything that
// emits pixels counts as video; only pure audio lands on audio lanes.
func TrackKindFor(k SourceKind) TrackKind {
	if k == SourceAudio {
		return TrackAudio
	}
	return TrackVideo
}

// Easing selects the blend rule between a keyframe and its successor.
type Easing enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (e Easing) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (e *Easing) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	easing := Easings.Parse(stringValue)
	if easing == nil {
		return ErrInvalid
	}
	*e = *easing
	return nil
}

var (
	EasingLinear = Easing{Value: "linear"}
	EasingBezier = Easing{Value: "bezier"}
	EasingHold   = Easing{Value: "hold"}
	Easings      = enum.New(EasingLinear, EasingBezier, EasingHold)
)

// BlendMode is carried on the clip transform for the renderer; the engine
// round-trips it and nothing more.
type BlendMode enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (b BlendMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (b *BlendMode) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	mode := BlendModes.Parse(stringValue)
	if mode == nil {
		return ErrInvalid
	}
	*b = *mode
	return nil
}

var (
	BlendNormal   = BlendMode{Value: "normal"}
	BlendAdd      = BlendMode{Value: "add"}
	BlendMultiply = BlendMode{Value: "multiply"}
	BlendScreen   = BlendMode{Value: "screen"}
	BlendOverlay  = BlendMode{Value: "overlay"}
	BlendModes    = enum.New(BlendNormal, BlendAdd, BlendMultiply, BlendScreen, BlendOverlay)
)
