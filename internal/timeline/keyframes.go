package timeline

import (
	"math"

	"github.com/samber/lo"
)

// SetPropertyValue writes the static value behind p. With keyframes present
// the static value is shadowed until they are removed; writing it is still
// allowed. Addressing a missing effect instance is a no-op.
func (d Document) SetPropertyValue(clipID string, p Property, v float64) (Document, bool, error) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return d, false, nil
	}
	if !p.Valid() {
		return d, false, invalidf("unknown property %q", p)
	}
	if p == PropOpacity && (v < 0 || v > 1) {
		return d, false, invalidf("opacity %v outside [0,1]", v)
	}
	if p == PropVolume && v < 0 {
		return d, false, invalidf("negative volume")
	}
	clip, ok = clip.setBaseValue(p, v)
	if !ok {
		return d, false, nil
	}
	return d.replaceClip(clip).bump(), true, nil
}

// AddKeyframe inserts k on the clip. Times are clip-local and must land
// inside the clip window. A keyframe already sitting at the same
// property+time is replaced, so repeated writes while parked on one frame
// stay idempotent.
func (d Document) AddKeyframe(clipID string, k Keyframe) (Document, bool, error) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return d, false, nil
	}
	if !k.Property.Valid() {
		return d, false, invalidf("unknown property %q", k.Property)
	}
	if k.Time < -timeEpsilon || k.Time > clip.Duration+timeEpsilon {
		return d, false, invalidf("keyframe time %v outside clip window [0,%v]", k.Time, clip.Duration)
	}
	if k.Easing.Value == "" {
		k.Easing = EasingLinear
	}
	if !Easings.Contains(k.Easing) {
		return d, false, invalidf("unknown easing")
	}
	if k.ID == "" {
		k.ID = NewID()
	}

	keys := lo.Filter(clip.Keyframes, func(existing Keyframe, _ int) bool {
		if existing.ID == k.ID {
			return false
		}
		return existing.Property != k.Property || math.Abs(existing.Time-k.Time) > timeEpsilon
	})
	keys = append(keys, k)
	sortKeyframes(keys)
	clip.Keyframes = keys
	return d.replaceClip(clip).bump(), true, nil
}

// MoveKeyframe retimes and revalues one keyframe. A different keyframe of the
// same property already at newTime is displaced by the moved one.
func (d Document) MoveKeyframe(clipID, keyframeID string, newTime, newValue float64) (Document, bool, error) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return d, false, nil
	}
	moved, found := lo.Find(clip.Keyframes, func(k Keyframe) bool { return k.ID == keyframeID })
	if !found {
		return d, false, nil
	}
	if newTime < -timeEpsilon || newTime > clip.Duration+timeEpsilon {
		return d, false, invalidf("keyframe time %v outside clip window [0,%v]", newTime, clip.Duration)
	}

	moved.Time = newTime
	moved.Value = newValue
	keys := lo.Filter(clip.Keyframes, func(k Keyframe, _ int) bool {
		if k.ID == keyframeID {
			return false
		}
		return k.Property != moved.Property || math.Abs(k.Time-newTime) > timeEpsilon
	})
	keys = append(keys, moved)
	sortKeyframes(keys)
	clip.Keyframes = keys
	return d.replaceClip(clip).bump(), true, nil
}

// KeyframePatch carries the optional curve-editor fields UpdateKeyframe may
// change.
type KeyframePatch struct {
	Value  *float64 `json:"value,omitempty"`
	Easing *Easing  `json:"easing,omitempty"`
	In     *Handle  `json:"in,omitempty"`
	Out    *Handle  `json:"out,omitempty"`
}

func (d Document) UpdateKeyframe(clipID, keyframeID string, patch KeyframePatch) (Document, bool, error) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return d, false, nil
	}
	idx := -1
	for i, k := range clip.Keyframes {
		if k.ID == keyframeID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return d, false, nil
	}
	if patch.Easing != nil && !Easings.Contains(*patch.Easing) {
		return d, false, invalidf("unknown easing")
	}

	keys := make([]Keyframe, len(clip.Keyframes))
	copy(keys, clip.Keyframes)
	k := keys[idx]
	if patch.Value != nil {
		k.Value = *patch.Value
	}
	if patch.Easing != nil {
		k.Easing = *patch.Easing
	}
	if patch.In != nil {
		in := *patch.In
		k.In = &in
	}
	if patch.Out != nil {
		out := *patch.Out
		k.Out = &out
	}
	keys[idx] = k
	clip.Keyframes = keys
	return d.replaceClip(clip).bump(), true, nil
}

// RemoveKeyframe deletes one keyframe by id. Missing clip or keyframe is a
// no-op.
func (d Document) RemoveKeyframe(clipID, keyframeID string) (Document, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return d, false
	}
	keys := lo.Filter(clip.Keyframes, func(k Keyframe, _ int) bool { return k.ID != keyframeID })
	if len(keys) == len(clip.Keyframes) {
		return d, false
	}
	clip.Keyframes = keys
	return d.replaceClip(clip).bump(), true
}

// KeyframesFor returns the clip's keyframes for one property in time order.
func (d Document) KeyframesFor(clipID string, p Property) []Keyframe {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return nil
	}
	return lo.Filter(clip.Keyframes, func(k Keyframe, _ int) bool { return k.Property == p })
}
