package timeline

import (
	"github.com/samber/lo"

	"github.com/cutroom/cutroom-engine/internal/anim"
)

// The renderer boundary. The engine never paints; it answers numeric queries
// so the render process can. All queries are pure reads against one revision.

// animKeys maps one property's keyframes into the interpolator's shape.
func (c Clip) animKeys(p Property) []anim.Key {
	var keys []anim.Key
	for _, k := range c.Keyframes {
		if k.Property != p {
			continue
		}
		ak := anim.Key{Time: k.Time, Value: k.Value, Easing: k.Easing.Value}
		if k.Out != nil {
			ak.Out = &anim.Handle{DT: k.Out.DT, DV: k.Out.DV}
		}
		if k.In != nil {
			ak.In = &anim.Handle{DT: k.In.DT, DV: k.In.DV}
		}
		keys = append(keys, ak)
	}
	return keys
}

// evaluate answers one property at a clip-local time, static value when no
// keyframes shadow it.
func (c Clip) evaluate(p Property, localTime float64) float64 {
	static, _ := c.baseValue(p)
	return anim.Evaluate(static, c.animKeys(p), localTime)
}

// TransformAt returns the clip's transform with every animated channel
// evaluated at localTime. Missing clip reports ok=false.
func (d Document) TransformAt(clipID string, localTime float64) (Transform, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return Transform{}, false
	}
	tr := clip.Transform
	tr.X = clip.evaluate(PropX, localTime)
	tr.Y = clip.evaluate(PropY, localTime)
	tr.Z = clip.evaluate(PropZ, localTime)
	tr.ScaleX = clip.evaluate(PropScaleX, localTime)
	tr.ScaleY = clip.evaluate(PropScaleY, localTime)
	tr.Rotation = clip.evaluate(PropRotation, localTime)
	tr.AnchorX = clip.evaluate(PropAnchorX, localTime)
	tr.AnchorY = clip.evaluate(PropAnchorY, localTime)
	tr.Opacity = clip.evaluate(PropOpacity, localTime)
	return tr, true
}

// EffectsAt returns enabled effects with their parameters evaluated at
// localTime, in stack order.
func (d Document) EffectsAt(clipID string, localTime float64) ([]Effect, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return nil, false
	}
	effects := lo.Filter(clip.Effects, func(e Effect, _ int) bool { return e.Enabled })
	return lo.Map(effects, func(e Effect, _ int) Effect {
		if len(e.Params) == 0 {
			return e
		}
		params := make(map[string]float64, len(e.Params))
		for name, static := range e.Params {
			params[name] = anim.Evaluate(static, clip.animKeys(EffectParam(e.ID, name)), localTime)
		}
		e.Params = params
		return e
	}), true
}

// SourceTimeAt maps a timeline time onto the clip's source clock, accounting
// for the trimmed window and reversal. Times outside the clip clamp to its
// edges so the renderer can freeze-frame at boundaries.
func (d Document) SourceTimeAt(clipID string, timelineTime float64) (float64, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return 0, false
	}
	local := timelineTime - clip.StartTime
	if local < 0 {
		local = 0
	}
	if local > clip.Duration {
		local = clip.Duration
	}
	if clip.Reversed {
		return clip.OutPoint - local, true
	}
	return clip.InPoint + local, true
}

// VolumeAt returns the clip's audible gain at localTime, zero when the clip
// or its track cannot be heard. Solo on any audio track silences the rest.
func (d Document) VolumeAt(clipID string, localTime float64) (float64, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return 0, false
	}
	if clip.Disabled || !clip.AudioEnabled {
		return 0, true
	}
	track, ok := d.TrackByID(clip.TrackID)
	if !ok || track.Muted {
		return 0, true
	}
	anySolo := lo.SomeBy(d.Tracks, func(t Track) bool { return t.Solo })
	if anySolo && !track.Solo {
		return 0, true
	}
	v := clip.evaluate(PropVolume, localTime)
	if v < 0 {
		v = 0
	}
	return v, true
}

// ClipAt returns the topmost visible clip under timelineTime on tracks of the
// given kind, preferring lower order (upper lane wins for video).
func (d Document) ClipAt(kind TrackKind, timelineTime float64) (Clip, bool) {
	for _, track := range d.TracksOfKind(kind) {
		if !track.Visible {
			continue
		}
		for _, clip := range d.ClipsOnTrack(track.ID) {
			if clip.Disabled {
				continue
			}
			if clip.StartTime <= timelineTime && timelineTime < clip.EndTime() {
				return clip, true
			}
		}
	}
	return Clip{}, false
}
