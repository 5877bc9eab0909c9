package session

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// snapThresholdPx is the capture radius of a snap target. It is fixed in
// screen space, so zooming in tightens the window in seconds.
const snapThresholdPx = 10.0

// forceThroughPx is how far past a collision clamp the pointer must travel
// before the drag is allowed to overlap anyway.
const forceThroughPx = 24.0

// Modifiers are the momentary keys held during a pointer gesture.
type Modifiers struct {
	// DisableSnap inverts the global snap toggle while held.
	DisableSnap bool
	// Independent suppresses linked-clip propagation for the gesture.
	Independent bool
	// Additive unions marquee results with the prior selection.
	Additive bool
}

// snapActive resolves the effective snap state: the view toggle XOR the
// momentary modifier, so the key always flips whatever the toggle says.
func snapActive(doc timeline.Document, mods Modifiers) bool {
	return doc.View.SnapEnabled != mods.DisableSnap
}

// snapTargets collects every time a gesture may latch onto: edges of clips
// outside the moving set, keyframe times of clips on visible tracks, the
// playhead, the work area bounds, and markers. The element being dragged is
// excluded so it cannot snap to itself.
func snapTargets(doc timeline.Document, excludeClips mapset.Set[string], excludePlayhead bool, excludeMarkerID string) []float64 {
	var targets []float64
	for _, c := range doc.Clips {
		if excludeClips != nil && excludeClips.Contains(c.ID) {
			continue
		}
		targets = append(targets, c.StartTime, c.EndTime())
		tr, ok := doc.TrackByID(c.TrackID)
		if !ok || !tr.Visible {
			continue
		}
		for _, k := range c.Keyframes {
			at := c.StartTime + k.Time
			if at >= c.StartTime && at <= c.EndTime() {
				targets = append(targets, at)
			}
		}
	}
	if !excludePlayhead {
		targets = append(targets, doc.View.Playhead)
	}
	if doc.View.WorkIn != nil && doc.View.WorkOut != nil {
		targets = append(targets, *doc.View.WorkIn, *doc.View.WorkOut)
	}
	for _, m := range doc.Markers {
		if m.ID == excludeMarkerID {
			continue
		}
		targets = append(targets, m.Time)
	}
	return targets
}

// resolveSnap returns the nearest target within threshold seconds of the
// proposed time, or the proposal unchanged. The second return reports the
// matched target so the UI can draw the snap line.
func resolveSnap(proposed float64, targets []float64, threshold float64) (float64, *float64) {
	best := math.Inf(1)
	var hit *float64
	for i := range targets {
		d := math.Abs(targets[i] - proposed)
		if d <= threshold && d < best {
			best = d
			hit = &targets[i]
		}
	}
	if hit == nil {
		return proposed, nil
	}
	return *hit, hit
}

// resolveCollision clamps a proposed placement against the clips already on
// the target track. Overlap is resisted, not forbidden: once the pointer has
// pushed the proposal forceThroughPx past the clamp point the original
// position is let through for the editor to resolve explicitly.
func resolveCollision(doc timeline.Document, g Geometry, trackID string, proposed, duration float64, moving mapset.Set[string]) (start float64, blocked bool) {
	type span struct{ in, out float64 }
	var occupied []span
	for _, c := range doc.ClipsOnTrack(trackID) {
		if moving != nil && moving.Contains(c.ID) {
			continue
		}
		occupied = append(occupied, span{c.StartTime, c.EndTime()})
	}
	overlaps := func(at float64) bool {
		for _, s := range occupied {
			if at < s.out && at+duration > s.in {
				return true
			}
		}
		return false
	}
	if !overlaps(proposed) {
		return proposed, false
	}
	// Nearest legal position on either side of the proposal.
	left, right := math.Inf(-1), math.Inf(1)
	for _, s := range occupied {
		if at := s.in - duration; at >= 0 && at <= proposed && !overlaps(at) && at > left {
			left = at
		}
		if at := s.out; at >= proposed && !overlaps(at) && at < right {
			right = at
		}
	}
	clamped := proposed
	switch {
	case math.IsInf(left, -1) && math.IsInf(right, 1):
		return proposed, false
	case math.IsInf(left, -1):
		clamped = right
	case math.IsInf(right, 1):
		clamped = left
	case proposed-left <= right-proposed:
		clamped = left
	default:
		clamped = right
	}
	if math.Abs(proposed-clamped)*g.Zoom >= forceThroughPx {
		return proposed, true
	}
	return clamped, true
}
