package timeline

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// timeEpsilon absorbs float drift when comparing derived times. Anything
// closer than a tenth of a microsecond counts as equal.
const timeEpsilon = 1e-7

// validateClip checks the structural invariants every committed clip must
// satisfy. Overlap is not checked here: overlapping placements are a session
// policy, not a model invariant.
func validateClip(c Clip) error {
	if !SourceKinds.Contains(c.Source.Kind) {
		return invalidf("unknown source kind")
	}
	if c.StartTime < 0 {
		return invalidf("clip start %v before timeline origin", c.StartTime)
	}
	if c.Duration <= 0 {
		return invalidf("clip duration %v must be positive", c.Duration)
	}
	if math.Abs((c.OutPoint-c.InPoint)-c.Duration) > timeEpsilon {
		return invalidf("out-in span %v does not match duration %v", c.OutPoint-c.InPoint, c.Duration)
	}
	if c.Source.Kind.Finite() {
		if c.InPoint < 0 {
			return invalidf("in point %v before source start", c.InPoint)
		}
		if c.Source.NaturalDuration > 0 && c.OutPoint > c.Source.NaturalDuration+timeEpsilon {
			return invalidf("out point %v beyond source end %v", c.OutPoint, c.Source.NaturalDuration)
		}
	}
	if c.Volume < 0 {
		return invalidf("negative volume")
	}
	return nil
}

// AddClip inserts c onto its track. The track must exist (missing track is a
// no-op) and carry the clip's media kind. Link fields are taken as given; the
// linked ops are the normal way to establish them.
func (d Document) AddClip(c Clip) (Document, bool, error) {
	track, ok := d.TrackByID(c.TrackID)
	if !ok {
		return d, false, nil
	}
	if c.ID == "" {
		c.ID = NewID()
	}
	if _, exists := d.ClipByID(c.ID); exists {
		return d, false, invalidf("clip %s already exists", c.ID)
	}
	if TrackKindFor(c.Source.Kind) != track.Kind {
		return d, false, invalidf("%s clip cannot sit on %s track", c.Source.Kind.Value, track.Kind.Value)
	}
	if err := validateClip(c); err != nil {
		return d, false, err
	}
	sortKeyframes(c.Keyframes)

	clips := make([]Clip, len(d.Clips), len(d.Clips)+1)
	copy(clips, d.Clips)
	d.Clips = append(clips, c)
	return d.bump(), true, nil
}

// MoveClip repositions a clip to newStart seconds, optionally onto another
// track (newTrackID empty keeps the current one). Unless skipLinked is set,
// pair partners and group members move by the same delta, uniformly clamped
// so no member crosses the timeline origin. Track changes never propagate.
func (d Document) MoveClip(id string, newStart float64, newTrackID string, skipLinked bool) (Document, bool, error) {
	clip, ok := d.ClipByID(id)
	if !ok {
		return d, false, nil
	}
	if newStart < 0 {
		return d, false, invalidf("clip start %v before timeline origin", newStart)
	}

	trackChanged := false
	if newTrackID != "" && newTrackID != clip.TrackID {
		track, ok := d.TrackByID(newTrackID)
		if !ok {
			return d, false, nil
		}
		if TrackKindFor(clip.Source.Kind) != track.Kind {
			return d, false, invalidf("%s clip cannot sit on %s track", clip.Source.Kind.Value, track.Kind.Value)
		}
		trackChanged = true
	}

	delta := newStart - clip.StartTime
	members := []string{id}
	if !skipLinked {
		members = append(members, d.LinkedWith(id)...)
	}

	// One member hitting the origin stops the whole set: offsets inside a
	// linked set never change under an ordinary move.
	for _, mid := range members {
		if m, ok := d.ClipByID(mid); ok && m.StartTime+delta < 0 {
			delta = -m.StartTime
		}
	}

	if math.Abs(delta) < timeEpsilon && !trackChanged {
		return d, false, nil
	}

	for _, mid := range members {
		m, ok := d.ClipByID(mid)
		if !ok {
			continue
		}
		m.StartTime += delta
		if mid == id && trackChanged {
			m.TrackID = newTrackID
		}
		d = d.replaceClip(m)
	}
	return d.bump(), true, nil
}

// TrimClip sets the clip's source window to [newIn, newOut]. StartTime is
// untouched: a left-edge gesture commits a trim plus a move. Keyframes stay
// glued to source content, so their clip-local times shift by the in-point
// delta; times pushed outside the window survive and come back if the clip is
// re-extended.
func (d Document) TrimClip(id string, newIn, newOut float64) (Document, bool, error) {
	clip, ok := d.ClipByID(id)
	if !ok {
		return d, false, nil
	}
	if newOut-newIn < MinClipDuration-timeEpsilon {
		return d, false, invalidf("trim to %v shorter than minimum %v", newOut-newIn, MinClipDuration)
	}
	if clip.Source.Kind.Finite() {
		if newIn < 0 {
			return d, false, invalidf("in point %v before source start", newIn)
		}
		if clip.Source.NaturalDuration > 0 && newOut > clip.Source.NaturalDuration+timeEpsilon {
			return d, false, invalidf("out point %v beyond source end %v", newOut, clip.Source.NaturalDuration)
		}
	}

	deltaIn := newIn - clip.InPoint
	if math.Abs(deltaIn) < timeEpsilon && math.Abs(newOut-clip.OutPoint) < timeEpsilon {
		return d, false, nil
	}

	clip.InPoint = newIn
	clip.OutPoint = newOut
	clip.Duration = newOut - newIn
	if deltaIn != 0 && len(clip.Keyframes) > 0 {
		clip.Keyframes = lo.Map(clip.Keyframes, func(k Keyframe, _ int) Keyframe {
			k.Time -= deltaIn
			return k
		})
	}
	return d.replaceClip(clip).bump(), true, nil
}

// RemoveClip deletes the clip, detaching any pair, group, or parent reference
// that pointed at it. Missing id is a no-op.
func (d Document) RemoveClip(id string) (Document, bool) {
	if _, ok := d.ClipByID(id); !ok {
		return d, false
	}
	d.Clips = lo.Filter(d.Clips, func(c Clip, _ int) bool { return c.ID != id })
	d = d.detachRemovedClips(mapset.NewSet(id))
	return d.bump(), true
}

// ClipPatch carries the optional fields UpdateClip may change. Geometry and
// links have their own operations and are not patchable here.
type ClipPatch struct {
	Name         *string    `json:"name,omitempty"`
	Volume       *float64   `json:"volume,omitempty"`
	AudioEnabled *bool      `json:"audioEnabled,omitempty"`
	Disabled     *bool      `json:"disabled,omitempty"`
	Reversed     *bool      `json:"reversed,omitempty"`
	Transform    *Transform `json:"transform,omitempty"`
	Effects      *[]Effect  `json:"effects,omitempty"`
	Masks        *[]Mask    `json:"masks,omitempty"`
}

func (d Document) UpdateClip(id string, patch ClipPatch) (Document, bool, error) {
	clip, ok := d.ClipByID(id)
	if !ok {
		return d, false, nil
	}
	if patch.Volume != nil && *patch.Volume < 0 {
		return d, false, invalidf("negative volume")
	}
	if patch.Transform != nil {
		if patch.Transform.Opacity < 0 || patch.Transform.Opacity > 1 {
			return d, false, invalidf("opacity %v outside [0,1]", patch.Transform.Opacity)
		}
		if !BlendModes.Contains(patch.Transform.Blend) {
			return d, false, invalidf("unknown blend mode")
		}
	}
	if patch.Name != nil {
		clip.Name = *patch.Name
	}
	if patch.Volume != nil {
		clip.Volume = *patch.Volume
	}
	if patch.AudioEnabled != nil {
		clip.AudioEnabled = *patch.AudioEnabled
	}
	if patch.Disabled != nil {
		clip.Disabled = *patch.Disabled
	}
	if patch.Reversed != nil {
		clip.Reversed = *patch.Reversed
	}
	if patch.Transform != nil {
		clip.Transform = *patch.Transform
	}
	if patch.Effects != nil {
		clip.Effects = *patch.Effects
	}
	if patch.Masks != nil {
		clip.Masks = *patch.Masks
	}
	return d.replaceClip(clip).bump(), true, nil
}

// SetClipParent assigns or clears (empty parentID) the layer-parent
// reference. Assignments that would close a parent cycle are rejected with
// ErrCycle before anything is written.
func (d Document) SetClipParent(id, parentID string) (Document, bool, error) {
	clip, ok := d.ClipByID(id)
	if !ok {
		return d, false, nil
	}
	if parentID == clip.ParentClipID {
		return d, false, nil
	}
	if parentID != "" {
		if _, ok := d.ClipByID(parentID); !ok {
			return d, false, nil
		}
		// Walk up from the proposed parent; finding ourselves means a cycle.
		// The hop cap guards against pre-existing corruption.
		cursor := parentID
		for hops := 0; cursor != "" && hops <= len(d.Clips); hops++ {
			if cursor == id {
				return d, false, ErrCycle
			}
			parent, ok := d.ClipByID(cursor)
			if !ok {
				break
			}
			cursor = parent.ParentClipID
		}
	}
	clip.ParentClipID = parentID
	return d.replaceClip(clip).bump(), true, nil
}
