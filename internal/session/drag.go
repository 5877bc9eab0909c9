package session

import (
	"math"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"

	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// DragPreview is the ephemeral placement shown while a drag is live. Nothing
// here has touched the store yet.
type DragPreview struct {
	Primary    string             `json:"primary"`
	Start      float64            `json:"start"`
	TrackID    string             `json:"trackId"`
	Delta      float64            `json:"delta"`
	SnapTarget *float64           `json:"snapTarget,omitempty"`
	Blocked    bool               `json:"blocked"`
	Positions  map[string]float64 `json:"positions"`
}

type clipOrigin struct {
	start   float64
	trackID string
}

type dragSession struct {
	doc   timeline.Document
	g     Geometry
	lanes []Lane

	primaryID string
	grabPx    float64
	origins   map[string]clipOrigin
	baseSet   mapset.Set[string] // grabbed clip plus other selected clips
	linkedSet mapset.Set[string] // baseSet closed over linked companions

	targetTrack string
	hoverLane   string
	hoverSince  time.Time

	preview DragPreview
}

// BeginDrag starts a clip drag at the given pointer position. The grabbed
// clip drives snapping and collision; the rest of the selection and any
// linked companions ride along with the same delta. Returns false without
// error when the clip does not exist.
func (m *Manager) BeginDrag(clipID string, px, py float64) (bool, error) {
	doc := m.store.Document()
	clip, ok := doc.ClipByID(clipID)
	if !ok {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.drag != nil {
		return false, ErrSessionActive
	}

	base := mapset.NewSet(clipID)
	if m.selection.Contains(clipID) {
		base = base.Union(m.selection)
	} else {
		// Grabbing an unselected clip makes it the selection.
		m.selection = mapset.NewSet(clipID)
	}
	linked := base.Clone()
	for _, id := range base.ToSlice() {
		for _, other := range doc.LinkedWith(id) {
			linked.Add(other)
		}
	}
	origins := make(map[string]clipOrigin, linked.Cardinality())
	for _, id := range linked.ToSlice() {
		if c, ok := doc.ClipByID(id); ok {
			origins[id] = clipOrigin{start: c.StartTime, trackID: c.TrackID}
		} else {
			linked.Remove(id)
			base.Remove(id)
		}
	}

	g := geometryOf(doc)
	s := &dragSession{
		doc:         doc,
		g:           g,
		lanes:       laneLayout(doc),
		primaryID:   clipID,
		grabPx:      px - g.PxAt(clip.StartTime),
		origins:     origins,
		baseSet:     base,
		linkedSet:   linked,
		targetTrack: clip.TrackID,
		hoverLane:   clip.TrackID,
		hoverSince:  m.now(),
	}
	s.preview = DragPreview{
		Primary:   clipID,
		Start:     clip.StartTime,
		TrackID:   clip.TrackID,
		Positions: map[string]float64{clipID: clip.StartTime},
	}
	m.drag = s
	m.logger.Debug("drag started", "clip", clipID, "moving", linked.Cardinality())
	return true, nil
}

// UpdateDrag recomputes the preview for a new pointer position.
func (m *Manager) UpdateDrag(px, py float64, mods Modifiers) (DragPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.drag
	if s == nil {
		return DragPreview{}, ErrNoSession
	}

	active := s.linkedSet
	if mods.Independent {
		active = s.baseSet
	}
	primary := s.origins[s.primaryID]

	// Lane switching is dwell gated: the pointer must sit over the new
	// lane before the clip follows it.
	if lane, ok := s.g.laneAt(s.lanes, py); ok {
		if lane.TrackID != s.hoverLane {
			s.hoverLane = lane.TrackID
			s.hoverSince = m.now()
		}
		if lane.TrackID != s.targetTrack && m.now().Sub(s.hoverSince) >= laneDwell {
			clip, _ := s.doc.ClipByID(s.primaryID)
			if lane.Kind == timeline.TrackKindFor(clip.Source.Kind) {
				s.targetTrack = lane.TrackID
			}
		}
	}

	proposed := s.g.TimeAt(px - s.grabPx)
	clip, _ := s.doc.ClipByID(s.primaryID)

	var snapHit *float64
	if snapActive(s.doc, mods) {
		threshold := s.g.Seconds(snapThresholdPx)
		targets := snapTargets(s.doc, active, false, "")
		// Either edge of the grabbed clip may latch on.
		startSnap, startHit := resolveSnap(proposed, targets, threshold)
		endSnap, endHit := resolveSnap(proposed+clip.Duration, targets, threshold)
		switch {
		case startHit != nil && endHit != nil:
			if math.Abs(startSnap-proposed) <= math.Abs(endSnap-proposed-clip.Duration) {
				proposed, snapHit = startSnap, startHit
			} else {
				proposed, snapHit = endSnap-clip.Duration, endHit
			}
		case startHit != nil:
			proposed, snapHit = startSnap, startHit
		case endHit != nil:
			proposed, snapHit = endSnap-clip.Duration, endHit
		}
	}

	delta := proposed - primary.start
	// The whole formation moves rigidly, so the member closest to zero
	// bounds how far left anyone goes.
	minStart := primary.start
	for _, id := range active.ToSlice() {
		if o, ok := s.origins[id]; ok && o.start < minStart {
			minStart = o.start
		}
	}
	if delta < -minStart {
		delta = -minStart
	}

	start, blocked := resolveCollision(s.doc, s.g, s.targetTrack, primary.start+delta, clip.Duration, active)
	delta = start - primary.start
	if delta < -minStart {
		delta = -minStart
	}

	positions := make(map[string]float64, active.Cardinality())
	for _, id := range active.ToSlice() {
		if o, ok := s.origins[id]; ok {
			positions[id] = o.start + delta
		}
	}
	s.preview = DragPreview{
		Primary:    s.primaryID,
		Start:      primary.start + delta,
		TrackID:    s.targetTrack,
		Delta:      delta,
		SnapTarget: snapHit,
		Blocked:    blocked,
		Positions:  positions,
	}
	return s.preview, nil
}

// CommitDrag applies the previewed placement as a single undoable edit.
func (m *Manager) CommitDrag() (store.Result, error) {
	m.mu.Lock()
	s := m.drag
	m.drag = nil
	m.mu.Unlock()
	if s == nil {
		return store.Result{}, ErrNoSession
	}

	ids := lo.Keys(s.preview.Positions)
	sort.Strings(ids)
	ops := make([]store.Op, 0, len(ids))
	for _, id := range ids {
		id, start := id, s.preview.Positions[id]
		track := ""
		if id == s.primaryID && s.targetTrack != s.origins[id].trackID {
			track = s.targetTrack
		}
		ops = append(ops, func(d timeline.Document) (timeline.Document, bool, error) {
			return d.MoveClip(id, start, track, true)
		})
	}
	res, err := m.store.Apply(ops...)
	if err != nil {
		return res, err
	}
	m.logger.Debug("drag committed", "clip", s.primaryID, "start", s.preview.Start, "track", s.targetTrack)
	return res, nil
}

// CancelDrag abandons the drag. The document was never touched.
func (m *Manager) CancelDrag() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.drag != nil
	m.drag = nil
	return had
}
