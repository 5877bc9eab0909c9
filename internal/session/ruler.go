package session

import (
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// RulerPreview is the live position of a playhead or marker drag.
type RulerPreview struct {
	Time       float64  `json:"time"`
	SnapTarget *float64 `json:"snapTarget,omitempty"`
}

type rulerSession struct {
	doc      timeline.Document
	g        Geometry
	markerID string // empty means the playhead
	preview  RulerPreview
}

// BeginPlayheadDrag starts scrubbing the playhead. Playback pauses as a side
// effect so the transport does not fight the pointer.
func (m *Manager) BeginPlayheadDrag(px float64) error {
	m.pausePlayback()
	doc := m.store.Document()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ruler != nil {
		return ErrSessionActive
	}
	g := geometryOf(doc)
	m.ruler = &rulerSession{
		doc:     doc,
		g:       g,
		preview: RulerPreview{Time: doc.View.Playhead},
	}
	return nil
}

// BeginMarkerDrag starts dragging a timeline marker. Returns false without
// error when the marker does not exist.
func (m *Manager) BeginMarkerDrag(markerID string, px float64) (bool, error) {
	m.pausePlayback()
	doc := m.store.Document()
	marker, ok := doc.MarkerByID(markerID)
	if !ok {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ruler != nil {
		return false, ErrSessionActive
	}
	m.ruler = &rulerSession{
		doc:      doc,
		g:        geometryOf(doc),
		markerID: markerID,
		preview:  RulerPreview{Time: marker.Time},
	}
	return true, nil
}

// UpdateRuler recomputes the dragged time with the shared snap algorithm.
// The dragged element is excluded from its own snap set.
func (m *Manager) UpdateRuler(px float64, mods Modifiers) (RulerPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.ruler
	if s == nil {
		return RulerPreview{}, ErrNoSession
	}
	proposed := s.g.TimeAt(px)
	var snapHit *float64
	if snapActive(s.doc, mods) {
		targets := snapTargets(s.doc, nil, s.markerID == "", s.markerID)
		proposed, snapHit = resolveSnap(proposed, targets, s.g.Seconds(snapThresholdPx))
	}
	if proposed < 0 {
		proposed = 0
	}
	s.preview = RulerPreview{Time: proposed, SnapTarget: snapHit}
	return s.preview, nil
}

// CommitRuler writes the final time back: playhead through the view path,
// markers as an undoable document edit.
func (m *Manager) CommitRuler() (store.Result, error) {
	m.mu.Lock()
	s := m.ruler
	m.ruler = nil
	m.mu.Unlock()
	if s == nil {
		return store.Result{}, ErrNoSession
	}
	at := s.preview.Time
	if s.markerID == "" {
		return m.store.ApplyView(func(d timeline.Document) (timeline.Document, bool, error) {
			next, err := d.SetPlayhead(at)
			return next, err == nil, err
		})
	}
	markerID := s.markerID
	return m.store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
		return d.UpdateMarker(markerID, timeline.MarkerPatch{Time: &at})
	})
}

// CancelRuler drops the drag. The playhead or marker never moved, so there
// is nothing to restore.
func (m *Manager) CancelRuler() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.ruler != nil
	m.ruler = nil
	return had
}

func (m *Manager) pausePlayback() {
	doc := m.store.Document()
	if !doc.View.Playing {
		return
	}
	_, _ = m.store.ApplyView(func(d timeline.Document) (timeline.Document, bool, error) {
		return d.SetPlaying(false), true, nil
	})
}
