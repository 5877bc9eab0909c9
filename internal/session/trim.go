package session

import (
	"math"

	"github.com/cutroom/cutroom-engine/internal/linked"
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// ClipWindow is a previewed clip extent during a trim.
type ClipWindow struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	InPoint  float64 `json:"inPoint"`
	OutPoint float64 `json:"outPoint"`
}

// TrimPreview is the live state of a trim gesture. Delta is the grabbed
// clip's clamped edge movement in seconds; members carry the resulting
// windows for every clip the trim will touch, each clamped against its own
// source bounds.
type TrimPreview struct {
	ClipID  string                `json:"clipId"`
	Edge    linked.Edge           `json:"edge"`
	Delta   float64               `json:"delta"`
	Members map[string]ClipWindow `json:"members"`
}

type trimSession struct {
	doc      timeline.Document
	g        Geometry
	clipID   string
	edge     linked.Edge
	originPx float64

	delta       float64
	independent bool
	preview     TrimPreview
}

// BeginTrim starts an edge trim on a clip. Returns false without error when
// the clip does not exist.
func (m *Manager) BeginTrim(clipID string, edge linked.Edge, px float64) (bool, error) {
	doc := m.store.Document()
	clip, ok := doc.ClipByID(clipID)
	if !ok {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trim != nil {
		return false, ErrSessionActive
	}
	s := &trimSession{
		doc:      doc,
		g:        geometryOf(doc),
		clipID:   clipID,
		edge:     edge,
		originPx: px,
	}
	s.preview = TrimPreview{
		ClipID:  clipID,
		Edge:    edge,
		Members: map[string]ClipWindow{clipID: windowOf(clip)},
	}
	m.trim = s
	m.logger.Debug("trim started", "clip", clipID, "edge", edge.Value)
	return true, nil
}

// UpdateTrim recomputes the previewed windows for a new pointer position.
// The grabbed clip's clamp bounds the reported delta; linked members clamp
// the same delta against their own sources, so their windows can lag behind
// the grabbed edge rather than invalidate.
func (m *Manager) UpdateTrim(px float64, mods Modifiers) (TrimPreview, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.trim
	if s == nil {
		return TrimPreview{}, ErrNoSession
	}

	clip, _ := s.doc.ClipByID(s.clipID)
	raw := s.g.Seconds(px - s.originPx)
	s.delta = linked.TrimDelta(clip, s.edge, raw)
	s.independent = mods.Independent

	ids := []string{s.clipID}
	if !mods.Independent {
		ids = linked.Members(s.doc, s.clipID)
	}
	members := make(map[string]ClipWindow, len(ids))
	for _, id := range ids {
		c, ok := s.doc.ClipByID(id)
		if !ok {
			continue
		}
		members[id] = trimmedWindow(c, s.edge, linked.TrimDelta(c, s.edge, s.delta))
	}
	s.preview = TrimPreview{ClipID: s.clipID, Edge: s.edge, Delta: s.delta, Members: members}
	return s.preview, nil
}

// CommitTrim applies the previewed trim as a single undoable edit.
func (m *Manager) CommitTrim() (store.Result, error) {
	m.mu.Lock()
	s := m.trim
	m.trim = nil
	m.mu.Unlock()
	if s == nil {
		return store.Result{}, ErrNoSession
	}

	var op store.Op
	if s.independent {
		clipID, edge, delta := s.clipID, s.edge, s.delta
		op = func(d timeline.Document) (timeline.Document, bool, error) {
			return trimOne(d, clipID, edge, delta)
		}
	} else {
		clipID, edge, delta := s.clipID, s.edge, s.delta
		op = func(d timeline.Document) (timeline.Document, bool, error) {
			return linked.PropagateTrim(d, clipID, edge, delta)
		}
	}
	res, err := m.store.Apply(op)
	if err != nil {
		return res, err
	}
	m.logger.Debug("trim committed", "clip", s.clipID, "edge", s.edge.Value, "delta", s.delta)
	return res, nil
}

// CancelTrim abandons the trim without touching the document.
func (m *Manager) CancelTrim() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.trim != nil
	m.trim = nil
	return had
}

// trimOne trims a single clip ignoring linked companions. The left edge
// moves start and in-point together.
func trimOne(d timeline.Document, clipID string, edge linked.Edge, delta float64) (timeline.Document, bool, error) {
	c, ok := d.ClipByID(clipID)
	if !ok {
		return d, false, nil
	}
	delta = linked.TrimDelta(c, edge, delta)
	if math.Abs(delta) < 1e-9 {
		return d, false, nil
	}
	var next timeline.Document
	var applied bool
	var err error
	if edge == linked.EdgeLeft {
		next, applied, err = d.TrimClip(clipID, c.InPoint+delta, c.OutPoint)
		if err != nil || !applied {
			return d, false, err
		}
		next, _, err = next.MoveClip(clipID, c.StartTime+delta, "", true)
		if err != nil {
			return d, false, err
		}
		return next, true, nil
	}
	return d.TrimClip(clipID, c.InPoint, c.OutPoint+delta)
}

func windowOf(c timeline.Clip) ClipWindow {
	return ClipWindow{Start: c.StartTime, Duration: c.Duration, InPoint: c.InPoint, OutPoint: c.OutPoint}
}

func trimmedWindow(c timeline.Clip, edge linked.Edge, delta float64) ClipWindow {
	w := windowOf(c)
	if edge == linked.EdgeLeft {
		w.Start += delta
		w.InPoint += delta
		w.Duration -= delta
	} else {
		w.OutPoint += delta
		w.Duration += delta
	}
	return w
}
