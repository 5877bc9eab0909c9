package session

import (
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// SetCutTool toggles the razor mode. A view change, so it never lands on the
// undo stack.
func (m *Manager) SetCutTool(enabled bool) (store.Result, error) {
	return m.store.ApplyView(func(d timeline.Document) (timeline.Document, bool, error) {
		return d.SetCutTool(enabled), true, nil
	})
}

// HoverCut previews the cut line under the pointer and broadcasts it so
// every view can draw the shared line across linked clips. Returns nil when
// the pointer is not over a clip, which also clears the broadcast.
func (m *Manager) HoverCut(px, py float64) *store.CutHover {
	doc := m.store.Document()
	g := geometryOf(doc)
	clip, ok := clipUnderPointer(doc, g, laneLayout(doc), px, py)
	if !ok {
		m.store.BroadcastHover(nil)
		return nil
	}
	at := g.TimeAt(px)
	ids := []string{clip.ID}
	for _, id := range doc.LinkedWith(clip.ID) {
		if c, ok := doc.ClipByID(id); ok && c.StartTime < at && at < c.EndTime() {
			ids = append(ids, id)
		}
	}
	hover := &store.CutHover{ClipIDs: ids, Time: at}
	m.store.BroadcastHover(hover)
	return hover
}

// ClickCut commits a split at the hovered position. Splitting propagates to
// linked members that span the cut. Returns an unapplied result when the
// pointer misses every clip.
func (m *Manager) ClickCut(px, py float64) (store.Result, error) {
	doc := m.store.Document()
	g := geometryOf(doc)
	clip, ok := clipUnderPointer(doc, g, laneLayout(doc), px, py)
	if !ok {
		return store.Result{Revision: doc.Revision}, nil
	}
	at := g.TimeAt(px) - clip.StartTime
	res, err := m.store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
		return d.SplitClip(clip.ID, at)
	})
	if err != nil {
		return res, err
	}
	m.store.BroadcastHover(nil)
	m.logger.Debug("cut committed", "clip", clip.ID, "at", at)
	return res, nil
}

// clipUnderPointer resolves the clip whose lane and extent contain the
// pointer.
func clipUnderPointer(doc timeline.Document, g Geometry, lanes []Lane, px, py float64) (timeline.Clip, bool) {
	lane, ok := g.laneAt(lanes, py)
	if !ok {
		return timeline.Clip{}, false
	}
	at := g.TimeAt(px)
	for _, c := range doc.ClipsOnTrack(lane.TrackID) {
		if c.StartTime <= at && at < c.EndTime() {
			return c, true
		}
	}
	return timeline.Clip{}, false
}
