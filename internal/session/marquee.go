package session

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// KeyframeRef names one keyframe on one clip.
type KeyframeRef struct {
	ClipID     string `json:"clipId"`
	KeyframeID string `json:"keyframeId"`
}

// MarqueePreview is the selection a marquee would produce if released now.
// Clips are hit by bounding box; keyframes are hit as points on the lane
// midline and selected individually, without implying their clip.
type MarqueePreview struct {
	T0        float64       `json:"t0"`
	T1        float64       `json:"t1"`
	Clips     []string      `json:"clips"`
	Keyframes []KeyframeRef `json:"keyframes"`
}

type marqueeSession struct {
	g        Geometry
	lanes    []Lane
	originX  float64
	originY  float64
	additive bool
	initial  mapset.Set[string]
	clips    mapset.Set[string]
	keys     mapset.Set[KeyframeRef]
}

// BeginMarquee anchors a rectangular selection at the pointer. With the
// additive modifier the rectangle unions into the selection captured here
// instead of replacing it.
func (m *Manager) BeginMarquee(px, py float64, mods Modifiers) error {
	doc := m.store.Document()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marquee != nil {
		return ErrSessionActive
	}
	initial := mapset.NewSet[string]()
	if mods.Additive {
		initial = m.selection.Clone()
	}
	m.marquee = &marqueeSession{
		g:        geometryOf(doc),
		lanes:    laneLayout(doc),
		originX:  px,
		originY:  py,
		additive: mods.Additive,
		initial:  initial,
		clips:    mapset.NewSet[string](),
		keys:     mapset.NewSet[KeyframeRef](),
	}
	return nil
}

// UpdateMarquee recomputes the hit sets for the rectangle spanned from the
// anchor to the pointer.
func (m *Manager) UpdateMarquee(px, py float64) (MarqueePreview, error) {
	doc := m.store.Document()
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.marquee
	if s == nil {
		return MarqueePreview{}, ErrNoSession
	}

	t0, t1 := s.g.TimeAt(minFloat(s.originX, px)), s.g.TimeAt(maxFloat(s.originX, px))
	y0 := minFloat(s.originY, py) + s.g.ScrollY
	y1 := maxFloat(s.originY, py) + s.g.ScrollY

	clips := mapset.NewSet[string]()
	keys := mapset.NewSet[KeyframeRef]()
	for _, lane := range s.lanes {
		if lane.bottom() <= y0 || lane.Top >= y1 {
			continue
		}
		mid := lane.Top + lane.Height/2
		for _, c := range doc.ClipsOnTrack(lane.TrackID) {
			if c.StartTime < t1 && c.EndTime() > t0 {
				clips.Add(c.ID)
			}
			// Keyframe diamonds sit on the lane midline and are
			// picked individually.
			if mid < y0 || mid > y1 {
				continue
			}
			for _, k := range c.Keyframes {
				at := c.StartTime + k.Time
				if at >= t0 && at <= t1 {
					keys.Add(KeyframeRef{ClipID: c.ID, KeyframeID: k.ID})
				}
			}
		}
	}
	s.clips = clips
	s.keys = keys
	return MarqueePreview{
		T0:        t0,
		T1:        t1,
		Clips:     mapset.Sorted(clips.Union(s.initial)),
		Keyframes: keys.ToSlice(),
	}, nil
}

// CommitMarquee replaces (or, in additive mode, extends) the selection with
// the final hit sets.
func (m *Manager) CommitMarquee() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.marquee
	m.marquee = nil
	if s == nil {
		return nil, ErrNoSession
	}
	m.selection = s.clips.Union(s.initial)
	if s.additive {
		m.keyframes = m.keyframes.Union(s.keys)
	} else {
		m.keyframes = s.keys
	}
	return mapset.Sorted(m.selection), nil
}

// CancelMarquee drops the rectangle, leaving the selection as it was.
func (m *Manager) CancelMarquee() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	had := m.marquee != nil
	m.marquee = nil
	return had
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
