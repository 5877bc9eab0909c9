package session

import (
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// Geometry converts between pointer space (viewport pixels) and document
// space (seconds, lanes). A session captures it once at pointer-down from the
// document's view state, so a zoom mid-gesture cannot shear the math.
type Geometry struct {
	Zoom    float64 // pixels per second
	ScrollX float64 // pixels scrolled off the left edge
	ScrollY float64 // pixels scrolled off the top edge
}

func geometryOf(doc timeline.Document) Geometry {
	zoom := doc.View.Zoom
	if zoom <= 0 {
		zoom = 100
	}
	return Geometry{Zoom: zoom, ScrollX: doc.View.ScrollX, ScrollY: doc.View.ScrollY}
}

// TimeAt maps a viewport X to timeline seconds.
func (g Geometry) TimeAt(px float64) float64 {
	return (px + g.ScrollX) / g.Zoom
}

// PxAt maps timeline seconds to viewport X.
func (g Geometry) PxAt(t float64) float64 {
	return t*g.Zoom - g.ScrollX
}

// Seconds converts a pixel span to a time span.
func (g Geometry) Seconds(px float64) float64 {
	return px / g.Zoom
}

// Lane is one track's horizontal band in content space. Video lanes stack
// first in layer order, audio lanes below them.
type Lane struct {
	TrackID string
	Kind    timeline.TrackKind
	Top     float64
	Height  float64
}

func (l Lane) bottom() float64 {
	return l.Top + l.Height
}

// laneLayout computes the vertical band of every track. Pure function of the
// document, recomputed per session start.
func laneLayout(doc timeline.Document) []Lane {
	var lanes []Lane
	top := 0.0
	for _, kind := range []timeline.TrackKind{timeline.TrackVideo, timeline.TrackAudio} {
		for _, tr := range doc.TracksOfKind(kind) {
			lanes = append(lanes, Lane{TrackID: tr.ID, Kind: kind, Top: top, Height: float64(tr.Height)})
			top += float64(tr.Height)
		}
	}
	return lanes
}

// laneAt finds the lane under a viewport Y, accounting for vertical scroll.
func (g Geometry) laneAt(lanes []Lane, py float64) (Lane, bool) {
	y := py + g.ScrollY
	for _, lane := range lanes {
		if y >= lane.Top && y < lane.bottom() {
			return lane, true
		}
	}
	return Lane{}, false
}

func laneFor(lanes []Lane, trackID string) (Lane, bool) {
	for _, lane := range lanes {
		if lane.TrackID == trackID {
			return lane, true
		}
	}
	return Lane{}, false
}
