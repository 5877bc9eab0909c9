// Package linked moves and trims linked sets as one unit. Link state itself
// (pair fields, group membership) lives on the timeline document; this
// package owns the policy of applying one gesture's delta across every
// member with per-member clamping.
package linked

import (
	"encoding/json"
	"math"

	"github.com/orsinium-labs/enum"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// Edge names which side of a clip a trim gesture grabs.
type Edge enum.Member[string]

//goland:noinspection GoMixedReceiverTypes
func (e Edge) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Value)
}

//goland:noinspection GoMixedReceiverTypes
func (e *Edge) UnmarshalJSON(value []byte) error {
	var stringValue string
	if err := json.Unmarshal(value, &stringValue); err != nil {
		return err
	}
	edge := Edges.Parse(stringValue)
	if edge == nil {
		return timeline.ErrInvalid
	}
	*e = *edge
	return nil
}

var (
	EdgeLeft  = Edge{Value: "left"}
	EdgeRight = Edge{Value: "right"}
	Edges     = enum.New(EdgeLeft, EdgeRight)
)

// Members returns the full linked set containing clipID, source included.
// A clip with no links is a set of one.
func Members(doc timeline.Document, clipID string) []string {
	if _, ok := doc.ClipByID(clipID); !ok {
		return nil
	}
	return append([]string{clipID}, doc.LinkedWith(clipID)...)
}

// PropagateMove moves the whole linked set by delta seconds. The document
// operation already carries the lock-step policy; this wrapper exists for
// delta-shaped callers (nudge commands, session commits).
func PropagateMove(doc timeline.Document, sourceID string, delta float64) (timeline.Document, bool, error) {
	clip, ok := doc.ClipByID(sourceID)
	if !ok {
		return doc, false, nil
	}
	target := clip.StartTime + delta
	if target < 0 {
		target = 0
	}
	return doc.MoveClip(sourceID, target, "", false)
}

// TrimDelta is the room one clip window has for an edge delta, before any
// propagation.
func TrimDelta(c timeline.Clip, edge Edge, delta float64) float64 {
	switch edge {
	case EdgeLeft:
		// Positive pushes the left edge right. Extending left is bounded by
		// the source start (finite) and always by the timeline origin.
		lower := -c.StartTime
		if c.Source.Kind.Finite() && -c.InPoint > lower {
			lower = -c.InPoint
		}
		upper := c.Duration - timeline.MinClipDuration
		return clampDelta(delta, lower, upper)
	default:
		// Positive extends right, bounded by the source end for finite
		// clips; negative shrinks down to the minimum duration.
		lower := -(c.Duration - timeline.MinClipDuration)
		upper := math.Inf(1)
		if c.Source.Kind.Finite() && c.Source.NaturalDuration > 0 {
			upper = c.Source.NaturalDuration - c.OutPoint
		}
		return clampDelta(delta, lower, upper)
	}
}

// PropagateTrim applies one edge delta to the source clip and every linked
// member, each clamped against its own window and source, as independent
// trims. A left-edge trim also moves each member's start by its own clamped
// delta so the opposite edge stays put. Missing source is a no-op.
func PropagateTrim(doc timeline.Document, sourceID string, edge Edge, delta float64) (timeline.Document, bool, error) {
	if _, ok := doc.ClipByID(sourceID); !ok {
		return doc, false, nil
	}

	applied := false
	for _, id := range Members(doc, sourceID) {
		clip, ok := doc.ClipByID(id)
		if !ok {
			continue
		}
		d := TrimDelta(clip, edge, delta)
		if math.Abs(d) < 1e-9 {
			continue
		}

		var newIn, newOut float64
		if edge == EdgeLeft {
			newIn, newOut = clip.InPoint+d, clip.OutPoint
		} else {
			newIn, newOut = clip.InPoint, clip.OutPoint+d
		}
		next, ok, err := doc.TrimClip(id, newIn, newOut)
		if err != nil {
			return doc, false, err
		}
		if !ok {
			continue
		}
		doc = next
		if edge == EdgeLeft {
			next, _, err := doc.MoveClip(id, clip.StartTime+d, "", true)
			if err != nil {
				return doc, false, err
			}
			doc = next
		}
		applied = true
	}
	return doc, applied, nil
}

func clampDelta(delta, lower, upper float64) float64 {
	if delta < lower {
		return lower
	}
	if delta > upper {
		return upper
	}
	return delta
}
