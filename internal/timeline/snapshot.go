package timeline

import (
	"encoding/json"

	"github.com/ansel1/merry/v2"
	"github.com/samber/lo"
)

// Snapshot serializes the whole document, view state included, as the project
// round-trip payload. Load(Snapshot(d)) reproduces d exactly.
func (d Document) Snapshot() ([]byte, error) {
	return json.Marshal(d)
}

// Load rebuilds a document from a snapshot. The payload is validated and
// normalized (sorted keyframes and markers, dense track orders) so downstream
// code can rely on the usual document shape even for hand-edited files.
func Load(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, merry.Wrap(ErrInvalid, merry.WithCause(err))
	}
	d = d.normalize()
	if err := d.Validate(); err != nil {
		return Document{}, err
	}
	return d, nil
}

func (d Document) normalize() Document {
	d.Clips = lo.Map(d.Clips, func(c Clip, _ int) Clip {
		if len(c.Keyframes) > 1 {
			keys := make([]Keyframe, len(c.Keyframes))
			copy(keys, c.Keyframes)
			sortKeyframes(keys)
			c.Keyframes = keys
		}
		return c
	})

	if len(d.Markers) > 1 {
		markers := make([]Marker, len(d.Markers))
		copy(markers, d.Markers)
		sortMarkers(markers)
		d.Markers = markers
	}

	for _, kind := range TrackKinds.Members() {
		d = d.renumberTracks(kind)
	}
	if d.View.Zoom <= 0 {
		d.View.Zoom = 100
	}
	return d
}

// Validate checks every structural invariant the mutation boundary enforces,
// for use on documents that arrived from outside (project files, API loads).
func (d Document) Validate() error {
	trackIDs := map[string]Track{}
	for _, t := range d.Tracks {
		if t.ID == "" {
			return invalidf("track without id")
		}
		if !TrackKinds.Contains(t.Kind) {
			return invalidf("track %s has unknown kind", t.ID)
		}
		if _, dup := trackIDs[t.ID]; dup {
			return invalidf("duplicate track id %s", t.ID)
		}
		trackIDs[t.ID] = t
	}

	clipIDs := map[string]Clip{}
	for _, c := range d.Clips {
		if c.ID == "" {
			return invalidf("clip without id")
		}
		if _, dup := clipIDs[c.ID]; dup {
			return invalidf("duplicate clip id %s", c.ID)
		}
		track, ok := trackIDs[c.TrackID]
		if !ok {
			return invalidf("clip %s references missing track %s", c.ID, c.TrackID)
		}
		if TrackKindFor(c.Source.Kind) != track.Kind {
			return invalidf("clip %s kind does not match its track", c.ID)
		}
		if err := validateClip(c); err != nil {
			return err
		}
		for _, k := range c.Keyframes {
			if !k.Property.Valid() {
				return invalidf("clip %s keyframe %s has unknown property %q", c.ID, k.ID, k.Property)
			}
			if !Easings.Contains(k.Easing) {
				return invalidf("clip %s keyframe %s has unknown easing", c.ID, k.ID)
			}
		}
		// Keyframes arrive sorted by property then time, so duplicates within
		// one property are adjacent.
		for i := 1; i < len(c.Keyframes); i++ {
			prev, cur := c.Keyframes[i-1], c.Keyframes[i]
			if prev.Property == cur.Property && cur.Time-prev.Time < timeEpsilon {
				return invalidf("clip %s has duplicate keyframe time %v on %q", c.ID, cur.Time, cur.Property)
			}
		}
		clipIDs[c.ID] = c
	}

	for _, c := range d.Clips {
		if c.LinkedClipID != "" {
			partner, ok := clipIDs[c.LinkedClipID]
			if !ok {
				return invalidf("clip %s pair partner %s missing", c.ID, c.LinkedClipID)
			}
			if partner.LinkedClipID != c.ID {
				return invalidf("clip %s pair link is not reciprocated", c.ID)
			}
		}
		if c.ParentClipID != "" {
			if _, ok := clipIDs[c.ParentClipID]; !ok {
				return invalidf("clip %s parent %s missing", c.ID, c.ParentClipID)
			}
		}
	}

	// Parent references must stay acyclic.
	for _, c := range d.Clips {
		cursor := c.ParentClipID
		for hops := 0; cursor != ""; hops++ {
			if hops > len(d.Clips) {
				return ErrCycle
			}
			if cursor == c.ID {
				return ErrCycle
			}
			parent, ok := clipIDs[cursor]
			if !ok {
				break
			}
			cursor = parent.ParentClipID
		}
	}

	groupIDs := map[string]LinkedGroup{}
	for _, g := range d.Groups {
		if _, dup := groupIDs[g.ID]; dup {
			return invalidf("duplicate group id %s", g.ID)
		}
		if len(g.Members) < 2 {
			return invalidf("group %s needs at least two members", g.ID)
		}
		masterIsMember := false
		for _, m := range g.Members {
			member, ok := clipIDs[m.ClipID]
			if !ok {
				return invalidf("group %s member %s missing", g.ID, m.ClipID)
			}
			if member.LinkedGroupID != g.ID {
				return invalidf("group %s member %s does not reference the group", g.ID, m.ClipID)
			}
			if m.ClipID == g.MasterID {
				masterIsMember = true
			}
		}
		if !masterIsMember {
			return invalidf("group %s master %s is not a member", g.ID, g.MasterID)
		}
		groupIDs[g.ID] = g
	}
	for _, c := range d.Clips {
		if c.LinkedGroupID == "" {
			continue
		}
		g, ok := groupIDs[c.LinkedGroupID]
		if !ok {
			return invalidf("clip %s references missing group %s", c.ID, c.LinkedGroupID)
		}
		if !lo.SomeBy(g.Members, func(m GroupMember) bool { return m.ClipID == c.ID }) {
			return invalidf("clip %s not listed in group %s", c.ID, c.LinkedGroupID)
		}
	}

	for _, m := range d.Markers {
		if m.Time < 0 {
			return invalidf("marker %s before timeline origin", m.ID)
		}
	}
	if d.View.Playhead < 0 {
		return invalidf("playhead before timeline origin")
	}
	if d.View.WorkIn != nil && d.View.WorkOut != nil && *d.View.WorkOut <= *d.View.WorkIn {
		return invalidf("work area inverted")
	}
	return nil
}
