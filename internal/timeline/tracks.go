package timeline

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// AddTrack appends t at the bottom of its kind partition. A zero ID is
// assigned, a zero Height gets the default, and Order is always overwritten
// with the next dense slot.
func (d Document) AddTrack(t Track) (Document, error) {
	if !TrackKinds.Contains(t.Kind) {
		return d, invalidf("unknown track kind")
	}
	if t.ID == "" {
		t.ID = NewID()
	}
	if _, exists := d.TrackByID(t.ID); exists {
		return d, invalidf("track %s already exists", t.ID)
	}
	if t.Name == "" {
		t.Name = fmt.Sprintf("%s %d", t.Kind.Value, len(d.TracksOfKind(t.Kind))+1)
	}
	if t.Height <= 0 {
		t.Height = 48
	}
	t.Order = len(d.TracksOfKind(t.Kind))

	tracks := make([]Track, len(d.Tracks), len(d.Tracks)+1)
	copy(tracks, d.Tracks)
	d.Tracks = append(tracks, t)
	return d.bump(), nil
}

// RemoveTrack deletes the track and every clip on it, then re-ranks the
// surviving partition so orders stay dense. Missing id is a no-op.
func (d Document) RemoveTrack(id string) (Document, bool) {
	track, ok := d.TrackByID(id)
	if !ok {
		return d, false
	}

	removed := mapset.NewSet[string]()
	for _, c := range d.Clips {
		if c.TrackID == id {
			removed.Add(c.ID)
		}
	}

	d.Tracks = lo.Filter(d.Tracks, func(t Track, _ int) bool { return t.ID != id })
	d.Clips = lo.Filter(d.Clips, func(c Clip, _ int) bool { return c.TrackID != id })
	d = d.renumberTracks(track.Kind)
	d = d.detachRemovedClips(removed)
	return d.bump(), true
}

// TrackPatch carries the optional fields UpdateTrack may change. Nil fields
// are left alone.
type TrackPatch struct {
	Name    *string `json:"name,omitempty"`
	Height  *int    `json:"height,omitempty"`
	Locked  *bool   `json:"locked,omitempty"`
	Visible *bool   `json:"visible,omitempty"`
	Muted   *bool   `json:"muted,omitempty"`
	Solo    *bool   `json:"solo,omitempty"`
}

func (d Document) UpdateTrack(id string, patch TrackPatch) (Document, bool, error) {
	track, ok := d.TrackByID(id)
	if !ok {
		return d, false, nil
	}
	if patch.Height != nil && *patch.Height <= 0 {
		return d, false, invalidf("track height must be positive")
	}
	if patch.Name != nil {
		track.Name = *patch.Name
	}
	if patch.Height != nil {
		track.Height = *patch.Height
	}
	if patch.Locked != nil {
		track.Locked = *patch.Locked
	}
	if patch.Visible != nil {
		track.Visible = *patch.Visible
	}
	if patch.Muted != nil {
		track.Muted = *patch.Muted
	}
	if patch.Solo != nil {
		track.Solo = *patch.Solo
	}
	return d.replaceTrack(track).bump(), true, nil
}

// ReorderTrack moves the track to newOrder within its kind partition, shifting
// neighbours to keep the ranking dense. Out-of-range targets clamp.
func (d Document) ReorderTrack(id string, newOrder int) (Document, bool) {
	track, ok := d.TrackByID(id)
	if !ok {
		return d, false
	}

	partition := d.TracksOfKind(track.Kind)
	if newOrder < 0 {
		newOrder = 0
	}
	if newOrder > len(partition)-1 {
		newOrder = len(partition) - 1
	}
	if newOrder == track.Order {
		return d, false
	}

	reordered := lo.Filter(partition, func(t Track, _ int) bool { return t.ID != id })
	reordered = append(reordered[:newOrder], append([]Track{track}, reordered[newOrder:]...)...)
	for i, t := range reordered {
		t.Order = i
		d = d.replaceTrack(t)
	}
	return d.bump(), true
}

// renumberTracks reassigns dense orders within one kind partition, preserving
// the current relative ranking.
func (d Document) renumberTracks(kind TrackKind) Document {
	for i, t := range d.TracksOfKind(kind) {
		if t.Order != i {
			t.Order = i
			d = d.replaceTrack(t)
		}
	}
	return d
}

// detachRemovedClips scrubs dangling references after clips vanish: pair links
// pointing at removed clips, group memberships, and parent references. Groups
// left with fewer than two members dissolve.
func (d Document) detachRemovedClips(removed mapset.Set[string]) Document {
	if removed.Cardinality() == 0 {
		return d
	}

	d.Clips = lo.Map(d.Clips, func(c Clip, _ int) Clip {
		if c.LinkedClipID != "" && removed.Contains(c.LinkedClipID) {
			c.LinkedClipID = ""
		}
		if c.ParentClipID != "" && removed.Contains(c.ParentClipID) {
			c.ParentClipID = ""
		}
		return c
	})

	var groups []LinkedGroup
	dissolved := mapset.NewSet[string]()
	for _, g := range d.Groups {
		g.Members = lo.Filter(g.Members, func(m GroupMember, _ int) bool {
			return !removed.Contains(m.ClipID)
		})
		if len(g.Members) < 2 {
			dissolved.Add(g.ID)
			continue
		}
		if removed.Contains(g.MasterID) {
			g.MasterID = g.Members[0].ClipID
		}
		groups = append(groups, g)
	}
	d.Groups = groups

	if dissolved.Cardinality() > 0 {
		d.Clips = lo.Map(d.Clips, func(c Clip, _ int) Clip {
			if c.LinkedGroupID != "" && dissolved.Contains(c.LinkedGroupID) {
				c.LinkedGroupID = ""
			}
			return c
		})
	}
	return d
}
