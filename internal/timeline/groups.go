package timeline

import (
	"github.com/samber/lo"
)

// Link state lives on the document, so establishing and clearing links are
// document mutations here. The movement policy for linked sets lives in
// internal/linked.

// LinkPair ties two clips into an AV pair. Either clip missing is a no-op;
// a clip that already has a partner must be unlinked first.
func (d Document) LinkPair(aID, bID string) (Document, bool, error) {
	if aID == bID {
		return d, false, invalidf("clip cannot pair with itself")
	}
	a, okA := d.ClipByID(aID)
	b, okB := d.ClipByID(bID)
	if !okA || !okB {
		return d, false, nil
	}
	if a.LinkedClipID != "" || b.LinkedClipID != "" {
		return d, false, invalidf("clip already paired")
	}
	a.LinkedClipID = bID
	b.LinkedClipID = aID
	return d.replaceClip(a).replaceClip(b).bump(), true, nil
}

// UnlinkPair dissolves the AV pair containing clipID. Positions are
// untouched.
func (d Document) UnlinkPair(clipID string) (Document, bool) {
	clip, ok := d.ClipByID(clipID)
	if !ok || clip.LinkedClipID == "" {
		return d, false
	}
	if partner, ok := d.ClipByID(clip.LinkedClipID); ok {
		partner.LinkedClipID = ""
		d = d.replaceClip(partner)
	}
	clip.LinkedClipID = ""
	return d.replaceClip(clip).bump(), true
}

// CreateGroup forms a linked group from clipIDs with the given per-clip
// offsets (milliseconds, relative to the master). The first audio-bearing
// clip in the given order becomes master; every member is repositioned to
// master start plus its offset, and the whole formation shifts right together
// if any member would land before the timeline origin, keeping the offsets
// exact. Members leave any group they were in before. Offsets never change
// after this point except through a new CreateGroup.
func (d Document) CreateGroup(clipIDs []string, offsetsMs map[string]float64) (Document, LinkedGroup, error) {
	members := lo.FilterMap(lo.Uniq(clipIDs), func(id string, _ int) (Clip, bool) {
		return d.ClipByID(id)
	})
	if len(members) < 2 {
		return d, LinkedGroup{}, invalidf("group needs at least two existing clips")
	}

	master, found := lo.Find(members, func(c Clip) bool {
		return c.AudioEnabled && (c.Source.Kind == SourceAudio || c.Source.Kind == SourceVideo)
	})
	if !found {
		master = members[0]
	}

	// Offsets are taken relative to whatever the caller put on the master,
	// so a caller-supplied nonzero master offset does not skew the stored
	// geometry.
	rel := func(id string) float64 {
		return (offsetsMs[id] - offsetsMs[master.ID]) / 1000
	}

	// Ideal placement first, then one uniform shift if anything crosses the
	// origin. Shifting everything preserves the offsets, clamping one member
	// would not.
	starts := make(map[string]float64, len(members))
	shift := 0.0
	for _, m := range members {
		start := master.StartTime + rel(m.ID)
		starts[m.ID] = start
		if start < 0 && -start > shift {
			shift = -start
		}
	}

	group := LinkedGroup{ID: NewID(), MasterID: master.ID}
	for _, m := range members {
		group.Members = append(group.Members, GroupMember{
			ClipID: m.ID,
			Offset: rel(m.ID),
		})
	}

	// Leaving former groups may dissolve them.
	for _, m := range members {
		if m.LinkedGroupID != "" {
			d = d.removeFromGroup(m.LinkedGroupID, m.ID)
		}
	}

	for _, m := range members {
		clip, _ := d.ClipByID(m.ID)
		clip.StartTime = starts[m.ID] + shift
		clip.LinkedGroupID = group.ID
		d = d.replaceClip(clip)
	}
	d.Groups = append(append([]LinkedGroup{}, d.Groups...), group)
	return d.bump(), group, nil
}

// UnlinkGroup clears membership on every member and deletes the group. Clip
// positions are untouched. Missing group is a no-op.
func (d Document) UnlinkGroup(groupID string) (Document, bool) {
	group, ok := d.GroupByID(groupID)
	if !ok {
		return d, false
	}
	memberIDs := lo.Map(group.Members, func(m GroupMember, _ int) string { return m.ClipID })
	d.Clips = lo.Map(d.Clips, func(c Clip, _ int) Clip {
		if c.LinkedGroupID == groupID && lo.Contains(memberIDs, c.ID) {
			c.LinkedGroupID = ""
		}
		return c
	})
	d.Groups = lo.Filter(d.Groups, func(g LinkedGroup, _ int) bool { return g.ID != groupID })
	return d.bump(), true
}

// removeFromGroup drops one member, dissolving the group if fewer than two
// remain. No revision bump; callers bump once for the whole operation.
func (d Document) removeFromGroup(groupID, clipID string) Document {
	group, ok := d.GroupByID(groupID)
	if !ok {
		return d
	}
	group.Members = lo.Filter(group.Members, func(m GroupMember, _ int) bool { return m.ClipID != clipID })
	if clip, ok := d.ClipByID(clipID); ok && clip.LinkedGroupID == groupID {
		clip.LinkedGroupID = ""
		d = d.replaceClip(clip)
	}

	if len(group.Members) < 2 {
		for _, m := range group.Members {
			if c, ok := d.ClipByID(m.ClipID); ok {
				c.LinkedGroupID = ""
				d = d.replaceClip(c)
			}
		}
		d.Groups = lo.Filter(d.Groups, func(g LinkedGroup, _ int) bool { return g.ID != groupID })
		return d
	}
	if group.MasterID == clipID {
		group.MasterID = group.Members[0].ClipID
	}
	return d.replaceGroup(group)
}
