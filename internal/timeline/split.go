package timeline

import (
	"github.com/samber/lo"
)

// SplitClip cuts the clip at atLocal (clip-local seconds). The left half keeps
// the clip's identity; the right half is a new clip starting at the cut with
// its in point advanced, so the two halves cover the source exactly as the
// original did. Keyframes partition by the cut, right-half times rebased to
// the new window start.
//
// Every linked partner or group member whose window spans the same global time
// is cut too. Left halves keep their existing pair/group wiring; right halves
// are wired to each other, mirroring it, so each side of the cut moves as its
// own linked set afterwards.
func (d Document) SplitClip(id string, atLocal float64) (Document, bool, error) {
	clip, ok := d.ClipByID(id)
	if !ok {
		return d, false, nil
	}
	if atLocal < MinClipDuration-timeEpsilon || clip.Duration-atLocal < MinClipDuration-timeEpsilon {
		return d, false, invalidf("cut at %v leaves a half shorter than %v", atLocal, MinClipDuration)
	}
	globalCut := clip.StartTime + atLocal

	targets := []Clip{clip}
	for _, mid := range d.LinkedWith(id) {
		m, ok := d.ClipByID(mid)
		if !ok {
			continue
		}
		local := globalCut - m.StartTime
		if local < MinClipDuration-timeEpsilon || m.Duration-local < MinClipDuration-timeEpsilon {
			continue
		}
		targets = append(targets, m)
	}

	rights := make(map[string]Clip, len(targets))
	for _, t := range targets {
		left, right := splitHalves(t, globalCut-t.StartTime)
		d = d.replaceClip(left)
		rights[t.ID] = right
	}

	// Re-link pair partners among the right halves. A partner that was not
	// under the cut stays paired with the left half, so its right half (none)
	// cannot be referenced.
	for origID, r := range rights {
		if r.LinkedClipID == "" {
			continue
		}
		if partner, ok := rights[r.LinkedClipID]; ok {
			r.LinkedClipID = partner.ID
		} else {
			r.LinkedClipID = ""
		}
		rights[origID] = r
	}

	// Group right halves regroup per original group, mirroring membership for
	// everything that was cut. A lone right half leaves its group.
	byGroup := map[string][]string{}
	for origID, r := range rights {
		if r.LinkedGroupID != "" {
			byGroup[r.LinkedGroupID] = append(byGroup[r.LinkedGroupID], origID)
		}
	}
	for groupID, origIDs := range byGroup {
		if len(origIDs) < 2 {
			r := rights[origIDs[0]]
			r.LinkedGroupID = ""
			rights[origIDs[0]] = r
			continue
		}
		group, _ := d.GroupByID(groupID)
		masterOrig := origIDs[0]
		if _, ok := rights[group.MasterID]; ok {
			masterOrig = group.MasterID
		}
		newGroup := LinkedGroup{ID: NewID(), MasterID: rights[masterOrig].ID}
		masterStart := rights[masterOrig].StartTime
		for _, origID := range origIDs {
			r := rights[origID]
			r.LinkedGroupID = newGroup.ID
			rights[origID] = r
			newGroup.Members = append(newGroup.Members, GroupMember{
				ClipID: r.ID,
				Offset: r.StartTime - masterStart,
			})
		}
		d.Groups = append(append([]LinkedGroup{}, d.Groups...), newGroup)
	}

	clips := make([]Clip, len(d.Clips), len(d.Clips)+len(rights))
	copy(clips, d.Clips)
	for _, t := range targets {
		clips = append(clips, rights[t.ID])
	}
	d.Clips = clips
	return d.bump(), true, nil
}

// splitHalves carves one clip in two at cut (clip-local). The left half keeps
// the id; both halves share the source and the static properties.
func splitHalves(c Clip, cut float64) (left, right Clip) {
	left = c
	left.Duration = cut
	left.OutPoint = c.InPoint + cut
	left.Keyframes = lo.Filter(c.Keyframes, func(k Keyframe, _ int) bool {
		return k.Time < cut
	})

	right = c
	right.ID = NewID()
	right.StartTime = c.StartTime + cut
	right.InPoint = c.InPoint + cut
	right.Duration = c.Duration - cut
	right.Keyframes = nil
	for _, k := range c.Keyframes {
		if k.Time >= cut {
			k.ID = NewID()
			k.Time -= cut
			right.Keyframes = append(right.Keyframes, k)
		}
	}
	return left, right
}
