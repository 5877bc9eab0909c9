package timeline

import "sort"

func sortClipsByStart(clips []Clip) {
	sort.Slice(clips, func(i, j int) bool {
		if clips[i].StartTime != clips[j].StartTime {
			return clips[i].StartTime < clips[j].StartTime
		}
		return clips[i].ID < clips[j].ID
	})
}

func sortTracksByOrder(tracks []Track) {
	sort.Slice(tracks, func(i, j int) bool {
		if tracks[i].Order != tracks[j].Order {
			return tracks[i].Order < tracks[j].Order
		}
		return tracks[i].ID < tracks[j].ID
	})
}

// sortKeyframes keeps a clip's flat keyframe slice grouped by property and
// ordered by time within each property. Every keyframe mutation re-sorts.
func sortKeyframes(keys []Keyframe) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Property != keys[j].Property {
			return keys[i].Property < keys[j].Property
		}
		if keys[i].Time != keys[j].Time {
			return keys[i].Time < keys[j].Time
		}
		return keys[i].ID < keys[j].ID
	})
}

func sortMarkers(markers []Marker) {
	sort.Slice(markers, func(i, j int) bool {
		if markers[i].Time != markers[j].Time {
			return markers[i].Time < markers[j].Time
		}
		return markers[i].ID < markers[j].ID
	})
}
