package timeline

import "github.com/samber/lo"

// AddMarker drops a global marker on the timeline ruler.
func (d Document) AddMarker(m Marker) (Document, error) {
	if m.Time < 0 {
		return d, invalidf("marker time %v before timeline origin", m.Time)
	}
	if m.ID == "" {
		m.ID = NewID()
	}
	if _, exists := d.MarkerByID(m.ID); exists {
		return d, invalidf("marker %s already exists", m.ID)
	}
	markers := make([]Marker, len(d.Markers), len(d.Markers)+1)
	copy(markers, d.Markers)
	markers = append(markers, m)
	sortMarkers(markers)
	d.Markers = markers
	return d.bump(), nil
}

// MarkerPatch carries the optional fields UpdateMarker may change.
type MarkerPatch struct {
	Time  *float64 `json:"time,omitempty"`
	Label *string  `json:"label,omitempty"`
	Color *string  `json:"color,omitempty"`
}

func (d Document) UpdateMarker(id string, patch MarkerPatch) (Document, bool, error) {
	marker, ok := d.MarkerByID(id)
	if !ok {
		return d, false, nil
	}
	if patch.Time != nil && *patch.Time < 0 {
		return d, false, invalidf("marker time %v before timeline origin", *patch.Time)
	}
	if patch.Time != nil {
		marker.Time = *patch.Time
	}
	if patch.Label != nil {
		marker.Label = *patch.Label
	}
	if patch.Color != nil {
		marker.Color = *patch.Color
	}
	markers := lo.Map(d.Markers, func(m Marker, _ int) Marker {
		if m.ID == id {
			return marker
		}
		return m
	})
	sortMarkers(markers)
	d.Markers = markers
	return d.bump(), true, nil
}

func (d Document) RemoveMarker(id string) (Document, bool) {
	markers := lo.Filter(d.Markers, func(m Marker, _ int) bool { return m.ID != id })
	if len(markers) == len(d.Markers) {
		return d, false
	}
	d.Markers = markers
	return d.bump(), true
}
