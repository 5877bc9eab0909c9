package timeline

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func buildPopulatedDoc(t *testing.T) Document {
	t.Helper()
	d, video, audio := newTestDoc(t)
	d, v := addTestClip(t, d, video.ID, SourceVideo, 1, 8, 20)
	d, a := addTestClip(t, d, audio.ID, SourceAudio, 1, 8, 20)
	d, title := addTestClip(t, d, video.ID, SourceText, 12, 4, 0)

	var applied bool
	var err error
	if d, applied, err = d.LinkPair(v.ID, a.ID); err != nil || !applied {
		t.Fatalf("LinkPair: applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.AddKeyframe(v.ID, Keyframe{Property: PropOpacity, Time: 0, Value: 0}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.AddKeyframe(v.ID, Keyframe{
		Property: PropOpacity, Time: 2, Value: 1,
		Easing: EasingBezier, Out: &Handle{DT: 0.5, DV: 0.1}, In: &Handle{DT: -0.5, DV: -0.1},
	}); err != nil || !applied {
		t.Fatalf("AddKeyframe: applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.UpdateClip(title.ID, ClipPatch{
		Effects: &[]Effect{{ID: "fx1", Kind: "blur", Enabled: true, Params: map[string]float64{"radius": 4}}},
		Masks:   &[]Mask{{ID: "m1", Mode: "alpha", Feather: 2, Points: [][2]float64{{0, 0}, {1, 0}, {1, 1}}}},
	}); err != nil || !applied {
		t.Fatalf("UpdateClip: applied=%v err=%v", applied, err)
	}
	if d, err = d.AddMarker(Marker{Time: 5, Label: "scene 2", Color: "#ff0000"}); err != nil {
		t.Fatalf("AddMarker: %v", err)
	}
	if d, err = d.SetPlayhead(3.25); err != nil {
		t.Fatalf("SetPlayhead: %v", err)
	}
	in, out := 1.0, 9.0
	if d, err = d.SetWorkArea(&in, &out); err != nil {
		t.Fatalf("SetWorkArea: %v", err)
	}
	return d
}

func TestSnapshotLoadRoundTrip(t *testing.T) {
	d := buildPopulatedDoc(t)

	data, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	loaded, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !reflect.DeepEqual(d, loaded) {
		got, _ := json.MarshalIndent(loaded, "", "  ")
		want, _ := json.MarshalIndent(d, "", "  ")
		t.Errorf("round trip diverged:\ngot:  %s\nwant: %s", got, want)
	}

	// Twice through changes nothing further.
	data2, err := loaded.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	again, err := Load(data2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, again) {
		t.Errorf("second round trip diverged")
	}
}

func TestLoadRejectsBadPayloads(t *testing.T) {
	base := buildPopulatedDoc(t)

	corrupt := func(t *testing.T, mutate func(*Document)) []byte {
		t.Helper()
		data, err := base.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		var d Document
		if err := json.Unmarshal(data, &d); err != nil {
			t.Fatalf("unmarshal fixture: %v", err)
		}
		mutate(&d)
		out, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal fixture: %v", err)
		}
		return out
	}

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"clip on missing track", func(d *Document) { d.Clips[0].TrackID = "ghost" }},
		{"negative duration", func(d *Document) { d.Clips[0].Duration = -1; d.Clips[0].OutPoint = d.Clips[0].InPoint - 1 }},
		{"span mismatch", func(d *Document) { d.Clips[0].OutPoint += 3 }},
		{"non reciprocal pair", func(d *Document) { d.Clips[1].LinkedClipID = "" }},
		{"parent cycle", func(d *Document) {
			d.Clips[0].ParentClipID = d.Clips[1].ID
			d.Clips[1].ParentClipID = d.Clips[0].ID
		}},
		{"marker before origin", func(d *Document) { d.Markers[0].Time = -2 }},
		{"inverted work area", func(d *Document) { *d.View.WorkOut = *d.View.WorkIn - 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(corrupt(t, tt.mutate)); !errors.Is(err, ErrInvalid) && !errors.Is(err, ErrCycle) {
				t.Errorf("Load err = %v, want invalid-class error", err)
			}
		})
	}

	t.Run("not json at all", func(t *testing.T) {
		if _, err := Load([]byte("{nope")); !errors.Is(err, ErrInvalid) {
			t.Errorf("Load err = %v, want ErrInvalid", err)
		}
	})
}

func TestLoadNormalizesOrdering(t *testing.T) {
	base := buildPopulatedDoc(t)
	data, err := base.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	// Scramble what normalization is supposed to repair: marker order, track
	// order density, keyframe order.
	d.Markers = append(d.Markers, Marker{ID: "early", Time: 0.5, Label: "front"})
	d.Tracks[0].Order = 7
	for i := range d.Clips {
		if len(d.Clips[i].Keyframes) == 2 {
			d.Clips[i].Keyframes[0], d.Clips[i].Keyframes[1] = d.Clips[i].Keyframes[1], d.Clips[i].Keyframes[0]
		}
	}
	scrambled, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	loaded, err := Load(scrambled)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Markers[0].ID != "early" {
		t.Errorf("markers not re-sorted: first = %s", loaded.Markers[0].ID)
	}
	for _, kind := range []TrackKind{TrackVideo, TrackAudio} {
		for i, tr := range loaded.TracksOfKind(kind) {
			if tr.Order != i {
				t.Errorf("%s track order = %d, want dense %d", kind.Value, tr.Order, i)
			}
		}
	}
	for _, c := range loaded.Clips {
		for i := 1; i < len(c.Keyframes); i++ {
			prev, cur := c.Keyframes[i-1], c.Keyframes[i]
			if prev.Property == cur.Property && prev.Time > cur.Time {
				t.Errorf("clip %s keyframes not sorted", c.Name)
			}
		}
	}
}
