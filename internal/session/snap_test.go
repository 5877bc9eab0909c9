package session

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

func TestResolveSnap(t *testing.T) {
	tests := []struct {
		name     string
		targets  []float64
		proposed float64
		want     float64
		wantHit  bool
	}{
		{
			name:     "inside threshold snaps down",
			targets:  []float64{5.0, 12.0},
			proposed: 5.05,
			want:     5.0,
			wantHit:  true,
		},
		{
			name:     "outside threshold passes through",
			targets:  []float64{5.0, 12.0},
			proposed: 5.5,
			want:     5.5,
		},
		{
			name:     "snaps up to the later target",
			targets:  []float64{5.0, 12.0},
			proposed: 11.92,
			want:     12.0,
			wantHit:  true,
		},
		{
			name:     "threshold boundary is inclusive",
			targets:  []float64{5.0},
			proposed: 5.1,
			want:     5.0,
			wantHit:  true,
		},
		{
			name:     "nearest of two candidates wins",
			targets:  []float64{5.0, 5.08},
			proposed: 5.03,
			want:     5.0,
			wantHit:  true,
		},
		{
			name:     "no targets",
			targets:  nil,
			proposed: 7.7,
			want:     7.7,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := resolveSnap(tt.proposed, tt.targets, 0.1)
			if got != tt.want {
				t.Errorf("resolveSnap(%v) = %v, want %v", tt.proposed, got, tt.want)
			}
			if (hit != nil) != tt.wantHit {
				t.Errorf("resolveSnap(%v) hit = %v, want hit %v", tt.proposed, hit, tt.wantHit)
			}
			if hit != nil && *hit != tt.want {
				t.Errorf("resolveSnap(%v) hit target = %v, want %v", tt.proposed, *hit, tt.want)
			}
		})
	}
}

func TestSnapTargetsCollectsEdgesAndRulerTimes(t *testing.T) {
	f := newGestureFixture(t)
	a := f.addClip(t, f.v1, timeline.SourceVideo, 1, 4, 10)
	f.addClip(t, f.v2, timeline.SourceVideo, 8, 2, 10)

	d := f.st.Document()
	d, _, err := d.AddKeyframe(a.ID, timeline.Keyframe{Property: timeline.PropX, Time: 2, Value: 10})
	if err != nil {
		t.Fatalf("add keyframe: %v", err)
	}
	d, err = d.AddMarker(timeline.Marker{Time: 20})
	if err != nil {
		t.Fatalf("add marker: %v", err)
	}
	in, out := 0.5, 9.5
	d, err = d.SetWorkArea(&in, &out)
	if err != nil {
		t.Fatalf("set work area: %v", err)
	}

	got := snapTargets(d, nil, false, "")
	for _, want := range []float64{1, 5, 3, 8, 10, 0, 0.5, 9.5, 20} {
		if !containsFloat(got, want) {
			t.Errorf("snap targets %v missing %v", got, want)
		}
	}
}

func TestSnapTargetsExclusions(t *testing.T) {
	f := newGestureFixture(t)
	a := f.addClip(t, f.v1, timeline.SourceVideo, 1, 4, 10)

	d := f.st.Document()
	d, err := d.AddMarker(timeline.Marker{ID: "m1", Time: 20})
	if err != nil {
		t.Fatalf("add marker: %v", err)
	}

	moving := mapset.NewSet(a.ID)
	got := snapTargets(d, moving, true, "m1")
	for _, banned := range []float64{1, 5, 20} {
		if containsFloat(got, banned) {
			t.Errorf("snap targets %v should exclude %v", got, banned)
		}
	}
}

func containsFloat(xs []float64, want float64) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
