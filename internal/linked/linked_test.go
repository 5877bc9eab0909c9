package linked

import (
	"math"
	"testing"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

func pairFixture(t *testing.T, vStart, vDur, vNatural, aStart, aDur, aNatural float64) (timeline.Document, timeline.Clip, timeline.Clip) {
	t.Helper()
	d := timeline.NewDocument()
	video := timeline.NewTrack("V1", timeline.TrackVideo)
	audio := timeline.NewTrack("A1", timeline.TrackAudio)
	var err error
	if d, err = d.AddTrack(video); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	if d, err = d.AddTrack(audio); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}

	v := timeline.NewClip(video.ID, "v", timeline.Source{Kind: timeline.SourceVideo, NaturalDuration: vNatural}, vStart, vDur)
	a := timeline.NewClip(audio.ID, "a", timeline.Source{Kind: timeline.SourceAudio, NaturalDuration: aNatural}, aStart, aDur)
	var applied bool
	if d, applied, err = d.AddClip(v); err != nil || !applied {
		t.Fatalf("AddClip(v): applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.AddClip(a); err != nil || !applied {
		t.Fatalf("AddClip(a): applied=%v err=%v", applied, err)
	}
	if d, applied, err = d.LinkPair(v.ID, a.ID); err != nil || !applied {
		t.Fatalf("LinkPair: applied=%v err=%v", applied, err)
	}
	return d, v, a
}

func TestPropagateMoveMovesPartnerByExactDelta(t *testing.T) {
	d, v, a := pairFixture(t, 2, 5, 60, 2, 5, 60)

	d2, applied, err := PropagateMove(d, v.ID, 3)
	if err != nil || !applied {
		t.Fatalf("PropagateMove: applied=%v err=%v", applied, err)
	}
	gotV, _ := d2.ClipByID(v.ID)
	gotA, _ := d2.ClipByID(a.ID)
	if gotV.StartTime != 5 {
		t.Errorf("source start = %v, want 5", gotV.StartTime)
	}
	if gotA.StartTime != 5 {
		t.Errorf("partner start = %v, want moved by the same +3s", gotA.StartTime)
	}
}

func TestMembers(t *testing.T) {
	d, v, a := pairFixture(t, 0, 5, 60, 0, 5, 60)

	got := Members(d, v.ID)
	if len(got) != 2 || got[0] != v.ID || got[1] != a.ID {
		t.Errorf("Members = %v, want [%s %s]", got, v.ID, a.ID)
	}
	if got := Members(d, "ghost"); got != nil {
		t.Errorf("Members(missing) = %v, want nil", got)
	}
}

func TestTrimDeltaClamping(t *testing.T) {
	video := timeline.NewTrack("V1", timeline.TrackVideo)
	finite := timeline.NewClip(video.ID, "f", timeline.Source{Kind: timeline.SourceVideo, NaturalDuration: 10}, 5, 6)
	finite.InPoint, finite.OutPoint = 2, 8
	title := timeline.NewClip(video.ID, "t", timeline.Source{Kind: timeline.SourceText}, 1, 4)

	tests := []struct {
		name  string
		clip  timeline.Clip
		edge  Edge
		delta float64
		want  float64
	}{
		{"left inward free", finite, EdgeLeft, 2, 2},
		{"left inward capped at min duration", finite, EdgeLeft, 6.5, 5.9},
		{"left outward capped by source start", finite, EdgeLeft, -3, -2},
		{"right outward capped by source end", finite, EdgeRight, 5, 2},
		{"right inward capped at min duration", finite, EdgeRight, -6.5, -5.9},
		{"generative left outward capped by origin", title, EdgeLeft, -2, -1},
		{"generative right unbounded", title, EdgeRight, 500, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimDelta(tt.clip, tt.edge, tt.delta); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TrimDelta(%v) = %v, want %v", tt.delta, got, tt.want)
			}
		})
	}
}

func TestPropagateTrimRightClampsPerMember(t *testing.T) {
	// Video has 4s of tail room, audio only 1s: each member clamps against
	// its own source.
	d, v, a := pairFixture(t, 0, 6, 10, 0, 6, 7)

	d2, applied, err := PropagateTrim(d, v.ID, EdgeRight, 4)
	if err != nil || !applied {
		t.Fatalf("PropagateTrim: applied=%v err=%v", applied, err)
	}
	gotV, _ := d2.ClipByID(v.ID)
	gotA, _ := d2.ClipByID(a.ID)
	if gotV.OutPoint != 10 || gotV.Duration != 10 {
		t.Errorf("video = out %v dur %v, want extended to 10", gotV.OutPoint, gotV.Duration)
	}
	if gotA.OutPoint != 7 || gotA.Duration != 7 {
		t.Errorf("audio = out %v dur %v, want clamped at its own source end", gotA.OutPoint, gotA.Duration)
	}
}

func TestPropagateTrimLeftMovesStarts(t *testing.T) {
	d, v, a := pairFixture(t, 3, 6, 10, 3, 6, 10)

	d2, applied, err := PropagateTrim(d, v.ID, EdgeLeft, 2)
	if err != nil || !applied {
		t.Fatalf("PropagateTrim: applied=%v err=%v", applied, err)
	}
	for _, id := range []string{v.ID, a.ID} {
		got, _ := d2.ClipByID(id)
		if got.StartTime != 5 || got.InPoint != 2 || got.Duration != 4 {
			t.Errorf("clip %s = start %v in %v dur %v, want 5/2/4", got.Name, got.StartTime, got.InPoint, got.Duration)
		}
		if got.OutPoint != 6 {
			t.Errorf("clip %s out = %v, right edge must stay put", got.Name, got.OutPoint)
		}
	}
}

func TestPropagateTrimNoRoomIsNoOp(t *testing.T) {
	d, v, _ := pairFixture(t, 0, 10, 10, 0, 10, 10)

	// Both members already use the full source: extending right has no room
	// anywhere.
	_, applied, err := PropagateTrim(d, v.ID, EdgeRight, 3)
	if err != nil {
		t.Fatalf("PropagateTrim: %v", err)
	}
	if applied {
		t.Errorf("fully clamped trim must report applied=false")
	}

	if _, applied, err := PropagateTrim(d, "ghost", EdgeRight, 1); applied || err != nil {
		t.Errorf("missing source: applied=%v err=%v, want silent no-op", applied, err)
	}
}
