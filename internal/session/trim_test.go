package session

import (
	"errors"
	"testing"

	"github.com/cutroom/cutroom-engine/internal/linked"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// Pair fixture: video holds a 6 s window [2,8) of a 10 s source, audio holds
// its full 7 s source. Both sit at 5 s on the timeline.
func trimPairFixture(t *testing.T) (*gestureFixture, timeline.Clip, timeline.Clip) {
	t.Helper()
	f := newGestureFixture(t)

	v := timeline.NewClip(f.v1, "v", timeline.Source{Kind: timeline.SourceVideo, MediaFileID: timeline.NewID(), NaturalDuration: 10}, 5, 6)
	v.InPoint = 2
	v.OutPoint = 8
	a := timeline.NewClip(f.a1, "a", timeline.Source{Kind: timeline.SourceAudio, MediaFileID: timeline.NewID(), NaturalDuration: 7}, 5, 7)

	d := f.st.Document()
	for _, c := range []timeline.Clip{v, a} {
		var applied bool
		var err error
		d, applied, err = d.AddClip(c)
		if err != nil || !applied {
			t.Fatalf("add clip: applied=%v err=%v", applied, err)
		}
	}
	d, applied, err := d.LinkPair(v.ID, a.ID)
	if err != nil || !applied {
		t.Fatalf("link pair: applied=%v err=%v", applied, err)
	}
	f.st.Replace(d)
	return f, v, a
}

func TestTrimRightEdgeClampsPerMember(t *testing.T) {
	f, v, a := trimPairFixture(t)

	started, err := f.m.BeginTrim(v.ID, linked.EdgeRight, pxAt(11))
	if err != nil || !started {
		t.Fatalf("BeginTrim: started=%v err=%v", started, err)
	}

	// Pointer asks for +4 s; the video source only has 2 s of tail left.
	got, err := f.m.UpdateTrim(pxAt(15), Modifiers{})
	if err != nil {
		t.Fatalf("UpdateTrim: %v", err)
	}
	if got.Delta != 2.0 {
		t.Errorf("delta = %v, want 2.0", got.Delta)
	}
	vw := got.Members[v.ID]
	if vw.OutPoint != 10 || vw.Duration != 8 || vw.Start != 5 {
		t.Errorf("video window = %+v, want out 10 dur 8 start 5", vw)
	}
	// The audio partner is already at its source end, so it stays put.
	aw := got.Members[a.ID]
	if aw.OutPoint != 7 || aw.Duration != 7 {
		t.Errorf("audio window = %+v, want out 7 dur 7", aw)
	}

	res, err := f.m.CommitTrim()
	if err != nil || !res.Applied {
		t.Fatalf("CommitTrim: applied=%v err=%v", res.Applied, err)
	}
	if got := f.clip(t, v.ID); got.OutPoint != 10 || got.Duration != 8 {
		t.Errorf("video after commit = out %v dur %v, want out 10 dur 8", got.OutPoint, got.Duration)
	}
	if got := f.clip(t, a.ID); got.OutPoint != 7 || got.Duration != 7 {
		t.Errorf("audio after commit = out %v dur %v, want unchanged", got.OutPoint, got.Duration)
	}

	if _, ok := f.st.Undo(); !ok {
		t.Fatal("expected trim commit to be undoable")
	}
	if got := f.clip(t, v.ID); got.OutPoint != 8 || got.Duration != 6 {
		t.Errorf("video after undo = out %v dur %v, want out 8 dur 6", got.OutPoint, got.Duration)
	}
}

func TestTrimLeftEdgeMovesStartWithInPoint(t *testing.T) {
	f, v, a := trimPairFixture(t)

	if _, err := f.m.BeginTrim(v.ID, linked.EdgeLeft, pxAt(5)); err != nil {
		t.Fatalf("BeginTrim: %v", err)
	}
	got, err := f.m.UpdateTrim(pxAt(6), Modifiers{})
	if err != nil {
		t.Fatalf("UpdateTrim: %v", err)
	}
	if got.Delta != 1.0 {
		t.Errorf("delta = %v, want 1.0", got.Delta)
	}
	vw := got.Members[v.ID]
	if vw.Start != 6 || vw.InPoint != 3 || vw.Duration != 5 || vw.OutPoint != 8 {
		t.Errorf("video window = %+v, want start 6 in 3 dur 5 out 8", vw)
	}
	aw := got.Members[a.ID]
	if aw.Start != 6 || aw.InPoint != 1 || aw.Duration != 6 {
		t.Errorf("audio window = %+v, want start 6 in 1 dur 6", aw)
	}

	res, err := f.m.CommitTrim()
	if err != nil || !res.Applied {
		t.Fatalf("CommitTrim: applied=%v err=%v", res.Applied, err)
	}
	gotV := f.clip(t, v.ID)
	if gotV.StartTime != 6 || gotV.InPoint != 3 || gotV.Duration != 5 {
		t.Errorf("video after commit = start %v in %v dur %v, want 6/3/5", gotV.StartTime, gotV.InPoint, gotV.Duration)
	}
	gotA := f.clip(t, a.ID)
	if gotA.StartTime != 6 || gotA.InPoint != 1 || gotA.Duration != 6 {
		t.Errorf("audio after commit = start %v in %v dur %v, want 6/1/6", gotA.StartTime, gotA.InPoint, gotA.Duration)
	}

	// Trim plus the start move lands as one undo step for both clips.
	if _, ok := f.st.Undo(); !ok {
		t.Fatal("expected trim commit to be undoable")
	}
	gotV = f.clip(t, v.ID)
	if gotV.StartTime != 5 || gotV.InPoint != 2 || gotV.Duration != 6 {
		t.Errorf("video after undo = start %v in %v dur %v, want 5/2/6", gotV.StartTime, gotV.InPoint, gotV.Duration)
	}
	gotA = f.clip(t, a.ID)
	if gotA.StartTime != 5 || gotA.InPoint != 0 || gotA.Duration != 7 {
		t.Errorf("audio after undo = start %v in %v dur %v, want 5/0/7", gotA.StartTime, gotA.InPoint, gotA.Duration)
	}
}

func TestTrimIndependentLeavesPartner(t *testing.T) {
	f, v, a := trimPairFixture(t)

	if _, err := f.m.BeginTrim(v.ID, linked.EdgeLeft, pxAt(5)); err != nil {
		t.Fatalf("BeginTrim: %v", err)
	}
	got, err := f.m.UpdateTrim(pxAt(6), Modifiers{Independent: true})
	if err != nil {
		t.Fatalf("UpdateTrim: %v", err)
	}
	if len(got.Members) != 1 {
		t.Errorf("members = %v, want only the grabbed clip", got.Members)
	}

	res, err := f.m.CommitTrim()
	if err != nil || !res.Applied {
		t.Fatalf("CommitTrim: applied=%v err=%v", res.Applied, err)
	}
	if got := f.clip(t, v.ID); got.StartTime != 6 || got.InPoint != 3 {
		t.Errorf("video after commit = start %v in %v, want 6/3", got.StartTime, got.InPoint)
	}
	if got := f.clip(t, a.ID); got.StartTime != 5 || got.InPoint != 0 || got.Duration != 7 {
		t.Errorf("audio must be untouched, got start %v in %v dur %v", got.StartTime, got.InPoint, got.Duration)
	}
}

func TestTrimSessionLifecycle(t *testing.T) {
	f := newGestureFixture(t)
	c := f.addClip(t, f.v1, timeline.SourceVideo, 0, 4, 10)

	if _, err := f.m.UpdateTrim(0, Modifiers{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("UpdateTrim without session: err = %v, want ErrNoSession", err)
	}
	started, err := f.m.BeginTrim("ghost", linked.EdgeRight, 0)
	if err != nil || started {
		t.Errorf("BeginTrim on missing clip = (%v, %v), want (false, nil)", started, err)
	}

	if _, err := f.m.BeginTrim(c.ID, linked.EdgeRight, pxAt(4)); err != nil {
		t.Fatalf("BeginTrim: %v", err)
	}
	if _, err := f.m.BeginTrim(c.ID, linked.EdgeLeft, pxAt(0)); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second BeginTrim: err = %v, want ErrSessionActive", err)
	}
	if !f.m.CancelTrim() {
		t.Error("CancelTrim with live session = false, want true")
	}
	if got := f.clip(t, c.ID); got.Duration != 4 {
		t.Errorf("after cancel, duration = %v, want 4", got.Duration)
	}
}
