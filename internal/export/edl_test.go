package export

import (
	"strings"
	"testing"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

func buildDoc(t *testing.T) (timeline.Document, []timeline.Clip) {
	t.Helper()

	doc := timeline.NewDocument()
	video := timeline.NewTrack("V1", timeline.TrackVideo)
	doc, err := doc.AddTrack(video)
	if err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}
	audio := timeline.NewTrack("A1", timeline.TrackAudio)
	doc, err = doc.AddTrack(audio)
	if err != nil {
		t.Fatalf("AddTrack() error = %v", err)
	}

	clips := []timeline.Clip{
		timeline.NewClip(video.ID, "Intro", timeline.Source{
			Kind: timeline.SourceVideo, MediaFileID: "mf-intro", NaturalDuration: 30,
		}, 0, 2),
		timeline.NewClip(video.ID, "Interview", timeline.Source{
			Kind: timeline.SourceVideo, MediaFileID: "mf-interview", NaturalDuration: 120,
		}, 2, 1.5),
		timeline.NewClip(audio.ID, "Music", timeline.Source{
			Kind: timeline.SourceAudio, MediaFileID: "mf-music", NaturalDuration: 180,
		}, 0, 4),
	}
	for _, c := range clips {
		var applied bool
		doc, applied, err = doc.AddClip(c)
		if err != nil || !applied {
			t.Fatalf("AddClip(%s) applied=%v error = %v", c.Name, applied, err)
		}
	}
	return doc, clips
}

func resolveAll(string) (string, bool) { return "/media/file.mp4", true }

func TestEventsFromDocument(t *testing.T) {
	doc, _ := buildDoc(t)

	events, unresolved := EventsFromDocument(doc, func(id string) (string, bool) {
		return "/media/" + id + ".mp4", true
	})

	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v, want none", unresolved)
	}
	// Audio clip is not a video event.
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].ClipName != "Intro" || events[1].ClipName != "Interview" {
		t.Errorf("event order = [%s, %s], want [Intro, Interview]", events[0].ClipName, events[1].ClipName)
	}
	if events[0].RecordInMs != 0 || events[0].RecordOutMs != 2000 {
		t.Errorf("Intro record window = [%d, %d], want [0, 2000]", events[0].RecordInMs, events[0].RecordOutMs)
	}
	if events[1].RecordInMs != 2000 || events[1].RecordOutMs != 3500 {
		t.Errorf("Interview record window = [%d, %d], want [2000, 3500]", events[1].RecordInMs, events[1].RecordOutMs)
	}
	if events[0].MediaPath != "/media/mf-intro.mp4" {
		t.Errorf("Intro media path = %s", events[0].MediaPath)
	}
}

func TestEventsFromDocument_SourceWindow(t *testing.T) {
	doc, clips := buildDoc(t)

	// Trim the first clip into the middle of its source.
	doc, applied, err := doc.TrimClip(clips[0].ID, 1.0, 2.5)
	if err != nil || !applied {
		t.Fatalf("TrimClip() applied=%v error = %v", applied, err)
	}

	events, _ := EventsFromDocument(doc, resolveAll)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].SourceInMs != 1000 || events[0].SourceOutMs != 2500 {
		t.Errorf("source window = [%d, %d], want [1000, 2500]", events[0].SourceInMs, events[0].SourceOutMs)
	}
}

func TestEventsFromDocument_SkipsDisabledAndGenerative(t *testing.T) {
	doc, clips := buildDoc(t)

	doc, applied, err := doc.UpdateClip(clips[1].ID, timeline.ClipPatch{Disabled: boolPtr(true)})
	if err != nil || !applied {
		t.Fatalf("UpdateClip() applied=%v error = %v", applied, err)
	}
	title := timeline.NewClip(doc.Tracks[0].ID, "Title Card", timeline.Source{
		Kind: timeline.SourceText,
	}, 5, 3)
	doc, applied, err = doc.AddClip(title)
	if err != nil || !applied {
		t.Fatalf("AddClip() applied=%v error = %v", applied, err)
	}

	events, unresolved := EventsFromDocument(doc, resolveAll)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1 (disabled and generative skipped)", len(events))
	}
	if len(unresolved) != 1 || unresolved[0] != title.ID {
		t.Errorf("unresolved = %v, want [%s]", unresolved, title.ID)
	}
}

func TestEventsFromDocument_UnresolvableMedia(t *testing.T) {
	doc, clips := buildDoc(t)

	events, unresolved := EventsFromDocument(doc, func(id string) (string, bool) {
		if id == "mf-interview" {
			return "", false
		}
		return "/media/" + id + ".mp4", true
	})

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if len(unresolved) != 1 || unresolved[0] != clips[1].ID {
		t.Errorf("unresolved = %v, want [%s]", unresolved, clips[1].ID)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestGenerateEDL_SingleEvent(t *testing.T) {
	events := []Event{{
		ClipName:    "Intro",
		MediaPath:   "/media/intro.mp4",
		SourceInMs:  0,
		SourceOutMs: 2000,
		RecordInMs:  0,
		RecordOutMs: 2000,
	}}

	edl := GenerateEDL(events, "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title in EDL: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00") {
		t.Fatalf("missing event line: %q", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Intro") {
		t.Fatalf("missing clip name comment: %q", edl)
	}
	if !strings.Contains(edl, "* MEDIA PATH:  /media/intro.mp4") {
		t.Fatalf("missing media path comment: %q", edl)
	}
}

func TestGenerateEDL_RecordTimesFollowPositions(t *testing.T) {
	events := []Event{
		{ClipName: "Clip A", MediaPath: "/a.mp4", SourceInMs: 0, SourceOutMs: 1000, RecordInMs: 0, RecordOutMs: 1000},
		{ClipName: "Clip B", MediaPath: "/b.mp4", SourceInMs: 1000, SourceOutMs: 2500, RecordInMs: 2000, RecordOutMs: 3500},
	}

	edl := GenerateEDL(events, "Gaps", 30.0)

	if !strings.Contains(edl, "001  AX       V     C        00:00:00:00 00:00:01:00 00:00:00:00 00:00:01:00") {
		t.Fatalf("first event line mismatch: %q", edl)
	}
	// The gap between clips survives into the record column.
	if !strings.Contains(edl, "002  AX       V     C        00:00:01:00 00:00:02:15 00:00:02:00 00:00:03:15") {
		t.Fatalf("second event line mismatch: %q", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	events := []Event{{ClipName: "Clip", MediaPath: "/x.mp4", SourceOutMs: 1000, RecordOutMs: 1000}}
	edl := GenerateEDL(events, "Drop", 29.97)

	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM, got: %q", edl)
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		name string
		ms   int
		fps  int
		want string
	}{
		{name: "zero", ms: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", ms: 1000, fps: 30, want: "00:00:01:00"},
		{name: "fractional second", ms: 500, fps: 30, want: "00:00:00:15"},
		{name: "one minute", ms: 60000, fps: 30, want: "00:01:00:00"},
		{name: "one hour", ms: 3600000, fps: 30, want: "01:00:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := msToTimecode(tc.ms, tc.fps)
			if got != tc.want {
				t.Fatalf("msToTimecode(%d, %d) = %q, want %q", tc.ms, tc.fps, got, tc.want)
			}
		})
	}
}
