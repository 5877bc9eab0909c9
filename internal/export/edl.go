package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// PathResolver maps a media reference to a playable path. Returning false
// marks the clip unresolvable.
type PathResolver func(mediaFileID string) (string, bool)

// EventsFromDocument flattens the video tracks into one EDL event list.
// Record times come straight from clip positions, source times from the
// in/out points. Disabled clips and hidden tracks are left out; generative
// clips have no media to cut to and are reported as unresolved, as are
// clips whose media lookup fails.
func EventsFromDocument(doc timeline.Document, resolve PathResolver) ([]Event, []string) {
	videoTracks := mapset.NewSet[string]()
	for _, t := range doc.TracksOfKind(timeline.TrackVideo) {
		if t.Visible {
			videoTracks.Add(t.ID)
		}
	}

	events := make([]Event, 0)
	unresolved := make([]string, 0)
	for _, c := range doc.Clips {
		if !videoTracks.Contains(c.TrackID) || c.Disabled {
			continue
		}
		if c.Source.MediaFileID == "" {
			unresolved = append(unresolved, c.ID)
			continue
		}
		path, ok := resolve(c.Source.MediaFileID)
		if !ok {
			unresolved = append(unresolved, c.ID)
			continue
		}

		name := c.Name
		if name == "" {
			name = c.ID
		}
		events = append(events, Event{
			ClipName:    name,
			MediaPath:   path,
			SourceInMs:  toMs(c.InPoint),
			SourceOutMs: toMs(c.OutPoint),
			RecordInMs:  toMs(c.StartTime),
			RecordOutMs: toMs(c.EndTime()),
		})
	}

	// CMX event numbers follow record time; overlaps break by the later
	// clip's record-out so the order is still deterministic.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].RecordInMs != events[j].RecordInMs {
			return events[i].RecordInMs < events[j].RecordInMs
		}
		return events[i].RecordOutMs < events[j].RecordOutMs
	})
	return events, unresolved
}

func toMs(seconds float64) int {
	return int(math.Round(seconds * 1000))
}

// GenerateEDL renders a CMX3600 cut list for the given events.
func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		srcIn := msToTimecode(ev.SourceInMs, fps)
		srcOut := msToTimecode(ev.SourceOutMs, fps)
		recIn := msToTimecode(ev.RecordInMs, fps)
		recOut := msToTimecode(ev.RecordOutMs, fps)

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
