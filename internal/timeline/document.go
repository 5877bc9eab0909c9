package timeline

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MinClipDuration is the shortest a clip may become under any trim or split.
const MinClipDuration = 0.1

type Track struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Kind    TrackKind `json:"kind"`
	Order   int       `json:"order"`
	Height  int       `json:"height"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
	Muted   bool      `json:"muted"`
	Solo    bool      `json:"solo"`
}

// Source references what a clip plays. MediaFileID is an opaque handle into
// the media registry; the engine never decodes the file itself.
// NaturalDuration is zero for generative kinds.
type Source struct {
	Kind            SourceKind `json:"kind"`
	MediaFileID     string     `json:"mediaFileId,omitempty"`
	NaturalDuration float64    `json:"naturalDuration,omitempty"`
}

type Transform struct {
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Z        float64   `json:"z"`
	ScaleX   float64   `json:"scaleX"`
	ScaleY   float64   `json:"scaleY"`
	Rotation float64   `json:"rotation"`
	AnchorX  float64   `json:"anchorX"`
	AnchorY  float64   `json:"anchorY"`
	Opacity  float64   `json:"opacity"`
	Blend    BlendMode `json:"blend"`
}

func DefaultTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1, Opacity: 1, Blend: BlendNormal}
}

type Effect struct {
	ID      string             `json:"id"`
	Kind    string             `json:"kind"`
	Enabled bool               `json:"enabled"`
	Params  map[string]float64 `json:"params,omitempty"`
}

// Mask is opaque to the engine: it is round-tripped for the renderer.
type Mask struct {
	ID       string       `json:"id"`
	Mode     string       `json:"mode"`
	Feather  float64      `json:"feather"`
	Inverted bool         `json:"inverted"`
	Points   [][2]float64 `json:"points,omitempty"`
}

// Handle is a bezier tangent stored relative to its keyframe: DT seconds along
// the time axis, DV along the value axis.
type Handle struct {
	DT float64 `json:"dt"`
	DV float64 `json:"dv"`
}

type Keyframe struct {
	ID       string   `json:"id"`
	Property Property `json:"property"`
	Time     float64  `json:"time"`
	Value    float64  `json:"value"`
	Easing   Easing   `json:"easing"`
	Out      *Handle  `json:"out,omitempty"`
	In       *Handle  `json:"in,omitempty"`
}

type Clip struct {
	ID        string  `json:"id"`
	TrackID   string  `json:"trackId"`
	Name      string  `json:"name"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
	InPoint   float64 `json:"inPoint"`
	OutPoint  float64 `json:"outPoint"`

	Source    Source     `json:"source"`
	Transform Transform  `json:"transform"`
	Effects   []Effect   `json:"effects,omitempty"`
	Masks     []Mask     `json:"masks,omitempty"`
	Keyframes []Keyframe `json:"keyframes,omitempty"`

	LinkedClipID  string `json:"linkedClipId,omitempty"`
	LinkedGroupID string `json:"linkedGroupId,omitempty"`
	ParentClipID  string `json:"parentClipId,omitempty"`

	Reversed     bool    `json:"reversed,omitempty"`
	Disabled     bool    `json:"disabled,omitempty"`
	Volume       float64 `json:"volume"`
	AudioEnabled bool    `json:"audioEnabled"`
}

// EndTime is the clip's exclusive right edge on the timeline.
func (c Clip) EndTime() float64 {
	return c.StartTime + c.Duration
}

type Marker struct {
	ID    string  `json:"id"`
	Time  float64 `json:"time"`
	Label string  `json:"label"`
	Color string  `json:"color,omitempty"`
}

// GroupMember pins a clip at a fixed offset (seconds) from the group master.
// Offsets are set once at group creation and never recomputed by edits.
type GroupMember struct {
	ClipID string  `json:"clipId"`
	Offset float64 `json:"offset"`
}

type LinkedGroup struct {
	ID       string        `json:"id"`
	MasterID string        `json:"masterId"`
	Members  []GroupMember `json:"members"`
}

// ViewState travels with the project file so a reopened timeline looks the
// way it was left. Nothing in here affects rendered output.
type ViewState struct {
	Playhead    float64  `json:"playhead"`
	WorkIn      *float64 `json:"workIn,omitempty"`
	WorkOut     *float64 `json:"workOut,omitempty"`
	Zoom        float64  `json:"zoom"`
	ScrollX     float64  `json:"scrollX"`
	ScrollY     float64  `json:"scrollY"`
	Playing     bool     `json:"playing"`
	SnapEnabled bool     `json:"snapEnabled"`
	CutTool     bool     `json:"cutTool"`
}

// Document is one immutable revision of the whole timeline. Mutations in this
// package return a fresh value and never touch the input, so older revisions
// stay valid on undo stacks.
type Document struct {
	Revision int64         `json:"revision"`
	Tracks   []Track       `json:"tracks"`
	Clips    []Clip        `json:"clips"`
	Markers  []Marker      `json:"markers"`
	Groups   []LinkedGroup `json:"groups"`
	View     ViewState     `json:"view"`
}

func NewDocument() Document {
	return Document{
		View: ViewState{Zoom: 100, SnapEnabled: true},
	}
}

func NewID() string {
	return uuid.NewString()
}

// NewTrack builds an unattached track; AddTrack assigns its order.
func NewTrack(name string, kind TrackKind) Track {
	return Track{
		ID:      NewID(),
		Name:    name,
		Kind:    kind,
		Height:  48,
		Visible: true,
	}
}

// NewClip builds a clip with library defaults. OutPoint falls back to the
// source natural duration (finite) or duration-from-zero (generative).
func NewClip(trackID, name string, source Source, startTime, duration float64) Clip {
	return Clip{
		ID:           NewID(),
		TrackID:      trackID,
		Name:         name,
		StartTime:    startTime,
		Duration:     duration,
		InPoint:      0,
		OutPoint:     duration,
		Source:       source,
		Transform:    DefaultTransform(),
		Volume:       1,
		AudioEnabled: source.Kind == SourceAudio || source.Kind == SourceVideo,
	}
}

func (d Document) TrackByID(id string) (Track, bool) {
	return lo.Find(d.Tracks, func(t Track) bool { return t.ID == id })
}

func (d Document) ClipByID(id string) (Clip, bool) {
	return lo.Find(d.Clips, func(c Clip) bool { return c.ID == id })
}

func (d Document) MarkerByID(id string) (Marker, bool) {
	return lo.Find(d.Markers, func(m Marker) bool { return m.ID == id })
}

func (d Document) GroupByID(id string) (LinkedGroup, bool) {
	return lo.Find(d.Groups, func(g LinkedGroup) bool { return g.ID == id })
}

// ClipsOnTrack returns the track's clips ordered by start time.
func (d Document) ClipsOnTrack(trackID string) []Clip {
	clips := lo.Filter(d.Clips, func(c Clip, _ int) bool { return c.TrackID == trackID })
	sortClipsByStart(clips)
	return clips
}

// TracksOfKind returns one kind partition in layer order.
func (d Document) TracksOfKind(kind TrackKind) []Track {
	tracks := lo.Filter(d.Tracks, func(t Track, _ int) bool { return t.Kind == kind })
	sortTracksByOrder(tracks)
	return tracks
}

// LinkedWith returns the ids of every clip constrained to move with clipID:
// the AV pair partner and all fellow group members, excluding clipID itself.
func (d Document) LinkedWith(clipID string) []string {
	clip, ok := d.ClipByID(clipID)
	if !ok {
		return nil
	}
	var ids []string
	if clip.LinkedClipID != "" {
		ids = append(ids, clip.LinkedClipID)
	}
	if clip.LinkedGroupID != "" {
		if group, ok := d.GroupByID(clip.LinkedGroupID); ok {
			for _, m := range group.Members {
				if m.ClipID != clipID {
					ids = append(ids, m.ClipID)
				}
			}
		}
	}
	return lo.Uniq(ids)
}

// Duration is the exclusive right edge of the last clip, or zero when empty.
func (d Document) Duration() float64 {
	if len(d.Clips) == 0 {
		return 0
	}
	last := lo.MaxBy(d.Clips, func(a, b Clip) bool { return a.EndTime() > b.EndTime() })
	return last.EndTime()
}

// bump returns the document with the revision counter advanced. Every applied
// mutation funnels through here exactly once.
func (d Document) bump() Document {
	d.Revision++
	return d
}

// replaceClip swaps one clip by id into a copied clip slice.
func (d Document) replaceClip(updated Clip) Document {
	d.Clips = lo.Map(d.Clips, func(c Clip, _ int) Clip {
		if c.ID == updated.ID {
			return updated
		}
		return c
	})
	return d
}

func (d Document) replaceTrack(updated Track) Document {
	d.Tracks = lo.Map(d.Tracks, func(t Track, _ int) Track {
		if t.ID == updated.ID {
			return updated
		}
		return t
	})
	return d
}

func (d Document) replaceGroup(updated LinkedGroup) Document {
	d.Groups = lo.Map(d.Groups, func(g LinkedGroup, _ int) LinkedGroup {
		if g.ID == updated.ID {
			return updated
		}
		return g
	})
	return d
}
