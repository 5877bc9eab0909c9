package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/cutroom/cutroom-engine/internal/ffmpeg"
	"github.com/cutroom/cutroom-engine/internal/jobs"
	"github.com/cutroom/cutroom-engine/internal/linked"
	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/multicam"
	"github.com/cutroom/cutroom-engine/internal/project"
	"github.com/cutroom/cutroom-engine/internal/session"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// The document model is JSON-first, so domain values go over the wire as
// they are. Schemas here cover requests and the few shaped responses.

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptimeS"`
	DeviceID string `json:"deviceId"`
}

type StatusResponse struct {
	State       string               `json:"state"`
	Revision    int64                `json:"revision"`
	Project     *ProjectResponse     `json:"project,omitempty"`
	LastError   string               `json:"lastError,omitempty"`
	MediaCount  int                  `json:"mediaCount"`
	JobsRunning int                  `json:"jobsRunning"`
	ActiveJob   *jobs.Job            `json:"activeJob,omitempty"`
	Toolchain   *ffmpeg.Capabilities `json:"toolchain,omitempty"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Revision  int64  `json:"revision"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type SaveProjectRequest struct {
	Name string `json:"name"`
}

type AddTrackRequest struct {
	Name string             `json:"name"`
	Kind timeline.TrackKind `json:"kind"`
}

type ReorderTrackRequest struct {
	Order int `json:"order"`
}

type AddClipRequest struct {
	TrackID   string          `json:"trackId"`
	Name      string          `json:"name"`
	Source    timeline.Source `json:"source"`
	StartTime float64         `json:"startTime"`
	Duration  float64         `json:"duration"`
}

type MoveClipRequest struct {
	StartTime  float64 `json:"startTime"`
	TrackID    string  `json:"trackId,omitempty"`
	SkipLinked bool    `json:"skipLinked,omitempty"`
}

type TrimClipRequest struct {
	InPoint  float64 `json:"inPoint"`
	OutPoint float64 `json:"outPoint"`
}

type SplitClipRequest struct {
	// Time is clip-local, measured from the clip's left edge.
	Time float64 `json:"time"`
}

type SetParentRequest struct {
	ParentID string `json:"parentId"`
}

type SetPropertyRequest struct {
	Property timeline.Property `json:"property"`
	Value    float64           `json:"value"`
}

type MoveKeyframeRequest struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// CreatedResponse is the mutation outcome for endpoints that mint an entity.
type CreatedResponse struct {
	Applied  bool   `json:"applied"`
	Revision int64  `json:"revision"`
	ID       string `json:"id"`
}

type LinkPairRequest struct {
	PartnerID string `json:"partnerId"`
}

type CreateGroupRequest struct {
	ClipIDs   []string           `json:"clipIds"`
	OffsetsMs map[string]float64 `json:"offsetsMs"`
}

type CreateGroupResponse struct {
	Applied  bool                 `json:"applied"`
	Revision int64                `json:"revision"`
	Group    timeline.LinkedGroup `json:"group"`
}

type PlayheadRequest struct {
	Time float64 `json:"time"`
}

type ZoomRequest struct {
	PxPerSecond float64 `json:"pxPerSecond"`
}

type ScrollRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

type PlayingRequest struct {
	Playing bool `json:"playing"`
}

type WorkAreaRequest struct {
	In  *float64 `json:"in"`
	Out *float64 `json:"out"`
}

type EvaluateResponse struct {
	ClipID     string             `json:"clipId"`
	Time       float64            `json:"time"`
	Transform  timeline.Transform `json:"transform"`
	Effects    []timeline.Effect  `json:"effects,omitempty"`
	Volume     float64            `json:"volume"`
	SourceTime float64            `json:"sourceTime"`
}

type ModifiersRequest struct {
	DisableSnap bool `json:"disableSnap,omitempty"`
	Independent bool `json:"independent,omitempty"`
	Additive    bool `json:"additive,omitempty"`
}

func (m ModifiersRequest) toModifiers() session.Modifiers {
	return session.Modifiers{
		DisableSnap: m.DisableSnap,
		Independent: m.Independent,
		Additive:    m.Additive,
	}
}

type BeginDragRequest struct {
	ClipID string  `json:"clipId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type PointerRequest struct {
	X    float64          `json:"x"`
	Y    float64          `json:"y"`
	Mods ModifiersRequest `json:"mods"`
}

type BeginTrimRequest struct {
	ClipID string      `json:"clipId"`
	Edge   linked.Edge `json:"edge"`
	X      float64     `json:"x"`
}

type BeginRulerRequest struct {
	// MarkerID empty means the playhead.
	MarkerID string  `json:"markerId,omitempty"`
	X        float64 `json:"x"`
}

type SessionStartedResponse struct {
	Started bool `json:"started"`
}

type CancelledResponse struct {
	Cancelled bool `json:"cancelled"`
}

type SelectionResponse struct {
	ClipIDs   []string              `json:"clipIds"`
	Keyframes []session.KeyframeRef `json:"keyframes,omitempty"`
}

type SelectRequest struct {
	ClipIDs []string `json:"clipIds"`
}

type ToggleSelectRequest struct {
	ClipID string `json:"clipId"`
}

type SyncRequest struct {
	MasterClipID  string   `json:"masterClipId"`
	TargetClipIDs []string `json:"targetClipIds"`
}

type JobsResponse struct {
	Jobs []*jobs.Job `json:"jobs"`
}

type RegisterMediaRequest struct {
	Path string `json:"path"`
}

type MediaResponse struct {
	Files []*media.MediaFile `json:"files"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		Revision:  p.Revision,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}

// writeDomainError maps the mutation error taxonomy onto HTTP statuses:
// structural invalidity 400, sync preconditions 422, gesture state
// conflicts 409.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timeline.ErrInvalid), errors.Is(err, timeline.ErrCycle):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID")
	case errors.Is(err, multicam.ErrPrecondition):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "PRECONDITION_FAILED")
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrSessionActive):
		WriteError(w, http.StatusConflict, err.Error(), "SESSION_CONFLICT")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
