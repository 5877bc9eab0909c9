// Package jobs runs the engine's long background work off the interactive
// path: multicam audio sync and media re-probes. Jobs live in sqlite so they
// survive restarts; work interrupted by a crash is marked failed on the next
// start. Running jobs can be cancelled explicitly rather than orphaned.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/cutroom/cutroom-engine/internal/multicam"
)

const (
	TypeMulticamSync = "multicam_sync"
	TypeMediaProbe   = "media_probe"

	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Terminal reports whether the job can no longer change state.
func (j *Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed || j.Status == StatusCancelled
}

// SyncPayload names the clips taking part in a multicam sync. Clip geometry
// is resolved from the live document when the job runs, not when it is
// enqueued, so edits made while the job waits are respected.
type SyncPayload struct {
	MasterClipID  string   `json:"masterClipId"`
	TargetClipIDs []string `json:"targetClipIds"`
}

// SyncResult is stored on the job once the offsets are folded into a group.
type SyncResult struct {
	GroupID string             `json:"groupId"`
	Offsets map[string]float64 `json:"offsets"`
	Skipped []multicam.Skip    `json:"skipped,omitempty"`
}

type ProbePayload struct {
	MediaFileID string `json:"mediaFileId"`
}
