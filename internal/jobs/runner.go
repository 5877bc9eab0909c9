package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ansel1/merry/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/multicam"
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// Synchronizer runs one multicam alignment batch. The multicam service
// implements it.
type Synchronizer interface {
	SyncClips(ctx context.Context, master multicam.ClipRef, targets []multicam.ClipRef, onProgress func(percent int)) (*multicam.Report, error)
}

// Prober refreshes stored media metadata. The media registry implements it.
type Prober interface {
	Reprobe(ctx context.Context, id string) (*media.MediaFile, error)
}

type Runner struct {
	repo   Repository
	sync   Synchronizer
	prober Prober
	store  *store.Store
	logger *slog.Logger

	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewRunner(repo Repository, sync Synchronizer, prober Prober, st *store.Store, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		sync:         sync,
		prober:       prober,
		store:        st,
		logger:       logger,
		pollInterval: time.Second,
		cancels:      map[string]context.CancelFunc{},
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	if n, err := r.repo.FailInterrupted(ctx); err != nil {
		r.logger.Error("failed to sweep interrupted jobs", "error", err)
	} else if n > 0 {
		r.logger.Warn("marked interrupted jobs as failed", "count", n)
	}

	r.logger.Info("job runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("job runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("job runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

// EnqueueSync queues a multicam alignment for the given clips. The request is
// validated against the current document so a doomed job fails at the call
// site rather than later in the background.
func (r *Runner) EnqueueSync(ctx context.Context, masterClipID string, targetClipIDs []string) (*Job, error) {
	payload := SyncPayload{MasterClipID: masterClipID, TargetClipIDs: targetClipIDs}
	if _, _, err := syncRefs(r.store.Document(), payload); err != nil {
		return nil, err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return r.enqueue(ctx, TypeMulticamSync, data)
}

// EnqueueProbe queues a metadata refresh for a registered media file.
func (r *Runner) EnqueueProbe(ctx context.Context, mediaFileID string) (*Job, error) {
	if mediaFileID == "" {
		return nil, merry.Wrap(timeline.ErrInvalid, merry.AppendMessage("media file id required"))
	}

	data, err := json.Marshal(ProbePayload{MediaFileID: mediaFileID})
	if err != nil {
		return nil, err
	}
	return r.enqueue(ctx, TypeMediaProbe, data)
}

func (r *Runner) enqueue(ctx context.Context, jobType string, payload []byte) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.repo.Create(ctx, job); err != nil {
		return nil, err
	}

	r.logger.Info("job enqueued", "job_id", job.ID, "type", jobType)
	return job, nil
}

func (r *Runner) Get(ctx context.Context, id string) (*Job, error) {
	return r.repo.Get(ctx, id)
}

func (r *Runner) List(ctx context.Context, limit int) ([]*Job, error) {
	return r.repo.List(ctx, limit)
}

// Cancel stops a job: pending jobs are marked cancelled directly, running
// jobs have their context cancelled and settle as cancelled. Unknown IDs
// return nil, nil; jobs already settled come back unchanged.
func (r *Runner) Cancel(ctx context.Context, id string) (*Job, error) {
	job, err := r.repo.Get(ctx, id)
	if err != nil || job == nil {
		return job, err
	}

	switch job.Status {
	case StatusPending:
		if err := r.repo.UpdateStatus(ctx, id, StatusCancelled, "cancelled before start"); err != nil {
			return nil, err
		}
		r.logger.Info("job cancelled", "job_id", id)
	case StatusRunning:
		r.mu.Lock()
		cancel, ok := r.cancels[id]
		r.mu.Unlock()
		if ok {
			cancel()
			r.logger.Info("job cancellation requested", "job_id", id)
		}
	}

	return r.repo.Get(ctx, id)
}

// ActiveCount reports how many jobs are currently running, for status
// surfaces.
func (r *Runner) ActiveCount(ctx context.Context) int {
	jobs, err := r.repo.List(ctx, 100)
	if err != nil {
		return 0
	}
	count := 0
	for _, j := range jobs {
		if j.Status == StatusRunning {
			count++
		}
	}
	return count
}

func (r *Runner) processNextJob(ctx context.Context) {
	pending, err := r.repo.ListPending(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	job := pending[0]

	// Register the cancel hook before claiming so Cancel can always find a
	// job it observes as running.
	jobCtx, cancel := context.WithCancel(ctx)
	r.register(job.ID, cancel)
	defer r.release(job.ID)

	claimed, err := r.repo.Claim(ctx, job.ID)
	if err != nil {
		r.logger.Error("failed to claim job", "job_id", job.ID, "error", err)
		return
	}
	if !claimed {
		// Cancelled between listing and claiming.
		return
	}

	r.logger.Info("processing job", "job_id", job.ID, "type", job.Type)

	var runErr error
	switch job.Type {
	case TypeMulticamSync:
		runErr = r.runSync(jobCtx, job)
	case TypeMediaProbe:
		runErr = r.runProbe(jobCtx, job)
	default:
		r.logger.Warn("unknown job type", "type", job.Type)
		runErr = fmt.Errorf("unknown job type %q", job.Type)
	}

	switch {
	case runErr == nil:
		r.repo.UpdateStatus(ctx, job.ID, StatusCompleted, "")
		r.logger.Info("job completed", "job_id", job.ID, "type", job.Type)
	case ctx.Err() != nil:
		// Engine shutdown mid-job; the restart marks it failed.
		return
	case errors.Is(runErr, context.Canceled):
		r.repo.UpdateStatus(ctx, job.ID, StatusCancelled, "cancelled by user")
		r.logger.Info("job cancelled", "job_id", job.ID)
	default:
		r.repo.UpdateStatus(ctx, job.ID, StatusFailed, runErr.Error())
		r.logger.Error("job failed", "job_id", job.ID, "error", runErr)
	}
}

func (r *Runner) register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	cancel, ok := r.cancels[id]
	delete(r.cancels, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) runSync(ctx context.Context, job *Job) error {
	var payload SyncPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return merry.Prepend(err, "decoding sync payload")
	}

	// Clip geometry comes from the live document, not the enqueue-time one,
	// so edits made while the job waited are respected.
	master, targets, err := syncRefs(r.store.Document(), payload)
	if err != nil {
		return err
	}

	report, err := r.sync.SyncClips(ctx, master, targets, func(percent int) {
		// Progress goes to sqlite for pollers. Persisting it is not
		// cancellable work, hence the background context.
		if err := r.repo.UpdateProgress(context.Background(), job.ID, percent); err != nil {
			r.logger.Warn("failed to record job progress", "job_id", job.ID, "error", err)
		}
	})
	if err != nil {
		return err
	}

	// Fold the offsets into a linked group through the store so the whole
	// sync lands as one undoable step.
	clipIDs := append([]string{payload.MasterClipID}, payload.TargetClipIDs...)
	var group timeline.LinkedGroup
	_, err = r.store.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
		next, g, err := d.CreateGroup(clipIDs, report.Offsets)
		if err != nil {
			return d, false, err
		}
		group = g
		return next, true, nil
	})
	if err != nil {
		return merry.Prepend(err, "linking synced clips")
	}

	result, err := json.Marshal(SyncResult{GroupID: group.ID, Offsets: report.Offsets, Skipped: report.Skipped})
	if err != nil {
		return err
	}
	if err := r.repo.SetResult(ctx, job.ID, result); err != nil {
		return err
	}

	r.logger.Info("synced clips linked",
		"job_id", job.ID,
		"group_id", group.ID,
		"offsets", len(report.Offsets),
		"skipped", len(report.Skipped))
	return nil
}

func (r *Runner) runProbe(ctx context.Context, job *Job) error {
	var payload ProbePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return merry.Prepend(err, "decoding probe payload")
	}

	file, err := r.prober.Reprobe(ctx, payload.MediaFileID)
	if err != nil {
		return err
	}
	if file == nil {
		return fmt.Errorf("media file %s not found", payload.MediaFileID)
	}

	if err := r.repo.UpdateProgress(context.Background(), job.ID, 100); err != nil {
		r.logger.Warn("failed to record job progress", "job_id", job.ID, "error", err)
	}

	result, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return r.repo.SetResult(ctx, job.ID, result)
}

// syncRefs builds the synchronizer's view of the named clips. Targets that
// no longer exist are dropped silently (they may have been deleted while the
// job waited); a missing master is fatal to the request.
func syncRefs(doc timeline.Document, payload SyncPayload) (multicam.ClipRef, []multicam.ClipRef, error) {
	masterClip, ok := doc.ClipByID(payload.MasterClipID)
	if !ok {
		return multicam.ClipRef{}, nil, merry.Wrap(multicam.ErrPrecondition, merry.AppendMessage("master clip not found"))
	}
	if masterClip.Source.MediaFileID == "" {
		return multicam.ClipRef{}, nil, merry.Wrap(multicam.ErrPrecondition, merry.AppendMessage("master clip has no media reference"))
	}

	targets := make([]multicam.ClipRef, 0, len(payload.TargetClipIDs))
	for _, id := range lo.Uniq(payload.TargetClipIDs) {
		if id == payload.MasterClipID {
			continue
		}
		clip, ok := doc.ClipByID(id)
		if !ok {
			continue
		}
		targets = append(targets, refFor(clip))
	}
	if len(targets) == 0 {
		return multicam.ClipRef{}, nil, merry.Wrap(multicam.ErrPrecondition, merry.AppendMessage("no target clips to synchronise"))
	}

	return refFor(masterClip), targets, nil
}

func refFor(c timeline.Clip) multicam.ClipRef {
	return multicam.ClipRef{
		MediaFileID: c.Source.MediaFileID,
		ClipID:      c.ID,
		StartTime:   c.StartTime,
		InPoint:     c.InPoint,
		Duration:    c.Duration,
	}
}
