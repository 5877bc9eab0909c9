package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ansel1/merry/v2"

	"github.com/cutroom/cutroom-engine/internal/db"
	"github.com/cutroom/cutroom-engine/internal/media"
	"github.com/cutroom/cutroom-engine/internal/multicam"
	"github.com/cutroom/cutroom-engine/internal/proxy"
	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

type fakeSync struct {
	calls  atomic.Int32
	syncFn func(ctx context.Context, master multicam.ClipRef, targets []multicam.ClipRef, onProgress func(int)) (*multicam.Report, error)
}

func (f *fakeSync) SyncClips(ctx context.Context, master multicam.ClipRef, targets []multicam.ClipRef, onProgress func(int)) (*multicam.Report, error) {
	f.calls.Add(1)
	if f.syncFn != nil {
		return f.syncFn(ctx, master, targets, onProgress)
	}

	report := &multicam.Report{Offsets: map[string]float64{}}
	for _, tgt := range targets {
		report.Offsets[tgt.ClipID] = 1500
	}
	if onProgress != nil {
		onProgress(0)
		onProgress(100)
	}
	return report, nil
}

type fakeProber struct {
	calls   atomic.Int32
	probeFn func(ctx context.Context, id string) (*media.MediaFile, error)
}

func (f *fakeProber) Reprobe(ctx context.Context, id string) (*media.MediaFile, error) {
	f.calls.Add(1)
	if f.probeFn != nil {
		return f.probeFn(ctx, id)
	}
	return &media.MediaFile{
		ID:          id,
		Kind:        media.KindVideo,
		Duration:    42,
		HasAudio:    true,
		Online:      true,
		ProxyStatus: proxy.StatusNone,
	}, nil
}

func setupRunnerTest(t *testing.T, sync Synchronizer, prober Prober) (*Runner, Repository, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	database, err := db.New(dbPath, discardLogger())
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := NewRepository(database.Conn())
	st := store.New(nil)
	runner := NewRunner(repo, sync, prober, st, testLogger())
	return runner, repo, st
}

// seedSyncClips puts three camera clips on one track, master first.
func seedSyncClips(t *testing.T, st *store.Store) (master string, targets []string) {
	t.Helper()

	track := timeline.NewTrack("V1", timeline.TrackVideo)
	_, err := st.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
		d, err := d.AddTrack(track)
		return d, err == nil, err
	})
	if err != nil {
		t.Fatalf("seed track: %v", err)
	}

	ids := make([]string, 0, 3)
	for i, mf := range []string{"mf-a", "mf-b", "mf-c"} {
		clip := timeline.NewClip(track.ID, mf, timeline.Source{
			Kind:            timeline.SourceVideo,
			MediaFileID:     mf,
			NaturalDuration: 60,
		}, float64(10+30*i), 20)
		_, err := st.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
			return d.AddClip(clip)
		})
		if err != nil {
			t.Fatalf("seed clip %s: %v", mf, err)
		}
		ids = append(ids, clip.ID)
	}
	return ids[0], ids[1:]
}

func TestRunner_SyncJobLifecycle(t *testing.T) {
	sync := &fakeSync{}
	runner, repo, st := setupRunnerTest(t, sync, &fakeProber{})
	master, targets := seedSyncClips(t, st)
	ctx := context.Background()

	job, err := runner.EnqueueSync(ctx, master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}
	if job.Status != StatusPending {
		t.Fatalf("enqueued status = %s, want pending", job.Status)
	}

	runner.processNextJob(ctx)

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("job status = %s (%s), want completed", done.Status, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("job progress = %d, want 100", done.Progress)
	}
	if sync.calls.Load() != 1 {
		t.Errorf("synchronizer called %d times, want 1", sync.calls.Load())
	}

	var result SyncResult
	if err := json.Unmarshal(done.Result, &result); err != nil {
		t.Fatalf("result unmarshal error = %v", err)
	}
	if result.GroupID == "" {
		t.Fatal("result has no group id")
	}
	if len(result.Offsets) != 2 {
		t.Errorf("result offsets = %d entries, want 2", len(result.Offsets))
	}

	doc := st.Document()
	group, ok := doc.GroupByID(result.GroupID)
	if !ok {
		t.Fatal("group missing from document")
	}
	if group.MasterID != master {
		t.Errorf("group master = %s, want %s", group.MasterID, master)
	}
	if len(group.Members) != 3 {
		t.Errorf("group members = %d, want 3", len(group.Members))
	}

	// Master stayed put, targets moved to master start + 1.5s.
	masterClip, _ := doc.ClipByID(master)
	if masterClip.StartTime != 10 {
		t.Errorf("master start = %v, want 10", masterClip.StartTime)
	}
	for _, id := range targets {
		clip, _ := doc.ClipByID(id)
		if clip.StartTime != 11.5 {
			t.Errorf("target %s start = %v, want 11.5", id, clip.StartTime)
		}
	}

	// The whole sync is one undoable step.
	if !st.CanUndo() {
		t.Fatal("sync result is not undoable")
	}
	undone, ok := st.Undo()
	if !ok {
		t.Fatal("Undo() did not apply")
	}
	if len(undone.Groups) != 0 {
		t.Errorf("groups after undo = %d, want 0", len(undone.Groups))
	}
}

func TestRunner_EnqueueSync_Preconditions(t *testing.T) {
	runner, _, st := setupRunnerTest(t, &fakeSync{}, &fakeProber{})
	master, targets := seedSyncClips(t, st)

	tests := []struct {
		name    string
		master  string
		targets []string
	}{
		{"missing master", "nope", targets},
		{"no targets", master, nil},
		{"targets all missing", master, []string{"nope"}},
		{"master as only target", master, []string{master}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runner.EnqueueSync(context.Background(), tt.master, tt.targets)
			if !errors.Is(err, multicam.ErrPrecondition) {
				t.Errorf("EnqueueSync() error = %v, want precondition failure", err)
			}
		})
	}
}

func TestRunner_EnqueueSync_MasterWithoutMedia(t *testing.T) {
	runner, _, st := setupRunnerTest(t, &fakeSync{}, &fakeProber{})
	_, targets := seedSyncClips(t, st)

	doc := st.Document()
	bare := timeline.NewClip(doc.Tracks[0].ID, "titles",
		timeline.Source{Kind: timeline.SourceVideo, NaturalDuration: 60}, 100, 20)
	if _, err := st.Apply(func(d timeline.Document) (timeline.Document, bool, error) {
		return d.AddClip(bare)
	}); err != nil {
		t.Fatalf("seed clip: %v", err)
	}

	_, err := runner.EnqueueSync(context.Background(), bare.ID, targets)
	if !errors.Is(err, multicam.ErrPrecondition) {
		t.Errorf("EnqueueSync() error = %v, want precondition failure", err)
	}
}

func TestRunner_SyncFailureMarksJobFailed(t *testing.T) {
	sync := &fakeSync{
		syncFn: func(ctx context.Context, master multicam.ClipRef, targets []multicam.ClipRef, onProgress func(int)) (*multicam.Report, error) {
			return nil, merry.Wrap(multicam.ErrPrecondition, merry.AppendMessage("master audio is silent"))
		},
	}
	runner, repo, st := setupRunnerTest(t, sync, &fakeProber{})
	master, targets := seedSyncClips(t, st)
	ctx := context.Background()

	job, err := runner.EnqueueSync(ctx, master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}

	runner.processNextJob(ctx)

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if done.Status != StatusFailed {
		t.Errorf("job status = %s, want failed", done.Status)
	}
	if !strings.Contains(done.Error, "silent") {
		t.Errorf("job error = %q, want the precondition message", done.Error)
	}
	if len(st.Document().Groups) != 0 {
		t.Error("failed sync mutated the document")
	}
}

func TestRunner_CancelPendingJob(t *testing.T) {
	sync := &fakeSync{}
	runner, repo, st := setupRunnerTest(t, sync, &fakeProber{})
	master, targets := seedSyncClips(t, st)
	ctx := context.Background()

	job, err := runner.EnqueueSync(ctx, master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}

	cancelled, err := runner.Cancel(ctx, job.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Fatalf("status = %s after cancel, want cancelled", cancelled.Status)
	}

	// The runner must not pick it up afterwards.
	runner.processNextJob(ctx)
	if sync.calls.Load() != 0 {
		t.Errorf("synchronizer called %d times for a cancelled job, want 0", sync.calls.Load())
	}

	final, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Status != StatusCancelled {
		t.Errorf("final status = %s, want cancelled", final.Status)
	}
}

func TestRunner_CancelRunningJob(t *testing.T) {
	started := make(chan struct{})
	sync := &fakeSync{
		syncFn: func(ctx context.Context, master multicam.ClipRef, targets []multicam.ClipRef, onProgress func(int)) (*multicam.Report, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	runner, repo, st := setupRunnerTest(t, sync, &fakeProber{})
	master, targets := seedSyncClips(t, st)
	ctx := context.Background()

	job, err := runner.EnqueueSync(ctx, master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		runner.processNextJob(context.Background())
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("sync never started")
	}

	if _, err := runner.Cancel(ctx, job.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not settle after cancel")
	}

	final, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if final.Status != StatusCancelled {
		t.Errorf("final status = %s, want cancelled", final.Status)
	}
	if len(st.Document().Groups) != 0 {
		t.Error("cancelled sync mutated the document")
	}
}

func TestRunner_CancelUnknownJob(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, &fakeSync{}, &fakeProber{})

	job, err := runner.Cancel(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if job != nil {
		t.Errorf("Cancel() = %+v, want nil for unknown job", job)
	}
}

func TestRunner_ProbeJob(t *testing.T) {
	prober := &fakeProber{}
	runner, repo, _ := setupRunnerTest(t, &fakeSync{}, prober)
	ctx := context.Background()

	job, err := runner.EnqueueProbe(ctx, "mf-1")
	if err != nil {
		t.Fatalf("EnqueueProbe() error = %v", err)
	}

	runner.processNextJob(ctx)

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("job status = %s (%s), want completed", done.Status, done.Error)
	}
	if done.Progress != 100 {
		t.Errorf("job progress = %d, want 100", done.Progress)
	}
	if prober.calls.Load() != 1 {
		t.Errorf("prober called %d times, want 1", prober.calls.Load())
	}

	var file media.MediaFile
	if err := json.Unmarshal(done.Result, &file); err != nil {
		t.Fatalf("result unmarshal error = %v", err)
	}
	if file.ID != "mf-1" || file.Duration != 42 {
		t.Errorf("result file = %s/%v, want mf-1/42", file.ID, file.Duration)
	}
}

func TestRunner_ProbeJob_UnknownMediaFails(t *testing.T) {
	prober := &fakeProber{
		probeFn: func(ctx context.Context, id string) (*media.MediaFile, error) {
			return nil, nil
		},
	}
	runner, repo, _ := setupRunnerTest(t, &fakeSync{}, prober)
	ctx := context.Background()

	job, err := runner.EnqueueProbe(ctx, "mf-ghost")
	if err != nil {
		t.Fatalf("EnqueueProbe() error = %v", err)
	}

	runner.processNextJob(ctx)

	done, err := repo.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if done.Status != StatusFailed {
		t.Errorf("job status = %s, want failed", done.Status)
	}
	if !strings.Contains(done.Error, "not found") {
		t.Errorf("job error = %q, want a not-found message", done.Error)
	}
}

func TestRunner_EnqueueProbe_RequiresID(t *testing.T) {
	runner, _, _ := setupRunnerTest(t, &fakeSync{}, &fakeProber{})

	_, err := runner.EnqueueProbe(context.Background(), "")
	if !errors.Is(err, timeline.ErrInvalid) {
		t.Errorf("EnqueueProbe() error = %v, want invalid input", err)
	}
}

func TestRunner_StartProcessesQueue(t *testing.T) {
	runner, repo, st := setupRunnerTest(t, &fakeSync{}, &fakeProber{})
	runner.pollInterval = 10 * time.Millisecond
	master, targets := seedSyncClips(t, st)

	job, err := runner.EnqueueSync(context.Background(), master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := repo.Get(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status == StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", got.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancel")
	}
	if runner.IsRunning() {
		t.Error("IsRunning() = true after stop")
	}
}

func TestRunner_PauseHoldsQueue(t *testing.T) {
	sync := &fakeSync{}
	runner, repo, st := setupRunnerTest(t, sync, &fakeProber{})
	runner.pollInterval = 10 * time.Millisecond
	master, targets := seedSyncClips(t, st)

	runner.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	job, err := runner.EnqueueSync(context.Background(), master, targets)
	if err != nil {
		t.Fatalf("EnqueueSync() error = %v", err)
	}

	time.Sleep(60 * time.Millisecond)
	got, err := repo.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("job status = %s while paused, want pending", got.Status)
	}
	if !runner.IsPaused() {
		t.Error("IsPaused() = false after Pause()")
	}

	runner.Resume()

	deadline := time.Now().Add(2 * time.Second)
	for {
		got, err := repo.Get(context.Background(), job.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status == StatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s after resume", got.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
