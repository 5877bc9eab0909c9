// Package session turns raw pointer gestures into document mutations. A
// session is born at pointer-down, previews against a snapshot of the
// document on every pointer-move, and only talks to the store at commit, so
// an abandoned gesture leaves no trace in the undo history.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ansel1/merry/v2"
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cutroom/cutroom-engine/internal/store"
	"github.com/cutroom/cutroom-engine/internal/timeline"
)

var (
	// ErrNoSession is returned when a move or commit arrives without a
	// matching pointer-down.
	ErrNoSession = merry.Sentinel("no active session for gesture")
	// ErrSessionActive is returned when a second session of the same kind
	// is started before the first ends.
	ErrSessionActive = merry.Sentinel("session already active for gesture")
)

// laneDwell is how long the pointer must hover a different lane before a
// drag is allowed to switch tracks. Keeps diagonal drags from stealing the
// clip into a neighbouring lane.
const laneDwell = 150 * time.Millisecond

// Manager owns the live interaction sessions and the current selection. At
// most one session per gesture kind exists at a time.
type Manager struct {
	mu          sync.Mutex
	store       *store.Store
	logger      *slog.Logger
	now         func() time.Time
	unsubscribe func()
	selection   mapset.Set[string]
	keyframes   mapset.Set[KeyframeRef]

	drag    *dragSession
	trim    *trimSession
	marquee *marqueeSession
	ruler   *rulerSession
}

// NewManager wires a manager over the document store. The manager watches
// revisions so deleted clips fall out of the selection.
func NewManager(st *store.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		store:     st,
		logger:    logger,
		now:       time.Now,
		selection: mapset.NewSet[string](),
		keyframes: mapset.NewSet[KeyframeRef](),
	}
	m.unsubscribe = st.Subscribe(func(ev store.Event) {
		if ev.Kind == store.EventRevision {
			m.pruneSelection(ev.Doc)
		}
	})
	return m
}

// Close detaches the manager from the store.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Selection returns a copy of the selected clip ids.
func (m *Manager) Selection() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return mapset.Sorted(m.selection)
}

// Select replaces the selection with the clips that still exist in the
// document. Unknown ids are dropped rather than rejected.
func (m *Manager) Select(clipIDs ...string) []string {
	doc := m.store.Document()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = mapset.NewSet[string]()
	for _, id := range clipIDs {
		if _, ok := doc.ClipByID(id); ok {
			m.selection.Add(id)
		}
	}
	return mapset.Sorted(m.selection)
}

// ClearSelection deselects everything.
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = mapset.NewSet[string]()
}

// ToggleSelect flips one clip in or out of the selection.
func (m *Manager) ToggleSelect(clipID string) []string {
	doc := m.store.Document()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selection.Contains(clipID) {
		m.selection.Remove(clipID)
	} else if _, ok := doc.ClipByID(clipID); ok {
		m.selection.Add(clipID)
	}
	return mapset.Sorted(m.selection)
}

// SelectedKeyframes returns the keyframes picked up by the last marquee.
func (m *Manager) SelectedKeyframes() []KeyframeRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keyframes.ToSlice()
}

// pruneSelection drops ids that no longer resolve. Runs on every committed
// revision so removals and splits cannot leave dangling selection entries.
func (m *Manager) pruneSelection(doc timeline.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.selection.ToSlice() {
		if _, ok := doc.ClipByID(id); !ok {
			m.selection.Remove(id)
		}
	}
	for _, ref := range m.keyframes.ToSlice() {
		c, ok := doc.ClipByID(ref.ClipID)
		if !ok {
			m.keyframes.Remove(ref)
			continue
		}
		found := false
		for _, k := range c.Keyframes {
			if k.ID == ref.KeyframeID {
				found = true
				break
			}
		}
		if !found {
			m.keyframes.Remove(ref)
		}
	}
}
