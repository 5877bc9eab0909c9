// Package store holds the single source of truth: the current timeline
// document revision. All mutation funnels through Apply as pure operations,
// which is what makes undo, redo, and multi-view consistency tractable.
// Interaction sessions keep their own ephemeral state and only come here to
// commit.
package store

import (
	"log/slog"
	"sync"

	"github.com/cutroom/cutroom-engine/internal/timeline"
)

// undoLimit bounds the history so marathon sessions do not grow without end.
const undoLimit = 200

// Op is one pure mutation: it returns the next document, whether anything
// was applied, and an error for structurally invalid input.
type Op func(timeline.Document) (timeline.Document, bool, error)

// Result reports what one Apply did.
type Result struct {
	Applied  bool  `json:"applied"`
	Revision int64 `json:"revision"`
}

// EventKind separates committed revisions from ephemeral hover broadcasts.
type EventKind string

const (
	EventRevision EventKind = "revision"
	EventHover    EventKind = "hover"
)

// CutHover is the shared cut-line preview: while the razor hovers a clip,
// every linked member shows the same line. Nil clears the preview.
type CutHover struct {
	ClipIDs []string `json:"clipIds"`
	Time    float64  `json:"time"`
}

// Event is delivered to subscribers outside the store lock.
type Event struct {
	Kind     EventKind
	Revision int64
	Doc      timeline.Document
	Hover    *CutHover
}

type Store struct {
	mu     sync.RWMutex
	doc    timeline.Document
	undo   []timeline.Document
	redo   []timeline.Document
	subs   map[int]func(Event)
	nextID int
	logger *slog.Logger
}

func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		doc:    timeline.NewDocument(),
		subs:   map[int]func(Event){},
		logger: logger,
	}
}

// Document returns the current revision. The value is safe to keep: older
// revisions are never mutated in place.
func (s *Store) Document() timeline.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Apply runs ops in order against the current document as one atomic step:
// any error discards the whole batch, and the batch lands as a single undo
// entry however many ops it carries. Sessions use that to commit a trim plus
// a move as one undoable gesture.
func (s *Store) Apply(ops ...Op) (Result, error) {
	s.mu.Lock()
	next := s.doc
	applied := false
	for _, op := range ops {
		var ok bool
		var err error
		next, ok, err = op(next)
		if err != nil {
			s.mu.Unlock()
			return Result{Revision: s.doc.Revision}, err
		}
		applied = applied || ok
	}
	if !applied {
		rev := s.doc.Revision
		s.mu.Unlock()
		return Result{Applied: false, Revision: rev}, nil
	}

	s.undo = append(s.undo, s.doc)
	if len(s.undo) > undoLimit {
		s.undo = s.undo[len(s.undo)-undoLimit:]
	}
	s.redo = nil
	s.doc = next
	ev := Event{Kind: EventRevision, Revision: next.Revision, Doc: next}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, ev)
	return Result{Applied: true, Revision: ev.Revision}, nil
}

// ApplyView commits a presentation-only mutation (playhead, zoom, scroll)
// without recording history. Undoing edits should never fight the scroll
// position.
func (s *Store) ApplyView(op Op) (Result, error) {
	s.mu.Lock()
	next, applied, err := op(s.doc)
	if err != nil || !applied {
		rev := s.doc.Revision
		s.mu.Unlock()
		return Result{Applied: false, Revision: rev}, err
	}
	s.doc = next
	ev := Event{Kind: EventRevision, Revision: next.Revision, Doc: next}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, ev)
	return Result{Applied: true, Revision: ev.Revision}, nil
}

// Undo steps back one committed mutation. View-only changes are not on the
// stack, so this always lands on an edit boundary.
func (s *Store) Undo() (timeline.Document, bool) {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return s.doc, false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.doc)
	// Keep the revision counter monotonic so clients can always order what
	// they saw, even across undo.
	prev.Revision = s.doc.Revision + 1
	s.doc = prev
	ev := Event{Kind: EventRevision, Revision: prev.Revision, Doc: prev}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, ev)
	return prev, true
}

// Redo reapplies the most recently undone mutation.
func (s *Store) Redo() (timeline.Document, bool) {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return s.doc, false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.doc)
	next.Revision = s.doc.Revision + 1
	s.doc = next
	ev := Event{Kind: EventRevision, Revision: next.Revision, Doc: next}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.notify(subs, ev)
	return next, true
}

// Replace swaps in a whole document (project load) and clears history.
func (s *Store) Replace(doc timeline.Document) {
	s.mu.Lock()
	if doc.Revision <= s.doc.Revision {
		doc.Revision = s.doc.Revision + 1
	}
	s.doc = doc
	s.undo = nil
	s.redo = nil
	ev := Event{Kind: EventRevision, Revision: doc.Revision, Doc: doc}
	subs := s.snapshotSubs()
	s.mu.Unlock()

	s.logger.Info("document replaced", "revision", ev.Revision)
	s.notify(subs, ev)
}

// Subscribe registers an observer for revision and hover events. The
// returned function unsubscribes; it is safe to call more than once.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// BroadcastHover pushes the shared cut-line preview to observers. It never
// touches the document.
func (s *Store) BroadcastHover(h *CutHover) {
	s.mu.RLock()
	subs := s.snapshotSubs()
	rev := s.doc.Revision
	s.mu.RUnlock()

	s.notify(subs, Event{Kind: EventHover, Revision: rev, Hover: h})
}

// CanUndo and CanRedo report history depth for UI affordances.
func (s *Store) CanUndo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.undo) > 0
}

func (s *Store) CanRedo() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.redo) > 0
}

// snapshotSubs copies the callback list so delivery happens outside the
// lock. Callers must hold at least a read lock.
func (s *Store) snapshotSubs() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func (s *Store) notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
