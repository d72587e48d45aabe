// Package interact owns the hover/open state of the orb field and runs note
// I/O off the frame thread.
//
// All Session methods must be called from the frame thread. Store calls run
// on goroutines; their results are queued and applied only by Poll.
package interact

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/notes"
	"github.com/pthm-cable/orbfield/pick"
	"github.com/pthm-cable/orbfield/swarm"
)

// Toast messages.
const (
	MsgLoadFailed   = "failed to load"
	MsgSaveFailed   = "failed to save"
	MsgDeleteFailed = "failed to delete"
)

// Options configures a Session.
type Options struct {
	PickFactor float64 // pick radius as a multiple of the orb's display scale
	HoverScale float64
	IOTimeout  time.Duration
	ToastTTL   time.Duration
	Now        func() time.Time
}

// DefaultOptions returns the standard interaction settings.
func DefaultOptions() Options {
	return Options{
		PickFactor: 1.5,
		HoverScale: pick.DefaultHoverScale,
		IOTimeout:  5 * time.Second,
		ToastTTL:   3 * time.Second,
		Now:        time.Now,
	}
}

// Draft is the editor content for the open orb.
type Draft struct {
	Title   string
	Body    string
	Loading bool // a load is in flight; the editor is read-only
}

// Toast is a transient notification.
type Toast struct {
	Text    string
	Expires time.Time
}

type opKind uint8

const (
	opLoad opKind = iota
	opSave
	opDelete
)

type result struct {
	op   opKind
	gen  uint64
	id   int
	note notes.Note
	err  error
}

// Session is the interaction state machine: at most one hovered orb, at most
// one open editor.
type Session struct {
	store notes.Store
	hover *pick.Hover
	opts  Options

	open  int
	gen   uint64
	draft Draft

	toasts  []Toast
	spheres []pick.Sphere

	failures int

	results chan result
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSession creates a session for orbs with the given base scales.
func NewSession(store notes.Store, baseScales []float64, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HoverScale <= 0 {
		opts.HoverScale = pick.DefaultHoverScale
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		store:   store,
		hover:   pick.NewHover(baseScales, opts.HoverScale),
		opts:    opts,
		open:    pick.None,
		results: make(chan result, 16),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Hovered returns the hovered orb id, or pick.None.
func (s *Session) Hovered() int { return s.hover.Hovered() }

// Open returns the orb whose editor is open, or pick.None.
func (s *Session) Open() int { return s.open }

// IsOpen reports whether the editor is open.
func (s *Session) IsOpen() bool { return s.open != pick.None }

// Draft returns the editor content.
func (s *Session) Draft() Draft { return s.draft }

// SetDraft replaces the editor text. It is ignored while loading or when
// nothing is open.
func (s *Session) SetDraft(title, body string) {
	if s.open == pick.None || s.draft.Loading {
		return
	}
	s.draft.Title, s.draft.Body = title, body
}

// Scale returns the display scale of orb id including hover enlargement.
func (s *Session) Scale(id int) float64 { return s.hover.Scale(id) }

// Scales returns display scales for all orbs. The slice must not be modified.
func (s *Session) Scales() []float64 { return s.hover.Scales() }

// PointerMove re-runs the hit test for the pointer ray and updates hover.
// ok false (no ray, pointer off-screen) clears the hover.
func (s *Session) PointerMove(ray camera.Ray, ok bool, orbs []swarm.Orb) int {
	if !ok {
		s.hover.Clear()
		return pick.None
	}
	s.spheres = pick.Spheres(s.spheres, orbs, s.hover, s.opts.PickFactor)
	hit, found := pick.Nearest(ray, s.spheres)
	if !found {
		s.hover.Clear()
		return pick.None
	}
	s.hover.Set(hit.ID)
	return hit.ID
}

// Click handles a primary click in the scene. With nothing open it opens
// the hovered orb; with the editor open a click on empty space closes it.
func (s *Session) Click() {
	hovered := s.hover.Hovered()
	switch {
	case s.open == pick.None && hovered != pick.None:
		s.OpenOrb(hovered)
	case s.open != pick.None && hovered == pick.None:
		s.Close()
	}
}

// OpenOrb opens the editor for id and starts loading its note.
func (s *Session) OpenOrb(id int) {
	s.gen++
	s.open = id
	s.draft = Draft{Loading: true}

	gen := s.gen
	s.run(func(ctx context.Context) result {
		n, err := s.store.Get(ctx, notes.OrbID(id))
		return result{op: opLoad, gen: gen, id: id, note: n, err: err}
	})
}

// Close closes the editor without saving. Pending loads for it are
// discarded when they arrive.
func (s *Session) Close() {
	if s.open == pick.None {
		return
	}
	s.gen++
	s.open = pick.None
	s.draft = Draft{}
}

// Save closes the editor and writes title and body for the open orb in the
// background. A failed save raises a toast; it is not retried.
func (s *Session) Save(title, body string) bool {
	if s.open == pick.None || s.draft.Loading {
		return false
	}
	id := s.open
	in := notes.Sanitize(notes.Input{Title: title, Body: body})
	s.Close()

	s.run(func(ctx context.Context) result {
		return result{op: opSave, id: id, err: s.store.Put(ctx, notes.OrbID(id), in)}
	})
	return true
}

// Delete closes the editor and removes the open orb's note in the
// background.
func (s *Session) Delete() bool {
	if s.open == pick.None || s.draft.Loading {
		return false
	}
	id := s.open
	s.Close()

	s.run(func(ctx context.Context) result {
		return result{op: opDelete, id: id, err: s.store.Delete(ctx, notes.OrbID(id))}
	})
	return true
}

// run executes op on a goroutine with the I/O timeout and queues its result.
func (s *Session) run(op func(ctx context.Context) result) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.ctx
		if s.opts.IOTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.IOTimeout)
			defer cancel()
		}
		r := op(ctx)
		select {
		case s.results <- r:
		case <-s.ctx.Done():
		}
	}()
}

// Poll applies finished I/O results and expires old toasts. It never
// blocks.
func (s *Session) Poll() {
	for {
		select {
		case r := <-s.results:
			s.apply(r)
		default:
			s.expireToasts()
			return
		}
	}
}

func (s *Session) apply(r result) {
	switch r.op {
	case opLoad:
		if r.gen != s.gen || r.id != s.open {
			return
		}
		s.draft = Draft{}
		if r.err != nil {
			slog.Warn("note load failed", "id", r.id, slog.String("error", r.err.Error()))
			s.toast(MsgLoadFailed)
			return
		}
		s.draft.Title, s.draft.Body = r.note.Title, r.note.Body
	case opSave:
		if r.err != nil {
			slog.Warn("note save failed", "id", r.id, slog.String("error", r.err.Error()))
			s.toast(MsgSaveFailed)
		}
	case opDelete:
		if r.err != nil {
			slog.Warn("note delete failed", "id", r.id, slog.String("error", r.err.Error()))
			s.toast(MsgDeleteFailed)
		}
	}
}

func (s *Session) toast(text string) {
	s.failures++
	s.toasts = append(s.toasts, Toast{Text: text, Expires: s.opts.Now().Add(s.opts.ToastTTL)})
}

func (s *Session) expireToasts() {
	now := s.opts.Now()
	kept := s.toasts[:0]
	for _, t := range s.toasts {
		if now.Before(t.Expires) {
			kept = append(kept, t)
		}
	}
	s.toasts = kept
}

// Failures returns the number of failed note operations so far.
func (s *Session) Failures() int {
	return s.failures
}

// Toasts returns the live notifications, oldest first.
func (s *Session) Toasts() []Toast {
	return s.toasts
}

// Shutdown waits for in-flight I/O up to ctx's deadline, then abandons it.
func (s *Session) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}
