package interact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/orbfield/camera"
	"github.com/pthm-cable/orbfield/notes"
	"github.com/pthm-cable/orbfield/pick"
	"github.com/pthm-cable/orbfield/swarm"
)

// gatedStore is a memory store whose Get for a given id blocks until the
// test releases it.
type gatedStore struct {
	*notes.Memory
	mu      sync.Mutex
	gates   map[string]chan struct{}
	failGet bool
	failPut bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{Memory: notes.NewMemory(nil), gates: map[string]chan struct{}{}}
}

func (g *gatedStore) gate(id string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan struct{})
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedStore) Get(ctx context.Context, id string) (notes.Note, error) {
	select {
	case <-g.gate(id):
	case <-ctx.Done():
		return notes.Note{}, ctx.Err()
	}
	if g.failGet {
		return notes.Note{}, errors.New("unreachable")
	}
	return g.Memory.Get(ctx, id)
}

func (g *gatedStore) Put(ctx context.Context, id string, in notes.Input) error {
	if g.failPut {
		return errors.New("unreachable")
	}
	return g.Memory.Put(ctx, id, in)
}

func (g *gatedStore) release(id string) { close(g.gate(id)) }

// fakeClock is a settable clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(store notes.Store, n int) (*Session, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	base := make([]float64, n)
	for i := range base {
		base[i] = 0.2
	}
	opts := DefaultOptions()
	opts.Now = clock.now
	opts.IOTimeout = 2 * time.Second
	return NewSession(store, base, opts), clock
}

// pollUntil polls s until cond holds or a second passes.
func pollUntil(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		s.Poll()
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached")
}

// Orbs lined up along -Z in front of a ray from z=10.
func lineOfOrbs() []swarm.Orb {
	return []swarm.Orb{
		{ID: 0, Position: r3.Vec{X: 3}, BaseScale: 0.2},
		{ID: 1, Position: r3.Vec{Z: 2}, BaseScale: 0.2},
		{ID: 2, Position: r3.Vec{Z: -2}, BaseScale: 0.2},
	}
}

var forward = camera.Ray{Origin: r3.Vec{Z: 10}, Direction: r3.Vec{Z: -1}}

func TestPointerMoveHover(t *testing.T) {
	s, _ := newTestSession(notes.NewMemory(nil), 3)
	orbs := lineOfOrbs()

	id := s.PointerMove(forward, true, orbs)
	assert.Equal(t, 1, id)
	assert.Equal(t, 1, s.Hovered())
	assert.InDelta(t, 0.2*pick.DefaultHoverScale, s.Scale(1), 1e-12)
	assert.Equal(t, 0.2, s.Scale(2))

	up := camera.Ray{Origin: r3.Vec{Z: 10}, Direction: r3.Vec{Y: 1}}
	assert.Equal(t, pick.None, s.PointerMove(up, true, orbs))
	assert.Equal(t, 0.2, s.Scale(1))

	s.PointerMove(forward, true, orbs)
	s.PointerMove(camera.Ray{}, false, orbs)
	assert.Equal(t, pick.None, s.Hovered())
}

func TestClickOpensAndLoads(t *testing.T) {
	store := newGatedStore()
	require.NoError(t, store.Memory.Put(context.Background(), "1", notes.Input{Title: "Altair", Body: "eagle"}))
	s, _ := newTestSession(store, 3)

	s.PointerMove(forward, true, lineOfOrbs())
	s.Click()
	assert.Equal(t, 1, s.Open())
	assert.True(t, s.Draft().Loading)

	// Editing is ignored while loading.
	s.SetDraft("typed", "early")
	assert.Equal(t, "", s.Draft().Title)

	store.release("1")
	pollUntil(t, s, func() bool { return !s.Draft().Loading })
	assert.Equal(t, Draft{Title: "Altair", Body: "eagle"}, s.Draft())
}

func TestClickBackgroundCloses(t *testing.T) {
	store := newGatedStore()
	store.release("1")
	s, _ := newTestSession(store, 3)
	orbs := lineOfOrbs()

	s.PointerMove(forward, true, orbs)
	s.Click()
	require.True(t, s.IsOpen())

	// Clicking another orb while open does nothing.
	s.PointerMove(forward, true, orbs)
	s.Click()
	assert.Equal(t, 1, s.Open())

	s.PointerMove(camera.Ray{}, false, orbs)
	s.Click()
	assert.False(t, s.IsOpen())
}

func TestStaleLoadDiscarded(t *testing.T) {
	store := newGatedStore()
	ctx := context.Background()
	require.NoError(t, store.Memory.Put(ctx, "0", notes.Input{Title: "first"}))
	require.NoError(t, store.Memory.Put(ctx, "2", notes.Input{Title: "second"}))
	s, _ := newTestSession(store, 3)

	s.OpenOrb(0)
	s.Close()
	s.OpenOrb(2)

	// The newer load finishes first, then the stale one.
	store.release("2")
	pollUntil(t, s, func() bool { return !s.Draft().Loading })
	store.release("0")

	time.Sleep(20 * time.Millisecond)
	s.Poll()
	assert.Equal(t, 2, s.Open())
	assert.Equal(t, "second", s.Draft().Title)
}

func TestReopenSameOrbDiscardsOldLoad(t *testing.T) {
	store := newGatedStore()
	s, _ := newTestSession(store, 3)

	s.OpenOrb(1)
	s.Close()
	s.OpenOrb(1)
	store.release("1")

	// Both loads complete; only the second generation is applied, and the
	// draft ends up loaded exactly once.
	pollUntil(t, s, func() bool { return !s.Draft().Loading })
	s.SetDraft("typed", "")
	time.Sleep(20 * time.Millisecond)
	s.Poll()
	assert.Equal(t, "typed", s.Draft().Title)
}

func TestLoadFailureToast(t *testing.T) {
	store := newGatedStore()
	store.failGet = true
	store.release("1")
	s, clock := newTestSession(store, 3)

	s.OpenOrb(1)
	pollUntil(t, s, func() bool { return len(s.Toasts()) > 0 })
	assert.Equal(t, MsgLoadFailed, s.Toasts()[0].Text)
	assert.Equal(t, Draft{}, s.Draft())
	assert.True(t, s.IsOpen())

	clock.advance(2 * time.Second)
	s.Poll()
	assert.Len(t, s.Toasts(), 1)

	clock.advance(2 * time.Second)
	s.Poll()
	assert.Empty(t, s.Toasts())
	assert.Equal(t, 1, s.Failures())
}

func TestSaveWritesAndCloses(t *testing.T) {
	store := newGatedStore()
	store.release("2")
	s, _ := newTestSession(store, 3)

	s.OpenOrb(2)
	pollUntil(t, s, func() bool { return !s.Draft().Loading })

	require.True(t, s.Save(strings.Repeat("T", 200), "body"))
	assert.False(t, s.IsOpen())

	var got notes.Note
	require.Eventually(t, func() bool {
		var err error
		got, err = store.Memory.Get(context.Background(), "2")
		return err == nil && !got.Empty()
	}, time.Second, time.Millisecond)
	assert.Len(t, got.Title, notes.MaxTitle)
	assert.Equal(t, "body", got.Body)

	s.Poll()
	assert.Empty(t, s.Toasts())
}

func TestSaveFailureToast(t *testing.T) {
	store := newGatedStore()
	store.failPut = true
	store.release("0")
	s, _ := newTestSession(store, 3)

	s.OpenOrb(0)
	pollUntil(t, s, func() bool { return !s.Draft().Loading })
	require.True(t, s.Save("t", "b"))

	pollUntil(t, s, func() bool { return len(s.Toasts()) > 0 })
	assert.Equal(t, MsgSaveFailed, s.Toasts()[0].Text)
}

func TestSaveWhileLoadingRejected(t *testing.T) {
	s, _ := newTestSession(newGatedStore(), 3)
	s.OpenOrb(0)
	assert.False(t, s.Save("t", "b"))
	assert.True(t, s.IsOpen())

	s.Close()
	assert.False(t, s.Save("t", "b"))
}

func TestDeleteNote(t *testing.T) {
	store := newGatedStore()
	require.NoError(t, store.Memory.Put(context.Background(), "1", notes.Input{Title: "x"}))
	store.release("1")
	s, _ := newTestSession(store, 3)

	s.OpenOrb(1)
	pollUntil(t, s, func() bool { return !s.Draft().Loading })
	require.True(t, s.Delete())
	assert.False(t, s.IsOpen())

	require.Eventually(t, func() bool { return store.Memory.Len() == 0 }, time.Second, time.Millisecond)
}

func TestCloseKeepsHover(t *testing.T) {
	store := newGatedStore()
	store.release("1")
	s, _ := newTestSession(store, 3)

	s.PointerMove(forward, true, lineOfOrbs())
	s.Click()
	s.Close()
	assert.Equal(t, 1, s.Hovered())
	assert.False(t, s.IsOpen())
}

func TestShutdownAbandonsBlockedIO(t *testing.T) {
	s, _ := newTestSession(newGatedStore(), 3)
	s.OpenOrb(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Shutdown(ctx), context.DeadlineExceeded)
}
