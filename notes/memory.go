package notes

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Notes live as long as the process.
type Memory struct {
	mu    sync.RWMutex
	notes map[string]Note
	now   Clock
}

// NewMemory creates an empty memory store. A nil clock uses time.Now.
func NewMemory(now Clock) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{notes: make(map[string]Note), now: now}
}

// Get returns the note for id, or an empty note.
func (m *Memory) Get(ctx context.Context, id string) (Note, error) {
	if err := ValidateID(id); err != nil {
		return Note{}, err
	}
	if err := ctx.Err(); err != nil {
		return Note{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notes[Key(id)], nil
}

// Put stores in under id, replacing any previous note.
func (m *Memory) Put(ctx context.Context, id string, in Input) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n := stamp(in, m.now())
	m.mu.Lock()
	m.notes[Key(id)] = n
	m.mu.Unlock()
	return nil
}

// Delete removes the note for id. Deleting an absent note succeeds.
func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.notes, Key(id))
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored notes.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notes)
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
