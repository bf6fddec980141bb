// internal/store/memory.go
//
// In-memory registry of live rooms.
//
// Characteristics:
//   - Rooms keyed by ID in a map, guarded by an RWMutex (concurrent reads,
//     exclusive writes).
//   - State is lost when the process restarts; finished results live in SQLite.
//   - Sweep evicts rooms idle for longer than a TTL and closes them, so
//     abandoned websocket hubs and journals do not pile up.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/forgerush/apps/go-server/internal/room"
)

var ErrNotFound = errors.New("not found")

// Store defines the registry interface for live rooms.
type Store interface {
	// Save adds or replaces a room.
	Save(ctx context.Context, r *room.Room) error

	// Get retrieves a room by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*room.Room, error)

	// Delete removes and closes a room. Missing IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes rooms idle since before cutoff and returns
	// their IDs.
	Sweep(ctx context.Context, cutoff time.Time) []string

	// Len reports how many rooms are live.
	Len() int
}

type memory struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() Store {
	return &memory{rooms: make(map[string]*room.Room)}
}

func (m *memory) Save(ctx context.Context, r *room.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.rooms[r.ID()]; ok && old != r {
		old.Close()
	}
	m.rooms[r.ID()] = r
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*room.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	r, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		r.Close()
	}
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) []string {
	var stale []*room.Room
	m.mu.Lock()
	for id, r := range m.rooms {
		if r.LastActive().Before(cutoff) {
			stale = append(stale, r)
			delete(m.rooms, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, r := range stale {
		r.Close()
		ids = append(ids, r.ID())
	}
	return ids
}

func (m *memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
