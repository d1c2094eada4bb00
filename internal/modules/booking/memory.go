package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chauffeur/internal/types"
)

// MemoryStore is an in-process Repository. It backs local runs without Postgres
// and the tests of packages built on top of bookings.
type MemoryStore struct {
	mu          sync.Mutex
	bookings    map[types.ID]*Booking
	transitions []Transition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[types.ID]*Booking)}
}

func (m *MemoryStore) Find(_ context.Context, id types.ID) (*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

// Save follows the same version rule as Store.Save.
func (m *MemoryStore) Save(_ context.Context, b *Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.bookings[b.RequestID]
	current := 0
	if ok {
		current = prev.Version
	}
	if b.Version != current {
		return fmt.Errorf("save booking %s at version %d: %w", b.RequestID, b.Version, ErrConflict)
	}

	cp := b.Clone()
	if ok {
		cp.Customer = prev.Customer
		cp.CreatedAt = prev.CreatedAt
	}
	cp.Version = current + 1
	m.bookings[b.RequestID] = cp
	b.Version = cp.Version
	return nil
}

func (m *MemoryStore) UpdateDriverLocation(_ context.Context, id types.ID, pos types.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok || !liveTracked(b) {
		return nil
	}
	p := pos
	b.Journey.DriverPos = &p
	return nil
}

func (m *MemoryStore) ListActive(_ context.Context) ([]*Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Booking
	for _, b := range m.bookings {
		if liveTracked(b) {
			out = append(out, b.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestID < out[j].RequestID })
	return out, nil
}

func (m *MemoryStore) AppendTransition(_ context.Context, t Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return nil
}

// Transitions returns the audit trail recorded for id, oldest first.
func (m *MemoryStore) Transitions(id types.ID) []Transition {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Transition
	for _, t := range m.transitions {
		if t.RequestID == id {
			out = append(out, t)
		}
	}
	return out
}

func liveTracked(b *Booking) bool {
	return b.Status != StatusCancelled && b.Journey != nil && b.Journey.Status.Active()
}
