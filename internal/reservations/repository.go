package reservations

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNotFound is returned for unknown reservations and for reservations
// owned by someone else.
var ErrNotFound = errors.New("Reservation not found")

// Repository persists reservations.
type Repository interface {
	Create(ctx context.Context, r Reservation) error
	ListByCustomer(ctx context.Context, customerID string) ([]Reservation, error)
	Delete(ctx context.Context, customerID, id string) error
}

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Reservation
}

// NewMemoryRepository constructs an in-memory repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Reservation)}
}

func (m *memoryRepository) Create(_ context.Context, r Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.storage[r.ID]; exists {
		return errors.New("reservation exists")
	}
	m.storage[r.ID] = r
	return nil
}

func (m *memoryRepository) ListByCustomer(_ context.Context, customerID string) ([]Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Reservation, 0)
	for _, r := range m.storage {
		if r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memoryRepository) Delete(_ context.Context, customerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.storage[id]
	if !ok || r.CustomerID != customerID {
		return ErrNotFound
	}
	delete(m.storage, id)
	return nil
}
