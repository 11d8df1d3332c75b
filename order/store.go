package order

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Store persists orders
type Store interface {
	Get(ctx context.Context, id string) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	Save(ctx context.Context, o *Order) error
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*Order)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *MemoryStore) FindByNumber(_ context.Context, number string) (*Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.Number == number {
			return o.Clone(), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (s *MemoryStore) Save(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.PaymentStatus == "" {
		o.PaymentStatus = StatusOpen
	}
	s.orders[o.ID] = o.Clone()
	return nil
}

// Lookup resolves an order by id first and by number second
func Lookup(ctx context.Context, store Store, id, number string) (*Order, error) {
	if id != "" {
		o, err := store.Get(ctx, id)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}
	if number != "" {
		return store.FindByNumber(ctx, number)
	}
	return nil, ErrOrderNotFound
}
