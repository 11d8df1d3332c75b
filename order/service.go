package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Service registers the orders the shop places so pushes and refunds can find them
type Service struct {
	store  Store
	locker *Locker
}

// NewService creates a Service; a nil locker gets a private one
func NewService(store Store, locker *Locker) *Service {
	if locker == nil {
		locker = &Locker{}
	}
	return &Service{store: store, locker: locker}
}

// Get returns the order with the given id
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.store.Get(ctx, id)
}

// Register creates o or updates the shop-owned fields of an existing order with the same id.
// Payment status, metadata and creation time are kept from the stored order. The bool
// reports whether the order is new.
func (s *Service) Register(ctx context.Context, o *Order) (*Order, bool, error) {
	if o.ID == "" {
		return nil, false, fmt.Errorf("order: id is required")
	}

	unlock := s.locker.Lock(o.ID)
	defer unlock()

	if o.Number != "" {
		other, err := s.store.FindByNumber(ctx, o.Number)
		switch {
		case err == nil && other.ID != o.ID:
			return nil, false, NewIntegrityError(ErrCodeDuplicateNumber, "order number %s belongs to order %s", o.Number, other.ID)
		case err != nil && !errors.Is(err, ErrOrderNotFound):
			return nil, false, fmt.Errorf("order: find by number: %w", err)
		}
	}

	existing, err := s.store.Get(ctx, o.ID)
	created := errors.Is(err, ErrOrderNotFound)
	if err != nil && !created {
		return nil, false, fmt.Errorf("order: load %s: %w", o.ID, err)
	}

	incoming := o.Clone()
	if created {
		incoming.PaymentStatus = StatusOpen
		incoming.Metadata = nil
		incoming.CreatedAt = time.Time{}
	} else {
		incoming.PaymentStatus = existing.PaymentStatus
		incoming.Metadata = existing.Metadata
		incoming.CreatedAt = existing.CreatedAt
	}

	if err := s.store.Save(ctx, incoming); err != nil {
		return nil, false, fmt.Errorf("order: save %s: %w", o.ID, err)
	}
	return incoming, created, nil
}
