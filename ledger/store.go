package ledger

import (
	"context"
	"sync"
)

// Store persists ledger entries
type Store interface {
	// Upsert inserts tx or replaces the entry with the same (TransactionKey, UniqueIdentifier)
	Upsert(ctx context.Context, tx *Transaction) error
	Find(ctx context.Context, transactionKey, uniqueIdentifier string) (*Transaction, error)
	FindByTransactionKey(ctx context.Context, transactionKey string) ([]*Transaction, error)
	ListByOrder(ctx context.Context, orderID string) ([]*Transaction, error)
}

type entryKey struct {
	transactionKey   string
	uniqueIdentifier string
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[entryKey]*Transaction
	order   []entryKey
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[entryKey]*Transaction)}
}

func (s *MemoryStore) Upsert(_ context.Context, tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{tx.TransactionKey, tx.Identifier()}
	if _, ok := s.entries[key]; !ok {
		s.order = append(s.order, key)
	}
	s.entries[key] = tx.Clone()
	return nil
}

func (s *MemoryStore) Find(_ context.Context, transactionKey, uniqueIdentifier string) (*Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.entries[entryKey{transactionKey, uniqueIdentifier}]
	if !ok {
		return nil, ErrNotFound
	}
	return tx.Clone(), nil
}

func (s *MemoryStore) FindByTransactionKey(_ context.Context, transactionKey string) ([]*Transaction, error) {
	return s.filter(func(tx *Transaction) bool { return tx.TransactionKey == transactionKey }), nil
}

func (s *MemoryStore) ListByOrder(_ context.Context, orderID string) ([]*Transaction, error) {
	return s.filter(func(tx *Transaction) bool { return tx.OrderID == orderID }), nil
}

func (s *MemoryStore) filter(match func(*Transaction) bool) []*Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Transaction
	for _, key := range s.order {
		if tx := s.entries[key]; match(tx) {
			out = append(out, tx.Clone())
		}
	}
	return out
}
