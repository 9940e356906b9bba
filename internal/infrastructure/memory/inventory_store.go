package memory

import (
	"context"
	"sync"
	"time"

	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
)

// InventoryStore keeps all stock records in process memory. The outer RWMutex
// guards the map and the insertion order; each record carries its own mutex so
// that Reserve's guard-and-decrement executes as one critical section per
// product while unrelated products proceed in parallel.
type InventoryStore struct {
	mu      sync.RWMutex
	records map[string]*lockedRecord
	order   []string
}

type lockedRecord struct {
	mu  sync.Mutex
	rec domain.Record
}

func NewInventoryStore() *InventoryStore {
	return &InventoryStore{
		records: make(map[string]*lockedRecord),
	}
}

// Seed registers the initial catalog. Existing product ids are overwritten;
// new ids keep their insertion order for List.
func (s *InventoryStore) Seed(records []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		if rec.ProductID == "" {
			continue
		}
		if existing, ok := s.records[rec.ProductID]; ok {
			existing.mu.Lock()
			existing.rec = rec
			existing.mu.Unlock()
			continue
		}
		s.records[rec.ProductID] = &lockedRecord{rec: rec}
		s.order = append(s.order, rec.ProductID)
	}
}

func (s *InventoryStore) Get(ctx context.Context, productID string) (*domain.Record, error) {
	_ = ctx

	lr := s.lookup(productID)
	if lr == nil {
		return nil, domain.ErrNotFound
	}

	lr.mu.Lock()
	rec := lr.rec
	lr.mu.Unlock()
	return &rec, nil
}

func (s *InventoryStore) List(ctx context.Context) []domain.Record {
	_ = ctx

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, 0, len(s.order))
	for _, id := range s.order {
		lr := s.records[id]
		lr.mu.Lock()
		out = append(out, lr.rec)
		lr.mu.Unlock()
	}
	return out
}

func (s *InventoryStore) CheckAvailability(ctx context.Context, productID string, quantity int) bool {
	_ = ctx
	if quantity <= 0 {
		return false
	}

	lr := s.lookup(productID)
	if lr == nil {
		return false
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.rec.Quantity >= quantity
}

func (s *InventoryStore) AvailableQuantity(ctx context.Context, productID string) int {
	_ = ctx

	lr := s.lookup(productID)
	if lr == nil {
		return 0
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.rec.Quantity
}

// Reserve is the compare-and-decrement primitive: the availability guard and
// the mutation happen under the same record lock, so two concurrent callers
// can never both observe sufficient stock and both decrement.
func (s *InventoryStore) Reserve(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	lr := s.lookup(productID)
	if lr == nil {
		return domain.ErrNotFound
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()

	if lr.rec.Quantity < quantity {
		return domain.ErrInsufficientStock
	}
	lr.rec.Quantity -= quantity
	lr.rec.LastUpdated = time.Now().UTC()
	return nil
}

// Release credits stock back unconditionally. It is not tied to a reservation
// ledger: repeated or mismatched releases over-credit the record.
func (s *InventoryStore) Release(ctx context.Context, productID string, quantity int) error {
	_ = ctx
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	lr := s.lookup(productID)
	if lr == nil {
		return domain.ErrNotFound
	}

	lr.mu.Lock()
	defer lr.mu.Unlock()

	lr.rec.Quantity += quantity
	lr.rec.LastUpdated = time.Now().UTC()
	return nil
}

func (s *InventoryStore) lookup(productID string) *lockedRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[productID]
}
