package inventory

import "context"

// Store is the atomic stock authority. Reserve must perform its availability
// guard and decrement as one indivisible step per product; callers never get
// raw read+write access to quantities.
type Store interface {
	// Get returns a copy of the record, or ErrNotFound.
	Get(ctx context.Context, productID string) (*Record, error)
	// List returns a snapshot of all records in seed insertion order.
	List(ctx context.Context) []Record
	// CheckAvailability reports whether the product exists and holds at least
	// quantity units. Read-only.
	CheckAvailability(ctx context.Context, productID string, quantity int) bool
	// AvailableQuantity returns the current stock level, zero for unknown products.
	AvailableQuantity(ctx context.Context, productID string) int
	// Reserve decrements stock by quantity iff enough is available.
	// Fails with ErrNotFound, ErrInvalidQuantity, or ErrInsufficientStock;
	// on failure nothing is mutated.
	Reserve(ctx context.Context, productID string, quantity int) error
	// Release increments stock by quantity unconditionally. It is not bounded
	// by prior reservations; mismatched releases over-credit stock.
	// Fails only with ErrNotFound or ErrInvalidQuantity.
	Release(ctx context.Context, productID string, quantity int) error
}
