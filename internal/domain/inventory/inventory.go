package inventory

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// Record is the single source of truth for a product's availability. Records
// are seeded once at startup and mutated in place by reserve/release for the
// lifetime of the process; none are ever deleted.
type Record struct {
	ProductID   string
	Name        string
	Quantity    int
	UnitPrice   int64 // cents
	LastUpdated time.Time
}

func NewRecord(productID, name string, quantity int, unitPrice int64) (*Record, error) {
	if productID == "" {
		return nil, errors.New("inventory: product id is required")
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Record{
		ProductID:   productID,
		Name:        name,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		LastUpdated: time.Now().UTC(),
	}, nil
}
