package order

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEmptyOrder             = errors.New("order: at least one item is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending             Status = "pending"
	StatusValidatingInventory Status = "validating_inventory"
	StatusInventoryReserved   Status = "inventory_reserved"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
	// StatusCancelled is part of the model but no transition currently produces it.
	StatusCancelled Status = "cancelled"
)

// Line is one reserved item on an order. Lines are appended only after the
// corresponding reservation succeeded, so the line set is always the exact
// rollback set for compensation.
type Line struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"` // cents, captured at order time
}

// Order is owned by a single saga execution from creation until the response
// is returned; it is never shared between concurrent requests and is not
// persisted.
type Order struct {
	ID            string     `json:"order_id"`
	CustomerID    string     `json:"customer_id"`
	CustomerEmail string     `json:"customer_email"`
	Lines         []Line     `json:"items"`
	TotalAmount   int64      `json:"total_amount"` // cents
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	ErrorMessage  string     `json:"error_message,omitempty"`
}

func New(id, customerID, customerEmail string) *Order {
	return &Order{
		ID:            id,
		CustomerID:    customerID,
		CustomerEmail: customerEmail,
		Status:        StatusPending,
		CreatedAt:     time.Now().UTC(),
	}
}

// BeginValidation moves the order into the availability-check phase.
func (o *Order) BeginValidation() error {
	return o.transition(StatusPending, StatusValidatingInventory)
}

// MarkReserved moves the order into the reservation phase.
func (o *Order) MarkReserved() error {
	return o.transition(StatusValidatingInventory, StatusInventoryReserved)
}

// Complete finishes the saga, stamping the completion time and total.
func (o *Order) Complete() error {
	if err := o.transition(StatusInventoryReserved, StatusCompleted); err != nil {
		return err
	}
	now := time.Now().UTC()
	o.CompletedAt = &now
	o.TotalAmount = o.Total()
	return nil
}

// Fail terminates the saga from any non-terminal state.
func (o *Order) Fail(reason string) {
	switch o.Status {
	case StatusCompleted, StatusFailed:
		return
	}
	o.Status = StatusFailed
	o.ErrorMessage = reason
}

// AddLine records a successfully reserved item.
func (o *Order) AddLine(line Line) {
	o.Lines = append(o.Lines, line)
}

// Total is the sum of unit price times quantity over all reserved lines.
func (o *Order) Total() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.UnitPrice * int64(l.Quantity)
	}
	return total
}

func (o *Order) transition(from, to Status) error {
	if o.Status != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, to)
	}
	o.Status = to
	return nil
}

// FormatCents renders a cents amount as a dollar string, e.g. 129999 -> "1299.99".
func FormatCents(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
