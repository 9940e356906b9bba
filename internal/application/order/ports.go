package order

import (
	"context"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
)

// Mode selects which inventory transport a saga execution talks through.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// CheckResult is the transport-level outcome of an availability check.
// Elapsed covers the call itself, excluding client construction.
type CheckResult struct {
	Available         bool
	AvailableQuantity int
	Message           string
	Elapsed           time.Duration
}

// ReserveResult is the transport-level outcome of a reservation attempt.
type ReserveResult struct {
	Success bool
	Message string
	Elapsed time.Duration
}

// ReleaseResult is the transport-level outcome of a compensating release.
type ReleaseResult struct {
	Success bool
	Elapsed time.Duration
}

// InventoryClient is the polymorphic inventory capability. Implementations
// must translate every transport fault into a failed result instead of an
// error, so the coordinator never needs transport-specific fault handling.
type InventoryClient interface {
	CheckAvailability(ctx context.Context, productID string, quantity int) CheckResult
	Reserve(ctx context.Context, productID string, quantity int, orderID string) ReserveResult
	Release(ctx context.Context, productID string, quantity int, orderID string) ReleaseResult
}

// NotificationPublisher hands a message to the durable channel. Publish always
// returns the elapsed duration; failures are logged and swallowed inside the
// implementation and never fail the order.
type NotificationPublisher interface {
	Publish(ctx context.Context, msg domnotif.Message) time.Duration
}

type IDGenerator interface {
	NewID() string
}
