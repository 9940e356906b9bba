package order

import (
	"time"

	domorder "github.com/kzhou57/orderflow/internal/domain/order"
)

// ItemRequest is one requested line before any reservation happened.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderCommand is the saga entry payload.
type PlaceOrderCommand struct {
	CustomerID    string
	CustomerEmail string
	Items         []ItemRequest
	Mode          Mode
}

// PhaseMetrics accumulates wall-clock durations per saga phase. Check and
// Reserve are sums over the per-item transport calls.
type PhaseMetrics struct {
	Check   time.Duration
	Reserve time.Duration
	Notify  time.Duration
	Total   time.Duration
	Mode    Mode
}

// PlaceOrderResult is always well-formed: business failures are reported with
// Success=false rather than an error, carrying whatever metrics were gathered.
type PlaceOrderResult struct {
	Success bool
	OrderID string
	Message string
	Order   *domorder.Order
	Metrics PhaseMetrics
}
