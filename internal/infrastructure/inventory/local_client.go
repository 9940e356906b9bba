package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	approder "github.com/kzhou57/orderflow/internal/application/order"
	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
)

// LocalClient is the in-process transport: it calls the store directly but
// exposes exactly the same observable contract as the remote client, elapsed
// measurement included.
type LocalClient struct {
	store domain.Store
}

func NewLocalClient(store domain.Store) *LocalClient {
	return &LocalClient{store: store}
}

func (c *LocalClient) CheckAvailability(ctx context.Context, productID string, quantity int) approder.CheckResult {
	start := time.Now()

	if productID == "" || quantity <= 0 {
		return approder.CheckResult{Message: "invalid request", Elapsed: time.Since(start)}
	}

	available := c.store.CheckAvailability(ctx, productID, quantity)
	availableQty := c.store.AvailableQuantity(ctx, productID)

	msg := fmt.Sprintf("%d units available", quantity)
	if !available {
		msg = fmt.Sprintf("insufficient stock, only %d available", availableQty)
	}

	return approder.CheckResult{
		Available:         available,
		AvailableQuantity: availableQty,
		Message:           msg,
		Elapsed:           time.Since(start),
	}
}

func (c *LocalClient) Reserve(ctx context.Context, productID string, quantity int, orderID string) approder.ReserveResult {
	start := time.Now()

	if productID == "" || quantity <= 0 {
		return approder.ReserveResult{Message: "invalid request", Elapsed: time.Since(start)}
	}

	if err := c.store.Reserve(ctx, productID, quantity); err != nil {
		return approder.ReserveResult{
			Message: reserveFailureMessage(err),
			Elapsed: time.Since(start),
		}
	}

	return approder.ReserveResult{
		Success: true,
		Message: fmt.Sprintf("successfully reserved %d units for order %s", quantity, orderID),
		Elapsed: time.Since(start),
	}
}

func (c *LocalClient) Release(ctx context.Context, productID string, quantity int, orderID string) approder.ReleaseResult {
	start := time.Now()
	_ = orderID

	if productID == "" || quantity <= 0 {
		return approder.ReleaseResult{Elapsed: time.Since(start)}
	}

	err := c.store.Release(ctx, productID, quantity)
	return approder.ReleaseResult{
		Success: err == nil,
		Elapsed: time.Since(start),
	}
}

func reserveFailureMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "product not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "failed to reserve items - insufficient stock"
	default:
		return err.Error()
	}
}
