package inventory

import (
	"context"
	"strings"
	"testing"

	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
	"github.com/kzhou57/orderflow/internal/infrastructure/memory"
)

func newLocalClient(t *testing.T, quantity int) (*LocalClient, *memory.InventoryStore) {
	t.Helper()
	store := memory.NewInventoryStore()
	store.Seed([]domain.Record{
		{ProductID: "SKU-A", Name: "Widget A", Quantity: quantity, UnitPrice: 1000},
	})
	return NewLocalClient(store), store
}

func TestLocalCheckAvailability(t *testing.T) {
	client, _ := newLocalClient(t, 5)
	ctx := context.Background()

	res := client.CheckAvailability(ctx, "SKU-A", 3)
	if !res.Available || res.AvailableQuantity != 5 {
		t.Fatalf("result = %+v", res)
	}

	res = client.CheckAvailability(ctx, "SKU-A", 6)
	if res.Available {
		t.Fatalf("check passed beyond stock: %+v", res)
	}
	if !strings.Contains(res.Message, "only 5 available") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestLocalReserve(t *testing.T) {
	client, store := newLocalClient(t, 5)
	ctx := context.Background()

	res := client.Reserve(ctx, "SKU-A", 2, "ord-1")
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Message, "reserved 2 units for order ord-1") {
		t.Fatalf("message = %q", res.Message)
	}
	if got := store.AvailableQuantity(ctx, "SKU-A"); got != 3 {
		t.Fatalf("quantity = %d, want 3", got)
	}

	res = client.Reserve(ctx, "SKU-A", 10, "ord-2")
	if res.Success {
		t.Fatalf("oversized reserve succeeded: %+v", res)
	}
	if !strings.Contains(res.Message, "insufficient stock") {
		t.Fatalf("message = %q", res.Message)
	}

	res = client.Reserve(ctx, "SKU-MISSING", 1, "ord-3")
	if res.Success || res.Message != "product not found" {
		t.Fatalf("result = %+v", res)
	}
}

func TestLocalRelease(t *testing.T) {
	client, store := newLocalClient(t, 5)
	ctx := context.Background()

	res := client.Release(ctx, "SKU-A", 2, "ord-1")
	if !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if got := store.AvailableQuantity(ctx, "SKU-A"); got != 7 {
		t.Fatalf("quantity = %d, want 7", got)
	}

	if res := client.Release(ctx, "SKU-MISSING", 1, "ord-1"); res.Success {
		t.Fatalf("release for unknown product succeeded: %+v", res)
	}
}

func TestLocalRejectsInvalidInput(t *testing.T) {
	client, store := newLocalClient(t, 5)
	ctx := context.Background()

	if res := client.CheckAvailability(ctx, "", 1); res.Available {
		t.Fatalf("blank product id accepted: %+v", res)
	}
	if res := client.Reserve(ctx, "SKU-A", 0, "ord-1"); res.Success {
		t.Fatalf("zero quantity accepted: %+v", res)
	}
	if res := client.Release(ctx, "SKU-A", -1, "ord-1"); res.Success {
		t.Fatalf("negative quantity accepted: %+v", res)
	}
	if got := store.AvailableQuantity(ctx, "SKU-A"); got != 5 {
		t.Fatalf("invalid input mutated stock: %d", got)
	}
}
