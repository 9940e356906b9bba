package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apporder "github.com/kzhou57/orderflow/internal/application/order"
	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
	infrainv "github.com/kzhou57/orderflow/internal/infrastructure/inventory"
	"github.com/kzhou57/orderflow/internal/infrastructure/memory"
)

type fixedIDs struct{}

func (fixedIDs) NewID() string { return "ord-fixed" }

func newOrderRouter(t *testing.T) (http.Handler, *memory.InventoryStore) {
	t.Helper()
	store := memory.NewInventoryStore()
	store.Seed([]domain.Record{
		{ProductID: "SKU-A", Name: "Widget A", Quantity: 10, UnitPrice: 1000},
	})
	uc := apporder.NewPlaceOrderUseCase(infrainv.NewLocalClient(store), nil, nil, fixedIDs{}, nil)
	return NewOrderHandler(uc, nil).Router(), store
}

func postJSON(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPlaceOrderEndpoint(t *testing.T) {
	router, store := newOrderRouter(t)

	rec := postJSON(t, router, "/api/orders", `{
		"customer_id": "cust-1",
		"customer_email": "cust@example.com",
		"items": [{"product_id": "SKU-A", "quantity": 2}],
		"communication_mode": "local"
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp placeOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.OrderID != "ord-fixed" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Order == nil || len(resp.Order.Lines) != 1 {
		t.Fatalf("order payload = %+v", resp.Order)
	}
	if got := store.AvailableQuantity(context.Background(), "SKU-A"); got != 8 {
		t.Fatalf("stock after order = %d, want 8", got)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id not echoed")
	}
}

func TestPlaceOrderBusinessRefusalIsStill200(t *testing.T) {
	router, _ := newOrderRouter(t)

	rec := postJSON(t, router, "/api/orders", `{
		"customer_id": "cust-1",
		"customer_email": "cust@example.com",
		"items": [{"product_id": "SKU-A", "quantity": 999}]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a business refusal", rec.Code)
	}

	var resp placeOrderResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Fatalf("response = %+v, want refusal", resp)
	}
	if !strings.Contains(resp.Message, "insufficient stock") {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestPlaceOrderValidationIs400(t *testing.T) {
	router, _ := newOrderRouter(t)

	for name, body := range map[string]string{
		"malformed json": `{`,
		"unknown field":  `{"customer": "x"}`,
		"no items":       `{"customer_id": "cust-1", "items": []}`,
		"zero quantity":  `{"customer_id": "cust-1", "items": [{"product_id": "SKU-A", "quantity": 0}]}`,
	} {
		rec := postJSON(t, router, "/api/orders", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestPlaceOrderMethodNotAllowed(t *testing.T) {
	router, _ := newOrderRouter(t)
	if rec := getPath(t, router, "/api/orders"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func newInventoryRouter(t *testing.T) (http.Handler, *memory.InventoryStore) {
	t.Helper()
	store := memory.NewInventoryStore()
	store.Seed([]domain.Record{
		{ProductID: "SKU-A", Name: "Widget A", Quantity: 10, UnitPrice: 1000},
		{ProductID: "SKU-B", Name: "Widget B", Quantity: 0, UnitPrice: 500},
	})
	return NewInventoryHandler(store, nil).Router(), store
}

func TestInventoryCheckEndpoint(t *testing.T) {
	router, _ := newInventoryRouter(t)

	rec := postJSON(t, router, "/api/inventory/check", `{"product_id": "SKU-A", "quantity": 4}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp inventoryCheckResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Available || resp.AvailableQuantity != 10 {
		t.Fatalf("response = %+v", resp)
	}

	rec = postJSON(t, router, "/api/inventory/check", `{"product_id": "SKU-B", "quantity": 1}`)
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Available {
		t.Fatalf("response = %+v, want unavailable", resp)
	}
}

func TestInventoryReserveAndReleaseEndpoints(t *testing.T) {
	router, store := newInventoryRouter(t)
	ctx := context.Background()

	rec := postJSON(t, router, "/api/inventory/reserve", `{"product_id": "SKU-A", "quantity": 3, "order_id": "ord-1"}`)
	var reserve inventoryReserveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &reserve); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reserve.Success || reserve.RemainingQuantity != 7 {
		t.Fatalf("reserve = %+v", reserve)
	}

	// Refusals come back as a 200 with success=false, mirroring what the
	// in-process client reports.
	rec = postJSON(t, router, "/api/inventory/reserve", `{"product_id": "SKU-A", "quantity": 999, "order_id": "ord-2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &reserve)
	if reserve.Success || reserve.Message != "insufficient stock" {
		t.Fatalf("reserve = %+v", reserve)
	}

	rec = postJSON(t, router, "/api/inventory/release", `{"product_id": "SKU-A", "quantity": 3, "order_id": "ord-1"}`)
	var release inventoryReleaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &release); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !release.Success || release.UpdatedQuantity != 10 {
		t.Fatalf("release = %+v", release)
	}
	if got := store.AvailableQuantity(ctx, "SKU-A"); got != 10 {
		t.Fatalf("final stock = %d, want 10", got)
	}
}

func TestInventoryMutationsRejectBadInput(t *testing.T) {
	router, _ := newInventoryRouter(t)

	for name, body := range map[string]string{
		"blank product": `{"product_id": "", "quantity": 1}`,
		"zero quantity": `{"product_id": "SKU-A", "quantity": 0}`,
	} {
		for _, path := range []string{"/api/inventory/check", "/api/inventory/reserve", "/api/inventory/release"} {
			if rec := postJSON(t, router, path, body); rec.Code != http.StatusBadRequest {
				t.Fatalf("%s %s: status = %d, want 400", path, name, rec.Code)
			}
		}
	}
}

func TestInventoryItemsEndpoints(t *testing.T) {
	router, _ := newInventoryRouter(t)

	rec := getPath(t, router, "/api/inventory/items")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var items []inventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].ProductID != "SKU-A" {
		t.Fatalf("items = %+v", items)
	}

	rec = getPath(t, router, "/api/inventory/items/SKU-B")
	var item inventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if item.Name != "Widget B" {
		t.Fatalf("item = %+v", item)
	}

	if rec := getPath(t, router, "/api/inventory/items/SKU-MISSING"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	orderRouter, _ := newOrderRouter(t)
	invRouter, _ := newInventoryRouter(t)

	for _, router := range []http.Handler{orderRouter, invRouter} {
		if rec := getPath(t, router, "/health"); rec.Code != http.StatusOK {
			t.Fatalf("health status = %d", rec.Code)
		}
	}
}
