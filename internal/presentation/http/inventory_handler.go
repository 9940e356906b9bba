package httppresentation

import (
	"errors"
	"net/http"
	"time"

	domain "github.com/kzhou57/orderflow/internal/domain/inventory"
	"github.com/kzhou57/orderflow/internal/observability"
)

// InventoryHandler is the remote inventory surface. Mutations are rejected
// with 400 before touching the store; refusals the store itself makes (unknown
// product, insufficient stock) are a 200 with the refusal in the payload so
// remote and in-process callers observe identical semantics.
type InventoryHandler struct {
	store domain.Store
	mw    *Middleware
}

func NewInventoryHandler(store domain.Store, tel observability.Observability) *InventoryHandler {
	return &InventoryHandler{
		store: store,
		mw:    NewMiddleware("inventory-service", tel),
	}
}

func (h *InventoryHandler) Router() http.Handler {
	mux := http.NewServeMux()
	h.mw.Handle(mux, http.MethodPost, "/api/inventory/check", h.handleCheck)
	h.mw.Handle(mux, http.MethodPost, "/api/inventory/reserve", h.handleReserve)
	h.mw.Handle(mux, http.MethodPost, "/api/inventory/release", h.handleRelease)
	h.mw.Handle(mux, http.MethodGet, "/api/inventory/items", h.handleListItems)
	h.mw.Handle(mux, http.MethodGet, "/api/inventory/items/{id}", h.handleGetItem)
	h.mw.Handle(mux, http.MethodGet, "/health", handleHealth)
	return mux
}

type inventoryCheckRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type inventoryCheckResponse struct {
	Available         bool   `json:"available"`
	AvailableQuantity int    `json:"available_quantity"`
	Message           string `json:"message"`
}

type inventoryMutateRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"order_id"`
}

type inventoryReserveResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RemainingQuantity int    `json:"remaining_quantity"`
}

type inventoryReleaseResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	UpdatedQuantity int    `json:"updated_quantity"`
}

type inventoryItem struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   int64     `json:"unit_price"`
	LastUpdated time.Time `json:"last_updated"`
}

func (h *InventoryHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req inventoryCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	available := h.store.CheckAvailability(r.Context(), req.ProductID, req.Quantity)
	availableQty := h.store.AvailableQuantity(r.Context(), req.ProductID)

	resp := inventoryCheckResponse{
		Available:         available,
		AvailableQuantity: availableQty,
		Message:           "insufficient stock",
	}
	if available {
		resp.Message = "stock available"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InventoryHandler) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req inventoryMutateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	if err := h.store.Reserve(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeJSON(w, http.StatusOK, inventoryReserveResponse{
			Message:           reserveRefusalMessage(err),
			RemainingQuantity: h.store.AvailableQuantity(r.Context(), req.ProductID),
		})
		return
	}

	writeJSON(w, http.StatusOK, inventoryReserveResponse{
		Success:           true,
		Message:           "reserved",
		RemainingQuantity: h.store.AvailableQuantity(r.Context(), req.ProductID),
	})
}

func (h *InventoryHandler) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req inventoryMutateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.ProductID == "" || req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, errInvalidRequest)
		return
	}

	if err := h.store.Release(r.Context(), req.ProductID, req.Quantity); err != nil {
		writeJSON(w, http.StatusOK, inventoryReleaseResponse{
			Message:         err.Error(),
			UpdatedQuantity: h.store.AvailableQuantity(r.Context(), req.ProductID),
		})
		return
	}

	writeJSON(w, http.StatusOK, inventoryReleaseResponse{
		Success:         true,
		Message:         "released",
		UpdatedQuantity: h.store.AvailableQuantity(r.Context(), req.ProductID),
	})
}

func (h *InventoryHandler) handleListItems(w http.ResponseWriter, r *http.Request) {
	records := h.store.List(r.Context())
	items := make([]inventoryItem, 0, len(records))
	for _, rec := range records {
		items = append(items, toItem(rec))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(*rec))
}

func toItem(rec domain.Record) inventoryItem {
	return inventoryItem{
		ProductID:   rec.ProductID,
		Name:        rec.Name,
		Quantity:    rec.Quantity,
		UnitPrice:   rec.UnitPrice,
		LastUpdated: rec.LastUpdated,
	}
}

func reserveRefusalMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "product not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient stock"
	default:
		return err.Error()
	}
}

var errInvalidRequest = errors.New("product_id and a positive quantity are required")
