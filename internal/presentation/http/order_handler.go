package httppresentation

import (
	"errors"
	"net/http"

	apporder "github.com/kzhou57/orderflow/internal/application/order"
	domorder "github.com/kzhou57/orderflow/internal/domain/order"
	"github.com/kzhou57/orderflow/internal/observability"
)

// OrderHandler exposes the saga over HTTP. Validation problems come back as
// 400; business refusals (stock, reservation races) are a well-formed 200 with
// success=false, because the request itself was fine.
type OrderHandler struct {
	placeOrder *apporder.PlaceOrderUseCase
	mw         *Middleware
}

func NewOrderHandler(placeOrder *apporder.PlaceOrderUseCase, tel observability.Observability) *OrderHandler {
	return &OrderHandler{
		placeOrder: placeOrder,
		mw:         NewMiddleware("order-service", tel),
	}
}

func (h *OrderHandler) Router() http.Handler {
	mux := http.NewServeMux()
	h.mw.Handle(mux, http.MethodPost, "/api/orders", h.handlePlaceOrder)
	h.mw.Handle(mux, http.MethodGet, "/health", handleHealth)
	return mux
}

type placeOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	CustomerID        string           `json:"customer_id"`
	CustomerEmail     string           `json:"customer_email"`
	Items             []placeOrderItem `json:"items"`
	CommunicationMode string           `json:"communication_mode"`
}

type placeOrderResponse struct {
	Success bool            `json:"success"`
	OrderID string          `json:"order_id"`
	Message string          `json:"message"`
	Order   *domorder.Order `json:"order,omitempty"`
	Metrics phaseMetrics    `json:"metrics"`
}

type phaseMetrics struct {
	CheckMs   int64  `json:"check_ms"`
	ReserveMs int64  `json:"reserve_ms"`
	NotifyMs  int64  `json:"notify_ms"`
	TotalMs   int64  `json:"total_ms"`
	Mode      string `json:"mode"`
}

func (h *OrderHandler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	mode := apporder.Mode(req.CommunicationMode)
	if req.CommunicationMode == "" {
		mode = apporder.ModeLocal
	}

	cmd := apporder.PlaceOrderCommand{
		CustomerID:    req.CustomerID,
		CustomerEmail: req.CustomerEmail,
		Mode:          mode,
	}
	for _, item := range req.Items {
		cmd.Items = append(cmd.Items, apporder.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.placeOrder.Execute(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, apporder.ErrValidation) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, placeOrderResponse{
		Success: result.Success,
		OrderID: result.OrderID,
		Message: result.Message,
		Order:   result.Order,
		Metrics: phaseMetrics{
			CheckMs:   result.Metrics.Check.Milliseconds(),
			ReserveMs: result.Metrics.Reserve.Milliseconds(),
			NotifyMs:  result.Metrics.Notify.Milliseconds(),
			TotalMs:   result.Metrics.Total.Milliseconds(),
			Mode:      string(result.Metrics.Mode),
		},
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
