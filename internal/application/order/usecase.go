package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	domorder "github.com/kzhou57/orderflow/internal/domain/order"
	"github.com/kzhou57/orderflow/internal/observability"
	"github.com/kzhou57/orderflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrValidation marks requests rejected before any side effect. Callers map it
// to a client-error response; everything else the saga answers with a
// structured success/failure payload.
var ErrValidation = errors.New("order: invalid request")

const (
	orderService      = "order-service"
	useCasePlaceOrder = "order.place"
	placeOrderSpan    = "UC.PlaceOrder"

	phaseCheck   = "check"
	phaseReserve = "reserve"
	phaseNotify  = "notify"

	// The catalog is not consulted for pricing; reserved lines get a synthesized
	// demo price like the system this replaces.
	fallbackUnitPrice int64 = 9999
)

// PlaceOrderUseCase drives the per-order saga: validate all items, reserve all
// items with compensating release on partial failure, publish a confirmation,
// complete. It holds no mutable state shared between executions.
type PlaceOrderUseCase struct {
	clients   map[Mode]InventoryClient
	publisher NotificationPublisher
	ids       IDGenerator

	log            observability.Logger
	tracer         observability.Tracer
	reqCounter     observability.Counter
	durHistogram   observability.Histogram
	phaseHistogram observability.Histogram
}

func NewPlaceOrderUseCase(
	local, remote InventoryClient,
	publisher NotificationPublisher,
	ids IDGenerator,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}

	clients := make(map[Mode]InventoryClient, 2)
	if local != nil {
		clients[ModeLocal] = local
	}
	if remote != nil {
		clients[ModeRemote] = remote
	}

	metrics := tel.Metrics()
	return &PlaceOrderUseCase{
		clients:        clients,
		publisher:      publisher,
		ids:            ids,
		log:            tel.Logger().With(observability.F("service", orderService)),
		tracer:         tel.Tracer(),
		reqCounter:     metrics.Counter(observability.MUsecaseRequests),
		durHistogram:   metrics.Histogram(observability.MUsecaseDuration),
		phaseHistogram: metrics.Histogram(observability.MSagaPhaseDuration),
	}
}

// Execute runs one saga. It never returns a business failure as an error: the
// error return is reserved for validation rejections (ErrValidation). Any
// internal fault, panics included, is converted into a failed result carrying
// the metrics collected so far.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderCommand) (result *PlaceOrderResult, err error) {
	if err := uc.validate(cmd); err != nil {
		return nil, err
	}

	client := uc.clients[cmd.Mode]
	ord := domorder.New(uc.ids.NewID(), cmd.CustomerID, cmd.CustomerEmail)

	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePlaceOrder),
		observability.F("order_id", ord.ID),
		observability.F("customer_id", cmd.CustomerID),
		observability.F("mode", string(cmd.Mode)),
		observability.F("item_count", len(cmd.Items)),
	)

	ctx, span := uc.tracer.Start(ctx, placeOrderSpan,
		attribute.String("use_case", useCasePlaceOrder),
		attribute.String("order.id", ord.ID),
		attribute.String("order.mode", string(cmd.Mode)),
		attribute.Int("order.item_count", len(cmd.Items)),
	)

	start := time.Now()
	metrics := PhaseMetrics{Mode: cmd.Mode}
	outcome, statusText := "success", "OK"

	defer func() {
		if r := recover(); r != nil {
			outcome, statusText = "error", "PANIC"
			ord.Fail(fmt.Sprintf("internal error: %v", r))
			metrics.Total = time.Since(start)
			result = &PlaceOrderResult{
				Success: false,
				OrderID: ord.ID,
				Message: ord.ErrorMessage,
				Order:   ord,
				Metrics: metrics,
			}
			err = nil
			span.RecordError(fmt.Errorf("panic: %v", r))
		}

		if span != nil {
			if outcome == "success" {
				span.SetStatus(codes.Ok, statusText)
			} else {
				span.SetStatus(codes.Error, statusText)
			}
			span.End()
		}

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePlaceOrder),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(latency, observability.L("use_case", useCasePlaceOrder))
		uc.observePhases(metrics)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("order_status", string(ord.Status)),
			observability.F("latency_seconds", latency),
			observability.F("check_ms", metrics.Check.Milliseconds()),
			observability.F("reserve_ms", metrics.Reserve.Milliseconds()),
			observability.F("notify_ms", metrics.Notify.Milliseconds()),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if ord.ErrorMessage != "" {
			fields = append(fields, observability.F("failure_reason", ord.ErrorMessage))
		}
		logger.Info("use_case_done", fields...)
	}()

	// Phase 1: validate availability for every item, in request order. The
	// first unavailable item fails the saga with zero reservations attempted.
	_ = ord.BeginValidation()
	for _, item := range cmd.Items {
		res := client.CheckAvailability(ctx, item.ProductID, item.Quantity)
		metrics.Check += res.Elapsed
		if !res.Available {
			outcome, statusText = "failure", "INSUFFICIENT_STOCK"
			ord.Fail(fmt.Sprintf("insufficient stock for product %s", item.ProductID))
			metrics.Total = time.Since(start)
			return uc.failure(ord, metrics), nil
		}
	}
	span.AddEvent("availability_validated")

	// Phase 2: reserve in request order. Lines accumulate as reservations
	// succeed, so on failure the lines are exactly the set to compensate.
	_ = ord.MarkReserved()
	for _, item := range cmd.Items {
		res := client.Reserve(ctx, item.ProductID, item.Quantity, ord.ID)
		metrics.Reserve += res.Elapsed
		if !res.Success {
			outcome, statusText = "failure", "RESERVE_FAILED"
			uc.compensate(ctx, client, ord, &metrics, logger)
			ord.Fail(fmt.Sprintf("failed to reserve %s: %s", item.ProductID, res.Message))
			metrics.Total = time.Since(start)
			return uc.failure(ord, metrics), nil
		}
		ord.AddLine(domorder.Line{
			ProductID:   item.ProductID,
			ProductName: item.ProductID,
			Quantity:    item.Quantity,
			UnitPrice:   fallbackUnitPrice,
		})
	}
	span.AddEvent("inventory_reserved")

	ord.TotalAmount = ord.Total()

	// Phase 3: fire-and-forget confirmation. Publish failure never fails the
	// order; the publisher reports elapsed time regardless of outcome.
	if uc.publisher != nil {
		metrics.Notify = uc.publisher.Publish(ctx, buildConfirmation(ord))
	}

	if err := ord.Complete(); err != nil {
		outcome, statusText = "error", "COMPLETE_FAILED"
		ord.Fail(err.Error())
		metrics.Total = time.Since(start)
		return uc.failure(ord, metrics), nil
	}
	metrics.Total = time.Since(start)

	return &PlaceOrderResult{
		Success: true,
		OrderID: ord.ID,
		Message: "order created successfully",
		Order:   ord,
		Metrics: metrics,
	}, nil
}

// compensate releases every line reserved so far, in reservation order.
// Release failures are logged; there is no further recovery path for them.
func (uc *PlaceOrderUseCase) compensate(
	ctx context.Context,
	client InventoryClient,
	ord *domorder.Order,
	metrics *PhaseMetrics,
	logger observability.Logger,
) {
	for _, line := range ord.Lines {
		res := client.Release(ctx, line.ProductID, line.Quantity, ord.ID)
		metrics.Reserve += res.Elapsed
		if !res.Success {
			logger.Error("compensation_release_failed",
				observability.F("product_id", line.ProductID),
				observability.F("quantity", line.Quantity),
			)
		}
	}
	ord.Lines = nil
}

func (uc *PlaceOrderUseCase) validate(cmd PlaceOrderCommand) error {
	if len(cmd.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}
	for _, item := range cmd.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: product id is required", ErrValidation)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be greater than zero", ErrValidation)
		}
	}
	if _, ok := uc.clients[cmd.Mode]; !ok {
		return fmt.Errorf("%w: unsupported communication mode %q", ErrValidation, cmd.Mode)
	}
	return nil
}

func (uc *PlaceOrderUseCase) failure(ord *domorder.Order, metrics PhaseMetrics) *PlaceOrderResult {
	return &PlaceOrderResult{
		Success: false,
		OrderID: ord.ID,
		Message: ord.ErrorMessage,
		Order:   ord,
		Metrics: metrics,
	}
}

func (uc *PlaceOrderUseCase) observePhases(m PhaseMetrics) {
	mode := observability.L("mode", string(m.Mode))
	uc.phaseHistogram.Observe(m.Check.Seconds(), observability.L("phase", phaseCheck), mode)
	uc.phaseHistogram.Observe(m.Reserve.Seconds(), observability.L("phase", phaseReserve), mode)
	uc.phaseHistogram.Observe(m.Notify.Seconds(), observability.L("phase", phaseNotify), mode)
}

func buildConfirmation(ord *domorder.Order) domnotif.Message {
	return domnotif.Message{
		Kind:      domnotif.KindOrderConfirmation,
		Recipient: ord.CustomerEmail,
		Subject:   fmt.Sprintf("Order Confirmation - %s", ord.ID),
		Body: fmt.Sprintf("Your order %s has been confirmed. Total: $%s",
			ord.ID, domorder.FormatCents(ord.TotalAmount)),
		Metadata: map[string]string{
			"order_id":     ord.ID,
			"total_amount": domorder.FormatCents(ord.TotalAmount),
			"item_count":   fmt.Sprintf("%d", len(ord.Lines)),
		},
		CreatedAt: time.Now().UTC(),
	}
}
