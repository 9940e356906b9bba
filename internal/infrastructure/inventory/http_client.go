package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	approder "github.com/kzhou57/orderflow/internal/application/order"
	"github.com/kzhou57/orderflow/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	inventoryPeer = "inventory-service"

	defaultMaxAttempts    = 3
	defaultInitialBackoff = 50 * time.Millisecond
	defaultHTTPTimeout    = 5 * time.Second
)

// HTTPClient talks to a remote inventory surface over JSON. Transport faults
// never surface as errors: after the retry budget is spent the operation
// reports a failed result, exactly like a business refusal would.
type HTTPClient struct {
	baseURL string
	client  *http.Client

	maxAttempts    int
	initialBackoff time.Duration

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

type HTTPClientOption func(*HTTPClient)

// WithHTTPDoer swaps the underlying client, mainly for tests.
func WithHTTPDoer(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithRetry overrides the retry budget. Attempts below 1 are clamped to 1.
func WithRetry(attempts int, initialBackoff time.Duration) HTTPClientOption {
	return func(h *HTTPClient) {
		if attempts < 1 {
			attempts = 1
		}
		h.maxAttempts = attempts
		h.initialBackoff = initialBackoff
	}
}

func NewHTTPClient(baseURL string, tel observability.Observability, opts ...HTTPClientOption) *HTTPClient {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	h := &HTTPClient{
		baseURL:        strings.TrimRight(baseURL, "/"),
		client:         &http.Client{Timeout: defaultHTTPTimeout},
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		log:            tel.Logger().With(observability.F("component", "inventory_http_client")),
		tracer:         tel.Tracer(),
		reqCounter:     metrics.Counter(observability.MExternalRequests),
		durHistogram:   metrics.Histogram(observability.MExternalRequestDuration),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type checkRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type checkResponse struct {
	Available         bool   `json:"available"`
	AvailableQuantity int    `json:"available_quantity"`
	Message           string `json:"message"`
}

type mutateRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	OrderID   string `json:"order_id"`
}

type reserveResponse struct {
	Success           bool   `json:"success"`
	Message           string `json:"message"`
	RemainingQuantity int    `json:"remaining_quantity"`
}

type releaseResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	UpdatedQuantity int    `json:"updated_quantity"`
}

func (h *HTTPClient) CheckAvailability(ctx context.Context, productID string, quantity int) approder.CheckResult {
	start := time.Now()

	var resp checkResponse
	err := h.post(ctx, "/api/inventory/check", checkRequest{ProductID: productID, Quantity: quantity}, &resp)
	if err != nil {
		return approder.CheckResult{
			Message: "inventory service unavailable",
			Elapsed: time.Since(start),
		}
	}

	return approder.CheckResult{
		Available:         resp.Available,
		AvailableQuantity: resp.AvailableQuantity,
		Message:           resp.Message,
		Elapsed:           time.Since(start),
	}
}

func (h *HTTPClient) Reserve(ctx context.Context, productID string, quantity int, orderID string) approder.ReserveResult {
	start := time.Now()

	var resp reserveResponse
	err := h.post(ctx, "/api/inventory/reserve", mutateRequest{ProductID: productID, Quantity: quantity, OrderID: orderID}, &resp)
	if err != nil {
		return approder.ReserveResult{
			Message: "inventory service unavailable",
			Elapsed: time.Since(start),
		}
	}

	return approder.ReserveResult{
		Success: resp.Success,
		Message: resp.Message,
		Elapsed: time.Since(start),
	}
}

func (h *HTTPClient) Release(ctx context.Context, productID string, quantity int, orderID string) approder.ReleaseResult {
	start := time.Now()

	var resp releaseResponse
	err := h.post(ctx, "/api/inventory/release", mutateRequest{ProductID: productID, Quantity: quantity, OrderID: orderID}, &resp)
	if err != nil {
		return approder.ReleaseResult{Elapsed: time.Since(start)}
	}

	return approder.ReleaseResult{
		Success: resp.Success,
		Elapsed: time.Since(start),
	}
}

// post runs one logical call with up to maxAttempts physical attempts. Network
// errors and 5xx responses are retried with doubling backoff; 4xx responses are
// terminal because retrying a rejected request cannot change the answer.
func (h *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	ctx, span := h.tracer.Start(ctx, "HTTP POST "+path,
		attribute.String("peer.service", inventoryPeer),
		attribute.String("http.path", path),
	)
	defer span.End()

	start := time.Now()
	backoff := h.initialBackoff

	var lastErr error
loop:
	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				break loop
			case <-time.After(backoff):
				backoff *= 2
			}
		}

		var retryable bool
		retryable, lastErr = h.attempt(ctx, path, body, out)
		if lastErr == nil || !retryable {
			break
		}
		h.log.Warn("inventory_call_retry",
			observability.F("path", path),
			observability.F("attempt", attempt),
			observability.F("error", lastErr.Error()),
		)
	}

	outcome := "success"
	if lastErr != nil {
		outcome = "failure"
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, "UPSTREAM_FAILED")
	} else {
		span.SetStatus(codes.Ok, "OK")
	}

	h.reqCounter.Add(1,
		observability.L("peer", inventoryPeer),
		observability.L("endpoint", path),
		observability.L("outcome", outcome),
	)
	h.durHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", inventoryPeer),
		observability.L("endpoint", path),
	)

	return lastErr
}

func (h *HTTPClient) attempt(ctx context.Context, path string, body []byte, out any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return true, fmt.Errorf("call inventory: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 500:
		return true, fmt.Errorf("inventory returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("inventory rejected request: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}
