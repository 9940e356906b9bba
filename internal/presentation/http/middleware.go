package httppresentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kzhou57/orderflow/internal/observability"
	"github.com/kzhou57/orderflow/internal/observability/logctx"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const headerRequestID = "X-Request-ID"

// Middleware bundles the per-request plumbing every route gets:
// W3C trace extraction plus a server span, a request-scoped logger with
// request/trace ids, RED metrics on stable route templates, and one access log
// line after the handler returns.
type Middleware struct {
	log          observability.Logger
	tracerName   string
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewMiddleware(service string, tel observability.Observability) *Middleware {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Middleware{
		log:          tel.Logger().With(observability.F("component", "http_server")),
		tracerName:   service + ".http",
		reqCounter:   metrics.Counter(observability.MHTTPRequests),
		durHistogram: metrics.Histogram(observability.MHTTPRequestDuration),
	}
}

// Handle registers route on mux with the full middleware chain:
// Trace → Request logger → Metrics + Access log → Handler.
func (m *Middleware) Handle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(method+" "+route, func(w http.ResponseWriter, r *http.Request) {
		ctx := contextWithRoute(r.Context(), route)
		m.withTrace(m.withRequestLogger(m.observe(handler))).ServeHTTP(w, r.WithContext(ctx))
	})
}

// withTrace starts a server span from the incoming W3C headers.
func (m *Middleware) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer(m.tracerName)
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		ctx, span := tracer.Start(parentCtx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("http.target", r.URL.Path),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRequestLogger injects a request-scoped logger carrying the request id
// and, when sampled, the trace/span ids. The request id is echoed back.
func (m *Middleware) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(headerRequestID, rid)

		fields := []observability.Field{observability.F("request_id", rid)}
		if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}

		ctx := logctx.With(r.Context(), m.log.With(fields...))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe records RED metrics and the access log in one pass.
func (m *Middleware) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		route := routeFromContext(r.Context())
		status := strconv.Itoa(lrw.status)
		m.reqCounter.Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		m.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)

		logctx.FromOr(r.Context(), m.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", route),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

type routeKey struct{}

// contextWithRoute stores the stable route template so metrics and logs stay
// low-cardinality.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
