package notification

import (
	"context"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	"github.com/kzhou57/orderflow/internal/observability"
	"github.com/kzhou57/orderflow/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	notificationService = "notification-service"
	useCaseProcess      = "notification.process"
	processSpan         = "UC.ProcessNotification"
)

// ProcessUseCase handles one delivered message: it hands the message to the
// sender and reports the outcome so the consumer can decide between ack and
// nack-with-requeue.
type ProcessUseCase struct {
	sender Sender

	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewProcessUseCase(sender Sender, tel observability.Observability) *ProcessUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &ProcessUseCase{
		sender:       sender,
		log:          tel.Logger().With(observability.F("service", notificationService)),
		tracer:       tel.Tracer(),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

func (uc *ProcessUseCase) Execute(ctx context.Context, msg domnotif.Message) domnotif.Result {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCaseProcess),
		observability.F("kind", msg.Kind),
		observability.F("recipient", msg.Recipient),
	)

	ctx, span := uc.tracer.Start(ctx, processSpan,
		attribute.String("use_case", useCaseProcess),
		attribute.String("notification.kind", msg.Kind),
	)
	start := time.Now()

	result := uc.sender.Send(ctx, msg)

	outcome := "success"
	if result.Success {
		span.SetStatus(codes.Ok, "OK")
	} else {
		outcome = "failure"
		span.SetStatus(codes.Error, "SEND_FAILED")
	}
	span.End()

	latency := time.Since(start).Seconds()
	uc.reqCounter.Add(1,
		observability.L("use_case", useCaseProcess),
		observability.L("outcome", outcome),
	)
	uc.durHistogram.Observe(latency, observability.L("use_case", useCaseProcess))

	logger.Info("use_case_done",
		observability.F("outcome", outcome),
		observability.F("latency_seconds", latency),
		observability.F("send_ms", result.Elapsed.Milliseconds()),
		observability.F("detail", result.Message),
	)

	return result
}
