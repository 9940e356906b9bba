package rabbit

import (
	"context"
	"encoding/json"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	"github.com/kzhou57/orderflow/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Publisher writes confirmations to the notifications exchange with persistent
// delivery, so a broker restart cannot drop an enqueued message. Publish never
// returns an error: the saga completes regardless, and failures show up in the
// logs and the published counter instead.
type Publisher struct {
	ch Channel

	log       observability.Logger
	tracer    observability.Tracer
	published observability.Counter
}

func NewPublisher(ch Channel, tel observability.Observability) (*Publisher, error) {
	if tel == nil {
		tel = observability.Nop()
	}
	if err := DeclareTopology(ch); err != nil {
		return nil, err
	}
	return &Publisher{
		ch:        ch,
		log:       tel.Logger().With(observability.F("component", "notification_publisher")),
		tracer:    tel.Tracer(),
		published: tel.Metrics().Counter(observability.MNotificationsPublished),
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, msg domnotif.Message) time.Duration {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "AMQP publish "+RoutingKeyOrderCreated,
		attribute.String("messaging.destination", ExchangeName),
		attribute.String("messaging.routing_key", RoutingKeyOrderCreated),
	)
	defer span.End()

	body, err := json.Marshal(msg)
	if err == nil {
		err = p.ch.PublishWithContext(ctx, ExchangeName, RoutingKeyOrderCreated, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "PUBLISH_FAILED")
		p.published.Add(1, observability.L("outcome", "failure"))
		p.log.Error("notification_publish_failed",
			observability.F("routing_key", RoutingKeyOrderCreated),
			observability.F("recipient", msg.Recipient),
			observability.F("error", err.Error()),
		)
		return time.Since(start)
	}

	span.SetStatus(codes.Ok, "OK")
	p.published.Add(1, observability.L("outcome", "success"))
	p.log.Info("notification_published",
		observability.F("routing_key", RoutingKeyOrderCreated),
		observability.F("recipient", msg.Recipient),
		observability.F("kind", msg.Kind),
	)
	return time.Since(start)
}
