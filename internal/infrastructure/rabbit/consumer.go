package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	appnotif "github.com/kzhou57/orderflow/internal/application/notification"
	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	"github.com/kzhou57/orderflow/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialReconnectWait = time.Second
	maxReconnectWait     = 30 * time.Second
)

// Consumer drains the order-notifications queue one message at a time.
// Prefetch is pinned to 1 and acknowledgments are manual: a message is acked
// only after the sender reported success, and nacked back onto the queue
// otherwise. Redelivery is unbounded; the requeued counter is the signal that
// a message is looping.
type Consumer struct {
	url string
	uc  *appnotif.ProcessUseCase

	log       observability.Logger
	processed observability.Counter
	requeued  observability.Counter

	processedTotal atomic.Int64
}

func NewConsumer(url string, uc *appnotif.ProcessUseCase, tel observability.Observability) *Consumer {
	if tel == nil {
		tel = observability.Nop()
	}
	metrics := tel.Metrics()
	return &Consumer{
		url:       url,
		uc:        uc,
		log:       tel.Logger().With(observability.F("component", "notification_consumer")),
		processed: metrics.Counter(observability.MNotificationsProcessed),
		requeued:  metrics.Counter(observability.MNotificationsRequeued),
	}
}

// Run consumes until ctx is cancelled, redialing with capped doubling backoff
// whenever the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		c.log.Info("consumer_stopped",
			observability.F("processed_total", c.processedTotal.Load()),
		)
	}()

	wait := initialReconnectWait
	for {
		err := c.consumeSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			c.log.Warn("consumer_session_ended",
				observability.F("error", err.Error()),
				observability.F("retry_in", wait.String()),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
		wait *= 2
		if wait > maxReconnectWait {
			wait = maxReconnectWait
		}
	}
}

// consumeSession holds one connection open and drains deliveries until the
// connection dies or ctx is cancelled.
func (c *Consumer) consumeSession(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := DeclareTopology(ch); err != nil {
		return err
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}
	c.log.Info("consumer_ready", observability.F("queue", QueueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle decides the fate of one delivery. Every path ends in exactly one ack
// or one nack-with-requeue; losing a message silently is never an option.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg domnotif.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.log.Error("notification_unmarshal_failed",
			observability.F("routing_key", d.RoutingKey),
			observability.F("error", err.Error()),
		)
		c.requeue(d)
		return
	}

	result := c.uc.Execute(ctx, msg)
	if !result.Success {
		c.requeue(d)
		return
	}

	if err := d.Ack(false); err != nil {
		c.log.Error("notification_ack_failed", observability.F("error", err.Error()))
		return
	}
	c.processed.Add(1, observability.L("outcome", "success"))
	c.processedTotal.Add(1)
}

func (c *Consumer) requeue(d amqp.Delivery) {
	if err := d.Nack(false, true); err != nil {
		c.log.Error("notification_nack_failed", observability.F("error", err.Error()))
		return
	}
	c.requeued.Add(1)
}
