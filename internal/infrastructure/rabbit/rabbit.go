package rabbit

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// ExchangeName is the topic exchange all notification traffic goes through.
	ExchangeName = "notifications"
	// QueueName is the durable queue the consumer drains.
	QueueName = "order-notifications"
	// RoutingKeyOrderCreated tags confirmations emitted when a saga completes.
	RoutingKeyOrderCreated = "order.created"
)

// Channel is the slice of *amqp091.Channel the publisher needs; tests swap in
// a fake.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// DeclareTopology sets up the exchange, queue, and binding. Declarations are
// idempotent, so publisher and consumer both call it and either order of
// startup works.
func DeclareTopology(ch Channel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeName, err)
	}
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueName, err)
	}
	if err := ch.QueueBind(QueueName, "order.*", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", QueueName, err)
	}
	return nil
}
