package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeChannel struct {
	exchanges []string
	queues    []string
	bindings  []string

	published  []amqp.Publishing
	publishKey string
	publishErr error
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, _ amqp.Table) error {
	if kind != "topic" || !durable {
		return errors.New("unexpected exchange options")
	}
	f.exchanges = append(f.exchanges, name)
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, _ amqp.Table) (amqp.Queue, error) {
	if !durable || exclusive {
		return amqp.Queue{}, errors.New("unexpected queue options")
	}
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	f.bindings = append(f.bindings, name+":"+key+":"+exchange)
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	if mandatory || immediate {
		return errors.New("unexpected publish flags")
	}
	if exchange != ExchangeName {
		return errors.New("wrong exchange")
	}
	f.publishKey = key
	f.published = append(f.published, msg)
	return nil
}

func testMessage() domnotif.Message {
	return domnotif.Message{
		Kind:      domnotif.KindOrderConfirmation,
		Recipient: "cust@example.com",
		Subject:   "Order Confirmation - ord-1",
		Body:      "Your order ord-1 has been confirmed. Total: $25.00",
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewPublisherDeclaresTopology(t *testing.T) {
	ch := &fakeChannel{}
	if _, err := NewPublisher(ch, nil); err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	if len(ch.exchanges) != 1 || ch.exchanges[0] != ExchangeName {
		t.Fatalf("exchanges = %v", ch.exchanges)
	}
	if len(ch.queues) != 1 || ch.queues[0] != QueueName {
		t.Fatalf("queues = %v", ch.queues)
	}
	if len(ch.bindings) != 1 {
		t.Fatalf("bindings = %v", ch.bindings)
	}
}

func TestPublishMarksMessagesPersistent(t *testing.T) {
	ch := &fakeChannel{}
	pub, err := NewPublisher(ch, nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	elapsed := pub.Publish(context.Background(), testMessage())
	if elapsed < 0 {
		t.Fatalf("elapsed = %v", elapsed)
	}
	if len(ch.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(ch.published))
	}

	msg := ch.published[0]
	if msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("delivery mode = %d, want persistent", msg.DeliveryMode)
	}
	if msg.ContentType != "application/json" {
		t.Fatalf("content type = %q", msg.ContentType)
	}
	if ch.publishKey != RoutingKeyOrderCreated {
		t.Fatalf("routing key = %q", ch.publishKey)
	}

	var decoded domnotif.Message
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if decoded.Recipient != "cust@example.com" {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestPublishSwallowsBrokerErrors(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("broker gone")}
	pub, err := NewPublisher(ch, nil)
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}

	// The caller only ever sees a duration; the failure lives in logs and
	// metrics.
	if elapsed := pub.Publish(context.Background(), testMessage()); elapsed < 0 {
		t.Fatalf("elapsed = %v", elapsed)
	}
}
