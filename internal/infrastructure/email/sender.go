package email

import (
	"context"
	"fmt"
	"time"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
	"github.com/kzhou57/orderflow/internal/observability"
)

const defaultSendLatency = 100 * time.Millisecond

// Sender simulates an email gateway. Delivery takes a configurable amount of
// wall-clock time and can be forced to fail, which is how the requeue path of
// the consumer gets exercised end to end.
type Sender struct {
	latency time.Duration
	fail    func(msg domnotif.Message) bool

	log observability.Logger
}

type Option func(*Sender)

// WithLatency sets the simulated delivery time.
func WithLatency(d time.Duration) Option {
	return func(s *Sender) { s.latency = d }
}

// WithFailure installs a predicate deciding which messages fail to send.
func WithFailure(fail func(msg domnotif.Message) bool) Option {
	return func(s *Sender) { s.fail = fail }
}

func NewSender(tel observability.Observability, opts ...Option) *Sender {
	if tel == nil {
		tel = observability.Nop()
	}
	s := &Sender{
		latency: defaultSendLatency,
		log:     tel.Logger().With(observability.F("component", "email_sender")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, msg domnotif.Message) domnotif.Result {
	start := time.Now()

	if s.latency > 0 {
		select {
		case <-ctx.Done():
			return domnotif.Result{
				Message:     fmt.Sprintf("send cancelled: %v", ctx.Err()),
				ProcessedAt: time.Now().UTC(),
				Elapsed:     time.Since(start),
			}
		case <-time.After(s.latency):
		}
	}

	if s.fail != nil && s.fail(msg) {
		s.log.Warn("email_send_failed",
			observability.F("recipient", msg.Recipient),
			observability.F("subject", msg.Subject),
		)
		return domnotif.Result{
			Message:     fmt.Sprintf("failed to deliver to %s", msg.Recipient),
			ProcessedAt: time.Now().UTC(),
			Elapsed:     time.Since(start),
		}
	}

	s.log.Info("email_sent",
		observability.F("recipient", msg.Recipient),
		observability.F("subject", msg.Subject),
	)
	return domnotif.Result{
		Success:     true,
		Message:     fmt.Sprintf("delivered to %s", msg.Recipient),
		ProcessedAt: time.Now().UTC(),
		Elapsed:     time.Since(start),
	}
}
