package notification

import "time"

// KindOrderConfirmation tags messages emitted when an order saga completes.
const KindOrderConfirmation = "OrderConfirmation"

// Message is the unit of transfer on the notification channel. It is immutable
// once constructed and serialized as JSON for publishing.
type Message struct {
	Kind      string            `json:"kind"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Result reports the outcome of handing a message to the sending collaborator.
type Result struct {
	Success     bool
	Message     string
	ProcessedAt time.Time
	Elapsed     time.Duration
}
