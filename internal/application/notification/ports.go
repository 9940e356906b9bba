package notification

import (
	"context"

	domnotif "github.com/kzhou57/orderflow/internal/domain/notification"
)

// Sender is the out-of-process collaborator that actually delivers a
// notification (an email gateway in this system). A failed Result, not an
// error, is how delivery problems are reported; the consumer turns it into a
// negative acknowledgment.
type Sender interface {
	Send(ctx context.Context, msg domnotif.Message) domnotif.Result
}
