package notification

import (
	"context"

	"github.com/hanifmaulana/orgops/internal/core/events"
)

// Outbox buffers events raised while a transaction is in flight. Flush
// runs only after commit; a rolled-back transaction drops the buffer, so a
// failed state change can never leak a notification.
type Outbox struct {
	bus     *events.EventBus
	pending []events.Event
}

func NewOutbox(bus *events.EventBus) *Outbox {
	return &Outbox{bus: bus}
}

func (o *Outbox) Add(event events.Event) {
	o.pending = append(o.pending, event)
}

func (o *Outbox) Notify(recipientID int64, title, body string) {
	o.Add(events.NewNotificationEvent(recipientID, title, body))
}

func (o *Outbox) Len() int {
	return len(o.pending)
}

// Flush publishes every buffered event and clears the buffer. At most one
// delivery attempt per event.
func (o *Outbox) Flush(ctx context.Context) {
	for _, event := range o.pending {
		_ = o.bus.Publish(ctx, event)
	}
	o.pending = nil
}

// Discard drops buffered events without publishing, used when the
// surrounding transaction rolled back.
func (o *Outbox) Discard() {
	o.pending = nil
}
