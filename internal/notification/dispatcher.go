package notification

import (
	"context"
	"log/slog"

	"github.com/hanifmaulana/orgops/internal/core/events"
)

// Message is what the workflow engine hands to the delivery mechanism.
type Message struct {
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Dispatcher is the delivery mechanism, consumed but not implemented
// here. Errors are logged and swallowed by callers; delivery failure never
// rolls back a committed state change.
type Dispatcher interface {
	Notify(ctx context.Context, recipientID int64, msg Message) error
}

// LogDispatcher is the default Dispatcher: it writes the message to the
// structured log. Real deployments swap in mail or chat delivery.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Notify(_ context.Context, recipientID int64, msg Message) error {
	d.logger.Info("notification dispatched",
		"recipient_id", recipientID,
		"title", msg.Title,
		"body", msg.Body)
	return nil
}

// EventHandler bridges the event bus to a Dispatcher.
type EventHandler struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewEventHandler(dispatcher Dispatcher, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes the dispatcher to notification events.
func (h *EventHandler) RegisterHandlers(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeNotification, h.handleNotificationRequested)
}

func (h *EventHandler) handleNotificationRequested(ctx context.Context, event events.Event) error {
	ne, ok := event.(*events.NotificationEvent)
	if !ok {
		h.logger.Error("unexpected event payload for notification", "event_id", event.EventID())
		return nil
	}

	if err := h.dispatcher.Notify(ctx, ne.RecipientID, Message{
		Title:   ne.Title,
		Body:    ne.Body,
		Payload: ne.Data,
	}); err != nil {
		// best-effort: log and move on
		h.logger.Error("notification delivery failed",
			"error", err,
			"recipient_id", ne.RecipientID,
			"event_id", ne.EventID())
	}

	return nil
}
