package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeNotification = "notification.requested"

	EventTypeLeaveSubmitted = "leave.submitted"
	EventTypeLeaveEscalated = "leave.escalated"
	EventTypeLeaveDecided   = "leave.decided"

	EventTypeTicketIssued    = "ticket.issued"
	EventTypeTicketResolved  = "ticket.resolved"
	EventTypeTicketContested = "ticket.contested"
	EventTypeTicketVoided    = "ticket.voided"
)

// NotificationEvent asks the dispatcher to deliver one message. Delivery
// is best-effort and never feeds back into workflow state.
type NotificationEvent struct {
	BaseEvent
	RecipientID int64  `json:"recipient_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

func NewNotificationEvent(recipientID int64, title, body string) *NotificationEvent {
	return &NotificationEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNotification,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"recipient_id": recipientID,
				"title":        title,
				"body":         body,
			},
		},
		RecipientID: recipientID,
		Title:       title,
		Body:        body,
	}
}

type LeaveDecidedEvent struct {
	BaseEvent
	LeaveRequestID int64  `json:"leave_request_id"`
	RequesterID    int64  `json:"requester_id"`
	Status         string `json:"status"`
	DecidedByID    int64  `json:"decided_by_id"`
}

func NewLeaveDecidedEvent(leaveRequestID, requesterID, decidedByID int64, status string) *LeaveDecidedEvent {
	return &LeaveDecidedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeLeaveDecided,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"leave_request_id": leaveRequestID,
				"requester_id":     requesterID,
				"status":           status,
				"decided_by_id":    decidedByID,
			},
		},
		LeaveRequestID: leaveRequestID,
		RequesterID:    requesterID,
		Status:         status,
		DecidedByID:    decidedByID,
	}
}

type TicketResolvedEvent struct {
	BaseEvent
	TicketID     int64   `json:"ticket_id"`
	TargetID     int64   `json:"target_id"`
	Severity     string  `json:"severity"`
	CurrentScore float64 `json:"current_score"`
}

func NewTicketResolvedEvent(ticketID, targetID int64, severity string, currentScore float64) *TicketResolvedEvent {
	return &TicketResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTicketResolved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"ticket_id":     ticketID,
				"target_id":     targetID,
				"severity":      severity,
				"current_score": currentScore,
			},
		},
		TicketID:     ticketID,
		TargetID:     targetID,
		Severity:     severity,
		CurrentScore: currentScore,
	}
}
