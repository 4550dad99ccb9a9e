package domain

import "time"

type NotificationType string

const (
	NotificationOrderCreated       NotificationType = "orderCreated"
	NotificationOrderStatusChanged NotificationType = "orderStatusChanged"
	NotificationOrderCancelled     NotificationType = "orderCancelled"
)

// EventPayload carries everything a notification handler needs to build
// the outgoing message. OldStatus/NewStatus are set for status changes only.
type EventPayload struct {
	OrderID   uint64      `json:"orderId"`
	UserID    uint64      `json:"userId"`
	OldStatus OrderStatus `json:"oldStatus,omitempty"`
	NewStatus OrderStatus `json:"newStatus,omitempty"`
}

// NotificationTask is owned by the queue from enqueue until it is either
// delivered or dropped after MaxAttempts failures.
type NotificationTask struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Payload     EventPayload     `json:"payload"`
	Attempts    int              `json:"attempts"`
	MaxAttempts int              `json:"maxAttempts"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// EmailMessage is the templated message handed to the notifier.
type EmailMessage struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}
