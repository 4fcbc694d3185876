package event

import "time"

const SecurityEventDestination string = "account_security_event"
const SecurityEventConsumerNotification string = "account_security_event_notification"

// HeaderCorrelationID carries the request correlation id across the broker.
const HeaderCorrelationID string = "cID"

type SecurityEventMessage struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	AccountID   int64      `json:"account_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	ActorID     int64      `json:"actor_id,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}
