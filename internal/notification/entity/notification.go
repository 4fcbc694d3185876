package entity

import "time"

// SecurityAlert is one email sent, or attempted, because the protection of
// an account changed. EventID is unique so a redelivered event is ignored.
type SecurityAlert struct {
	ID          int64
	EventID     string
	AccountID   int64
	TriggerKey  TriggerKey
	Recipient   string
	Subject     string
	Status      DeliveryStatus
	Error       string
	OccurredAt  time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

type UpdateAlertStatus struct {
	ID          int64
	Status      DeliveryStatus
	Error       string
	DeliveredAt *time.Time
}

type Template struct {
	Subject string
	Body    string
}
