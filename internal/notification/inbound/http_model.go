package inbound

import "time"

type SecurityAlertResponse struct {
	ID          int64      `json:"id,string"`
	Type        string     `json:"type"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	OccurredAt  time.Time  `json:"occurred_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

type SecurityAlertsResponse struct {
	Alerts []SecurityAlertResponse `json:"alerts"`
}
