package entity

import "time"

// Notification represents an informational message recorded when a report
// moves through a workflow stage. It never feeds back into the state
// machine; delivery is handled outside this core.
type Notification struct {
	ID           int64     `json:"id"`
	SenderCode   string    `json:"sender_code"`
	SenderName   string    `json:"sender_name"`
	ReceiverCode string    `json:"receiver_code"`
	ReceiverName string    `json:"receiver_name"`
	Message      string    `json:"message"`
	Stage        string    `json:"stage"`
	CreatedAt    time.Time `json:"created_at"`
	Read         bool      `json:"read"`
	Active       bool      `json:"active"`
}
