package domain

import "time"

// CheckRecord is one row of the check history audit trail.
type CheckRecord struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	Seq        int64     `json:"seq"`
	Status     Status    `json:"status"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Quiet      bool      `json:"quiet"`
	CheckedAt  time.Time `json:"checked_at"`
}

// NotificationKind names why a notification was dispatched.
type NotificationKind string

const (
	NotifyStatusChange      NotificationKind = "status_change"
	NotifyDeferredAvailable NotificationKind = "deferred_available"
	NotifyRepeatedFailures  NotificationKind = "repeated_failures"
	NotifyStarted           NotificationKind = "started"
	NotifyTest              NotificationKind = "test"
)

// NotificationRecord is one dispatch attempt.
type NotificationRecord struct {
	ID      string           `json:"id"`
	Target  string           `json:"target"`
	Kind    NotificationKind `json:"kind"`
	Subject string           `json:"subject"`
	Sent    bool             `json:"sent"`
	Error   string           `json:"error,omitempty"`
	SentAt  time.Time        `json:"sent_at"`
}
