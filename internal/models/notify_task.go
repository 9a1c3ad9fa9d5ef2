package models

import "time"

// NotifyTask is a queued notification job. Delivery failures never roll
// back the lifecycle transition that produced the task.
type NotifyTask struct {
	ID          int64      `json:"id"`
	Channel     string     `json:"channel"` // email, sms, ops
	EntityID    string     `json:"entity_id"`
	Payload     string     `json:"payload"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	LastError   *string    `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}
