package models

import "time"

type Booking struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	ServiceID     string    `json:"service_id"`
	ScheduledDate string    `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime string    `json:"scheduled_time"` // HH:MM
	Notes         string    `json:"notes,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int64     `json:"version"`
}

// ScheduledAt combines the date and time columns into a single instant (UTC).
func (b *Booking) ScheduledAt() (time.Time, error) {
	return time.Parse(DateLayout+" "+TimeLayout, b.ScheduledDate+" "+b.ScheduledTime)
}

// Terminal reports whether the booking reached an immutable state.
func (b *Booking) Terminal() bool {
	return b.Status == BookingCompleted || b.Status == BookingCancelled
}
