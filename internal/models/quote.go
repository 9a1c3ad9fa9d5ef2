package models

import "time"

// Quote is a pre-booking estimate. CustomerID is empty for anonymous
// requests, which are identified by email only.
type Quote struct {
	ID             string     `json:"id"`
	CustomerID     string     `json:"customer_id,omitempty"`
	Email          string     `json:"email"`
	PropertyType   string     `json:"property_type,omitempty"`
	SquareFootage  int        `json:"square_footage,omitempty"`
	NumVents       int        `json:"num_vents,omitempty"`
	ServiceIDs     []string   `json:"service_ids"`
	EstimatedTotal Cents      `json:"estimated_total"`
	Status         string     `json:"status"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Version        int64      `json:"version"`
}

// Terminal reports whether the quote can never change state again.
func (q *Quote) Terminal() bool {
	switch q.Status {
	case QuoteAccepted, QuoteDeclined, QuoteExpired:
		return true
	}
	return false
}
