package models

import "time"

// Invoice bills exactly one booking. Total must equal Amount+Tax at all
// times; Recalc restores the invariant after any amount mutation.
type Invoice struct {
	ID         string     `json:"id"`
	BookingID  string     `json:"booking_id"`
	CustomerID string     `json:"customer_id"`
	Amount     Cents      `json:"amount"`
	Tax        Cents      `json:"tax"`
	Total      Cents      `json:"total"`
	Status     string     `json:"status"`
	DueDate    string     `json:"due_date"` // YYYY-MM-DD
	PaymentRef string     `json:"payment_ref,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int64      `json:"version"`
}

func (i *Invoice) Recalc() {
	i.Total = i.Amount + i.Tax
}

// Consistent reports whether the amount invariant holds.
func (i *Invoice) Consistent() bool {
	return i.Total == i.Amount+i.Tax
}

func (i *Invoice) Terminal() bool {
	return i.Status == InvoicePaid || i.Status == InvoiceVoid
}
