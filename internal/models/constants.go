package models

const (
	// Booking statuses
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"

	// Quote statuses
	QuoteDraft    = "draft"
	QuoteSent     = "sent"
	QuoteAccepted = "accepted"
	QuoteDeclined = "declined"
	QuoteExpired  = "expired"

	// Invoice statuses
	InvoiceDraft = "draft"
	InvoiceSent  = "sent"
	InvoicePaid  = "paid"
	InvoiceVoid  = "void"
)

const (
	// Notify delivery channels
	NotifyEmail = "email"
	NotifySMS   = "sms"
	NotifyOps   = "ops"

	// Notify task statuses
	NotifyPending   = "pending"
	NotifyRetry     = "retry"
	NotifyCompleted = "completed"
	NotifyFailed    = "failed"
)

const (
	// DefaultQuoteExpiryDays is how long a sent quote stays open.
	DefaultQuoteExpiryDays = 14

	// DefaultInvoiceDueDays is the payment window after an invoice is created.
	DefaultInvoiceDueDays = 14

	// DefaultNotifyMaxAttempts bounds side-effect delivery retries.
	DefaultNotifyMaxAttempts = 3

	// DateLayout and TimeLayout are the wire formats for booking slots.
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)
