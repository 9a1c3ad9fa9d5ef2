package service

import (
	"fmt"

	"ductclean/internal/models"
)

// Lifecycle events. Transitions not present in the tables below are
// rejected with ErrInvalidTransition; terminal states have no rows at all.
const (
	EventSend     = "send"
	EventAccept   = "accept"
	EventDecline  = "decline"
	EventExpire   = "expire"
	EventConfirm  = "confirm"
	EventComplete = "complete"
	EventCancel   = "cancel"
	EventPay      = "pay"
	EventVoid     = "void"
)

var quoteTransitions = map[string]map[string]string{
	models.QuoteDraft: {
		EventSend: models.QuoteSent,
	},
	models.QuoteSent: {
		EventAccept:  models.QuoteAccepted,
		EventDecline: models.QuoteDeclined,
		EventExpire:  models.QuoteExpired,
	},
}

var bookingTransitions = map[string]map[string]string{
	models.BookingPending: {
		EventConfirm: models.BookingConfirmed,
		EventCancel:  models.BookingCancelled,
	},
	models.BookingConfirmed: {
		EventComplete: models.BookingCompleted,
		EventCancel:   models.BookingCancelled,
	},
}

var invoiceTransitions = map[string]map[string]string{
	models.InvoiceDraft: {
		EventSend: models.InvoiceSent,
		EventVoid: models.InvoiceVoid,
	},
	models.InvoiceSent: {
		EventPay:  models.InvoicePaid,
		EventVoid: models.InvoiceVoid,
	},
}

func nextStatus(table map[string]map[string]string, entity, from, event string) (string, error) {
	if next, ok := table[from][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: %s %s cannot %s", ErrInvalidTransition, entity, from, event)
}

func nextQuoteStatus(from, event string) (string, error) {
	return nextStatus(quoteTransitions, "quote", from, event)
}

func nextBookingStatus(from, event string) (string, error) {
	return nextStatus(bookingTransitions, "booking", from, event)
}

func nextInvoiceStatus(from, event string) (string, error) {
	return nextStatus(invoiceTransitions, "invoice", from, event)
}
