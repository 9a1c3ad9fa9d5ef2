package service

import (
	"errors"
	"fmt"

	"ductclean/internal/database"
)

var (
	// ErrValidation covers malformed or semantically invalid input.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the requested transition is
	// not permitted from the entity's current state.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrQuoteExpired is returned when a quote response arrives past
	// expires_at; the quote is moved to expired as a side effect.
	ErrQuoteExpired = errors.New("quote expired")

	// Storage layer sentinels surface unchanged so callers match on
	// one package.
	ErrNotFound               = database.ErrNotFound
	ErrConcurrentModification = database.ErrConcurrentModification
	ErrDuplicateEmail         = database.ErrDuplicateEmail
	ErrDuplicateInvoice       = database.ErrDuplicateInvoice
)

// DeliveryWarning reports a failed notification side effect after the
// primary transition already committed. It never implies a rollback.
type DeliveryWarning struct {
	Channel string
	Err     error
}

func (w *DeliveryWarning) Error() string {
	return fmt.Sprintf("delivery warning on %s: %v", w.Channel, w.Err)
}

func (w *DeliveryWarning) Unwrap() error {
	return w.Err
}

// AsDeliveryWarning unwraps err to a DeliveryWarning if there is one.
func AsDeliveryWarning(err error) (*DeliveryWarning, bool) {
	var warn *DeliveryWarning
	if errors.As(err, &warn) {
		return warn, true
	}
	return nil, false
}
