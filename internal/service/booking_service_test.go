package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingService_CreateBooking(t *testing.T) {
	env := newTestEnv(t)
	seen := env.collectEvents(events.EventBookingCreated)

	booking := env.createPendingBooking(t)

	assert.Equal(t, models.BookingPending, booking.Status)
	assert.Equal(t, int64(1), booking.Version)
	assert.Equal(t, []string{events.EventBookingCreated}, *seen)

	// New bookings alert the ops channel.
	require.Len(t, env.notify.calls, 1)
	assert.Equal(t, models.NotifyOps, env.notify.calls[0].Channel)
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(models.DateLayout)

	tests := []struct {
		name    string
		input   CreateBookingInput
		wantErr error
	}{
		{"missing ids", CreateBookingInput{}, ErrValidation},
		{"unknown customer", CreateBookingInput{CustomerID: "ghost", ServiceID: env.service.ID, ScheduledDate: tomorrow, ScheduledTime: "10:00"}, ErrNotFound},
		{"unknown service", CreateBookingInput{CustomerID: env.customer.ID, ServiceID: "ghost", ScheduledDate: tomorrow, ScheduledTime: "10:00"}, ErrNotFound},
		{"bad date", CreateBookingInput{CustomerID: env.customer.ID, ServiceID: env.service.ID, ScheduledDate: "June 1st", ScheduledTime: "10:00"}, ErrValidation},
		{"bad time", CreateBookingInput{CustomerID: env.customer.ID, ServiceID: env.service.ID, ScheduledDate: tomorrow, ScheduledTime: "10am"}, ErrValidation},
		{"in the past", CreateBookingInput{CustomerID: env.customer.ID, ServiceID: env.service.ID, ScheduledDate: "2020-01-01", ScheduledTime: "10:00"}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bookings.CreateBooking(ctx, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBookingService_CreateBooking_InactiveService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.service.IsActive = false
	require.NoError(t, env.db.UpdateService(ctx, env.service))

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(models.DateLayout)
	_, err := env.bookings.CreateBooking(ctx, CreateBookingInput{
		CustomerID:    env.customer.ID,
		ServiceID:     env.service.ID,
		ScheduledDate: tomorrow,
		ScheduledTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookingService_ConfirmBooking(t *testing.T) {
	env := newTestEnv(t)
	seen := env.collectEvents(events.EventBookingConfirmed)

	booking := env.createPendingBooking(t)
	confirmed, err := env.bookings.ConfirmBooking(context.Background(), booking.ID, booking.Version)
	require.NoError(t, err)

	assert.Equal(t, models.BookingConfirmed, confirmed.Status)
	assert.Equal(t, int64(2), confirmed.Version)
	assert.Equal(t, []string{events.EventBookingConfirmed}, *seen)

	// Ops alert from create plus the confirmation email.
	require.Len(t, env.notify.calls, 2)
	assert.Equal(t, models.NotifyEmail, env.notify.calls[1].Channel)
	var msg domain.EmailMessage
	decodePayload(t, env.notify.calls[1].Payload, &msg)
	assert.Equal(t, env.customer.Email, msg.To)
}

func TestBookingService_CompleteBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking := env.createConfirmedBooking(t)

	// Completing before the appointment time is rejected.
	_, err := env.bookings.CompleteBooking(ctx, booking.ID, booking.Version)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Once the appointment has passed it goes through.
	env.bookings.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 2) }
	completed, err := env.bookings.CompleteBooking(ctx, booking.ID, booking.Version)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, completed.Status)
}

func TestBookingService_CompleteBooking_FromPending(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createPendingBooking(t)

	env.bookings.now = func() time.Time { return time.Now().UTC().AddDate(0, 0, 2) }
	_, err := env.bookings.CompleteBooking(context.Background(), booking.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBookingService_CancelBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("from pending", func(t *testing.T) {
		booking := env.createPendingBooking(t)
		cancelled, err := env.bookings.CancelBooking(ctx, booking.ID, booking.Version)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)
	})

	t.Run("from confirmed", func(t *testing.T) {
		booking := env.createConfirmedBooking(t)
		cancelled, err := env.bookings.CancelBooking(ctx, booking.ID, booking.Version)
		require.NoError(t, err)
		assert.Equal(t, models.BookingCancelled, cancelled.Status)
	})

	t.Run("terminal is immutable", func(t *testing.T) {
		booking := env.createPendingBooking(t)
		cancelled, err := env.bookings.CancelBooking(ctx, booking.ID, 0)
		require.NoError(t, err)
		_, err = env.bookings.CancelBooking(ctx, cancelled.ID, cancelled.Version)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestBookingService_UpdateNotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	booking := env.createPendingBooking(t)
	updated, err := env.bookings.UpdateNotes(ctx, booking.ID, booking.Version, "gate code 4411")
	require.NoError(t, err)
	assert.Equal(t, "gate code 4411", updated.Notes)
	assert.Equal(t, booking.Version+1, updated.Version)

	cancelled, err := env.bookings.CancelBooking(ctx, booking.ID, updated.Version)
	require.NoError(t, err)
	_, err = env.bookings.UpdateNotes(ctx, cancelled.ID, cancelled.Version, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBookingService_ConcurrentConfirm(t *testing.T) {
	env := newTestEnv(t)
	booking := env.createPendingBooking(t)

	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookings.ConfirmBooking(context.Background(), booking.ID, booking.Version)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, ErrConcurrentModification):
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicted)
}
