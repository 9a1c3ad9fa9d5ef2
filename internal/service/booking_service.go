package service

import (
	"context"
	"fmt"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BookingService drives the booking lifecycle: pending -> confirmed ->
// completed, with cancellation allowed from either non-terminal state.
type BookingService struct {
	repo     domain.Repository
	notify   domain.NotifyEnqueuer
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, notify domain.NotifyEnqueuer, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		notify:   notify,
		eventBus: eventBus,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBookingInput carries the fields of a booking request.
type CreateBookingInput struct {
	CustomerID    string `json:"customer_id"`
	ServiceID     string `json:"service_id"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	Notes         string `json:"notes"`
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*models.Booking, error) {
	if input.CustomerID == "" || input.ServiceID == "" {
		return nil, fmt.Errorf("%w: customer_id and service_id are required", ErrValidation)
	}

	if _, err := s.repo.GetCustomer(ctx, input.CustomerID); err != nil {
		return nil, err
	}
	svc, err := s.repo.GetService(ctx, input.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("%w: service %s is not active", ErrValidation, svc.Name)
	}

	booking := &models.Booking{
		ID:            uuid.NewString(),
		CustomerID:    input.CustomerID,
		ServiceID:     input.ServiceID,
		ScheduledDate: input.ScheduledDate,
		ScheduledTime: input.ScheduledTime,
		Notes:         input.Notes,
		Status:        models.BookingPending,
	}

	scheduledAt, err := booking.ScheduledAt()
	if err != nil {
		return nil, fmt.Errorf("%w: scheduled_date must be YYYY-MM-DD and scheduled_time HH:MM", ErrValidation)
	}
	if !scheduledAt.After(s.now()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", ErrValidation)
	}

	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingCreated, booking)

	if warn := s.enqueueOpsAlert(ctx, booking, "new booking"); warn != nil {
		return booking, warn
	}
	return booking, nil
}

func (s *BookingService) ConfirmBooking(ctx context.Context, id string, version int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, id, version, EventConfirm)
	if err != nil {
		return nil, err
	}
	s.publishBookingEvent(events.EventBookingConfirmed, booking)

	if warn := s.enqueueCustomerEmail(ctx, booking, "Your appointment is confirmed",
		fmt.Sprintf("Your cleaning is confirmed for %s at %s.", booking.ScheduledDate, booking.ScheduledTime)); warn != nil {
		return booking, warn
	}
	return booking, nil
}

// CompleteBooking additionally requires the scheduled instant to have
// passed; completing a future appointment is an invalid transition.
func (s *BookingService) CompleteBooking(ctx context.Context, id string, version int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = booking.Version
	}

	next, err := nextBookingStatus(booking.Status, EventComplete)
	if err != nil {
		return nil, err
	}
	scheduledAt, err := booking.ScheduledAt()
	if err == nil && scheduledAt.After(s.now()) {
		return nil, fmt.Errorf("%w: booking is scheduled in the future", ErrInvalidTransition)
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, version, next); err != nil {
		return nil, err
	}
	booking, err = s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishBookingEvent(events.EventBookingCompleted, booking)
	return booking, nil
}

func (s *BookingService) CancelBooking(ctx context.Context, id string, version int64) (*models.Booking, error) {
	booking, err := s.transition(ctx, id, version, EventCancel)
	if err != nil {
		return nil, err
	}
	s.publishBookingEvent(events.EventBookingCancelled, booking)

	if warn := s.enqueueCustomerEmail(ctx, booking, "Your appointment was cancelled",
		fmt.Sprintf("Your cleaning on %s at %s has been cancelled.", booking.ScheduledDate, booking.ScheduledTime)); warn != nil {
		return booking, warn
	}
	return booking, nil
}

// UpdateNotes replaces the free-form notes; terminal bookings are immutable.
func (s *BookingService) UpdateNotes(ctx context.Context, id string, version int64, notes string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Terminal() {
		return nil, fmt.Errorf("%w: booking %s is %s", ErrInvalidTransition, booking.ID, booking.Status)
	}
	if version == 0 {
		version = booking.Version
	}

	if err := s.repo.UpdateBookingNotes(ctx, id, version, notes); err != nil {
		return nil, err
	}
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx)
}

func (s *BookingService) ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	return s.repo.ListBookingsByDateRange(ctx, start, end)
}

func (s *BookingService) transition(ctx context.Context, id string, version int64, event string) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = booking.Version
	}

	next, err := nextBookingStatus(booking.Status, event)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBookingStatus(ctx, id, version, next); err != nil {
		return nil, err
	}
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) enqueueCustomerEmail(ctx context.Context, booking *models.Booking, subject, body string) error {
	customer, err := s.repo.GetCustomer(ctx, booking.CustomerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to load customer for notification")
		return &DeliveryWarning{Channel: models.NotifyEmail, Err: err}
	}

	msg := domain.EmailMessage{To: customer.Email, Subject: subject, Body: body}
	if err := s.notify.Enqueue(ctx, models.NotifyEmail, booking.ID, msg); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to enqueue booking email")
		return &DeliveryWarning{Channel: models.NotifyEmail, Err: err}
	}
	return nil
}

func (s *BookingService) enqueueOpsAlert(ctx context.Context, booking *models.Booking, reason string) error {
	alert := domain.OpsAlert{
		Text: fmt.Sprintf("%s: %s on %s %s", reason, booking.ID, booking.ScheduledDate, booking.ScheduledTime),
	}
	if err := s.notify.Enqueue(ctx, models.NotifyOps, booking.ID, alert); err != nil {
		s.logger.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to enqueue ops alert")
		return &DeliveryWarning{Channel: models.NotifyOps, Err: err}
	}
	return nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking) {
	err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID:     booking.ID,
		CustomerID:    booking.CustomerID,
		ServiceID:     booking.ServiceID,
		Status:        booking.Status,
		ScheduledDate: booking.ScheduledDate,
		ScheduledTime: booking.ScheduledTime,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish booking event")
	}
}
