package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InvoiceService drives the invoice lifecycle: draft -> sent -> paid,
// with void reachable from draft and sent.
type InvoiceService struct {
	repo     domain.Repository
	notify   domain.NotifyEnqueuer
	eventBus domain.EventPublisher
	tax      domain.TaxRater
	gateway  domain.PaymentGateway
	dueDays  int
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewInvoiceService(repo domain.Repository, notify domain.NotifyEnqueuer, eventBus domain.EventPublisher, tax domain.TaxRater, gateway domain.PaymentGateway, dueDays int, logger *zerolog.Logger) *InvoiceService {
	if dueDays <= 0 {
		dueDays = models.DefaultInvoiceDueDays
	}
	return &InvoiceService{
		repo:     repo,
		notify:   notify,
		eventBus: eventBus,
		tax:      tax,
		gateway:  gateway,
		dueDays:  dueDays,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice bills a confirmed or completed booking: amount is the
// service base price, tax comes from the rater, and the total invariant
// is recomputed before persisting. A booking gets at most one invoice.
func (s *InvoiceService) CreateInvoice(ctx context.Context, bookingID string) (*models.Invoice, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingConfirmed && booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: cannot invoice a %s booking", ErrInvalidTransition, booking.Status)
	}

	if _, err := s.repo.GetInvoiceByBooking(ctx, bookingID); err == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrDuplicateInvoice, bookingID)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	svc, err := s.repo.GetService(ctx, booking.ServiceID)
	if err != nil {
		return nil, err
	}

	taxAmount, err := s.tax.TaxFor(ctx, svc.BasePrice)
	if err != nil {
		return nil, err
	}

	invoice := &models.Invoice{
		ID:         uuid.NewString(),
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		Amount:     svc.BasePrice,
		Tax:        taxAmount,
		Status:     models.InvoiceDraft,
		DueDate:    s.now().AddDate(0, 0, s.dueDays).Format(models.DateLayout),
	}
	invoice.Recalc()

	if err := s.repo.CreateInvoice(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishInvoiceEvent(events.EventInvoiceCreated, invoice)
	return invoice, nil
}

// SendInvoice moves a draft to sent and enqueues the invoice email. A
// failed enqueue surfaces as a DeliveryWarning with the updated invoice.
func (s *InvoiceService) SendInvoice(ctx context.Context, id string, version int64) (*models.Invoice, error) {
	invoice, err := s.transition(ctx, id, version, EventSend, "", nil)
	if err != nil {
		return nil, err
	}
	s.publishInvoiceEvent(events.EventInvoiceSent, invoice)

	if warn := s.enqueueInvoiceEmail(ctx, invoice, "Your DuctClean invoice",
		fmt.Sprintf("Invoice for %s is due by %s.", invoice.Total, invoice.DueDate)); warn != nil {
		return invoice, warn
	}
	return invoice, nil
}

// MarkPaid records an out-of-band payment with its reference.
func (s *InvoiceService) MarkPaid(ctx context.Context, id string, version int64, paymentRef string) (*models.Invoice, error) {
	if paymentRef == "" {
		return nil, fmt.Errorf("%w: payment_ref is required", ErrValidation)
	}

	paidAt := s.now()
	invoice, err := s.transition(ctx, id, version, EventPay, paymentRef, &paidAt)
	if err != nil {
		return nil, err
	}
	s.publishInvoiceEvent(events.EventInvoicePaid, invoice)

	if warn := s.enqueueInvoiceEmail(ctx, invoice, "Payment received",
		fmt.Sprintf("We received your payment of %s. Thank you!", invoice.Total)); warn != nil {
		return invoice, warn
	}
	return invoice, nil
}

// Pay charges the invoice through the payment gateway and records the
// returned payment reference. Only sent invoices can be charged.
func (s *InvoiceService) Pay(ctx context.Context, id string, version int64) (*models.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := nextInvoiceStatus(invoice.Status, EventPay); err != nil {
		return nil, err
	}

	customer, err := s.repo.GetCustomer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, err
	}

	paymentRef, err := s.gateway.Charge(ctx, invoice, customer.Email)
	if err != nil {
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	return s.MarkPaid(ctx, id, version, paymentRef)
}

func (s *InvoiceService) VoidInvoice(ctx context.Context, id string, version int64) (*models.Invoice, error) {
	invoice, err := s.transition(ctx, id, version, EventVoid, "", nil)
	if err != nil {
		return nil, err
	}
	s.publishInvoiceEvent(events.EventInvoiceVoided, invoice)
	return invoice, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *InvoiceService) GetInvoiceByBooking(ctx context.Context, bookingID string) (*models.Invoice, error) {
	return s.repo.GetInvoiceByBooking(ctx, bookingID)
}

func (s *InvoiceService) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	return s.repo.ListInvoices(ctx)
}

func (s *InvoiceService) transition(ctx context.Context, id string, version int64, event, paymentRef string, paidAt *time.Time) (*models.Invoice, error) {
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = invoice.Version
	}

	next, err := nextInvoiceStatus(invoice.Status, event)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateInvoiceStatus(ctx, id, version, next, paymentRef, paidAt); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, id)
}

func (s *InvoiceService) enqueueInvoiceEmail(ctx context.Context, invoice *models.Invoice, subject, body string) error {
	customer, err := s.repo.GetCustomer(ctx, invoice.CustomerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("invoice_id", invoice.ID).Msg("failed to load customer for notification")
		return &DeliveryWarning{Channel: models.NotifyEmail, Err: err}
	}

	msg := domain.EmailMessage{To: customer.Email, Subject: subject, Body: body}
	if err := s.notify.Enqueue(ctx, models.NotifyEmail, invoice.ID, msg); err != nil {
		s.logger.Warn().Err(err).Str("invoice_id", invoice.ID).Msg("failed to enqueue invoice email")
		return &DeliveryWarning{Channel: models.NotifyEmail, Err: err}
	}
	return nil
}

func (s *InvoiceService) publishInvoiceEvent(eventType string, invoice *models.Invoice) {
	err := s.eventBus.PublishJSON(eventType, events.InvoiceEventPayload{
		InvoiceID:  invoice.ID,
		BookingID:  invoice.BookingID,
		CustomerID: invoice.CustomerID,
		Status:     invoice.Status,
		Total:      invoice.Total,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish invoice event")
	}
}
