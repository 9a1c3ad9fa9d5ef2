package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuoteService drives the quote lifecycle: draft -> sent -> accepted,
// declined or expired.
type QuoteService struct {
	repo       domain.Repository
	notify     domain.NotifyEnqueuer
	eventBus   domain.EventPublisher
	expiryDays int
	logger     *zerolog.Logger
	now        func() time.Time
}

func NewQuoteService(repo domain.Repository, notify domain.NotifyEnqueuer, eventBus domain.EventPublisher, expiryDays int, logger *zerolog.Logger) *QuoteService {
	if expiryDays <= 0 {
		expiryDays = models.DefaultQuoteExpiryDays
	}
	return &QuoteService{
		repo:       repo,
		notify:     notify,
		eventBus:   eventBus,
		expiryDays: expiryDays,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateQuoteInput carries the quote request fields. CustomerID is
// optional; when set the customer must exist and Email may be left empty.
type CreateQuoteInput struct {
	CustomerID    string   `json:"customer_id"`
	Email         string   `json:"email"`
	PropertyType  string   `json:"property_type"`
	SquareFootage int      `json:"square_footage"`
	NumVents      int      `json:"num_vents"`
	ServiceIDs    []string `json:"service_ids"`
}

func (s *QuoteService) CreateQuote(ctx context.Context, input CreateQuoteInput) (*models.Quote, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if input.CustomerID != "" {
		customer, err := s.repo.GetCustomer(ctx, input.CustomerID)
		if err != nil {
			return nil, err
		}
		if email == "" {
			email = customer.Email
		}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if len(input.ServiceIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", ErrValidation)
	}
	if input.SquareFootage < 0 || input.NumVents < 0 {
		return nil, fmt.Errorf("%w: property details cannot be negative", ErrValidation)
	}

	var total models.Cents
	for _, serviceID := range input.ServiceIDs {
		svc, err := s.repo.GetService(ctx, serviceID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown service %s", ErrValidation, serviceID)
			}
			return nil, err
		}
		if !svc.IsActive {
			return nil, fmt.Errorf("%w: service %s is not active", ErrValidation, svc.Name)
		}
		total += svc.BasePrice
	}

	quote := &models.Quote{
		ID:             uuid.NewString(),
		CustomerID:     input.CustomerID,
		Email:          email,
		PropertyType:   input.PropertyType,
		SquareFootage:  input.SquareFootage,
		NumVents:       input.NumVents,
		ServiceIDs:     input.ServiceIDs,
		EstimatedTotal: total,
		Status:         models.QuoteDraft,
	}
	if err := s.repo.CreateQuote(ctx, quote); err != nil {
		return nil, err
	}

	s.publishQuoteEvent(events.EventQuoteCreated, quote)
	return quote, nil
}

// SendQuote moves a draft to sent, stamps the expiry window and enqueues
// the quote email. A failed enqueue surfaces as a DeliveryWarning with
// the already-updated quote.
func (s *QuoteService) SendQuote(ctx context.Context, id string, version int64) (*models.Quote, error) {
	quote, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = quote.Version
	}

	next, err := nextQuoteStatus(quote.Status, EventSend)
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().AddDate(0, 0, s.expiryDays)
	if err := s.repo.UpdateQuoteStatus(ctx, id, version, next, &expiresAt); err != nil {
		return nil, err
	}

	quote, err = s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publishQuoteEvent(events.EventQuoteSent, quote)

	if warn := s.enqueueQuoteEmail(ctx, quote); warn != nil {
		return quote, warn
	}
	return quote, nil
}

// RespondToQuote records the customer's accept or decline. A response
// arriving past expires_at moves the quote to expired instead and
// returns ErrQuoteExpired.
func (s *QuoteService) RespondToQuote(ctx context.Context, id string, version int64, accepted bool) (*models.Quote, error) {
	quote, err := s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		version = quote.Version
	}

	event := EventAccept
	if !accepted {
		event = EventDecline
	}
	next, err := nextQuoteStatus(quote.Status, event)
	if err != nil {
		return nil, err
	}

	if quote.ExpiresAt != nil && s.now().After(*quote.ExpiresAt) {
		if err := s.repo.UpdateQuoteStatus(ctx, id, version, models.QuoteExpired, nil); err != nil {
			return nil, err
		}
		if expired, getErr := s.repo.GetQuote(ctx, id); getErr == nil {
			s.publishQuoteEvent(events.EventQuoteExpired, expired)
		}
		return nil, ErrQuoteExpired
	}

	if err := s.repo.UpdateQuoteStatus(ctx, id, version, next, nil); err != nil {
		return nil, err
	}

	quote, err = s.repo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if accepted {
		s.publishQuoteEvent(events.EventQuoteAccepted, quote)
	} else {
		s.publishQuoteEvent(events.EventQuoteDeclined, quote)
	}
	return quote, nil
}

func (s *QuoteService) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	return s.repo.GetQuote(ctx, id)
}

func (s *QuoteService) ListQuotes(ctx context.Context) ([]*models.Quote, error) {
	return s.repo.ListQuotes(ctx)
}

func (s *QuoteService) enqueueQuoteEmail(ctx context.Context, quote *models.Quote) error {
	msg := domain.EmailMessage{
		To:      quote.Email,
		Subject: "Your DuctClean quote",
		Body: fmt.Sprintf("Your estimate for %d service(s) is %s. The quote is valid until %s.",
			len(quote.ServiceIDs), quote.EstimatedTotal, quote.ExpiresAt.Format(models.DateLayout)),
	}
	if err := s.notify.Enqueue(ctx, models.NotifyEmail, quote.ID, msg); err != nil {
		s.logger.Warn().Err(err).Str("quote_id", quote.ID).Msg("failed to enqueue quote email")
		return &DeliveryWarning{Channel: models.NotifyEmail, Err: err}
	}
	return nil
}

func (s *QuoteService) publishQuoteEvent(eventType string, quote *models.Quote) {
	err := s.eventBus.PublishJSON(eventType, events.QuoteEventPayload{
		QuoteID:        quote.ID,
		Email:          quote.Email,
		Status:         quote.Status,
		EstimatedTotal: quote.EstimatedTotal,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish quote event")
	}
}
