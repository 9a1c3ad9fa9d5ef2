package events

import (
	"encoding/json"
	"sync"
	"time"

	"ductclean/internal/models"
)

const (
	EventQuoteCreated  = "quote_created"
	EventQuoteSent     = "quote_sent"
	EventQuoteAccepted = "quote_accepted"
	EventQuoteDeclined = "quote_declined"
	EventQuoteExpired  = "quote_expired"

	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"

	EventInvoiceCreated = "invoice_created"
	EventInvoiceSent    = "invoice_sent"
	EventInvoicePaid    = "invoice_paid"
	EventInvoiceVoided  = "invoice_voided"
)

// BookingEventPayload is the booking snapshot handed to event consumers.
type BookingEventPayload struct {
	BookingID     string `json:"booking_id"`
	CustomerID    string `json:"customer_id"`
	ServiceID     string `json:"service_id"`
	Status        string `json:"status"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
}

// InvoiceEventPayload is the invoice snapshot handed to event consumers.
type InvoiceEventPayload struct {
	InvoiceID  string       `json:"invoice_id"`
	BookingID  string       `json:"booking_id"`
	CustomerID string       `json:"customer_id"`
	Status     string       `json:"status"`
	Total      models.Cents `json:"total"`
}

// QuoteEventPayload is the quote snapshot handed to event consumers.
type QuoteEventPayload struct {
	QuoteID        string       `json:"quote_id"`
	Email          string       `json:"email"`
	Status         string       `json:"status"`
	EstimatedTotal models.Cents `json:"estimated_total"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
