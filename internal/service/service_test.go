package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ductclean/internal/database"
	"ductclean/internal/domain"
	"ductclean/internal/events"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// enqueued is one recorded notification call.
type enqueued struct {
	Channel  string
	EntityID string
	Payload  interface{}
}

type fakeNotify struct {
	calls   []enqueued
	failErr error
}

func (f *fakeNotify) Enqueue(ctx context.Context, channel, entityID string, payload interface{}) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.calls = append(f.calls, enqueued{Channel: channel, EntityID: entityID, Payload: payload})
	return nil
}

type fakeTax struct {
	rateBps int64
	failErr error
}

func (f *fakeTax) TaxFor(ctx context.Context, amount models.Cents) (models.Cents, error) {
	if f.failErr != nil {
		return 0, f.failErr
	}
	return models.Cents(int64(amount) * f.rateBps / 10000), nil
}

type fakeGateway struct {
	ref     string
	failErr error
	charged []string
}

func (f *fakeGateway) Charge(ctx context.Context, invoice *models.Invoice, payerEmail string) (string, error) {
	if f.failErr != nil {
		return "", f.failErr
	}
	f.charged = append(f.charged, invoice.ID)
	return f.ref, nil
}

// testEnv wires the services against a real in-memory database so the
// compare-and-swap semantics are exercised for real.
type testEnv struct {
	db      *database.DB
	bus     *events.EventBus
	notify  *fakeNotify
	tax     *fakeTax
	gateway *fakeGateway

	quotes    *QuoteService
	bookings  *BookingService
	invoices  *InvoiceService
	customers *CustomerService
	catalog   *CatalogService

	customer *models.Customer
	service  *models.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		db:      db,
		bus:     events.NewEventBus(),
		notify:  &fakeNotify{},
		tax:     &fakeTax{rateBps: 825},
		gateway: &fakeGateway{ref: "mp-12345"},
	}
	env.quotes = NewQuoteService(db, env.notify, env.bus, 14, &logger)
	env.bookings = NewBookingService(db, env.notify, env.bus, &logger)
	env.invoices = NewInvoiceService(db, env.notify, env.bus, env.tax, env.gateway, 14, &logger)
	env.customers = NewCustomerService(db, &logger)
	env.catalog = NewCatalogService(db, nil, &logger)

	ctx := context.Background()
	env.customer = &models.Customer{
		ID:       uuid.NewString(),
		Email:    "jane@example.com",
		FullName: "Jane Doe",
		Phone:    "+15550100",
	}
	require.NoError(t, db.CreateCustomer(ctx, env.customer))

	env.service = &models.Service{
		ID:              uuid.NewString(),
		Name:            "Full duct cleaning",
		BasePrice:       models.Cents(19900),
		DurationMinutes: 120,
		IsActive:        true,
	}
	require.NoError(t, db.CreateService(ctx, env.service))

	return env
}

// collectEvents subscribes to the given event types and returns the
// slice that will accumulate their types in publish order.
func (env *testEnv) collectEvents(types ...string) *[]string {
	var seen []string
	for _, eventType := range types {
		eventType := eventType
		env.bus.Subscribe(eventType, func(event *events.Event) error {
			seen = append(seen, eventType)
			return nil
		})
	}
	return &seen
}

func (env *testEnv) createPendingBooking(t *testing.T) *models.Booking {
	t.Helper()
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	booking, err := env.bookings.CreateBooking(context.Background(), CreateBookingInput{
		CustomerID:    env.customer.ID,
		ServiceID:     env.service.ID,
		ScheduledDate: tomorrow.Format(models.DateLayout),
		ScheduledTime: "10:00",
	})
	require.NoError(t, err)
	return booking
}

func (env *testEnv) createConfirmedBooking(t *testing.T) *models.Booking {
	t.Helper()
	booking := env.createPendingBooking(t)
	booking, err := env.bookings.ConfirmBooking(context.Background(), booking.ID, booking.Version)
	require.NoError(t, err)
	return booking
}

func decodePayload(t *testing.T, payload interface{}, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}

var errBoom = errors.New("boom")

var (
	_ domain.NotifyEnqueuer = (*fakeNotify)(nil)
	_ domain.TaxRater       = (*fakeTax)(nil)
	_ domain.PaymentGateway = (*fakeGateway)(nil)
	_ domain.Repository     = (*database.DB)(nil)
	_ domain.NotifyQueue    = (*database.DB)(nil)
)
