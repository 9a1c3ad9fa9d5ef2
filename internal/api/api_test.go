package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ductclean/internal/config"
	"ductclean/internal/database"
	"ductclean/internal/events"
	"ductclean/internal/exports"
	"ductclean/internal/invoicepdf"
	"ductclean/internal/models"
	"ductclean/internal/service"
	"ductclean/internal/tax"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queuedNotification struct {
	Channel  string
	EntityID string
}

type stubNotifier struct {
	queued []queuedNotification
}

func (n *stubNotifier) Enqueue(ctx context.Context, channel, entityID string, payload interface{}) error {
	n.queued = append(n.queued, queuedNotification{Channel: channel, EntityID: entityID})
	return nil
}

type stubGateway struct{}

func (stubGateway) Charge(ctx context.Context, invoice *models.Invoice, payerEmail string) (string, error) {
	return "gw-001", nil
}

type apiEnv struct {
	db       *database.DB
	server   *Server
	notifier *stubNotifier
	customer *models.Customer
	service  *models.Service
}

func newAPIEnv(t *testing.T, cfg config.APIConfig) *apiEnv {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	notifier := &stubNotifier{}
	bus := events.NewEventBus()
	rater, err := tax.NewFlatRater(825)
	require.NoError(t, err)

	deps := Deps{
		Customers: service.NewCustomerService(db, &logger),
		Catalog:   service.NewCatalogService(db, nil, &logger),
		Quotes:    service.NewQuoteService(db, notifier, bus, 14, &logger),
		Bookings:  service.NewBookingService(db, notifier, bus, &logger),
		Invoices:  service.NewInvoiceService(db, notifier, bus, rater, stubGateway{}, 14, &logger),
		Notifier:  notifier,
		Exporter:  exports.NewExporter(db, t.TempDir(), &logger),
		PDF:       invoicepdf.NewRenderer(db),
	}

	env := &apiEnv{
		db:       db,
		server:   NewServer(cfg, deps, &logger),
		notifier: notifier,
	}

	ctx := context.Background()
	env.customer = &models.Customer{ID: "cust-1", Email: "jane@example.com", FullName: "Jane Doe"}
	require.NoError(t, db.CreateCustomer(ctx, env.customer))
	env.service = &models.Service{ID: "svc-1", Name: "Full duct cleaning", BasePrice: 19900, DurationMinutes: 120, IsActive: true}
	require.NoError(t, db.CreateService(ctx, env.service))

	return env
}

func (env *apiEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func futureDate() string {
	return time.Now().UTC().AddDate(0, 0, 7).Format(models.DateLayout)
}

func TestAPI_Health(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})
	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Auth(t *testing.T) {
	cfg := config.APIConfig{
		Port: 8080,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "admin-key", Name: "admin"},
				{Key: "reader-key", Name: "reader", Permissions: []string{"read:bookings"}},
			},
		},
	}
	env := newAPIEnv(t, cfg)

	t.Run("health open", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/health", nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid key", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", nil, map[string]string{"X-API-Key": "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unrestricted key", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", nil, map[string]string{"X-API-Key": "admin-key"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("scoped key allowed", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/bookings", nil, map[string]string{"X-API-Key": "reader-key"})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("scoped key denied", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/v1/invoices", nil, map[string]string{"X-API-Key": "reader-key"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAPI_RateLimit(t *testing.T) {
	cfg := config.APIConfig{
		Port:      8080,
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 2},
	}
	env := newAPIEnv(t, cfg)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/services", nil, nil)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}

func TestAPI_CustomerCRUD(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	rec := env.do(t, http.MethodPost, "/api/v1/customers", map[string]any{
		"email":     "sam@example.com",
		"full_name": "Sam Smith",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Customer
	decodeResponse(t, rec, &created)
	assert.Equal(t, "sam@example.com", created.Email)

	rec = env.do(t, http.MethodGet, "/api/v1/customers/"+created.ID, nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/customers/"+created.ID, map[string]any{
		"phone":   "+15550123",
		"version": created.Version,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Duplicate email conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/customers", map[string]any{
		"email":     "sam@example.com",
		"full_name": "Imposter",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Unknown id is 404.
	rec = env.do(t, http.MethodGet, "/api/v1/customers/ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_QuoteFlow(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	rec := env.do(t, http.MethodPost, "/api/v1/quotes", map[string]any{
		"email":       "prospect@example.com",
		"service_ids": []string{env.service.ID},
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var quote models.Quote
	decodeResponse(t, rec, &quote)
	assert.Equal(t, models.QuoteDraft, quote.Status)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/send", quote.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &quote)
	assert.Equal(t, models.QuoteSent, quote.Status)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/respond", quote.ID), map[string]any{
		"response": "accepted",
		"version":  quote.Version,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &quote)
	assert.Equal(t, models.QuoteAccepted, quote.Status)

	// Responding again is an invalid transition.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/respond", quote.ID), map[string]any{
		"response": "declined",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Bad response value.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/quotes/%s/respond", quote.ID), map[string]any{
		"response": "maybe",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_BookingFlow(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	rec := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"customer_id":    env.customer.ID,
		"service_id":     env.service.ID,
		"scheduled_date": futureDate(),
		"scheduled_time": "10:00",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var booking models.Booking
	decodeResponse(t, rec, &booking)
	require.Equal(t, models.BookingPending, booking.Status)

	rec = env.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID, map[string]any{
		"action":  "confirm",
		"version": booking.Version,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &booking)
	assert.Equal(t, models.BookingConfirmed, booking.Status)

	// Completing a future appointment is rejected.
	rec = env.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID, map[string]any{
		"action": "complete",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Stale version conflicts.
	rec = env.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID, map[string]any{
		"action":  "cancel",
		"version": 1,
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Notes update without an action.
	rec = env.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID, map[string]any{
		"notes": "gate code 4411",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &booking)
	assert.Equal(t, "gate code 4411", booking.Notes)

	// DELETE cancels.
	rec = env.do(t, http.MethodDelete, "/api/v1/bookings/"+booking.ID, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &booking)
	assert.Equal(t, models.BookingCancelled, booking.Status)

	// Scheduling in the past is a validation error.
	rec = env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"customer_id":    env.customer.ID,
		"service_id":     env.service.ID,
		"scheduled_date": "2020-01-01",
		"scheduled_time": "10:00",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_InvoiceFlow(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	// Confirmed booking to invoice.
	rec := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"customer_id":    env.customer.ID,
		"service_id":     env.service.ID,
		"scheduled_date": futureDate(),
		"scheduled_time": "10:00",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var booking models.Booking
	decodeResponse(t, rec, &booking)

	rec = env.do(t, http.MethodPatch, "/api/v1/bookings/"+booking.ID, map[string]any{"action": "confirm"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{"booking_id": booking.ID}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var invoice models.Invoice
	decodeResponse(t, rec, &invoice)
	assert.Equal(t, models.InvoiceDraft, invoice.Status)
	assert.Equal(t, invoice.Amount+invoice.Tax, invoice.Total)

	// Second invoice for the same booking conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/invoices", map[string]any{"booking_id": booking.ID}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/send", invoice.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &invoice)
	assert.Equal(t, models.InvoiceSent, invoice.Status)

	// Pay through the gateway (no payment_ref in body).
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/pay", invoice.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeResponse(t, rec, &invoice)
	assert.Equal(t, models.InvoicePaid, invoice.Status)
	assert.Equal(t, "gw-001", invoice.PaymentRef)

	// Voiding a paid invoice conflicts.
	rec = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/invoices/%s/void", invoice.ID), nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// PDF download.
	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/invoices/%s/pdf", invoice.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF", rec.Body.String()[:4])
}

func TestAPI_Notifications(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	rec := env.do(t, http.MethodPost, "/api/v1/notifications/email", map[string]any{
		"to":      "jane@example.com",
		"subject": "hello",
		"body":    "world",
	}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/sms", map[string]any{
		"to":   "+15550100",
		"body": "hello",
	}, nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, env.notifier.queued, 2)
	assert.Equal(t, models.NotifyEmail, env.notifier.queued[0].Channel)
	assert.Equal(t, models.NotifySMS, env.notifier.queued[1].Channel)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/email", map[string]any{"subject": "no recipient"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ExportBookings(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	date := futureDate()
	rec := env.do(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"customer_id":    env.customer.ID,
		"service_id":     env.service.ID,
		"scheduled_date": date,
		"scheduled_time": "10:00",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/exports/bookings?from=%s&to=%s", date, date), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.NotZero(t, rec.Body.Len())

	rec = env.do(t, http.MethodGet, "/api/v1/exports/bookings", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/exports/bookings?from=bad&to=worse", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ServicesEndpoint(t *testing.T) {
	env := newAPIEnv(t, config.APIConfig{Port: 8080})

	rec := env.do(t, http.MethodPost, "/api/v1/services", map[string]any{
		"name":             "Dryer vent cleaning",
		"base_price":       9900,
		"duration_minutes": 45,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var svc models.Service
	decodeResponse(t, rec, &svc)

	rec = env.do(t, http.MethodPatch, "/api/v1/services/"+svc.ID, map[string]any{
		"is_active": false,
		"version":   svc.Version,
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/services?active=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Services []*models.Service `json:"services"`
	}
	decodeResponse(t, rec, &listing)
	require.Len(t, listing.Services, 1)
	assert.Equal(t, env.service.ID, listing.Services[0].ID)
}
