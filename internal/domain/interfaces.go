package domain

import (
	"context"
	"time"

	"ductclean/internal/models"
)

// Repository is the persistence boundary for the lifecycle services. All
// Update* methods are compare-and-swap on the entity version and return
// the storage layer's concurrent-modification error when the version moved.
type Repository interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, customer *models.Customer) error

	CreateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id string) (*models.Service, error)
	ListServices(ctx context.Context, activeOnly bool) ([]*models.Service, error)
	UpdateService(ctx context.Context, service *models.Service) error

	CreateQuote(ctx context.Context, quote *models.Quote) error
	GetQuote(ctx context.Context, id string) (*models.Quote, error)
	ListQuotes(ctx context.Context) ([]*models.Quote, error)
	UpdateQuoteStatus(ctx context.Context, id string, fromVersion int64, status string, expiresAt *time.Time) error

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]*models.Booking, error)
	ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, fromVersion int64, status string) error
	UpdateBookingNotes(ctx context.Context, id string, fromVersion int64, notes string) error

	CreateInvoice(ctx context.Context, invoice *models.Invoice) error
	GetInvoice(ctx context.Context, id string) (*models.Invoice, error)
	GetInvoiceByBooking(ctx context.Context, bookingID string) (*models.Invoice, error)
	ListInvoices(ctx context.Context) ([]*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, fromVersion int64, status string, paymentRef string, paidAt *time.Time) error
}

// NotifyQueue persists side-effect jobs for the notification worker.
type NotifyQueue interface {
	CreateNotifyTask(ctx context.Context, task *models.NotifyTask) error
	GetPendingNotifyTasks(ctx context.Context, limit int) ([]models.NotifyTask, error)
	UpdateNotifyTaskStatus(ctx context.Context, id int64, status, errMsg string, nextRetryAt *time.Time) error
}

// NotifyEnqueuer schedules a notification without blocking the caller's
// transaction. Implementations must not fail the lifecycle transition.
type NotifyEnqueuer interface {
	Enqueue(ctx context.Context, channel, entityID string, payload interface{}) error
}

// EmailMessage, SMSMessage and OpsAlert are the channel payloads.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type OpsAlert struct {
	Text string `json:"text"`
}

type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, msg SMSMessage) error
}

type OpsNotifier interface {
	SendAlert(ctx context.Context, alert OpsAlert) error
}

// PaymentGateway charges an invoice through an external processor and
// returns the provider's payment reference.
type PaymentGateway interface {
	Charge(ctx context.Context, invoice *models.Invoice, payerEmail string) (string, error)
}

// TaxRater computes tax for a pre-tax amount.
type TaxRater interface {
	TaxFor(ctx context.Context, amount models.Cents) (models.Cents, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// CatalogCache holds a stale-but-recent snapshot of the active service
// catalog for read-only validation paths.
type CatalogCache interface {
	GetServices(ctx context.Context) ([]*models.Service, error)
	SetServices(ctx context.Context, services []*models.Service) error
	Invalidate(ctx context.Context) error
}
