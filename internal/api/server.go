package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ductclean/internal/config"
	"ductclean/internal/exports"
	"ductclean/internal/invoicepdf"
	"ductclean/internal/service"

	"github.com/rs/zerolog"
)

// Server exposes the booking lifecycle over REST.
type Server struct {
	cfg       config.APIConfig
	customers *service.CustomerService
	catalog   *service.CatalogService
	quotes    *service.QuoteService
	bookings  *service.BookingService
	invoices  *service.InvoiceService
	notifier  Notifier
	exporter  *exports.Exporter
	pdf       *invoicepdf.Renderer
	auth      *HTTPAuth
	server    *http.Server
	logger    *zerolog.Logger
}

// Notifier is the direct-enqueue surface for the notification endpoints.
type Notifier interface {
	Enqueue(ctx context.Context, channel, entityID string, payload interface{}) error
}

type Deps struct {
	Customers *service.CustomerService
	Catalog   *service.CatalogService
	Quotes    *service.QuoteService
	Bookings  *service.BookingService
	Invoices  *service.InvoiceService
	Notifier  Notifier
	Exporter  *exports.Exporter
	PDF       *invoicepdf.Renderer
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		customers: deps.Customers,
		catalog:   deps.Catalog,
		quotes:    deps.Quotes,
		bookings:  deps.Bookings,
		invoices:  deps.Invoices,
		notifier:  deps.Notifier,
		exporter:  deps.Exporter,
		pdf:       deps.PDF,
		auth:      NewHTTPAuth(cfg),
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/v1/customers", s.handleListCustomers)
	mux.HandleFunc("POST /api/v1/customers", s.handleCreateCustomer)
	mux.HandleFunc("GET /api/v1/customers/{id}", s.handleGetCustomer)
	mux.HandleFunc("PATCH /api/v1/customers/{id}", s.handleUpdateCustomer)

	mux.HandleFunc("GET /api/v1/services", s.handleListServices)
	mux.HandleFunc("POST /api/v1/services", s.handleCreateService)
	mux.HandleFunc("GET /api/v1/services/{id}", s.handleGetService)
	mux.HandleFunc("PATCH /api/v1/services/{id}", s.handleUpdateService)

	mux.HandleFunc("GET /api/v1/quotes", s.handleListQuotes)
	mux.HandleFunc("POST /api/v1/quotes", s.handleCreateQuote)
	mux.HandleFunc("GET /api/v1/quotes/{id}", s.handleGetQuote)
	mux.HandleFunc("POST /api/v1/quotes/{id}/send", s.handleSendQuote)
	mux.HandleFunc("POST /api/v1/quotes/{id}/respond", s.handleRespondToQuote)

	mux.HandleFunc("GET /api/v1/bookings", s.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", s.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", s.handlePatchBooking)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", s.handleDeleteBooking)

	mux.HandleFunc("GET /api/v1/invoices", s.handleListInvoices)
	mux.HandleFunc("POST /api/v1/invoices", s.handleCreateInvoice)
	mux.HandleFunc("GET /api/v1/invoices/{id}", s.handleGetInvoice)
	mux.HandleFunc("POST /api/v1/invoices/{id}/send", s.handleSendInvoice)
	mux.HandleFunc("POST /api/v1/invoices/{id}/pay", s.handlePayInvoice)
	mux.HandleFunc("POST /api/v1/invoices/{id}/void", s.handleVoidInvoice)
	mux.HandleFunc("GET /api/v1/invoices/{id}/pdf", s.handleInvoicePDF)

	mux.HandleFunc("POST /api/v1/notifications/email", s.handleNotifyEmail)
	mux.HandleFunc("POST /api/v1/notifications/sms", s.handleNotifySMS)

	mux.HandleFunc("GET /api/v1/exports/bookings", s.handleExportBookings)

	handler := s.loggingMiddleware(s.auth.Wrap(mux))

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return s
}

// Handler returns the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
