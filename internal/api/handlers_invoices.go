package api

import (
	"fmt"
	"net/http"
)

func (s *Server) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.invoices.ListInvoices(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"invoices": invoices})
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BookingID string `json:"booking_id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.BookingID == "" {
		writeError(w, http.StatusBadRequest, "booking_id is required")
		return
	}

	invoice, err := s.invoices.CreateInvoice(r.Context(), body.BookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invoice)
}

func (s *Server) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := s.invoices.GetInvoice(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (s *Server) handleSendInvoice(w http.ResponseWriter, r *http.Request) {
	version, ok := optionalVersion(w, r)
	if !ok {
		return
	}

	invoice, err := s.invoices.SendInvoice(r.Context(), r.PathValue("id"), version)
	writeEntity(w, http.StatusOK, invoice, err)
}

// handlePayInvoice records a payment. With a payment_ref the payment
// happened out of band; without one the configured gateway is charged.
func (s *Server) handlePayInvoice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentRef string `json:"payment_ref"`
		Version    int64  `json:"version"`
	}
	if r.ContentLength > 0 {
		if !decodeBody(w, r, &body) {
			return
		}
	}

	id := r.PathValue("id")
	if body.PaymentRef != "" {
		invoice, err := s.invoices.MarkPaid(r.Context(), id, body.Version, body.PaymentRef)
		writeEntity(w, http.StatusOK, invoice, err)
		return
	}

	invoice, err := s.invoices.Pay(r.Context(), id, body.Version)
	writeEntity(w, http.StatusOK, invoice, err)
}

func (s *Server) handleVoidInvoice(w http.ResponseWriter, r *http.Request) {
	version, ok := optionalVersion(w, r)
	if !ok {
		return
	}

	invoice, err := s.invoices.VoidInvoice(r.Context(), r.PathValue("id"), version)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoice)
}

func (s *Server) handleInvoicePDF(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.pdf.Render(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
