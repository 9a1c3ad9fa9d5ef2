package invoicepdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"ductclean/internal/domain"
	"ductclean/internal/models"

	"github.com/phpdave11/gofpdf"
)

// Renderer produces customer-facing invoice PDFs.
type Renderer struct {
	repo domain.Repository
}

func NewRenderer(repo domain.Repository) *Renderer {
	return &Renderer{repo: repo}
}

// Render builds the PDF for an invoice and returns the bytes together
// with a download filename.
func (r *Renderer) Render(ctx context.Context, invoiceID string) ([]byte, string, error) {
	invoice, err := r.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, "", err
	}
	customer, err := r.repo.GetCustomer(ctx, invoice.CustomerID)
	if err != nil {
		return nil, "", err
	}
	booking, err := r.repo.GetBooking(ctx, invoice.BookingID)
	if err != nil {
		return nil, "", err
	}

	serviceName := booking.ServiceID
	if svc, err := r.repo.GetService(ctx, booking.ServiceID); err == nil {
		serviceName = svc.Name
	}

	data, err := buildPDF(invoice, customer, booking, serviceName)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("invoice_%s.pdf", invoice.ID)
	return data, filename, nil
}

func buildPDF(invoice *models.Invoice, customer *models.Customer, booking *models.Booking, serviceName string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "DUCTCLEAN INVOICE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice no : "+invoice.ID)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Status     : "+invoice.Status)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Due date   : "+safe(invoice.DueDate, "-"))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, safe(customer.FullName, "-"))
	pdf.Ln(7)
	pdf.Cell(0, 7, safe(customer.Email, "-"))
	pdf.Ln(7)
	if addr := billingAddress(customer); addr != "" {
		pdf.Cell(0, 7, addr)
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	desc := fmt.Sprintf("1) %s on %s at %s", safe(serviceName, "-"),
		safe(booking.ScheduledDate, "-"), safe(booking.ScheduledTime, "-"))
	pdf.MultiCell(0, 6, desc, "", "", false)
	pdf.Ln(2)

	pdf.Cell(0, 6, "Amount : "+invoice.Amount.String())
	pdf.Ln(6)
	pdf.Cell(0, 6, "Tax    : "+invoice.Tax.String())
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total  : "+invoice.Total.String())
	pdf.Ln(12)

	if invoice.Status == models.InvoicePaid && invoice.PaidAt != nil {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, fmt.Sprintf("Paid on %s (ref %s). Thank you!",
			invoice.PaidAt.Format(models.DateLayout), safe(invoice.PaymentRef, "-")), "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func billingAddress(customer *models.Customer) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{customer.Address, customer.City, customer.State, customer.ZipCode} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	return strings.Join(parts, ", ")
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
