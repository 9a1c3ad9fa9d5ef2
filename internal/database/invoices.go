package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/models"
)

const invoiceColumns = `id, booking_id, customer_id, amount, tax, total, status, due_date, payment_ref, paid_at, created_at, updated_at, version`

func (db *DB) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	if !invoice.Consistent() {
		return fmt.Errorf("invoice %s: total %d != amount %d + tax %d",
			invoice.ID, invoice.Total, invoice.Amount, invoice.Tax)
	}

	query := `INSERT INTO invoices (id, booking_id, customer_id, amount, tax, total, status, due_date, payment_ref, paid_at, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query,
		invoice.ID,
		invoice.BookingID,
		invoice.CustomerID,
		int64(invoice.Amount),
		int64(invoice.Tax),
		int64(invoice.Total),
		invoice.Status,
		invoice.DueDate,
		invoice.PaymentRef,
		invoice.PaidAt,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateInvoice
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	invoice.Version = 1
	return nil
}

func scanInvoice(row interface{ Scan(...interface{}) error }) (*models.Invoice, error) {
	var i models.Invoice
	var amount, tax, total int64
	err := row.Scan(
		&i.ID, &i.BookingID, &i.CustomerID, &amount, &tax, &total,
		&i.Status, &i.DueDate, &i.PaymentRef, &i.PaidAt, &i.CreatedAt, &i.UpdatedAt, &i.Version,
	)
	if err != nil {
		return nil, err
	}
	i.Amount = models.Cents(amount)
	i.Tax = models.Cents(tax)
	i.Total = models.Cents(total)
	return &i, nil
}

func (db *DB) GetInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	invoice, err := scanInvoice(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return invoice, nil
}

func (db *DB) GetInvoiceByBooking(ctx context.Context, bookingID string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE booking_id = ?`
	invoice, err := scanInvoice(db.QueryRowContext(ctx, query, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice by booking: %w", err)
	}
	return invoice, nil
}

func (db *DB) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, i)
	}
	return invoices, rows.Err()
}

// UpdateInvoiceStatus transitions an invoice with a version check. paid_at
// and payment_ref are only written on the transition into paid.
func (db *DB) UpdateInvoiceStatus(ctx context.Context, id string, fromVersion int64, status string, paymentRef string, paidAt *time.Time) error {
	if status == models.InvoicePaid {
		query := `UPDATE invoices SET status = ?, payment_ref = ?, paid_at = ?, updated_at = ?, version = version + 1
                  WHERE id = ? AND version = ?`
		return db.execVersioned(ctx, query, status, paymentRef, paidAt, time.Now().UTC(), id, fromVersion)
	}
	query := `UPDATE invoices SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	return db.execVersioned(ctx, query, status, time.Now().UTC(), id, fromVersion)
}
