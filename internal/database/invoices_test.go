package database

import (
	"context"
	"testing"
	"time"

	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(bookingID string) *models.Invoice {
	inv := &models.Invoice{
		ID:         uuid.NewString(),
		BookingID:  bookingID,
		CustomerID: uuid.NewString(),
		Amount:     10000,
		Tax:        825,
		Status:     models.InvoiceDraft,
		DueDate:    "2026-10-15",
	}
	inv.Recalc()
	return inv
}

func TestInvoiceCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bookingID := uuid.NewString()
	invoice := newTestInvoice(bookingID)
	require.NoError(t, db.CreateInvoice(ctx, invoice))

	got, err := db.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(10825), got.Total)
	assert.True(t, got.Consistent())

	byBooking, err := db.GetInvoiceByBooking(ctx, bookingID)
	require.NoError(t, err)
	assert.Equal(t, invoice.ID, byBooking.ID)
}

func TestCreateInvoiceRejectsInconsistentTotal(t *testing.T) {
	db := setupTestDB(t)

	invoice := newTestInvoice(uuid.NewString())
	invoice.Total = invoice.Total + 1
	err := db.CreateInvoice(context.Background(), invoice)
	assert.Error(t, err)
}

func TestOneInvoicePerBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	bookingID := uuid.NewString()
	require.NoError(t, db.CreateInvoice(ctx, newTestInvoice(bookingID)))
	err := db.CreateInvoice(ctx, newTestInvoice(bookingID))
	assert.ErrorIs(t, err, ErrDuplicateInvoice)
}

func TestUpdateInvoiceStatusPaid(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	invoice := newTestInvoice(uuid.NewString())
	require.NoError(t, db.CreateInvoice(ctx, invoice))
	require.NoError(t, db.UpdateInvoiceStatus(ctx, invoice.ID, 1, models.InvoiceSent, "", nil))

	paidAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.UpdateInvoiceStatus(ctx, invoice.ID, 2, models.InvoicePaid, "mp-123456", &paidAt))

	got, err := db.GetInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, got.Status)
	assert.Equal(t, "mp-123456", got.PaymentRef)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, paidAt.Unix(), got.PaidAt.Unix())

	// Stale writer loses.
	err = db.UpdateInvoiceStatus(ctx, invoice.ID, 1, models.InvoiceVoid, "", nil)
	assert.ErrorIs(t, err, ErrConcurrentModification)
}
