package database

import (
	"context"
	"testing"

	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestCustomer(email string) *models.Customer {
	return &models.Customer{
		ID:       uuid.NewString(),
		Email:    email,
		FullName: "Pat Harper",
		Phone:    "+15550001111",
		City:     "Austin",
		State:    "TX",
	}
}

func newTestService(price models.Cents) *models.Service {
	return &models.Service{
		ID:              uuid.NewString(),
		Name:            "Full duct cleaning",
		BasePrice:       price,
		DurationMinutes: 120,
		IsActive:        true,
	}
}

func TestCustomerCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	customer := newTestCustomer("pat@example.com")
	require.NoError(t, db.CreateCustomer(ctx, customer))
	assert.Equal(t, int64(1), customer.Version)

	got, err := db.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", got.Email)

	byEmail, err := db.GetCustomerByEmail(ctx, "pat@example.com")
	require.NoError(t, err)
	assert.Equal(t, customer.ID, byEmail.ID)

	got.Phone = "+15559998888"
	require.NoError(t, db.UpdateCustomer(ctx, got))

	updated, err := db.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "+15559998888", updated.Phone)
	assert.Equal(t, int64(2), updated.Version)

	all, err := db.ListCustomers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCustomerEmailUnique(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCustomer(ctx, newTestCustomer("dup@example.com")))
	err := db.CreateCustomer(ctx, newTestCustomer("dup@example.com"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetCustomerNotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.GetCustomer(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	service := newTestService(10000)
	require.NoError(t, db.CreateService(ctx, service))

	got, err := db.GetService(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cents(10000), got.BasePrice)
	assert.True(t, got.IsActive)

	got.IsActive = false
	require.NoError(t, db.UpdateService(ctx, got))

	active, err := db.ListServices(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := db.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, int64(2), all[0].Version)
}
