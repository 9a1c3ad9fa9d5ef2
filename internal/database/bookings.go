package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/models"
)

const bookingColumns = `id, customer_id, service_id, scheduled_date, scheduled_time, notes, status, created_at, updated_at, version`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (id, customer_id, service_id, scheduled_date, scheduled_time, notes, status, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query,
		booking.ID,
		booking.CustomerID,
		booking.ServiceID,
		booking.ScheduledDate,
		booking.ScheduledTime,
		booking.Notes,
		booking.Status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func scanBooking(row interface{ Scan(...interface{}) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.CustomerID, &b.ServiceID, &b.ScheduledDate, &b.ScheduledTime,
		&b.Notes, &b.Status, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) ListBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY scheduled_date ASC, scheduled_time ASC`
	return db.queryBookings(ctx, query)
}

func (db *DB) ListBookingsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE scheduled_date >= ? AND scheduled_date <= ?
              ORDER BY scheduled_date ASC, scheduled_time ASC`
	return db.queryBookings(ctx, query, start.Format(models.DateLayout), end.Format(models.DateLayout))
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	return db.execVersioned(ctx, query, status, time.Now().UTC(), id, fromVersion)
}

func (db *DB) UpdateBookingNotes(ctx context.Context, id string, fromVersion int64, notes string) error {
	query := `UPDATE bookings SET notes = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	return db.execVersioned(ctx, query, notes, time.Now().UTC(), id, fromVersion)
}
