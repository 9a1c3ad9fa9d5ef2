package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConcurrentModification is returned when a versioned update
	// matched zero rows because another writer got there first.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrDuplicateEmail is returned when a customer email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateInvoice is returned when a booking is already invoiced.
	ErrDuplicateInvoice = errors.New("booking already invoiced")
)

type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers anyway; a single pooled connection also
	// keeps :memory: databases from being opened per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return &DB{DB: db, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS customers (
            id TEXT PRIMARY KEY,
            email TEXT UNIQUE NOT NULL,
            full_name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            city TEXT NOT NULL DEFAULT '',
            state TEXT NOT NULL DEFAULT '',
            zip_code TEXT NOT NULL DEFAULT '',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            base_price INTEGER NOT NULL,
            duration_minutes INTEGER NOT NULL,
            is_active BOOLEAN NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS quotes (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL,
            property_type TEXT NOT NULL DEFAULT '',
            square_footage INTEGER NOT NULL DEFAULT 0,
            num_vents INTEGER NOT NULL DEFAULT 0,
            service_ids TEXT NOT NULL DEFAULT '[]',
            estimated_total INTEGER NOT NULL DEFAULT 0,
            status TEXT NOT NULL DEFAULT 'draft',
            expires_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            customer_id TEXT NOT NULL,
            service_id TEXT NOT NULL,
            scheduled_date TEXT NOT NULL,
            scheduled_time TEXT NOT NULL,
            notes TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS invoices (
            id TEXT PRIMARY KEY,
            booking_id TEXT UNIQUE NOT NULL,
            customer_id TEXT NOT NULL,
            amount INTEGER NOT NULL,
            tax INTEGER NOT NULL DEFAULT 0,
            total INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'draft',
            due_date TEXT NOT NULL,
            payment_ref TEXT NOT NULL DEFAULT '',
            paid_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		`CREATE TABLE IF NOT EXISTS notify_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            channel TEXT NOT NULL,
            entity_id TEXT NOT NULL DEFAULT '',
            payload TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_customers_email ON customers(email)`,
		`CREATE INDEX IF NOT EXISTS idx_services_active ON services(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_quotes_status ON quotes(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_customer ON bookings(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings(scheduled_date)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_booking ON invoices(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notify_status ON notify_queue(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("execute %q: %w", query[:40], err)
		}
	}
	return nil
}

// execVersioned runs a CAS update and maps zero affected rows to
// ErrConcurrentModification.
func (db *DB) execVersioned(ctx context.Context, query string, args ...interface{}) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (db *DB) Close() error {
	return db.DB.Close()
}
