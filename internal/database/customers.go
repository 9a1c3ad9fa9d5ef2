package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/models"
)

func (db *DB) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `INSERT INTO customers (id, email, full_name, phone, address, city, state, zip_code, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query,
		customer.ID,
		customer.Email,
		customer.FullName,
		customer.Phone,
		customer.Address,
		customer.City,
		customer.State,
		customer.ZipCode,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create customer: %w", err)
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	customer.Version = 1
	return nil
}

const customerColumns = `id, email, full_name, phone, address, city, state, zip_code, created_at, updated_at, version`

func scanCustomer(row interface{ Scan(...interface{}) error }) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID, &c.Email, &c.FullName, &c.Phone, &c.Address, &c.City, &c.State, &c.ZipCode,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = ?`
	customer, err := scanCustomer(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return customer, nil
}

func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = ?`
	customer, err := scanCustomer(db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer by email: %w", err)
	}
	return customer, nil
}

func (db *DB) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// UpdateCustomer rewrites mutable fields with a version check.
func (db *DB) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `UPDATE customers SET email = ?, full_name = ?, phone = ?, address = ?, city = ?, state = ?, zip_code = ?,
              updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	err := db.execVersioned(ctx, query,
		customer.Email,
		customer.FullName,
		customer.Phone,
		customer.Address,
		customer.City,
		customer.State,
		customer.ZipCode,
		time.Now().UTC(),
		customer.ID,
		customer.Version,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}
