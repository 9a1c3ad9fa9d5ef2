package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/models"
)

const serviceColumns = `id, name, description, base_price, duration_minutes, is_active, created_at, updated_at, version`

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	query := `INSERT INTO services (id, name, description, base_price, duration_minutes, is_active, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, query,
		service.ID,
		service.Name,
		service.Description,
		int64(service.BasePrice),
		service.DurationMinutes,
		service.IsActive,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	service.CreatedAt = now
	service.UpdatedAt = now
	service.Version = 1
	return nil
}

func scanService(row interface{ Scan(...interface{}) error }) (*models.Service, error) {
	var s models.Service
	var price int64
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &price, &s.DurationMinutes, &s.IsActive,
		&s.CreatedAt, &s.UpdatedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}
	s.BasePrice = models.Cents(price)
	return &s, nil
}

func (db *DB) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = ?`
	service, err := scanService(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return service, nil
}

func (db *DB) ListServices(ctx context.Context, activeOnly bool) ([]*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (db *DB) UpdateService(ctx context.Context, service *models.Service) error {
	query := `UPDATE services SET name = ?, description = ?, base_price = ?, duration_minutes = ?, is_active = ?,
              updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	return db.execVersioned(ctx, query,
		service.Name,
		service.Description,
		int64(service.BasePrice),
		service.DurationMinutes,
		service.IsActive,
		time.Now().UTC(),
		service.ID,
		service.Version,
	)
}
