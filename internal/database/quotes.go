package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ductclean/internal/models"
)

const quoteColumns = `id, customer_id, email, property_type, square_footage, num_vents, service_ids, estimated_total, status, expires_at, created_at, updated_at, version`

func (db *DB) CreateQuote(ctx context.Context, quote *models.Quote) error {
	serviceIDs, err := json.Marshal(quote.ServiceIDs)
	if err != nil {
		return fmt.Errorf("encode service ids: %w", err)
	}

	query := `INSERT INTO quotes (id, customer_id, email, property_type, square_footage, num_vents, service_ids, estimated_total, status, expires_at, created_at, updated_at, version)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	_, err = db.ExecContext(ctx, query,
		quote.ID,
		quote.CustomerID,
		quote.Email,
		quote.PropertyType,
		quote.SquareFootage,
		quote.NumVents,
		string(serviceIDs),
		int64(quote.EstimatedTotal),
		quote.Status,
		quote.ExpiresAt,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	quote.CreatedAt = now
	quote.UpdatedAt = now
	quote.Version = 1
	return nil
}

func scanQuote(row interface{ Scan(...interface{}) error }) (*models.Quote, error) {
	var q models.Quote
	var serviceIDs string
	var total int64
	err := row.Scan(
		&q.ID, &q.CustomerID, &q.Email, &q.PropertyType, &q.SquareFootage, &q.NumVents,
		&serviceIDs, &total, &q.Status, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt, &q.Version,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(serviceIDs), &q.ServiceIDs); err != nil {
		return nil, fmt.Errorf("decode service ids: %w", err)
	}
	q.EstimatedTotal = models.Cents(total)
	return &q, nil
}

func (db *DB) GetQuote(ctx context.Context, id string) (*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = ?`
	quote, err := scanQuote(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return quote, nil
}

func (db *DB) ListQuotes(ctx context.Context) ([]*models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes ORDER BY created_at DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// UpdateQuoteStatus transitions a quote with a version check. expires_at is
// only written when non-nil, so accept/decline leave the deadline intact.
func (db *DB) UpdateQuoteStatus(ctx context.Context, id string, fromVersion int64, status string, expiresAt *time.Time) error {
	if expiresAt != nil {
		query := `UPDATE quotes SET status = ?, expires_at = ?, updated_at = ?, version = version + 1
                  WHERE id = ? AND version = ?`
		return db.execVersioned(ctx, query, status, expiresAt.UTC(), time.Now().UTC(), id, fromVersion)
	}
	query := `UPDATE quotes SET status = ?, updated_at = ?, version = version + 1
              WHERE id = ? AND version = ?`
	return db.execVersioned(ctx, query, status, time.Now().UTC(), id, fromVersion)
}
