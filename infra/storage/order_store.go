package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mstgnz/brqpay/order"
)

const orderColumns = `id, number, transaction_id, currency, total, shipping_total, payment_method, payment_status, deliveries,
	line_items, billing, metadata, created_at, updated_at`

// OrderStore implements order.Store on SQLite
type OrderStore struct {
	db *SQLite
}

var _ order.Store = (*OrderStore)(nil)

func (s *OrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	return s.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
}

func (s *OrderStore) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	return s.one(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = ? ORDER BY created_at DESC LIMIT 1`, number)
}

// Save inserts or replaces o. Timestamps and the default status are filled in on o.
func (s *OrderStore) Save(ctx context.Context, o *order.Order) error {
	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.PaymentStatus == "" {
		o.PaymentStatus = order.StatusOpen
	}

	lineItems, err := json.Marshal(o.LineItems)
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}
	var billing []byte
	if o.Billing != nil {
		if billing, err = json.Marshal(o.Billing); err != nil {
			return fmt.Errorf("failed to marshal billing address: %w", err)
		}
	}
	metadata, err := json.Marshal(o.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
	INSERT INTO orders (` + orderColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id)
	DO UPDATE SET
		number = excluded.number,
		transaction_id = excluded.transaction_id,
		currency = excluded.currency,
		total = excluded.total,
		shipping_total = excluded.shipping_total,
		payment_method = excluded.payment_method,
		payment_status = excluded.payment_status,
		deliveries = excluded.deliveries,
		line_items = excluded.line_items,
		billing = excluded.billing,
		metadata = excluded.metadata,
		updated_at = excluded.updated_at
	`

	return s.db.retry(ctx, func() error {
		_, err := s.db.db.ExecContext(ctx, query,
			o.ID, o.Number, o.TransactionID, o.Currency, o.Total.String(), o.ShippingTotal.String(),
			o.PaymentMethod, string(o.PaymentStatus), o.Deliveries, string(lineItems), string(billing), string(metadata),
			formatTime(o.CreatedAt), formatTime(o.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save order %s: %w", o.ID, err)
		}
		return nil
	})
}

func (s *OrderStore) one(ctx context.Context, query, arg string) (*order.Order, error) {
	var o *order.Order
	err := s.db.retry(ctx, func() error {
		var err error
		o, err = scanOrder(s.db.db.QueryRowContext(ctx, query, arg))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", arg, err)
	}
	return o, nil
}

func scanOrder(row scanner) (*order.Order, error) {
	var (
		o                              order.Order
		status, lineItems, billing     string
		metadata, createdAt, updatedAt string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.TransactionID, &o.Currency, &o.Total, &o.ShippingTotal, &o.PaymentMethod, &status, &o.Deliveries,
		&lineItems, &billing, &metadata, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentStatus = order.PaymentStatus(status)
	if err := json.Unmarshal([]byte(lineItems), &o.LineItems); err != nil {
		return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
	}
	if billing != "" {
		o.Billing = &order.Address{}
		if err := json.Unmarshal([]byte(billing), o.Billing); err != nil {
			return nil, fmt.Errorf("failed to unmarshal billing address: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(metadata), &o.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if o.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &o, nil
}
