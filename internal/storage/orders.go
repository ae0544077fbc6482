package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/bookable/bookingd/internal/booking"
	"github.com/bookable/bookingd/internal/model"
)

// GetOrder loads the order projection with the variant- and product-level
// metadata the duration resolver reads. An order with no line items still
// resolves (to an empty item list); a missing order row does not.
func (s *Store) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var id string
	err := s.q.QueryRow(ctx, `
		SELECT id::text FROM orders WHERE id = $1
	`, orderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, booking.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, `
		SELECT li.id::text, li.order_id::text, li.title, li.quantity,
			COALESCE(li.variant_id::text, ''),
			COALESCE(v.metadata, '{}'::jsonb),
			COALESCE(p.metadata, '{}'::jsonb)
		FROM line_items li
		LEFT JOIN variants v ON v.id = li.variant_id
		LEFT JOIN products p ON p.id = v.product_id
		WHERE li.order_id = $1
		ORDER BY li.created_at ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	order := &model.Order{ID: id}
	for rows.Next() {
		var item model.LineItem
		var variantMeta, productMeta []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Title, &item.Quantity, &item.VariantID, &variantMeta, &productMeta); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(variantMeta, &item.VariantMetadata); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(productMeta, &item.ProductMetadata); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return order, nil
}
