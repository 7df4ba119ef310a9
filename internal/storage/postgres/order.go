package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/omii/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		id, customer_id, items, subtotal, discount, shipping_cost, total,
		promo_code, payment_method, payment_status, status, shipping_address,
		delivery_partner_id, delivery_partner_name, timeline, notes,
		created_at, updated_at, version
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	selectOrderSQL = `SELECT id, customer_id, items, subtotal, discount, shipping_cost, total,
		promo_code, payment_method, payment_status, status, shipping_address,
		delivery_partner_id, delivery_partner_name, timeline, notes,
		created_at, updated_at, version
	FROM orders`

	updateOrderSQL = `UPDATE orders SET
		payment_status = $2, status = $3,
		delivery_partner_id = $4, delivery_partner_name = $5,
		timeline = $6, updated_at = $7, version = version + 1
	WHERE id = $1 AND version = $8`

	orderExistsSQL = `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Timeline, line items, and the shipping address live in JSONB columns;
// the version column backs optimistic concurrency.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, timelineJSON, addressJSON, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, itemsJSON, o.Subtotal, o.Discount, o.ShippingCost, o.Total,
		o.PromoCode, string(o.PaymentMethod), string(o.PaymentStatus), string(o.Status), addressJSON,
		o.DeliveryPartnerID, o.DeliveryPartnerName, timelineJSON, o.Notes,
		o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get returns a single order by ID, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// Update replaces the order's mutable fields when the version matches,
// incrementing it. A version mismatch returns order.ErrConflict.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	_, timelineJSON, _, err := marshalOrderJSON(o)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, updateOrderSQL,
		o.ID, string(o.PaymentStatus), string(o.Status),
		o.DeliveryPartnerID, o.DeliveryPartnerName,
		timelineJSON, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, orderExistsSQL, o.ID).Scan(&exists); err != nil {
			return fmt.Errorf("checking order %q: %w", o.ID, err)
		}
		if !exists {
			return order.ErrNotFound
		}
		return order.ErrConflict
	}

	o.Version++
	return nil
}

// ByCustomer returns the customer's orders, newest first.
func (r *OrderRepository) ByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` WHERE customer_id = $1 ORDER BY created_at DESC, id`, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ByDeliveryPartner returns the orders assigned to a partner, newest first.
func (r *OrderRepository) ByDeliveryPartner(ctx context.Context, partnerID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` WHERE delivery_partner_id = $1 ORDER BY created_at DESC, id`, partnerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for partner %q: %w", partnerID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// All returns every order, newest first.
func (r *OrderRepository) All(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL+` ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func marshalOrderJSON(o *order.Order) (items, timeline, address []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling order items: %w", err)
	}
	if timeline, err = json.Marshal(o.Timeline); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling order timeline: %w", err)
	}
	if address, err = json.Marshal(o.ShippingAddress); err != nil {
		return nil, nil, nil, fmt.Errorf("marshaling shipping address: %w", err)
	}
	return items, timeline, address, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                             order.Order
		itemsJSON, timelineJSON       []byte
		addressJSON                   []byte
		paymentMethod, payment, state string
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &itemsJSON, &o.Subtotal, &o.Discount, &o.ShippingCost, &o.Total,
		&o.PromoCode, &paymentMethod, &payment, &state, &addressJSON,
		&o.DeliveryPartnerID, &o.DeliveryPartnerName, &timelineJSON, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return o, err
	}

	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	o.PaymentStatus = order.PaymentStatus(payment)
	o.Status = order.Status(state)

	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.ID, err)
	}
	if err := json.Unmarshal(timelineJSON, &o.Timeline); err != nil {
		return o, fmt.Errorf("unmarshaling timeline for order %q: %w", o.ID, err)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("unmarshaling address for order %q: %w", o.ID, err)
	}
	return o, nil
}
