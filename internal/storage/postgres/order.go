package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-orders/internal/domain/order"
)

const (
	orderColumns = `id, client_id, seller_id, status, billing_address, shipping_address, items, total_price, created_at`

	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByClientSQL = `SELECT ` + orderColumns + ` FROM orders
	WHERE client_id = $1 ORDER BY created_at, id`

	saveOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order. Addresses and items are stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createOrderSQL,
		o.ID,
		o.ClientID,
		o.SellerID,
		o.Status.String(),
		document(o.BillingAddress.Encode),
		document(o.ShippingAddress.Encode),
		document(func(e *jx.Encoder) { order.EncodeItems(e, o.Items) }),
		o.TotalPrice,
		o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %s", o.ID)
	}
	return nil
}

// FindByID returns the order with the given id, or order.ErrNotFound.
func (r *OrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	return &o, nil
}

// ListByClient returns all orders of a buyer, oldest first.
func (r *OrderRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listOrdersByClientSQL, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of %s", clientID)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrapf(err, "scan orders of %s", clientID)
	}
	return orders, nil
}

// Save writes the order status. Concurrent saves are last-write-wins.
func (r *OrderRepository) Save(ctx context.Context, o *order.Order) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, saveOrderStatusSQL, o.ID, o.Status.String())
	if err != nil {
		return errors.Wrapf(err, "save order %s", o.ID)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o                 order.Order
		status            string
		billing, shipping []byte
		items             []byte
	)
	if err := row.Scan(
		&o.ID, &o.ClientID, &o.SellerID, &status,
		&billing, &shipping, &items,
		&o.TotalPrice, &o.CreatedAt,
	); err != nil {
		return o, err
	}

	st, ok := order.ParseStatus(status)
	if !ok {
		return o, errors.Errorf("order %s: unknown status %q", o.ID, status)
	}
	o.Status = st

	if err := o.BillingAddress.Decode(jx.DecodeBytes(billing)); err != nil {
		return o, errors.Wrap(err, "decode billing address")
	}
	if err := o.ShippingAddress.Decode(jx.DecodeBytes(shipping)); err != nil {
		return o, errors.Wrap(err, "decode shipping address")
	}
	var err error
	if o.Items, err = order.DecodeItems(jx.DecodeBytes(items)); err != nil {
		return o, errors.Wrap(err, "decode items")
	}
	return o, nil
}
