package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/market-orders/internal/domain/product"
)

const (
	getProductsByIDsSQL = `SELECT id, seller_id, name, unit_price FROM products WHERE id = ANY($1)`

	upsertProductSQL = `INSERT INTO products (id, seller_id, name, unit_price)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (id) DO UPDATE
	SET seller_id = EXCLUDED.seller_id, name = EXCLUDED.name, unit_price = EXCLUDED.unit_price`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByIDs returns products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products by ids")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, errors.Wrap(err, "scan products")
	}
	return products, nil
}

// Upsert creates p or replaces an existing product with the same id.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, upsertProductSQL, p.ID, p.SellerID, p.Name, p.UnitPrice); err != nil {
		return errors.Wrapf(err, "upsert product %s", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.UnitPrice)
	return p, err
}
