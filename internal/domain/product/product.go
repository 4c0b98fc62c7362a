package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item offered by a single seller.
type Product struct {
	ID        uuid.UUID
	SellerID  uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
}

// Repository defines operations on the product catalog.
type Repository interface {
	// GetByIDs returns products matching any of the given IDs. Unknown IDs are
	// silently absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)
	Upsert(ctx context.Context, p *Product) error
}

// Index maps products by ID.
func Index(products []Product) map[uuid.UUID]Product {
	m := make(map[uuid.UUID]Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return m
}
