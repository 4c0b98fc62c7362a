package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("user not found")

// User is the buyer identity resolved from a bearer token. It owns the
// shopping cart, an optional saved address and the loyalty point balance.
type User struct {
	ID      uuid.UUID
	Email   string
	Address *Address
	Point   decimal.Decimal
	Cart    Cart
}

// Cart holds the products a user intends to buy.
type Cart struct {
	Items []CartItem
}

// Empty reports whether the cart has no items.
func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// CartItem is a product/quantity pair in a cart.
type CartItem struct {
	ProductID uuid.UUID
	Quantity  int
}

// Repository defines persistence operations for users.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Save persists the mutable state of u: cart, address and point balance.
	Save(ctx context.Context, u *User) error
	// Upsert creates or fully replaces u. Used by operator tooling.
	Upsert(ctx context.Context, u *User) error
}
