package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/market-orders/internal/domain/user"
)

// ErrNotFound is returned by a Repository when an order does not exist.
var ErrNotFound = errors.New("order not found")

// Order is one seller's priced, addressed slice of a checkout.
type Order struct {
	ID              uuid.UUID
	ClientID        uuid.UUID
	SellerID        uuid.UUID
	Status          Status
	BillingAddress  user.Address
	ShippingAddress user.Address
	Items           []Item
	TotalPrice      decimal.Decimal
	CreatedAt       time.Time
}

// Item is a line of an order. UnitPrice is captured when the order is placed
// and never looked up again.
type Item struct {
	ProductID uuid.UUID
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns UnitPrice * Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OwnedBy reports whether id is the buyer or the seller of o.
func (o *Order) OwnedBy(id uuid.UUID) bool {
	return o.ClientID == id || o.SellerID == id
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]Order, error)
	// Save persists the status of an existing order.
	Save(ctx context.Context, o *Order) error
}

// Transactor runs fn in a single storage transaction. Repositories called
// with the context passed to fn participate in it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventPlaced        EventType = "order.placed"
	EventStatusChanged EventType = "order.status_changed"
)

// Event is emitted after an order change has been committed.
type Event struct {
	Type  EventType
	Order *Order
	// Previous is the status before the change; empty for EventPlaced.
	Previous Status
	At       time.Time
}

// Publisher delivers order events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...Event) error { return nil }
