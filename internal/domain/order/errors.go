package order

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Kind classifies recoverable order workflow failures.
type Kind uint8

const (
	KindEmptyCart Kind = iota + 1
	KindMissingBillingAddress
	KindInvalidAddress
	KindProductNotFound
	KindUnknownStatus
	KindNotFound
	KindForbidden
	KindAlreadyCanceled
	KindAlreadyProcessed
	KindInvalidQuantity
)

var kindNames = map[Kind]string{
	KindEmptyCart:             "empty cart",
	KindMissingBillingAddress: "missing billing address",
	KindInvalidAddress:        "invalid address",
	KindProductNotFound:       "product not found",
	KindUnknownStatus:         "unknown status",
	KindNotFound:              "not found",
	KindForbidden:             "forbidden",
	KindAlreadyCanceled:       "already canceled",
	KindAlreadyProcessed:      "already processed",
	KindInvalidQuantity:       "invalid quantity",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error is a recoverable failure of an order workflow. Only the fields
// relevant to Kind are set.
type Error struct {
	Kind      Kind
	OrderID   uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Status    string
	// Fields lists missing address fields for KindInvalidAddress.
	Fields []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidAddress:
		return fmt.Sprintf("invalid address: missing %v", e.Fields)
	case KindProductNotFound:
		return fmt.Sprintf("product %s not found", e.ProductID)
	case KindInvalidQuantity:
		return fmt.Sprintf("invalid quantity for product %s", e.ProductID)
	case KindUnknownStatus:
		return fmt.Sprintf("unknown status %q", e.Status)
	case KindNotFound:
		return fmt.Sprintf("order %s not found", e.OrderID)
	case KindForbidden:
		return fmt.Sprintf("order %s is not owned by %s", e.OrderID, e.UserID)
	case KindAlreadyCanceled:
		return fmt.Sprintf("order %s already canceled", e.OrderID)
	case KindAlreadyProcessed:
		return fmt.Sprintf("order %s already processed (status %s)", e.OrderID, e.Status)
	default:
		return e.Kind.String()
	}
}

// Is matches another *Error of the same Kind, so callers can write
// errors.Is(err, &order.Error{Kind: order.KindForbidden}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
