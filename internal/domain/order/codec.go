package order

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Encode writes o as a JSON object.
func (o *Order) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID.String())
	e.FieldStart("clientId")
	e.Str(o.ClientID.String())
	e.FieldStart("sellerId")
	e.Str(o.SellerID.String())
	e.FieldStart("status")
	e.Str(o.Status.String())
	e.FieldStart("billingAddress")
	o.BillingAddress.Encode(e)
	e.FieldStart("shippingAddress")
	o.ShippingAddress.Encode(e)
	e.FieldStart("items")
	EncodeItems(e, o.Items)
	e.FieldStart("totalPrice")
	e.Float64(o.TotalPrice.InexactFloat64())
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
}

// EncodeItems writes items as a JSON array.
func EncodeItems(e *jx.Encoder, items []Item) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID.String())
		e.FieldStart("unitPrice")
		e.Str(it.UnitPrice.String())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// DecodeItems reads a JSON array written by EncodeItems.
func DecodeItems(d *jx.Decoder) ([]Item, error) {
	var items []Item
	err := d.Arr(func(d *jx.Decoder) error {
		var it Item
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "productId":
				s, err := d.Str()
				if err != nil {
					return err
				}
				if it.ProductID, err = uuid.Parse(s); err != nil {
					return errors.Wrapf(err, "parse productId %q", s)
				}
			case "unitPrice":
				price, err := decodeDecimal(d)
				if err != nil {
					return errors.Wrap(err, "decode unitPrice")
				}
				it.UnitPrice = price
			case "quantity":
				q, err := d.Int()
				if err != nil {
					return err
				}
				it.Quantity = q
			default:
				return d.Skip()
			}
			return nil
		}); err != nil {
			return errors.Wrap(err, "decode item")
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

// decodeDecimal reads a decimal string. Plain JSON numbers are accepted too.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	if d.Next() == jx.String {
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	}
	f, err := d.Float64()
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromFloat(f), nil
}

// Encode writes ev as a JSON object suitable for a message payload.
func (ev Event) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(ev.Type))
	if ev.Previous != "" {
		e.FieldStart("previousStatus")
		e.Str(ev.Previous.String())
	}
	e.FieldStart("at")
	e.Str(ev.At.UTC().Format(time.RFC3339Nano))
	e.FieldStart("order")
	ev.Order.Encode(e)
	e.ObjEnd()
}
