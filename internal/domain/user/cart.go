package user

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

// Encode writes the cart as {"items":[{"productId":...,"quantity":...}]}.
func (c Cart) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range c.Items {
		e.ObjStart()
		e.FieldStart("productId")
		e.Str(it.ProductID.String())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// Decode reads the cart from its JSON object form.
func (c *Cart) Decode(d *jx.Decoder) error {
	c.Items = c.Items[:0]
	return d.Obj(func(d *jx.Decoder, key string) error {
		if key != "items" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			var it CartItem
			if err := it.decode(d); err != nil {
				return err
			}
			c.Items = append(c.Items, it)
			return nil
		})
	})
}

func (it *CartItem) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "decode productId")
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return errors.Wrapf(err, "parse productId %q", s)
			}
			it.ProductID = id
		case "quantity":
			q, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "decode quantity")
			}
			it.Quantity = q
		default:
			return d.Skip()
		}
		return nil
	})
}
