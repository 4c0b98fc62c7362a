package product

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decode reads a catalog record:
//
//	{"id": "...", "sellerId": "...", "name": "...", "unitPrice": 12.5}
//
// unitPrice may also be a decimal string.
func (p *Product) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeUUID(d)
		case "sellerId":
			p.SellerID, err = decodeUUID(d)
		case "name":
			p.Name, err = d.Str()
		case "unitPrice":
			p.UnitPrice, err = decodePrice(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		return nil
	})
}

// Validate reports records that cannot be listed in the catalog.
func (p *Product) Validate() error {
	switch {
	case p.ID == uuid.Nil:
		return errors.New("missing id")
	case p.SellerID == uuid.Nil:
		return errors.New("missing sellerId")
	case p.Name == "":
		return errors.New("missing name")
	case p.UnitPrice.IsNegative():
		return errors.Errorf("negative unitPrice %s", p.UnitPrice)
	}
	return nil
}

func decodeUUID(d *jx.Decoder) (uuid.UUID, error) {
	s, err := d.Str()
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(s)
}

func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
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
