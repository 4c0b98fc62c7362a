package user

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Address is a postal address used for billing and shipping.
type Address struct {
	State   string
	City    string
	ZipCode string
	Street  string
}

// MissingFields returns the JSON names of empty required fields.
func (a Address) MissingFields() []string {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"state", a.State},
		{"city", a.City},
		{"zipCode", a.ZipCode},
		{"street", a.Street},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// Encode writes a as a JSON object.
func (a Address) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("state")
	e.Str(a.State)
	e.FieldStart("city")
	e.Str(a.City)
	e.FieldStart("zipCode")
	e.Str(a.ZipCode)
	e.FieldStart("street")
	e.Str(a.Street)
	e.ObjEnd()
}

// Decode reads a from a JSON object. Unknown fields are skipped.
func (a *Address) Decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "state":
			a.State, err = d.Str()
		case "city":
			a.City, err = d.Str()
		case "zipCode":
			a.ZipCode, err = d.Str()
		case "street":
			a.Street, err = d.Str()
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		return nil
	})
}
