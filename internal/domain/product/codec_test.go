package product

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductDecode(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
		price string
	}{
		{"NumberPrice", `{"id":"9b1e7d52-6a40-4f1c-8d2e-000000000101","sellerId":"5f0c2a4e-1d3b-4c6a-9e8f-0000000000a1","name":"Mug","unitPrice":8.5,"tags":["x"]}`, "8.5"},
		{"StringPrice", `{"id":"9b1e7d52-6a40-4f1c-8d2e-000000000101","sellerId":"5f0c2a4e-1d3b-4c6a-9e8f-0000000000a1","name":"Mug","unitPrice":"8.50"}`, "8.5"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var p Product
			require.NoError(t, p.Decode(jx.DecodeStr(tt.input)))
			assert.Equal(t, uuid.MustParse("9b1e7d52-6a40-4f1c-8d2e-000000000101"), p.ID)
			assert.Equal(t, "Mug", p.Name)
			assert.True(t, decimal.RequireFromString(tt.price).Equal(p.UnitPrice))
			require.NoError(t, p.Validate())
		})
	}
}

func TestProductDecode_Errors(t *testing.T) {
	var p Product
	require.ErrorContains(t, p.Decode(jx.DecodeStr(`{"id":"nope"}`)), "decode id")
	require.Error(t, p.Decode(jx.DecodeStr(`{"unitPrice":"abc"}`)))
}

func TestProductValidate(t *testing.T) {
	valid := Product{ID: uuid.New(), SellerID: uuid.New(), Name: "Mug", UnitPrice: decimal.NewFromInt(1)}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Product){
		"missing id":         func(p *Product) { p.ID = uuid.Nil },
		"missing sellerId":   func(p *Product) { p.SellerID = uuid.Nil },
		"missing name":       func(p *Product) { p.Name = "" },
		"negative unitPrice": func(p *Product) { p.UnitPrice = decimal.NewFromInt(-1) },
	} {
		p := valid
		mutate(&p)
		assert.ErrorContains(t, p.Validate(), name)
	}
}
