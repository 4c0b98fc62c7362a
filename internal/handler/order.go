package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/market-orders/internal/domain/auth"
	"github.com/xenking/market-orders/internal/domain/order"
	"github.com/xenking/market-orders/internal/domain/user"
)

const maxBodySize = 1 << 20

// CreateOrder places the caller's cart: POST /api/orders.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	if u.Cart.Empty() {
		writeErrors(w, "Cart is empty!")
		return
	}

	req := order.PlaceOrderRequest{User: u}
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "shippingAddress":
			return req.ShippingAddress.Decode(d)
		case "billingAddress":
			if d.Next() == jx.Null {
				return d.Null()
			}
			var a user.Address
			if err := a.Decode(d); err != nil {
				return err
			}
			req.BillingAddress = &a
			return nil
		case "usePoint":
			v, err := d.Bool()
			req.RedeemPoints = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeErrors(w, "Invalid request body")
		return
	}

	if _, err := h.orders.PlaceOrder(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, nil)
}

// ListOrders returns every order the caller bought: GET /api/orders.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListByClient(r.Context(), u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			orders[i].Encode(e)
		}
		e.ArrEnd()
	})
}

// CancelOrder: PATCH /api/orders/{orderId}/cancel.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Cancel(r.Context(), id, u.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, o.Encode)
}

// UpdateOrderStatus applies {"status": ...}: PATCH /api/orders/{orderId}/status.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	var target string
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		if key != "status" {
			return d.Skip()
		}
		s, err := d.Str()
		target = s
		return err
	})
	if err != nil {
		writeErrors(w, "Invalid request body")
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, u.ID, target)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeEnvelope(w, http.StatusOK, o.Encode)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Unauthorized!")
	}
	return u, ok
}

func orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "orderId")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeErrors(w, "Can't find order with id "+raw)
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody reads a JSON object body. An empty body is treated as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, field func(d *jx.Decoder, key string) error) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return jx.DecodeBytes(body).Obj(field)
}

// fail reports err as a 401 error list. Errors outside the order workflow
// taxonomy are logged and hidden from the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var oe *order.Error
	if !errors.As(err, &oe) {
		zctx.From(r.Context()).Error("Order request failed", zap.Error(err))
		writeErrors(w, "Internal error")
		return
	}
	writeErrors(w, messages(oe)...)
}

func messages(e *order.Error) []string {
	switch e.Kind {
	case order.KindEmptyCart:
		return []string{"Cart is empty!"}
	case order.KindMissingBillingAddress:
		return []string{"Billing address is required"}
	case order.KindInvalidAddress:
		msgs := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			msgs = append(msgs, f+" is required")
		}
		return msgs
	case order.KindProductNotFound:
		return []string{fmt.Sprintf("Can't find product with id %s", e.ProductID)}
	case order.KindInvalidQuantity:
		return []string{fmt.Sprintf("Invalid quantity for product with id %s", e.ProductID)}
	case order.KindUnknownStatus:
		return []string{"Status not found!"}
	case order.KindNotFound:
		return []string{fmt.Sprintf("Can't find order with id %s", e.OrderID)}
	case order.KindForbidden:
		return []string{fmt.Sprintf("Can't find order with buyerId or sellerId %s", e.UserID)}
	case order.KindAlreadyCanceled:
		return []string{"Order has been already canceled!"}
	case order.KindAlreadyProcessed:
		return []string{"Order already has been proceeded"}
	default:
		return []string{e.Error()}
	}
}
