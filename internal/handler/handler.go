// Package handler exposes the order workflows over HTTP.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/xenking/market-orders/internal/domain/order"
	"github.com/xenking/market-orders/internal/domain/user"
)

// Orders is the part of *order.Service used by the handlers.
type Orders interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) ([]*order.Order, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]order.Order, error)
	Cancel(ctx context.Context, orderID, userID uuid.UUID) (*order.Order, error)
	UpdateStatus(ctx context.Context, orderID, userID uuid.UUID, target string) (*order.Order, error)
}

// TokenVerifier resolves an Authorization header to a user.
type TokenVerifier interface {
	Verify(ctx context.Context, header string) (*user.User, error)
}

var _ Orders = (*order.Service)(nil)

// Handler serves the order API.
type Handler struct {
	orders   Orders
	verifier TokenVerifier
}

// NewHandler creates a Handler.
func NewHandler(orders Orders, verifier TokenVerifier) *Handler {
	return &Handler{orders: orders, verifier: verifier}
}

// Routes mounts the order endpoints on r. Every route requires a bearer token.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(h.Authenticate)
		r.Post("/", h.CreateOrder)
		r.Get("/", h.ListOrders)
		r.Patch("/{orderId}/cancel", h.CancelOrder)
		r.Patch("/{orderId}/status", h.UpdateOrderStatus)
	})
}
