package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/market-orders/internal/domain/product"
	"github.com/xenking/market-orders/internal/domain/user"
)

const instrumentationName = "github.com/xenking/market-orders/internal/domain/order"

// pointsPerPrice is how many loyalty points one unit of price costs.
var pointsPerPrice = decimal.NewFromInt(10)

// PlaceOrderRequest holds the input for placing an order from a user's cart.
type PlaceOrderRequest struct {
	User *user.User
	// BillingAddress falls back to User.Address when nil.
	BillingAddress  *user.Address
	ShippingAddress user.Address
	RedeemPoints    bool
}

// Service implements the order placement and status transition workflows.
type Service struct {
	users    user.Repository
	products product.Repository
	orders   Repository
	tx       Transactor
	events   Publisher

	tracer  trace.Tracer
	placed  metric.Int64Counter
	changed metric.Int64Counter
	now     func() time.Time
}

// Option configures optional Service collaborators.
type Option func(*serviceOptions)

type serviceOptions struct {
	events Publisher
	tp     trace.TracerProvider
	mp     metric.MeterProvider
	now    func() time.Time
}

// WithPublisher sets the destination for order events.
func WithPublisher(p Publisher) Option {
	return func(o *serviceOptions) { o.events = p }
}

// WithTracerProvider sets the tracer provider used for workflow spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serviceOptions) { o.tp = tp }
}

// WithMeterProvider sets the meter provider used for workflow counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *serviceOptions) { o.mp = mp }
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	users user.Repository,
	products product.Repository,
	orders Repository,
	tx Transactor,
	opts ...Option,
) (*Service, error) {
	o := serviceOptions{
		events: nopPublisher{},
		tp:     tracenoop.NewTracerProvider(),
		mp:     metricnoop.NewMeterProvider(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	meter := o.mp.Meter(instrumentationName)
	placed, err := meter.Int64Counter("orders.placed",
		metric.WithDescription("Orders created, one per seller per checkout"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.placed counter")
	}
	changed, err := meter.Int64Counter("orders.status_changes",
		metric.WithDescription("Applied order status transitions"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.status_changes counter")
	}

	return &Service{
		users:    users,
		products: products,
		orders:   orders,
		tx:       tx,
		events:   o.events,
		tracer:   o.tp.Tracer(instrumentationName),
		placed:   placed,
		changed:  changed,
		now:      o.now,
	}, nil
}

// PlaceOrder splits the user's cart into one order per seller, optionally
// redeems loyalty points, and clears the cart. Orders and the user update are
// written in one transaction.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (_ []*Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Place")
	defer func() { endSpan(span, rerr) }()

	u := req.User
	billing := req.BillingAddress
	if billing == nil {
		if u.Address == nil {
			return nil, &Error{Kind: KindMissingBillingAddress, UserID: u.ID}
		}
		billing = u.Address
	}
	if u.Cart.Empty() {
		return nil, &Error{Kind: KindEmptyCart, UserID: u.ID}
	}
	if err := validateAddresses(*billing, req.ShippingAddress); err != nil {
		return nil, err
	}
	for _, it := range u.Cart.Items {
		if it.Quantity <= 0 {
			return nil, &Error{Kind: KindInvalidQuantity, ProductID: it.ProductID}
		}
	}

	// Single batch lookup; every cart product must be priced before anything
	// is written.
	fetched, err := s.products.GetByIDs(ctx, cartProductIDs(u.Cart))
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	catalog := product.Index(fetched)
	for _, it := range u.Cart.Items {
		if _, ok := catalog[it.ProductID]; !ok {
			return nil, &Error{Kind: KindProductNotFound, ProductID: it.ProductID}
		}
	}

	now := s.now()
	cartTotal := decimal.Zero
	orders := make([]*Order, 0)
	for _, g := range groupBySeller(u.Cart, catalog) {
		o := &Order{
			ID:              uuid.New(),
			ClientID:        u.ID,
			SellerID:        g.sellerID,
			Status:          StatusOrdered,
			BillingAddress:  *billing,
			ShippingAddress: req.ShippingAddress,
			Items:           g.items,
			TotalPrice:      Total(g.items),
			CreatedAt:       now,
		}
		cartTotal = cartTotal.Add(o.TotalPrice)
		orders = append(orders, o)
	}

	updated := *u
	updated.Cart = user.Cart{}
	if req.RedeemPoints {
		updated.Point = RedeemPoints(u.Point, cartTotal)
	}

	if err := s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, o := range orders {
			if err := s.orders.Create(ctx, o); err != nil {
				return errors.Wrapf(err, "create order for seller %s", o.SellerID)
			}
		}
		if err := s.users.Save(ctx, &updated); err != nil {
			return errors.Wrap(err, "save user")
		}
		return nil
	}); err != nil {
		return nil, err
	}
	*u = updated

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	s.placed.Add(ctx, int64(len(orders)))

	events := make([]Event, len(orders))
	for i, o := range orders {
		events[i] = Event{Type: EventPlaced, Order: o, At: now}
	}
	s.publish(ctx, events...)

	return orders, nil
}

// UpdateStatus moves the order to target on behalf of userID, who must be the
// order's buyer or seller. Cancellation is only legal from ORDERED and a
// canceled order never changes again.
func (s *Service) UpdateStatus(ctx context.Context, orderID, userID uuid.UUID, target string) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.target_status", target),
	))
	defer func() { endSpan(span, rerr) }()

	st, ok := ParseStatus(target)
	if !ok {
		return nil, &Error{Kind: KindUnknownStatus, Status: target}
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, OrderID: orderID}
		}
		return nil, errors.Wrapf(err, "find order %s", orderID)
	}

	if !o.OwnedBy(userID) {
		return nil, &Error{Kind: KindForbidden, OrderID: orderID, UserID: userID}
	}

	switch transition(o.Status, st) {
	case denyCanceled:
		return nil, &Error{Kind: KindAlreadyCanceled, OrderID: orderID}
	case denyProcessed:
		return nil, &Error{Kind: KindAlreadyProcessed, OrderID: orderID, Status: o.Status.String()}
	}

	prev := o.Status
	o.Status = st
	if err := s.orders.Save(ctx, o); err != nil {
		return nil, errors.Wrapf(err, "save order %s", orderID)
	}

	s.changed.Add(ctx, 1, metric.WithAttributes(attribute.String("status", st.String())))
	s.publish(ctx, Event{Type: EventStatusChanged, Order: o, Previous: prev, At: s.now()})

	return o, nil
}

// Cancel cancels the order on behalf of userID.
func (s *Service) Cancel(ctx context.Context, orderID, userID uuid.UUID) (*Order, error) {
	return s.UpdateStatus(ctx, orderID, userID, StatusCanceled.String())
}

// ListByClient returns every order placed by clientID.
func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID) ([]Order, error) {
	orders, err := s.orders.ListByClient(ctx, clientID)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders of %s", clientID)
	}
	return orders, nil
}

// publish is best effort: the change is already committed.
func (s *Service) publish(ctx context.Context, events ...Event) {
	if err := s.events.Publish(ctx, events...); err != nil {
		zctx.From(ctx).Warn("Publish order events failed",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

// RedeemPoints returns balance reduced by price*10, floored at zero.
func RedeemPoints(balance, price decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, balance.Sub(price.Mul(pointsPerPrice)))
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

type sellerGroup struct {
	sellerID uuid.UUID
	items    []Item
}

// groupBySeller partitions cart lines by the seller of each product, keeping
// sellers in the order they first appear in the cart. Every cart product must
// be present in catalog.
func groupBySeller(cart user.Cart, catalog map[uuid.UUID]product.Product) []sellerGroup {
	var groups []sellerGroup
	index := make(map[uuid.UUID]int)
	for _, it := range cart.Items {
		p := catalog[it.ProductID]
		i, ok := index[p.SellerID]
		if !ok {
			i = len(groups)
			index[p.SellerID] = i
			groups = append(groups, sellerGroup{sellerID: p.SellerID})
		}
		groups[i].items = append(groups[i].items, Item{
			ProductID: p.ID,
			UnitPrice: p.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return groups
}

func cartProductIDs(cart user.Cart) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(cart.Items))
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, it := range cart.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

func validateAddresses(billing, shipping user.Address) error {
	var fields []string
	for _, a := range []struct {
		prefix string
		addr   user.Address
	}{
		{"billingAddress", billing},
		{"shippingAddress", shipping},
	} {
		for _, f := range a.addr.MissingFields() {
			fields = append(fields, fmt.Sprintf("%s.%s", a.prefix, f))
		}
	}
	if len(fields) > 0 {
		return &Error{Kind: KindInvalidAddress, Fields: fields}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
