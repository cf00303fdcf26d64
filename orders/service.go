package orders

import (
	"context"
	"log"
	"time"

	"vendia/apperr"
	"vendia/cart"
	"vendia/locks"
	"vendia/models"
	"vendia/mq"
	"vendia/products"
	"vendia/utils"
)

// Service builds orders from carts and drives status transitions. It shares
// the per-customer keyed mutex with the cart service, so checkout and cart
// edits for one customer never interleave.
type Service struct {
	store     Store
	cartStore cart.Store
	catalog   products.Finder
	locks     *locks.KeyedMutex
	currency  string
}

func NewService(store Store, cartStore cart.Store, catalog products.Finder, km *locks.KeyedMutex, currency string) *Service {
	return &Service{store: store, cartStore: cartStore, catalog: catalog, locks: km, currency: currency}
}

// PlaceOrder converts the customer's cart into an immutable order. Prices
// are re-fetched from the catalog here; the values written to the order
// lines are the permanent snapshot.
func (s *Service) PlaceOrder(ctx context.Context, userID string) (*models.Order, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.cartStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(c.Lines) == 0 {
		return nil, apperr.New(apperr.InvalidState, "cart", userID, "cannot place an order from an empty cart")
	}

	lines := make([]models.OrderLine, 0, len(c.Lines))
	var total int64
	for _, cl := range c.Lines {
		product, err := s.catalog.GetProduct(ctx, cl.ProductID)
		if err != nil {
			return nil, err
		}
		line := models.OrderLine{
			LineID:    utils.GetUUID(),
			ProductID: product.ProductID,
			Name:      product.Name,
			Quantity:  cl.Quantity,
			UnitPrice: product.Price,
		}
		lines = append(lines, line)
		total += line.Subtotal()
	}

	if total <= 0 {
		return nil, apperr.Newf(apperr.InvalidState, "cart", userID, "order total must be positive, got %d", total)
	}

	now := time.Now()
	order := &models.Order{
		OrderID:   utils.GetUUID(),
		UserID:    userID,
		Status:    models.OrderPlaced,
		Lines:     lines,
		Total:     total,
		Currency:  s.currency,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Insert(ctx, order); err != nil {
		return nil, err
	}

	if err := s.cartStore.Clear(ctx, userID); err != nil {
		// The order is committed; a stale cart is recoverable, so log only.
		log.Printf("PlaceOrder: cart clear failed for user %s: %v", userID, err)
	}

	mq.EmitOrderEvent(ctx, "order.placed", order)
	return order, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.Get(ctx, orderID)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.ListByUser(ctx, userID)
}

// Transition moves an order to target under the lifecycle table. Requesting
// the status the order already has is a no-op returning the current order,
// which makes duplicate payment notifications harmless. The write is a CAS
// on the current status; a lost race is re-examined so a duplicate still
// no-ops while a genuine conflict surfaces as such.
func (s *Service) Transition(ctx context.Context, orderID string, target models.OrderStatus, actor Actor) (*models.Order, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}
	if !allowed(order.Status, target) {
		return nil, apperr.Newf(apperr.InvalidState, "order", orderID,
			"illegal transition %s -> %s", order.Status, target)
	}
	if err := Authorize(actor, order, target); err != nil {
		return nil, err
	}

	return s.casTransition(ctx, order, order.Status, target)
}

// TransitionFrom applies target only if the order is still in from at
// write time. Gateway-driven cancellation uses it: paid -> cancelled is a
// legal operator edge, so a cancellation pinned to placed cannot override
// a payment that lands between read and write.
func (s *Service) TransitionFrom(ctx context.Context, orderID string, from, target models.OrderStatus, actor Actor) (*models.Order, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		return order, nil
	}
	if !allowed(from, target) {
		return nil, apperr.Newf(apperr.InvalidState, "order", orderID,
			"illegal transition %s -> %s", from, target)
	}
	if err := Authorize(actor, order, target); err != nil {
		return nil, err
	}

	return s.casTransition(ctx, order, from, target)
}

// casTransition is the status write pinned to from, plus lost-race
// resolution: a duplicate target stays a no-op, anything else conflicts.
func (s *Service) casTransition(ctx context.Context, order *models.Order, from, target models.OrderStatus) (*models.Order, error) {
	ok, err := s.store.UpdateStatus(ctx, order.OrderID, from, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		current, err := s.store.Get(ctx, order.OrderID)
		if err != nil {
			return nil, err
		}
		if current.Status == target {
			return current, nil
		}
		return nil, apperr.Newf(apperr.Conflict, "order", order.OrderID,
			"concurrent transition: now %s, requested %s", current.Status, target)
	}

	order.Status = target
	mq.EmitOrderEvent(ctx, "order.status_changed", order)
	return order, nil
}

// AttachPaymentRef records the gateway's intent id on the order. The
// gateway owns the intent lifecycle; this is only a correlation handle.
func (s *Service) AttachPaymentRef(ctx context.Context, orderID, intentID string) error {
	return s.store.SetPaymentRef(ctx, orderID, intentID)
}
