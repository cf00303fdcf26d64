package cart

import (
	"context"
	"time"

	"vendia/apperr"
	"vendia/locks"
	"vendia/models"
	"vendia/products"
	"vendia/utils"
)

// Service owns all cart mutation. The keyed mutex is shared with the order
// builder so a checkout cannot interleave with a cart edit for the same
// customer.
type Service struct {
	store   Store
	catalog products.Finder
	locks   *locks.KeyedMutex
}

func NewService(store Store, catalog products.Finder, km *locks.KeyedMutex) *Service {
	return &Service{store: store, catalog: catalog, locks: km}
}

// GetOrCreate returns the customer's cart, empty if none exists yet.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.store.Get(ctx, userID)
}

// AddItem merges the product into an existing line or appends a new one.
// The product is read fresh from the catalog; nothing is frozen here.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.Newf(apperr.InvalidArgument, "cart", userID, "quantity must be positive, got %d", quantity)
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if i := c.FindProduct(product.ProductID); i >= 0 {
		c.Lines[i].Quantity += quantity
	} else {
		c.Lines = append(c.Lines, models.CartLine{
			LineID:    utils.GetUUID(),
			ProductID: product.ProductID,
			Quantity:  quantity,
			AddedAt:   time.Now(),
		})
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateItem sets the quantity of an existing line.
func (s *Service) UpdateItem(ctx context.Context, userID, lineID string, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, apperr.Newf(apperr.InvalidArgument, "cart", userID, "quantity must be positive, got %d", quantity)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.FindLine(lineID)
	if i < 0 {
		return nil, apperr.New(apperr.NotFound, "cart_line", lineID, "line not in cart")
	}
	c.Lines[i].Quantity = quantity

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveItem deletes a line. Removing an absent line is an error, not a
// silent no-op.
func (s *Service) RemoveItem(ctx context.Context, userID, lineID string) (*models.Cart, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := c.FindLine(lineID)
	if i < 0 {
		return nil, apperr.New(apperr.NotFound, "cart_line", lineID, "line not in cart")
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
