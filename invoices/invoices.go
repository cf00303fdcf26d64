package invoices

import (
	"context"
	"errors"
	"time"

	"vendia/account"
	"vendia/apperr"
	"vendia/db"
	"vendia/models"
	"vendia/orders"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists invoice snapshots. One invoice per order, enforced by a
// unique index on orderId.
type Store interface {
	GetByOrder(ctx context.Context, orderID string) (*models.Invoice, error)
	Insert(ctx context.Context, inv *models.Invoice) error
}

var errNoInvoice = errors.New("no invoice for order")

type mongoStore struct{}

func NewMongoStore() Store {
	return mongoStore{}
}

func (mongoStore) GetByOrder(ctx context.Context, orderID string) (*models.Invoice, error) {
	var inv models.Invoice
	err := db.InvoiceCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errNoInvoice
		}
		return nil, err
	}
	return &inv, nil
}

func (mongoStore) Insert(ctx context.Context, inv *models.Invoice) error {
	_, err := db.InvoiceCollection.InsertOne(ctx, inv)
	return err
}

// Service generates invoice snapshots from paid orders. An invoice is
// written once; later calls return the stored document so line and total
// content never changes after issue.
type Service struct {
	store    Store
	orders   *orders.Service
	accounts account.Finder
}

func NewService(store Store, orderSvc *orders.Service, accounts account.Finder) *Service {
	return &Service{store: store, orders: orderSvc, accounts: accounts}
}

// invoiceable lists the statuses at or past payment.
var invoiceable = map[models.OrderStatus]bool{
	models.OrderPaid:      true,
	models.OrderShipped:   true,
	models.OrderDelivered: true,
	models.OrderReturned:  true,
}

// Generate returns the invoice for an order, creating and persisting the
// snapshot on first call.
func (s *Service) Generate(ctx context.Context, orderID string) (*models.Invoice, error) {
	existing, err := s.store.GetByOrder(ctx, orderID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, errNoInvoice) {
		return nil, err
	}

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !invoiceable[order.Status] {
		return nil, apperr.Newf(apperr.InvalidState, "order", orderID,
			"cannot invoice order in status %s, payment not confirmed", order.Status)
	}

	user, err := s.accounts.GetUser(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	lines := make([]models.InvoiceLine, 0, len(order.Lines))
	for _, ol := range order.Lines {
		lines = append(lines, models.InvoiceLine{
			ProductID: ol.ProductID,
			Name:      ol.Name,
			Quantity:  ol.Quantity,
			UnitPrice: ol.UnitPrice,
			Subtotal:  ol.Subtotal(),
		})
	}

	inv := &models.Invoice{
		// Derived from the order id so regeneration races agree on content
		InvoiceID:     "INV-" + order.OrderID,
		OrderID:       order.OrderID,
		UserID:        order.UserID,
		CustomerName:  user.Name,
		CustomerEmail: user.Email,
		Lines:         lines,
		Total:         order.Total,
		Currency:      order.Currency,
		IssuedAt:      time.Now(),
	}

	if err := s.store.Insert(ctx, inv); err != nil {
		// A concurrent Generate won the unique-index race; theirs is
		// identical in content, so return it.
		if stored, gerr := s.store.GetByOrder(ctx, orderID); gerr == nil {
			return stored, nil
		}
		return nil, err
	}
	return inv, nil
}
