package invoices

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"vendia/apperr"
	"vendia/locks"
	"vendia/models"
	"vendia/orders"
	"vendia/pay"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memInvoiceStore implements Store in memory.
type memInvoiceStore struct {
	mu       sync.Mutex
	byOrder  map[string]*models.Invoice
	failNext error
	missNext bool
}

func (m *memInvoiceStore) GetByOrder(_ context.Context, orderID string) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missNext {
		m.missNext = false
		return nil, errNoInvoice
	}
	inv, ok := m.byOrder[orderID]
	if !ok {
		return nil, errNoInvoice
	}
	copied := *inv
	copied.Lines = append([]models.InvoiceLine{}, inv.Lines...)
	return &copied, nil
}

func (m *memInvoiceStore) Insert(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	copied := *inv
	copied.Lines = append([]models.InvoiceLine{}, inv.Lines...)
	m.byOrder[inv.OrderID] = &copied
	return nil
}

// memOrderStore implements orders.Store in memory.
type memOrderStore struct {
	mu     sync.Mutex
	orders map[string]*models.Order
}

func (m *memOrderStore) Insert(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *o
	m.orders[o.OrderID] = &copied
	return nil
}

func (m *memOrderStore) Get(_ context.Context, orderID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "order", orderID, "order not found")
	}
	copied := *o
	return &copied, nil
}

func (m *memOrderStore) ListByUser(_ context.Context, userID string) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			list = append(list, *o)
		}
	}
	return list, nil
}

func (m *memOrderStore) UpdateStatus(_ context.Context, orderID string, from, to models.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.Version++
	o.UpdatedAt = time.Now()
	return true, nil
}

func (m *memOrderStore) SetPaymentRef(_ context.Context, orderID, intentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return apperr.New(apperr.NotFound, "order", orderID, "order not found")
	}
	o.PaymentRef = intentID
	return nil
}

// memCartStore implements cart.Store in memory.
type memCartStore struct {
	mu    sync.Mutex
	carts map[string]*models.Cart
}

func (m *memCartStore) Get(_ context.Context, userID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return &models.Cart{UserID: userID, Lines: []models.CartLine{}}, nil
	}
	copied := *c
	copied.Lines = append([]models.CartLine{}, c.Lines...)
	return &copied, nil
}

func (m *memCartStore) Save(_ context.Context, c *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *c
	copied.Lines = append([]models.CartLine{}, c.Lines...)
	m.carts[c.UserID] = &copied
	return nil
}

func (m *memCartStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		c.Lines = []models.CartLine{}
	}
	return nil
}

type fakeCatalog struct {
	products map[string]models.Product
}

func (f *fakeCatalog) GetProduct(_ context.Context, productID string) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "product", productID, "product not found")
	}
	return &p, nil
}

type fakeAccounts struct{}

func (fakeAccounts) GetUser(_ context.Context, userID string) (*models.User, error) {
	return &models.User{UserID: userID, Name: "Ada Lovelace", Email: "ada@example.com"}, nil
}

const testSecret = "test-webhook-secret"

type fakeGateway struct{}

func (fakeGateway) CreateIntent(_ context.Context, amount int64, currency, _ string) (*models.IntentRef, error) {
	return &models.IntentRef{IntentID: "pi_test_1", Amount: amount, Currency: currency}, nil
}

func (fakeGateway) VerifySignature(payload []byte, signature string) error {
	if signature != pay.Sign(testSecret, payload) {
		return apperr.New(apperr.Unauthorized, "webhook", "", "webhook signature verification failed")
	}
	return nil
}

type invFixture struct {
	svc       *Service
	orderSvc  *orders.Service
	rc        *pay.Reconciler
	invStore  *memInvoiceStore
	cartStore *memCartStore
}

func newInvFixture() *invFixture {
	orderStore := &memOrderStore{orders: make(map[string]*models.Order)}
	cartStore := &memCartStore{carts: make(map[string]*models.Cart)}
	catalog := &fakeCatalog{products: map[string]models.Product{
		"prod-a": {ProductID: "prod-a", Name: "Widget", Price: 1000, Available: true},
		"prod-b": {ProductID: "prod-b", Name: "Gadget", Price: 550, Available: true},
	}}
	orderSvc := orders.NewService(orderStore, cartStore, catalog, locks.NewKeyedMutex(), "EUR")
	invStore := &memInvoiceStore{byOrder: make(map[string]*models.Invoice)}
	return &invFixture{
		svc:       NewService(invStore, orderSvc, fakeAccounts{}),
		orderSvc:  orderSvc,
		rc:        pay.NewReconciler(fakeGateway{}, orderSvc),
		invStore:  invStore,
		cartStore: cartStore,
	}
}

func (f *invFixture) paidOrder(t *testing.T, userID string) *models.Order {
	t.Helper()
	require.NoError(t, f.cartStore.Save(context.Background(), &models.Cart{
		UserID: userID,
		Lines: []models.CartLine{
			{LineID: "l1", ProductID: "prod-a", Quantity: 2},
			{LineID: "l2", ProductID: "prod-b", Quantity: 1},
		},
	}))
	order, err := f.orderSvc.PlaceOrder(context.Background(), userID)
	require.NoError(t, err)
	paid, err := f.orderSvc.Transition(context.Background(), order.OrderID, models.OrderPaid, orders.SystemActor)
	require.NoError(t, err)
	return paid
}

func TestGenerateBeforePayment(t *testing.T) {
	f := newInvFixture()
	require.NoError(t, f.cartStore.Save(context.Background(), &models.Cart{
		UserID: "u1",
		Lines:  []models.CartLine{{LineID: "l1", ProductID: "prod-a", Quantity: 1}},
	}))
	order, err := f.orderSvc.PlaceOrder(context.Background(), "u1")
	require.NoError(t, err)

	_, err = f.svc.Generate(context.Background(), order.OrderID)

	require.Error(t, err)
	assert.Equal(t, apperr.InvalidState, apperr.CodeOf(err))
}

func TestGenerateUnknownOrder(t *testing.T) {
	f := newInvFixture()

	_, err := f.svc.Generate(context.Background(), "no-such-order")

	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.CodeOf(err))
}

func TestGenerateSnapshotsPaidOrder(t *testing.T) {
	f := newInvFixture()
	order := f.paidOrder(t, "u1")

	inv, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)

	assert.Equal(t, "INV-"+order.OrderID, inv.InvoiceID)
	assert.Equal(t, order.OrderID, inv.OrderID)
	assert.Equal(t, "Ada Lovelace", inv.CustomerName)
	assert.Equal(t, int64(2550), inv.Total)
	assert.Equal(t, "EUR", inv.Currency)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, int64(2000), inv.Lines[0].Subtotal)
	assert.Equal(t, int64(550), inv.Lines[1].Subtotal)
}

func TestGenerateIsIdempotent(t *testing.T) {
	f := newInvFixture()
	order := f.paidOrder(t, "u1")

	first, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)

	second, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)

	assert.Equal(t, first.InvoiceID, second.InvoiceID)
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Lines, second.Lines)
	assert.Equal(t, first.IssuedAt.Unix(), second.IssuedAt.Unix())
}

func TestGenerateSurvivesInsertRace(t *testing.T) {
	f := newInvFixture()
	order := f.paidOrder(t, "u1")

	first, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)

	// simulate losing the unique-index race: the initial lookup misses,
	// the insert collides, and the concurrent writer's copy is returned
	f.invStore.missNext = true
	f.invStore.failNext = assert.AnError

	inv, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, first.InvoiceID, inv.InvoiceID)
	assert.Equal(t, first.Total, inv.Total)
}

// Full checkout flow: cart of 2x10.00 + 1x5.50, paid via webhook, invoiced
// at 25.50 with two lines. Regeneration must return the same snapshot.
func TestCheckoutToInvoiceFlow(t *testing.T) {
	f := newInvFixture()
	ctx := context.Background()

	require.NoError(t, f.cartStore.Save(ctx, &models.Cart{
		UserID: "u1",
		Lines: []models.CartLine{
			{LineID: "l1", ProductID: "prod-a", Quantity: 2},
			{LineID: "l2", ProductID: "prod-b", Quantity: 1},
		},
	}))

	order, err := f.orderSvc.PlaceOrder(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2550), order.Total)

	payload, err := json.Marshal(map[string]interface{}{
		"id":       "evt_1",
		"type":     models.EventPaymentSucceeded,
		"metadata": map[string]string{"orderId": order.OrderID},
	})
	require.NoError(t, err)

	outcome, err := f.rc.ApplyEvent(ctx, payload, pay.Sign(testSecret, payload))
	require.NoError(t, err)
	assert.Equal(t, pay.OutcomeApplied, outcome)

	inv, err := f.svc.Generate(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2550), inv.Total)
	require.Len(t, inv.Lines, 2)

	again, err := f.svc.Generate(ctx, order.OrderID)
	require.NoError(t, err)
	assert.Equal(t, inv.Lines, again.Lines)
	assert.Equal(t, inv.Total, again.Total)
}

func TestRenderPDFProducesDocument(t *testing.T) {
	f := newInvFixture()
	order := f.paidOrder(t, "u1")

	inv, err := f.svc.Generate(context.Background(), order.OrderID)
	require.NoError(t, err)

	data, err := RenderPDF(inv)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}
