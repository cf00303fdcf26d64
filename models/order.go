package models

import "time"

type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderReturned  OrderStatus = "returned"
)

// Order is the durable record of a sale. Everything except Status and
// PaymentRef is immutable once created. Lines live inside the order
// document so creation is a single atomic insert.
type Order struct {
	OrderID    string      `json:"orderId" bson:"orderId"`
	UserID     string      `json:"userId" bson:"userId"`
	Status     OrderStatus `json:"status" bson:"status"`
	Lines      []OrderLine `json:"lines" bson:"lines"`
	Total      int64       `json:"total" bson:"total"` // minor units
	Currency   string      `json:"currency" bson:"currency"`
	PaymentRef string      `json:"paymentRef,omitempty" bson:"paymentRef,omitempty"`
	Version    int64       `json:"version" bson:"version"`
	CreatedAt  time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// OrderLine freezes the unit price at the time the order was placed. It is
// never recomputed from the catalog afterwards.
type OrderLine struct {
	LineID    string `json:"lineId" bson:"lineId"`
	ProductID string `json:"productId" bson:"productId"`
	Name      string `json:"name" bson:"name"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice int64  `json:"unitPrice" bson:"unitPrice"` // minor units
}

// Subtotal is quantity times frozen unit price.
func (l OrderLine) Subtotal() int64 {
	return int64(l.Quantity) * l.UnitPrice
}
