package models

import "time"

// Invoice is an append-only snapshot of a paid order. Once written its
// line/total content never changes; regeneration returns the stored copy.
type Invoice struct {
	InvoiceID     string        `json:"invoiceId" bson:"invoiceId"`
	OrderID       string        `json:"orderId" bson:"orderId"`
	UserID        string        `json:"userId" bson:"userId"`
	CustomerName  string        `json:"customerName" bson:"customerName"`
	CustomerEmail string        `json:"customerEmail" bson:"customerEmail"`
	Lines         []InvoiceLine `json:"lines" bson:"lines"`
	Total         int64         `json:"total" bson:"total"`
	Currency      string        `json:"currency" bson:"currency"`
	IssuedAt      time.Time     `json:"issuedAt" bson:"issuedAt"`
}

type InvoiceLine struct {
	ProductID string `json:"productId" bson:"productId"`
	Name      string `json:"name" bson:"name"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	UnitPrice int64  `json:"unitPrice" bson:"unitPrice"`
	Subtotal  int64  `json:"subtotal" bson:"subtotal"`
}
