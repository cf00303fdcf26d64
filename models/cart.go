package models

import "time"

// Cart is a customer's single mutable pre-order aggregate. Lines keep
// insertion order; one line per product.
type Cart struct {
	UserID    string     `json:"userId" bson:"userId"`
	Lines     []CartLine `json:"lines" bson:"lines"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// CartLine references a catalog product by id only. Price is not stored
// here; it is read fresh from the catalog and frozen at order creation.
type CartLine struct {
	LineID    string    `json:"lineId" bson:"lineId"`
	ProductID string    `json:"productId" bson:"productId"`
	Quantity  int       `json:"quantity" bson:"quantity"`
	AddedAt   time.Time `json:"addedAt" bson:"addedAt"`
}

// FindLine returns the index of the line with the given id, or -1.
func (c *Cart) FindLine(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the line holding productID, or -1.
func (c *Cart) FindProduct(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}
