package models

// Product is the slice of the catalog this subsystem reads: identity and
// current price. Catalog CRUD lives elsewhere.
type Product struct {
	ProductID string `json:"productId" bson:"productId"`
	Name      string `json:"name" bson:"name"`
	Price     int64  `json:"price" bson:"price"` // minor units
	Available bool   `json:"available" bson:"available"`
}
