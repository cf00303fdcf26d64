package products

import (
	"context"
	"errors"

	"vendia/apperr"
	"vendia/db"
	"vendia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Finder is the slice of the catalog service the order flow depends on.
// Prices are read fresh at add-to-cart and again at order creation; only
// the order creation read is frozen.
type Finder interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

type mongoFinder struct{}

// NewFinder returns the Mongo-backed catalog reader.
func NewFinder() Finder {
	return mongoFinder{}
}

func (mongoFinder) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	var product models.Product
	err := db.ProductsCollection.FindOne(ctx, bson.M{"productId": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "product", productID, "product not found")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.DependencyTimeout, "product", productID, err)
		}
		return nil, err
	}
	return &product, nil
}
