package cart

import (
	"context"
	"errors"
	"time"

	"vendia/db"
	"vendia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists one cart document per customer. Callers hold the
// per-customer lock, so plain read-modify-write is safe here.
type Store interface {
	Get(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, c *models.Cart) error
	Clear(ctx context.Context, userID string) error
}

type mongoStore struct{}

func NewMongoStore() Store {
	return mongoStore{}
}

func (mongoStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	err := db.CartCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Carts are created lazily on first add
			return &models.Cart{UserID: userID, Lines: []models.CartLine{}}, nil
		}
		return nil, err
	}
	if c.Lines == nil {
		c.Lines = []models.CartLine{}
	}
	return &c, nil
}

func (mongoStore) Save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := db.CartCollection.ReplaceOne(ctx, bson.M{"userId": c.UserID}, c, opts)
	return err
}

func (mongoStore) Clear(ctx context.Context, userID string) error {
	_, err := db.CartCollection.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{
		"$set": bson.M{"lines": []models.CartLine{}, "updatedAt": time.Now()},
	})
	return err
}
