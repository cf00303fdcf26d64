package orders

import (
	"context"
	"errors"
	"time"

	"vendia/apperr"
	"vendia/db"
	"vendia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the durable order record. Lines live inside the order document,
// so Insert is atomic: either the whole aggregate exists or none of it.
// UpdateStatus is a compare-and-swap on the current status; concurrent
// transition attempts serialize through it.
type Store interface {
	Insert(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, orderID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (bool, error)
	SetPaymentRef(ctx context.Context, orderID, intentID string) error
}

type mongoStore struct{}

func NewMongoStore() Store {
	return mongoStore{}
}

func (mongoStore) Insert(ctx context.Context, o *models.Order) error {
	_, err := db.OrderCollection.InsertOne(ctx, o)
	return err
}

func (mongoStore) Get(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "order", orderID, "order not found")
		}
		return nil, err
	}
	return &o, nil
}

func (mongoStore) ListByUser(ctx context.Context, userID string) ([]models.Order, error) {
	findOptions := options.Find().SetSort(bson.M{"createdAt": -1})
	cur, err := db.OrderCollection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var list []models.Order
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

func (mongoStore) UpdateStatus(ctx context.Context, orderID string, from, to models.OrderStatus) (bool, error) {
	res, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": orderID, "status": from},
		bson.M{
			"$set": bson.M{"status": to, "updatedAt": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (mongoStore) SetPaymentRef(ctx context.Context, orderID, intentID string) error {
	_, err := db.OrderCollection.UpdateOne(ctx,
		bson.M{"orderId": orderID},
		bson.M{"$set": bson.M{"paymentRef": intentID, "updatedAt": time.Now()}},
	)
	return err
}
