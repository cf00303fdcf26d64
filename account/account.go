package account

import (
	"context"
	"errors"

	"vendia/apperr"
	"vendia/db"
	"vendia/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Finder looks up customer identity for invoice denormalization. Account
// registration and credentials live in a separate service.
type Finder interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

type mongoFinder struct{}

func NewFinder() Finder {
	return mongoFinder{}
}

func (mongoFinder) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := db.UserCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.New(apperr.NotFound, "user", userID, "user not found")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Wrap(apperr.DependencyTimeout, "user", userID, err)
		}
		return nil, err
	}
	return &user, nil
}
