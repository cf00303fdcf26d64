package db

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection        *mongo.Collection
	ProductsCollection    *mongo.Collection
	CartCollection        *mongo.Collection
	OrderCollection       *mongo.Collection
	InvoiceCollection     *mongo.Collection
	IdempotencyCollection *mongo.Collection
	Client                *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	clientOptions := options.Client().ApplyURI(uri)
	var err error
	Client, err = mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("storedb")
	UserCollection = database.Collection("users")
	ProductsCollection = database.Collection("products")
	CartCollection = database.Collection("carts")
	OrderCollection = database.Collection("orders")
	InvoiceCollection = database.Collection("invoices")
	IdempotencyCollection = database.Collection("idempotency")
}

// EnsureIndexes creates the unique/TTL indexes the order and payment flows
// rely on. Called once at startup.
func EnsureIndexes(ctx context.Context) error {
	orderIdx := []mongo.IndexModel{
		{Keys: bson.M{"orderId": 1}, Options: options.Index().SetUnique(true).SetName("unique_orderid")},
		{Keys: bson.M{"userId": 1}, Options: options.Index().SetName("orders_by_user")},
	}
	if _, err := OrderCollection.Indexes().CreateMany(ctx, orderIdx); err != nil {
		return err
	}

	invIdx := mongo.IndexModel{
		Keys:    bson.M{"orderId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_invoice_order"),
	}
	if _, err := InvoiceCollection.Indexes().CreateOne(ctx, invIdx); err != nil {
		return err
	}

	cartIdx := mongo.IndexModel{
		Keys:    bson.M{"userId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_cart_user"),
	}
	_, err := CartCollection.Indexes().CreateOne(ctx, cartIdx)
	return err
}
