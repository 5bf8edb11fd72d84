package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (m *MongoRepository) orders() *mongo.Collection {
	return m.database.Collection(ordersCollection)
}

func (m *MongoRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	_, err := m.orders().InsertOne(ctx, order)
	return err
}

func (m *MongoRepository) GetOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := m.orders().FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (m *MongoRepository) GetOrderByRazorpayID(ctx context.Context, razorpayOrderID string) (*models.Order, error) {
	var order models.Order
	if err := m.orders().FindOne(ctx, bson.M{"razorpayOrderId": razorpayOrderID}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// ListOrders returns the orders matching filter, newest first.
func (m *MongoRepository) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	query := bson.M{}
	if filter.UserID != nil {
		query["userId"] = *filter.UserID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.PaymentMethod != "" {
		query["paymentMethod"] = filter.PaymentMethod
	}
	if !filter.CreatedBefore.IsZero() {
		query["createdAt"] = bson.M{"$lt": filter.CreatedBefore}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := m.orders().Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (m *MongoRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now()
	res, err := m.orders().ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.orders().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
