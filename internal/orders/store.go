package orders

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

var ErrOrderMissing = errors.New("order not found")

// MongoStore persists order documents. Items are written once as a frozen
// snapshot; only the status fields are ever updated afterwards.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) Insert(ctx context.Context, order models.Order) (primitive.ObjectID, error) {
	order.ID = primitive.NilObjectID
	order.CreatedAt = time.Now()

	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("unexpected inserted id type")
	}
	return id, nil
}

func (s *MongoStore) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(ctx, bson.M{"userId": userID})
}

func (s *MongoStore) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.list(ctx, bson.M{})
}

func (s *MongoStore) list(ctx context.Context, filter bson.M) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.db.Collection("orders").Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]models.Order, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus mutates orderStatus and/or paymentStatus, the only
// admin-mutable order fields. Nil pointers leave a field untouched.
func (s *MongoStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, orderStatus, paymentStatus *string) (models.Order, error) {
	set := bson.M{}
	if orderStatus != nil {
		set["orderStatus"] = *orderStatus
	}
	if paymentStatus != nil {
		set["paymentStatus"] = *paymentStatus
	}
	if len(set) == 0 {
		return models.Order{}, errors.New("no status fields to update")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err := s.db.Collection("orders").FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Order{}, ErrOrderMissing
	}
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection("orders").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrOrderMissing
	}
	return nil
}
