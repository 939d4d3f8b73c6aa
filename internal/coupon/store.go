package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"backend/internal/models"
)

var (
	ErrCouponExists  = errors.New("coupon code already exists")
	ErrCouponMissing = errors.New("coupon not found")
	ErrInvalidCoupon = errors.New("invalid coupon fields")
)

// MongoStore backs the validator and the admin coupon CRUD with the coupons
// collection. The code field carries a unique index.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	err := s.db.Collection("coupons").FindOne(ctx, bson.M{"code": code}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.db.Collection("coupons").Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	coupons := make([]models.Coupon, 0)
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

// Create persists a new coupon. The code is upper-cased here, the one place
// it is ever normalized. Percent values must stay within [0, 100].
func (s *MongoStore) Create(ctx context.Context, c models.Coupon) (models.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return models.Coupon{}, fmt.Errorf("%w: code required", ErrInvalidCoupon)
	}
	if c.DiscountType != models.DiscountTypeFlat && c.DiscountType != models.DiscountTypePercent {
		return models.Coupon{}, fmt.Errorf("%w: discountType must be flat or percent", ErrInvalidCoupon)
	}
	if c.DiscountValue < 0 {
		return models.Coupon{}, fmt.Errorf("%w: discountValue must be zero or greater", ErrInvalidCoupon)
	}
	if c.DiscountType == models.DiscountTypePercent && c.DiscountValue > 100 {
		return models.Coupon{}, fmt.Errorf("%w: percent discount cannot exceed 100", ErrInvalidCoupon)
	}
	if c.MinCartValue < 0 {
		return models.Coupon{}, fmt.Errorf("%w: minCartValue must be zero or greater", ErrInvalidCoupon)
	}

	c.ID = primitive.NilObjectID
	c.CreatedAt = time.Now()

	res, err := s.db.Collection("coupons").InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Coupon{}, ErrCouponExists
		}
		return models.Coupon{}, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		c.ID = id
	}
	return c, nil
}

func (s *MongoStore) SetActive(ctx context.Context, id primitive.ObjectID, active bool) (models.Coupon, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Coupon
	err := s.db.Collection("coupons").FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isActive": active}},
		opts,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return models.Coupon{}, ErrCouponMissing
	}
	if err != nil {
		return models.Coupon{}, err
	}
	return updated, nil
}

func (s *MongoStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection("coupons").DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCouponMissing
	}
	return nil
}
