package coupon_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"backend/internal/coupon"
	"backend/internal/coupon/mocks"
	"backend/internal/models"
)

func activeCoupon() *models.Coupon {
	return &models.Coupon{
		Code:          "SAVE200",
		DiscountType:  models.DiscountTypeFlat,
		DiscountValue: 200,
		MinCartValue:  500,
		IsActive:      true,
	}
}

func TestValidateSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "SAVE200").Return(activeCoupon(), nil)

	v := coupon.NewValidator(store)
	applied, err := v.Validate(context.Background(), "SAVE200", 1000)

	require.NoError(t, err)
	assert.Equal(t, "SAVE200", applied.Code)
	assert.Equal(t, models.DiscountTypeFlat, applied.DiscountType)
	assert.Equal(t, 200.0, applied.DiscountValue)
}

func TestValidateTrimsInputCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "SAVE200").Return(activeCoupon(), nil)

	v := coupon.NewValidator(store)
	_, err := v.Validate(context.Background(), "  SAVE200  ", 1000)

	require.NoError(t, err)
}

func TestValidateUnknownCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "NOPE").Return(nil, nil)

	v := coupon.NewValidator(store)
	_, err := v.Validate(context.Background(), "NOPE", 1000)

	var notFound coupon.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "NOPE", notFound.Code)
}

func TestValidateInactiveCoupon(t *testing.T) {
	c := activeCoupon()
	c.IsActive = false

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "SAVE200").Return(c, nil)

	v := coupon.NewValidator(store)
	_, err := v.Validate(context.Background(), "SAVE200", 1000)

	var inactive coupon.InactiveError
	require.ErrorAs(t, err, &inactive)
}

func TestValidateBelowMinimumCarriesThreshold(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "SAVE200").Return(activeCoupon(), nil)

	v := coupon.NewValidator(store)
	_, err := v.Validate(context.Background(), "SAVE200", 300)

	var below coupon.BelowMinimumError
	require.ErrorAs(t, err, &below)
	assert.Equal(t, 500.0, below.MinCartValue)
	assert.Equal(t, 300.0, below.Subtotal)
}

func TestValidatePropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("connection reset")

	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().FindByCode(gomock.Any(), "SAVE200").Return(nil, storeErr)

	v := coupon.NewValidator(store)
	_, err := v.Validate(context.Background(), "SAVE200", 1000)

	require.ErrorIs(t, err, storeErr)
}
