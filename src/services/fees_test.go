package services

import (
	"context"
	"ridepool/src/apperr"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformFeeDefault(t *testing.T) {
	p := NewSettingsFeeProvider(newTestStore(t), nil)

	rate, err := p.CurrentPlatformFeeRate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, DEFAULT_PLATFORM_FEE, rate)
}

func TestSetPlatformFeeRate(t *testing.T) {
	ctx := context.Background()
	p := NewSettingsFeeProvider(newTestStore(t), nil)

	require.NoError(t, p.SetPlatformFeeRate(ctx, 0.1))
	rate, err := p.CurrentPlatformFeeRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.1, rate)

	err = p.SetPlatformFeeRate(ctx, 1.5)
	assert.True(t, apperr.IsValidation(err))
	rate, err = p.CurrentPlatformFeeRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.1, rate)
}

func TestPlatformFeeIgnoresInvalidSetting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveSetting(ctx, &models.Setting{
		SettingKey:   models.SETTING_PLATFORM_FEE,
		Group:        models.SETTING_GROUP_BILLING,
		SettingValue: types.JSONBAny{Inner: "lots"},
	}))

	rate, err := NewSettingsFeeProvider(store, nil).CurrentPlatformFeeRate(ctx)

	require.NoError(t, err)
	assert.Equal(t, DEFAULT_PLATFORM_FEE, rate)
}

func TestPlatformFeeCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveSetting(ctx, &models.Setting{
		SettingKey:   models.SETTING_PLATFORM_FEE,
		Group:        models.SETTING_GROUP_BILLING,
		SettingValue: types.JSONBAny{Inner: 0.02},
	}))
	client, mock := redismock.NewClientMock()
	p := NewSettingsFeeProvider(store, client)

	mock.ExpectGet(PLATFORM_FEE_CACHE).RedisNil()
	mock.ExpectSet(PLATFORM_FEE_CACHE, "0.02", 5*time.Minute).SetVal("OK")
	rate, err := p.CurrentPlatformFeeRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.02, rate)

	mock.ExpectGet(PLATFORM_FEE_CACHE).SetVal("0.03")
	rate, err = p.CurrentPlatformFeeRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.03, rate)

	mock.ExpectDel(PLATFORM_FEE_CACHE).SetVal(1)
	require.NoError(t, p.SetPlatformFeeRate(ctx, 0.04))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSnapshotsPlatformFee(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	ride := publishCommuting(t, e, 3)
	require.NoError(t, e.Fees.(*SettingsFeeProvider).SetPlatformFeeRate(ctx, 0.2))

	booking := reserve(t, e, ride.ID, riderID, 1, dayOne)[0]
	require.NoError(t, e.Fees.(*SettingsFeeProvider).SetPlatformFeeRate(ctx, 0.3))

	payments, err := store.ListPayments(ctx, repository.PaymentFilter{BookingID: booking.ID})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 0.2, payments[0].PlatformFee)
}
