package services

import (
	"context"
	"ridepool/src/apperr"
	"ridepool/src/models"
	"ridepool/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	wed := time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 11, 23, 23, 59, 0, 0, time.UTC)
	mon := time.Date(2025, 11, 17, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, mon, weekStart(wed, time.UTC))
	assert.Equal(t, mon, weekStart(sun, time.UTC))
	assert.Equal(t, mon, weekStart(mon, time.UTC))

	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	// Sunday 20:00 UTC is already Monday in Manila
	assert.Equal(t, "2025-11-24", weekStart(sun.Add(-4*time.Hour), manila).Format("2006-01-02"))
}

func TestPaymentEarnings(t *testing.T) {
	gross, net := PaymentEarnings(models.Payment{Status: types.PAYMENT_SUCCESS, Amount: 100, PlatformFee: 0.1})
	assert.Equal(t, 100.0, gross)
	assert.InDelta(t, 90.0, net, 1e-9)

	gross, net = PaymentEarnings(models.Payment{Status: types.PAYMENT_PARTIALLY_REFUNDED, Amount: 20, CancellationFee: 15, PlatformFee: 0.1})
	assert.Equal(t, 15.0, gross)
	assert.InDelta(t, 13.5, net, 1e-9)

	gross, net = PaymentEarnings(models.Payment{Status: types.PAYMENT_REFUNDED, Amount: 20, RefundAmount: 20, PlatformFee: 0.1})
	assert.Zero(t, gross)
	assert.Zero(t, net)
}

func TestDriverEarnings(t *testing.T) {
	e, store := newTestEngine(t)
	ctx := context.Background()
	payments := []models.Payment{
		{Reference: "a", DriverID: driverID, Status: types.PAYMENT_SUCCESS, Amount: 100, PlatformFee: 0.1, PaidAt: time.Date(2025, 11, 18, 10, 0, 0, 0, time.UTC)},
		{Reference: "b", DriverID: driverID, Status: types.PAYMENT_REFUNDED, Amount: 50, RefundAmount: 50, PlatformFee: 0.1, PaidAt: time.Date(2025, 11, 18, 11, 0, 0, 0, time.UTC)},
		{Reference: "c", DriverID: driverID, Status: types.PAYMENT_PARTIALLY_REFUNDED, Amount: 20, RefundAmount: 5, CancellationFee: 15, PlatformFee: 0.1, PaidAt: time.Date(2025, 11, 11, 8, 0, 0, 0, time.UTC)},
		{Reference: "d", DriverID: driverID, Status: types.PAYMENT_SUCCESS, Amount: 70, PlatformFee: 0.1, PaidAt: time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)},
		{Reference: "e", DriverID: 999, Status: types.PAYMENT_SUCCESS, Amount: 500, PlatformFee: 0.1, PaidAt: time.Date(2025, 11, 18, 8, 0, 0, 0, time.UTC)},
	}
	for i := range payments {
		require.NoError(t, store.CreatePayment(ctx, &payments[i]))
	}

	report, err := e.DriverEarnings(ctx, driverID, time.Date(2025, 11, 19, 12, 0, 0, 0, time.UTC), 2)

	require.NoError(t, err)
	require.Len(t, report.Weeks, 2)
	assert.Equal(t, "2025-11-10", report.Weeks[0].WeekStart)
	assert.Equal(t, 1, report.Weeks[0].Payments)
	assert.Equal(t, 15.0, report.Weeks[0].Gross)
	assert.Equal(t, 13.5, report.Weeks[0].Net)
	assert.Equal(t, "2025-11-17", report.Weeks[1].WeekStart)
	assert.Equal(t, 2, report.Weeks[1].Payments)
	assert.Equal(t, 100.0, report.Weeks[1].Gross)
	assert.Equal(t, 10.0, report.Weeks[1].Fees)
	assert.Equal(t, 90.0, report.Weeks[1].Net)
	assert.Equal(t, 103.5, report.TotalNet)
}

func TestDriverEarningsFollowsBookings(t *testing.T) {
	e, _ := newTestEngine(t)
	ride := publishCommuting(t, e, 3)
	reserve(t, e, ride.ID, riderID, 2, dayOne)
	late := reserve(t, e, ride.ID, 300, 1, dayTwo)[0]
	_, err := e.Cancel(context.Background(), late.ID, 300, time.Date(2025, 12, 2, 7, 55, 0, 0, time.UTC))
	require.NoError(t, err)

	report, err := e.DriverEarnings(context.Background(), driverID, testNow, 1)

	require.NoError(t, err)
	// 20 * 0.995 + 7.5 * 0.995
	assert.Equal(t, 27.36, report.TotalNet)
}

func TestDriverEarningsWeeksRange(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.DriverEarnings(context.Background(), driverID, testNow, 0)
	require.NoError(t, err)
	assert.Len(t, report.Weeks, DEFAULT_EARNINGS_WEEKS)

	_, err = e.DriverEarnings(context.Background(), driverID, testNow, 53)
	assert.True(t, apperr.IsValidation(err))
}
