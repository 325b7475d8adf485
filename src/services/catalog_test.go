package services

import (
	"context"
	"errors"
	"ridepool/src/apperr"
	"ridepool/src/ledger"
	"ridepool/src/repository"
	"ridepool/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishCommutingRide(t *testing.T) {
	e, store := newTestEngine(t)

	ride := publishCommuting(t, e, 3)

	assert.Equal(t, "makati-to-ortigas", ride.Slug)
	assert.Equal(t, types.StringList{dayOne, dayTwo}, ride.RecurrenceDates)
	assert.Equal(t, types.StringList{"08:00", "17:30"}, ride.CommuteTimes)
	assert.Equal(t, 6, ride.AvailableSeats)
	assert.True(t, ride.IsAvailable)

	stored, err := store.GetRide(context.Background(), ride.ID)
	require.NoError(t, err)
	assert.Equal(t, types.SeatMap{dayOne: 3, dayTwo: 3}, stored.AvailableSeatsPerDate)
	assert.NoError(t, stored.Ledger().Validate())
}

func TestPublishOneTimeRide(t *testing.T) {
	e, _ := newTestEngine(t)

	ride := publishOneTime(t, e, 2, "2025-12-05T06:15:00+08:00")

	require.NotNil(t, ride.DepartureAt)
	assert.Equal(t, types.SeatMap{"2025-12-04": 2}, ride.AvailableSeatsPerDate)
	assert.Equal(t, 2, ride.AvailableSeats)
}

func TestPublishRideValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	valid := func() PublishRideInput {
		return PublishRideInput{
			DriverID:        driverID,
			Origin:          "A",
			Destination:     "B",
			PricePerSeat:    5,
			SeatsPerDate:    2,
			Category:        types.RIDE_COMMUTING,
			RecurrenceDates: []string{dayOne},
			CommuteTimes:    []string{"07:00"},
		}
	}
	cases := []struct {
		name   string
		mutate func(in *PublishRideInput)
		field  string
	}{
		{"blank origin", func(in *PublishRideInput) { in.Origin = "  " }, "origin"},
		{"origin before destination", func(in *PublishRideInput) { in.Origin, in.Destination = "", "" }, "origin"},
		{"blank destination", func(in *PublishRideInput) { in.Destination = "" }, "destination"},
		{"free ride", func(in *PublishRideInput) { in.PricePerSeat = 0 }, "price_per_seat"},
		{"no seats", func(in *PublishRideInput) { in.SeatsPerDate = 0 }, "seats_per_date"},
		{"unknown category", func(in *PublishRideInput) { in.Category = "weekly" }, "category"},
		{"no recurrence dates", func(in *PublishRideInput) { in.RecurrenceDates = nil }, "recurrence_dates"},
		{"bad recurrence date", func(in *PublishRideInput) { in.RecurrenceDates = []string{"2025-13-01"} }, "recurrence_dates"},
		{"no commute times", func(in *PublishRideInput) { in.CommuteTimes = nil }, "commute_times"},
		{"bad commute time", func(in *PublishRideInput) { in.CommuteTimes = []string{"25:00"} }, "commute_times"},
		{"one-time without departure", func(in *PublishRideInput) { in.Category = types.RIDE_ONE_TIME }, "departure_at"},
		{"one-time in the past", func(in *PublishRideInput) {
			in.Category = types.RIDE_ONE_TIME
			in.DepartureAt = "2025-11-20 08:59"
		}, "departure_at"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.mutate(&in)

			_, err := e.PublishRide(context.Background(), in)

			var verr apperr.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestDepartureOnUsesEarliestCommuteTime(t *testing.T) {
	e, _ := newTestEngine(t)
	ride := publishCommuting(t, e, 3)

	at, err := e.DepartureOn(ride, dayTwo)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 2, 8, 0, 0, 0, time.UTC), at)
}

func TestDepartureOnUsesConfiguredZone(t *testing.T) {
	e, _ := newTestEngine(t)
	manila, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	e.Location = manila
	ride := publishCommuting(t, e, 3)

	at, err := e.DepartureOn(ride, dayOne)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), at.UTC())
}

func TestVisibleForListing(t *testing.T) {
	e, store := newTestEngine(t)
	ride := publishCommuting(t, e, 2)
	reserve(t, e, ride.ID, riderID, 2, dayTwo)
	ride, err := store.GetRide(context.Background(), ride.ID)
	require.NoError(t, err)

	assert.True(t, e.VisibleForListing(ride, testNow))
	// day one departed, day two is full
	assert.False(t, e.VisibleForListing(ride, time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)))

	oneTime := publishOneTime(t, e, 1, "2025-12-05 06:15")
	assert.True(t, e.VisibleForListing(oneTime, testNow))
	assert.False(t, e.VisibleForListing(oneTime, time.Date(2025, 12, 5, 6, 15, 0, 0, time.UTC)))
}

func TestAvailableDates(t *testing.T) {
	e, _ := newTestEngine(t)
	ride := publishCommuting(t, e, 2)

	assert.Equal(t, []ledger.DateKey{dayOne, dayTwo}, e.AvailableDates(ride, testNow))
	assert.Equal(t, []ledger.DateKey{dayOne, dayTwo}, e.AvailableDates(ride, time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, []ledger.DateKey{dayTwo}, e.AvailableDates(ride, time.Date(2025, 12, 1, 8, 1, 0, 0, time.UTC)))
	assert.Empty(t, e.AvailableDates(ride, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestListRides(t *testing.T) {
	e, _ := newTestEngine(t)
	commuting := publishCommuting(t, e, 2)
	oneTime := publishOneTime(t, e, 1, "2025-12-05 06:15")
	_, err := e.PublishRide(context.Background(), PublishRideInput{
		DriverID: 101, Origin: "Pasig", Destination: "BGC", PricePerSeat: 3, SeatsPerDate: 1,
		Category: types.RIDE_ONE_TIME, DepartureAt: "2025-11-20 09:00",
	})
	require.NoError(t, err)

	rides, err := e.ListRides(context.Background(), repository.RideFilter{}, testNow.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, commuting.ID, rides[0].ID)
	assert.Equal(t, oneTime.ID, rides[1].ID)

	rides, err = e.ListRides(context.Background(), repository.RideFilter{Origin: "Makati"}, testNow)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, commuting.ID, rides[0].ID)

	rides, err = e.ListRides(context.Background(), repository.RideFilter{DriverID: 101}, testNow.Add(-time.Minute))
	require.NoError(t, err)
	assert.Len(t, rides, 1)
}

func TestRideManifest(t *testing.T) {
	e, _ := newTestEngine(t)
	ride := publishCommuting(t, e, 3)
	kept := reserve(t, e, ride.ID, 201, 1, dayOne)[0]
	reserve(t, e, ride.ID, 202, 1, dayTwo)
	canceled := reserve(t, e, ride.ID, 203, 1, dayOne)[0]
	_, err := e.Cancel(context.Background(), canceled.ID, 203, testNow)
	require.NoError(t, err)

	all, err := e.RideManifest(context.Background(), ride.ID, driverID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onDayOne, err := e.RideManifest(context.Background(), ride.ID, driverID, dayOne)
	require.NoError(t, err)
	require.Len(t, onDayOne, 1)
	assert.Equal(t, kept.ID, onDayOne[0].ID)

	_, err = e.RideManifest(context.Background(), ride.ID, riderID, "")
	assert.True(t, apperr.IsForbidden(err))

	_, err = e.GetRide(context.Background(), 999)
	assert.True(t, apperr.IsNotFound(err))
}
