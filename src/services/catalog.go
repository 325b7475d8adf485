package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/apperr"
	"ridepool/src/config"
	"ridepool/src/ledger"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"ridepool/src/utils"
	"strings"
	"time"
)

type PublishRideInput struct {
	DriverID        uint
	DriverName      string
	Origin          string
	Destination     string
	PricePerSeat    float64
	SeatsPerDate    int
	Category        types.RideCategory
	DepartureAt     string
	RecurrenceDates []string
	CommuteTimes    []string
}

// ParseDeparture accepts "2006-01-02 15:04" in loc or an RFC 3339 instant.
func ParseDeparture(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation(config.DATETIME_FORMAT, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func ParseCommuteTime(s string) (time.Time, error) {
	return time.Parse(config.TIME_FORMAT, s)
}

func (e *Engine) PublishRide(ctx context.Context, in PublishRideInput) (*models.Ride, error) {
	ride, dates, err := e.buildRide(in)
	if err != nil {
		return nil, err
	}
	l := ledger.New()
	if err := l.Seed(dates, in.SeatsPerDate); err != nil {
		return nil, apperr.ValidationError{Field: "seats_per_date", Err: err, Msg: err.Error()}
	}
	ride.ApplyLedger(l)

	if err := e.Store.CreateRide(ctx, ride); err != nil {
		return nil, fmt.Errorf("create ride: %w", err)
	}
	log.Printf("Published %s ride %d (%s) with %d date(s)\n", ride.Category, ride.ID, ride.Slug, len(dates))
	return ride, nil
}

func (e *Engine) buildRide(in PublishRideInput) (*models.Ride, []ledger.DateKey, error) {
	origin := strings.TrimSpace(in.Origin)
	destination := strings.TrimSpace(in.Destination)
	if origin == "" {
		return nil, nil, apperr.ValidationError{Field: "origin", Msg: "is required"}
	}
	if destination == "" {
		return nil, nil, apperr.ValidationError{Field: "destination", Msg: "is required"}
	}
	if in.PricePerSeat <= 0 {
		return nil, nil, apperr.ValidationError{Field: "price_per_seat", Msg: "must be greater than 0"}
	}
	if in.SeatsPerDate < 1 {
		return nil, nil, apperr.ValidationError{Field: "seats_per_date", Msg: "must be at least 1"}
	}

	ride := &models.Ride{
		DriverID:     in.DriverID,
		DriverName:   in.DriverName,
		Origin:       origin,
		Destination:  destination,
		Slug:         utils.RideSlug(origin, destination),
		PricePerSeat: utils.RoundMoney(in.PricePerSeat),
		Category:     in.Category,
		SeatsPerDate: in.SeatsPerDate,
		IsAvailable:  true,
	}

	switch in.Category {
	case types.RIDE_ONE_TIME:
		departure, err := ParseDeparture(in.DepartureAt, e.loc())
		if err != nil {
			return nil, nil, apperr.ValidationError{Field: "departure_at", Msg: "must be a date-time like 2025-12-01 08:30", Err: err}
		}
		if departure.Before(e.now()) {
			return nil, nil, apperr.ValidationError{Field: "departure_at", Msg: "must not be in the past"}
		}
		ride.DepartureAt = &departure
		return ride, []ledger.DateKey{ledger.KeyOf(departure.In(e.loc()))}, nil

	case types.RIDE_COMMUTING:
		if len(in.RecurrenceDates) == 0 {
			return nil, nil, apperr.ValidationError{Field: "recurrence_dates", Msg: "at least one date is required"}
		}
		for _, d := range in.RecurrenceDates {
			if _, err := ledger.ParseDateKey(d); err != nil {
				return nil, nil, apperr.ValidationError{Field: "recurrence_dates", Msg: err.Error(), Err: err}
			}
		}
		if len(in.CommuteTimes) == 0 {
			return nil, nil, apperr.ValidationError{Field: "commute_times", Msg: "at least one time is required"}
		}
		times := make([]string, 0, len(in.CommuteTimes))
		for _, ct := range in.CommuteTimes {
			t, err := ParseCommuteTime(ct)
			if err != nil {
				return nil, nil, apperr.ValidationError{Field: "commute_times", Msg: fmt.Sprintf("invalid time %q", ct), Err: err}
			}
			times = append(times, t.Format(config.TIME_FORMAT))
		}
		ride.RecurrenceDates = types.StringList(utils.SortedUnique(in.RecurrenceDates))
		ride.CommuteTimes = types.StringList(utils.SortedUnique(times))
		dates := make([]ledger.DateKey, len(ride.RecurrenceDates))
		for i, d := range ride.RecurrenceDates {
			dates[i] = ledger.DateKey(d)
		}
		return ride, dates, nil

	default:
		return nil, nil, apperr.ValidationError{Field: "category", Msg: "must be one-time or commuting"}
	}
}

func earliestCommuteTime(ride *models.Ride) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, ct := range ride.CommuteTimes {
		t, err := ParseCommuteTime(ct)
		if err != nil {
			continue
		}
		if !found || t.Before(earliest) {
			earliest, found = t, true
		}
	}
	return earliest, found
}

// DepartureOn is the instant the ride leaves on date. One-time rides ignore
// date; commuting rides use the earliest commute time.
func (e *Engine) DepartureOn(ride *models.Ride, date ledger.DateKey) (time.Time, error) {
	if !ride.IsCommuting() {
		if ride.DepartureAt == nil {
			return time.Time{}, apperr.DataIntegrityError{Msg: fmt.Sprintf("one-time ride %d has no departure", ride.ID)}
		}
		return ride.DepartureAt.In(e.loc()), nil
	}
	day, err := date.In(e.loc())
	if err != nil {
		return time.Time{}, apperr.ValidationError{Field: "ride_date", Msg: err.Error(), Err: err}
	}
	ct, ok := earliestCommuteTime(ride)
	if !ok {
		return time.Time{}, apperr.DataIntegrityError{Msg: fmt.Sprintf("commuting ride %d has no commute times", ride.ID)}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), ct.Hour(), ct.Minute(), 0, 0, e.loc()), nil
}

// rideDates lists every date the ride runs on, ascending.
func (e *Engine) rideDates(ride *models.Ride) []ledger.DateKey {
	if !ride.IsCommuting() {
		if ride.DepartureAt == nil {
			return nil
		}
		return []ledger.DateKey{ledger.KeyOf(ride.DepartureAt.In(e.loc()))}
	}
	dates := make([]ledger.DateKey, 0, len(ride.RecurrenceDates))
	for _, d := range utils.SortedUnique(ride.RecurrenceDates) {
		dates = append(dates, ledger.DateKey(d))
	}
	return dates
}

func (e *Engine) VisibleForListing(ride *models.Ride, now time.Time) bool {
	if !ride.IsCommuting() {
		return ride.DepartureAt != nil && ride.DepartureAt.After(now)
	}
	l := ride.Ledger()
	for _, d := range e.rideDates(ride) {
		at, err := e.DepartureOn(ride, d)
		if err != nil {
			continue
		}
		if at.After(now) && l.Remaining(d) > 0 {
			return true
		}
	}
	return false
}

func (e *Engine) AvailableDates(ride *models.Ride, now time.Time) []ledger.DateKey {
	dates := []ledger.DateKey{}
	for _, d := range e.rideDates(ride) {
		at, err := e.DepartureOn(ride, d)
		if err != nil {
			continue
		}
		if !at.Before(now) {
			dates = append(dates, d)
		}
	}
	return dates
}

func (e *Engine) GetRide(ctx context.Context, id uint) (*models.Ride, error) {
	ride, err := e.Store.GetRide(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "ride", ID: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load ride %d: %w", id, err)
	}
	return ride, nil
}

func (e *Engine) ListRides(ctx context.Context, filter repository.RideFilter, now time.Time) ([]models.Ride, error) {
	rides, err := e.Store.ListRides(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	visible := []models.Ride{}
	for i := range rides {
		if e.VisibleForListing(&rides[i], now) {
			visible = append(visible, rides[i])
		}
	}
	return visible, nil
}

// RideManifest lists the non-canceled bookings of a ride for its driver,
// optionally limited to one date.
func (e *Engine) RideManifest(ctx context.Context, rideID, callerID uint, date string) ([]models.Booking, error) {
	ride, err := e.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.DriverID != callerID {
		return nil, apperr.ForbiddenError{Action: "view passengers of another driver's ride"}
	}
	return e.Store.ListBookings(ctx, repository.BookingFilter{
		RideID:   rideID,
		RideDate: date,
		Statuses: []types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING, types.BOOKING_DONE},
	})
}
