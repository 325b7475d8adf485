package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/apperr"
	"ridepool/src/ledger"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"strings"
	"time"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func weekdayName(d time.Weekday) string {
	return weekdays[(int(d)+6)%7]
}

// normalizeDays accepts weekday names and any prefix of at least three
// letters ("mon", "Tues", "Wednesday") and returns them as Mon..Sun.
func normalizeDays(days []string) ([]string, error) {
	picked := map[string]bool{}
	for _, raw := range days {
		day := strings.ToLower(strings.TrimSpace(raw))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			if len(day) >= 3 && strings.HasPrefix(strings.ToLower(d.String()), day) {
				picked[weekdayName(d)] = true
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.ValidationError{Field: "days", Msg: fmt.Sprintf("%q is not a weekday", raw)}
		}
	}
	out := []string{}
	for _, w := range weekdays {
		if picked[w] {
			out = append(out, w)
		}
	}
	return out, nil
}

// SaveRide remembers a commuting ride for a passenger. Saving it again
// replaces the days.
func (e *Engine) SaveRide(ctx context.Context, rideID, passengerID uint, days []string) (*models.SavedRide, error) {
	normalized, err := normalizeDays(days)
	if err != nil {
		return nil, err
	}
	ride, err := e.GetRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsCommuting() {
		return nil, apperr.ValidationError{Field: "ride_id", Msg: "only commuting rides can be saved"}
	}
	saved := &models.SavedRide{PassengerID: passengerID, RideID: rideID, Days: normalized}
	if err := e.Store.SaveSavedRide(ctx, saved); err != nil {
		return nil, fmt.Errorf("save ride %d for %d: %w", rideID, passengerID, err)
	}
	saved.Ride = ride
	return saved, nil
}

func (e *Engine) SavedRides(ctx context.Context, passengerID uint) ([]models.SavedRide, error) {
	saved, err := e.Store.ListSavedRides(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("list saved rides of %d: %w", passengerID, err)
	}
	return saved, nil
}

func (e *Engine) ownSavedRide(ctx context.Context, id, passengerID uint) (*models.SavedRide, error) {
	saved, err := e.Store.GetSavedRide(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "saved ride", ID: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load saved ride %d: %w", id, err)
	}
	if saved.PassengerID != passengerID {
		return nil, apperr.NotOwnerError{Resource: "saved ride", ID: id}
	}
	return saved, nil
}

func (e *Engine) DeleteSavedRide(ctx context.Context, id, passengerID uint) error {
	if _, err := e.ownSavedRide(ctx, id, passengerID); err != nil {
		return err
	}
	err := e.Store.DeleteSavedRide(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFoundError{Resource: "saved ride", ID: id, Err: err}
	}
	return err
}

type RebookRequest struct {
	SavedRideID  uint
	PassengerID  uint
	Dates        []string
	Seats        int
	ContactEmail string
}

// Rebook reserves a saved ride again. Without explicit dates it books every
// upcoming date on the saved days that still has req.Seats free and is not
// already booked by the passenger.
func (e *Engine) Rebook(ctx context.Context, req RebookRequest) ([]models.Booking, error) {
	saved, err := e.ownSavedRide(ctx, req.SavedRideID, req.PassengerID)
	if err != nil {
		return nil, err
	}
	dates := req.Dates
	if len(dates) == 0 {
		dates, err = e.rebookDates(ctx, saved, req.Seats)
		if err != nil {
			return nil, err
		}
	}
	bookings, err := e.Reserve(ctx, ReserveRequest{
		RideID:       saved.RideID,
		PassengerID:  req.PassengerID,
		Dates:        dates,
		Seats:        req.Seats,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Rebooked saved ride %d for passenger %d on %v\n", saved.ID, req.PassengerID, dates)
	return bookings, nil
}

func (e *Engine) rebookDates(ctx context.Context, saved *models.SavedRide, seats int) ([]string, error) {
	ride, err := e.GetRide(ctx, saved.RideID)
	if err != nil {
		return nil, err
	}
	active, err := e.Store.ListBookings(ctx, repository.BookingFilter{
		RideID:      ride.ID,
		PassengerID: saved.PassengerID,
		Statuses:    []types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING},
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings of %d: %w", saved.PassengerID, err)
	}
	booked := map[string]bool{}
	for _, b := range active {
		booked[b.RideDate] = true
	}
	days := map[string]bool{}
	for _, d := range saved.Days {
		days[d] = true
	}

	l := ride.Ledger()
	dates := []string{}
	for _, d := range e.AvailableDates(ride, e.now()) {
		if booked[d.String()] || l.Remaining(d) < seats || !onDay(d, days, e.loc()) {
			continue
		}
		dates = append(dates, d.String())
	}
	if len(dates) == 0 {
		return nil, apperr.ValidationError{Field: "dates", Msg: fmt.Sprintf("ride %d has no upcoming dates to rebook", ride.ID)}
	}
	return dates, nil
}

func onDay(d ledger.DateKey, days map[string]bool, loc *time.Location) bool {
	if len(days) == 0 {
		return true
	}
	t, err := d.In(loc)
	if err != nil {
		return false
	}
	return days[weekdayName(t.Weekday())]
}
