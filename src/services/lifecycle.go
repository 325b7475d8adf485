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
)

// StartJourney moves the driver's Booked bookings to Ongoing. Commuting
// rides move one date at a time.
func (e *Engine) StartJourney(ctx context.Context, rideID, callerID uint, rideDate string) (int64, error) {
	return e.advanceJourney(ctx, rideID, callerID, rideDate,
		[]types.BookingStatus{types.BOOKING_BOOKED}, types.BOOKING_ONGOING)
}

// FinishJourney moves Booked and Ongoing bookings to Done.
func (e *Engine) FinishJourney(ctx context.Context, rideID, callerID uint, rideDate string) (int64, error) {
	return e.advanceJourney(ctx, rideID, callerID, rideDate,
		[]types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING}, types.BOOKING_DONE)
}

func (e *Engine) advanceJourney(ctx context.Context, rideID, callerID uint, rideDate string, from []types.BookingStatus, to types.BookingStatus) (int64, error) {
	ride, err := e.GetRide(ctx, rideID)
	if err != nil {
		return 0, err
	}
	if ride.DriverID != callerID {
		return 0, apperr.ForbiddenError{Action: fmt.Sprintf("move bookings of ride %d to %s", rideID, to)}
	}
	date, err := journeyDate(ride, rideDate)
	if err != nil {
		return 0, err
	}

	unlock, err := e.lockRide(ctx, ride.ID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	var moved int64
	err = e.Store.Transaction(ctx, func(tx repository.Store) error {
		// the ride row orders this against cancellations of other instances
		if _, err := loadRideForUpdate(ctx, tx, ride.ID); err != nil {
			return err
		}
		bookings, err := tx.ListBookings(ctx, repository.BookingFilter{RideID: ride.ID, RideDate: date, Statuses: from})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		if len(bookings) == 0 {
			return nil
		}
		moved, err = tx.SetBookingStatus(ctx, bookingIDs(bookings), from, to)
		return err
	})
	if err != nil {
		return 0, err
	}
	log.Printf("Ride %d%s: %d booking(s) now %s\n", ride.ID, onDate(date), moved, to)
	return moved, nil
}

func bookingIDs(bookings []models.Booking) []uint {
	ids := make([]uint, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	return ids
}

// journeyDate is the date a lifecycle call is scoped to, or "" for every
// booking of a one-time ride.
func journeyDate(ride *models.Ride, rideDate string) (string, error) {
	rideDate = strings.TrimSpace(rideDate)
	if !ride.IsCommuting() {
		return "", nil
	}
	if rideDate == "" {
		return "", apperr.MissingDate()
	}
	d, err := ledger.ParseDateKey(rideDate)
	if err != nil {
		return "", apperr.ValidationError{Field: "ride_date", Msg: err.Error(), Err: err}
	}
	if !ride.Ledger().Knows(d) {
		return "", apperr.ValidationError{Field: "ride_date", Msg: fmt.Sprintf("ride %d does not run on %s", ride.ID, rideDate)}
	}
	return d.String(), nil
}

func onDate(date string) string {
	if date == "" {
		return ""
	}
	return " on " + date
}

type RateRequest struct {
	RideID      uint
	PassengerID uint
	Rating      int
	RideDate    string
	Comment     string
}

type RatingOutcome struct {
	Rating       *models.RideRating `json:"rating"`
	AlreadyRated bool               `json:"already_rated"`
}

// Rate records the passenger's one rating per ride and date. The first
// rating also completes the passenger's matching bookings.
func (e *Engine) Rate(ctx context.Context, req RateRequest) (*RatingOutcome, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.ValidationError{Field: "rating", Msg: "must be between 1 and 5"}
	}
	ride, err := e.GetRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	date, err := journeyDate(ride, req.RideDate)
	if err != nil {
		return nil, err
	}
	var datePtr *string
	if date != "" {
		datePtr = &date
	}

	unlock, err := e.lockRide(ctx, ride.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var outcome *RatingOutcome
	err = e.Store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := loadRideForUpdate(ctx, tx, ride.ID); err != nil {
			return err
		}
		bookings, err := tx.ListBookings(ctx, repository.BookingFilter{
			RideID:      ride.ID,
			PassengerID: req.PassengerID,
			RideDate:    date,
			Statuses:    []types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING, types.BOOKING_DONE},
		})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		if len(bookings) == 0 {
			return apperr.ForbiddenError{Action: fmt.Sprintf("rate ride %d%s without a booking", ride.ID, onDate(date))}
		}

		existing, err := e.existingRating(ctx, tx, ride.ID, req.PassengerID, datePtr)
		if err != nil || existing != nil {
			outcome = existing
			return err
		}
		rating := &models.RideRating{
			RideID:      ride.ID,
			PassengerID: req.PassengerID,
			RideDate:    datePtr,
			Rating:      req.Rating,
			Comment:     strings.TrimSpace(req.Comment),
		}
		if err := tx.CreateRating(ctx, rating); err != nil {
			return fmt.Errorf("create rating: %w", err)
		}

		open := []types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING}
		if _, err := tx.SetBookingStatus(ctx, bookingIDs(bookings), open, types.BOOKING_DONE); err != nil {
			return fmt.Errorf("complete bookings: %w", err)
		}
		outcome = &RatingOutcome{Rating: rating}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// lost a race with a first rating from another instance
		return e.existingRating(ctx, e.Store, ride.ID, req.PassengerID, datePtr)
	}
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (e *Engine) existingRating(ctx context.Context, store repository.Store, rideID, passengerID uint, date *string) (*RatingOutcome, error) {
	rating, err := store.FindRating(ctx, rideID, passengerID, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rating: %w", err)
	}
	return &RatingOutcome{Rating: rating, AlreadyRated: true}, nil
}
