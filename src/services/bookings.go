package services

import (
	"context"
	"errors"
	"fmt"
	"ridepool/src/apperr"
	"ridepool/src/models"
	"ridepool/src/repository"
)

// Booking returns a booking with its payments to its passenger or to the
// driver of its ride.
func (e *Engine) Booking(ctx context.Context, bookingID, callerID uint) (*models.Booking, error) {
	booking, err := e.Store.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "booking", ID: bookingID, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if booking.PassengerID == callerID {
		return booking, nil
	}
	ride, err := e.Store.GetRide(ctx, booking.RideID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load ride %d: %w", booking.RideID, err)
	}
	if ride == nil || ride.DriverID != callerID {
		return nil, apperr.NotOwnerError{Resource: "booking", ID: bookingID}
	}
	return booking, nil
}

func (e *Engine) PassengerBookings(ctx context.Context, passengerID uint) ([]models.Booking, error) {
	bookings, err := e.Store.ListBookings(ctx, repository.BookingFilter{PassengerID: passengerID})
	if err != nil {
		return nil, fmt.Errorf("list bookings of %d: %w", passengerID, err)
	}
	return bookings, nil
}
