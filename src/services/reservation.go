package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"ridepool/src/apperr"
	"ridepool/src/ledger"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"ridepool/src/utils"
	"time"

	"github.com/google/uuid"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type ReserveRequest struct {
	RideID       uint
	PassengerID  uint
	Dates        []string
	Seats        int
	ContactEmail string
}

func (r ReserveRequest) validate() error {
	if r.Seats < 1 {
		return apperr.ValidationError{Field: "seats", Msg: "must be at least 1"}
	}
	if !emailPattern.MatchString(r.ContactEmail) {
		return apperr.ValidationError{Field: "contact_email", Msg: "must be a valid email address"}
	}
	seen := map[string]bool{}
	for _, d := range r.Dates {
		if _, err := ledger.ParseDateKey(d); err != nil {
			return apperr.ValidationError{Field: "dates", Msg: err.Error(), Err: err}
		}
		if seen[d] {
			return apperr.ValidationError{Field: "dates", Msg: fmt.Sprintf("%s is listed more than once", d)}
		}
		seen[d] = true
	}
	return nil
}

// Reserve books req.Seats seats on every requested date of a ride. Either
// every date is booked and paid, or nothing changes.
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) ([]models.Booking, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	unlock, err := e.lockRide(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	fee, err := e.Fees.CurrentPlatformFeeRate(ctx)
	if err != nil {
		return nil, err
	}

	var (
		bookings []models.Booking
		ride     *models.Ride
	)
	err = e.withLedgerRetry(ctx, req.RideID, func(tx repository.Store) error {
		bookings = nil
		ride, err = loadRideForUpdate(ctx, tx, req.RideID)
		if err != nil {
			return err
		}
		dates, err := e.resolveDates(ride, req.Dates)
		if err != nil {
			return err
		}

		l := ride.Ledger()
		for _, d := range dates {
			if err := l.Reserve(d, req.Seats); err != nil {
				var insufficient *ledger.InsufficientSeatsError
				if errors.As(err, &insufficient) {
					return apperr.InsufficientSeatsError{
						RideID:    ride.ID,
						Date:      insufficient.Date.String(),
						Requested: insufficient.Requested,
						Available: insufficient.Available,
					}
				}
				return apperr.ValidationError{Field: "seats", Msg: err.Error(), Err: err}
			}
		}
		ride.ApplyLedger(l)
		if err := tx.SaveRideLedger(ctx, ride); err != nil {
			return err
		}

		now := e.now()
		amount := utils.RoundMoney(float64(req.Seats) * ride.PricePerSeat)
		for _, d := range dates {
			departure, err := e.DepartureOn(ride, d)
			if err != nil {
				return err
			}
			booking := models.Booking{
				PassengerID:   req.PassengerID,
				RideID:        ride.ID,
				RideDate:      d.String(),
				RideDateTime:  departure,
				SeatsReserved: req.Seats,
				TotalPrice:    amount,
				ContactEmail:  req.ContactEmail,
				Status:        types.BOOKING_BOOKED,
			}
			if err := tx.CreateBooking(ctx, &booking); err != nil {
				return fmt.Errorf("create booking: %w", err)
			}
			payment := models.Payment{
				Reference:   uuid.NewString(),
				BookingID:   booking.ID,
				RideID:      ride.ID,
				DriverID:    ride.DriverID,
				PassengerID: req.PassengerID,
				RideDate:    d.String(),
				Amount:      amount,
				PlatformFee: fee,
				Status:      types.PAYMENT_SUCCESS,
				PaidAt:      now,
			}
			if err := tx.CreatePayment(ctx, &payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
			booking.Payments = []models.Payment{payment}
			bookings = append(bookings, booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Reserved %d seat(s) on ride %d for passenger %d on %d date(s)\n", req.Seats, ride.ID, req.PassengerID, len(bookings))
	e.confirm(ride, req, bookings)
	return bookings, nil
}

// resolveDates checks requested dates against the ledger. One-time rides
// default to their only date.
func (e *Engine) resolveDates(ride *models.Ride, requested []string) ([]ledger.DateKey, error) {
	if len(requested) == 0 {
		if ride.IsCommuting() {
			return nil, apperr.ValidationError{Field: "dates", Msg: "at least one date is required for commuting rides"}
		}
		requested = []string{}
		for _, d := range e.rideDates(ride) {
			requested = append(requested, d.String())
		}
	}
	l := ride.Ledger()
	now := e.now()
	dates := make([]ledger.DateKey, 0, len(requested))
	for _, raw := range requested {
		d := ledger.DateKey(raw)
		if !l.Knows(d) {
			return nil, apperr.ValidationError{Field: "dates", Msg: fmt.Sprintf("ride %d does not run on %s", ride.ID, raw)}
		}
		departure, err := e.DepartureOn(ride, d)
		if err != nil {
			return nil, err
		}
		if departure.Before(now) {
			return nil, apperr.ValidationError{Field: "dates", Msg: fmt.Sprintf("ride %d already departed on %s", ride.ID, raw)}
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (e *Engine) confirm(ride *models.Ride, req ReserveRequest, bookings []models.Booking) {
	if e.Notifier == nil || len(bookings) == 0 {
		return
	}
	c := BookingConfirmation{
		Email:       req.ContactEmail,
		PassengerID: req.PassengerID,
		RideID:      ride.ID,
		Origin:      ride.Origin,
		Destination: ride.Destination,
		DriverName:  ride.DriverName,
		Seats:       req.Seats,
	}
	for _, b := range bookings {
		c.Dates = append(c.Dates, b.RideDate)
		c.BookingIDs = append(c.BookingIDs, b.ID)
		c.TotalPrice += b.TotalPrice
	}
	c.TotalPrice = utils.RoundMoney(c.TotalPrice)

	notifier := e.Notifier
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := notifier.SendBookingConfirmation(ctx, c); err != nil {
			log.Printf("Failed to send booking confirmation for ride %d to %s: %s\n", c.RideID, c.Email, err.Error())
		}
	}()
}

func (e *Engine) lockRide(ctx context.Context, rideID uint) (func(), error) {
	if e.Locker == nil {
		return func() {}, nil
	}
	unlock, err := e.Locker.Lock(ctx, rideID)
	if errors.Is(err, ErrLockTimeout) {
		return nil, apperr.ConcurrencyConflictError{RideID: rideID, Attempts: 1}
	}
	if err != nil {
		return nil, fmt.Errorf("lock ride %d: %w", rideID, err)
	}
	return unlock, nil
}

// withLedgerRetry runs fn in a transaction, retrying when the ride ledger
// was written by someone else in between.
func (e *Engine) withLedgerRetry(ctx context.Context, rideID uint, fn func(tx repository.Store) error) error {
	attempts := e.attempts()
	for i := 1; i <= attempts; i++ {
		err := e.Store.Transaction(ctx, fn)
		if !errors.Is(err, repository.ErrStaleVersion) {
			return err
		}
		log.Printf("Stale ledger for ride %d, attempt %d/%d\n", rideID, i, attempts)
	}
	return apperr.ConcurrencyConflictError{RideID: rideID, Attempts: attempts}
}

func loadRideForUpdate(ctx context.Context, tx repository.Store, id uint) (*models.Ride, error) {
	ride, err := tx.GetRideForUpdate(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "ride", ID: id, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load ride %d: %w", id, err)
	}
	return ride, nil
}
