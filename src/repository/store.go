package repository

import (
	"context"
	"errors"
	"ridepool/src/models"
	"ridepool/src/types"
	"time"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrStaleVersion = errors.New("ride ledger version is stale")
	ErrStateChanged = errors.New("record changed state")

	ErrNoSourceStatus = errors.New("status change needs at least one source status")
)

type RideFilter struct {
	DriverID    uint
	Origin      string
	Destination string
}

type BookingFilter struct {
	RideID      uint
	PassengerID uint
	RideDate    string
	Statuses    []types.BookingStatus
}

type PaymentFilter struct {
	BookingID uint
	DriverID  uint
	Since     time.Time
}

// Store is the persistence port of the booking engine. Implementations
// must make every call made through the tx handed to Transaction commit or
// roll back together.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateRide(ctx context.Context, ride *models.Ride) error
	GetRide(ctx context.Context, id uint) (*models.Ride, error)
	// GetRideForUpdate locks the ride row until the surrounding transaction ends.
	GetRideForUpdate(ctx context.Context, id uint) (*models.Ride, error)
	ListRides(ctx context.Context, filter RideFilter) ([]models.Ride, error)
	// SaveRideLedger writes the seat columns if ride.Version still matches
	// the stored row and bumps the version. ErrStaleVersion otherwise.
	SaveRideLedger(ctx context.Context, ride *models.Ride) error

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error)
	UpdateBooking(ctx context.Context, booking *models.Booking) error
	// SetBookingStatus moves the listed bookings that are still in one of
	// the from statuses to to, and reports how many moved.
	SetBookingStatus(ctx context.Context, ids []uint, from []types.BookingStatus, to types.BookingStatus) (int64, error)
	UpdateBookingTerms(ctx context.Context, booking *models.Booking) error

	CreatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error

	FindRating(ctx context.Context, rideID, passengerID uint, rideDate *string) (*models.RideRating, error)
	CreateRating(ctx context.Context, rating *models.RideRating) error

	// SaveSavedRide inserts or, for a known passenger and ride, replaces
	// the saved days.
	SaveSavedRide(ctx context.Context, saved *models.SavedRide) error
	GetSavedRide(ctx context.Context, id uint) (*models.SavedRide, error)
	ListSavedRides(ctx context.Context, passengerID uint) ([]models.SavedRide, error)
	DeleteSavedRide(ctx context.Context, id uint) error

	CreateProposal(ctx context.Context, proposal *models.EditProposal) error
	GetProposal(ctx context.Context, id uint) (*models.EditProposal, error)
	ListProposals(ctx context.Context, bookingID uint, statuses ...types.ProposalStatus) ([]models.EditProposal, error)
	// ResolveProposal writes the answer to a pending proposal.
	// ErrStateChanged when it was answered already.
	ResolveProposal(ctx context.Context, proposal *models.EditProposal) error

	GetSetting(ctx context.Context, key, group string) (*models.Setting, error)
	SaveSetting(ctx context.Context, setting *models.Setting) error

	GetUser(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}
