package repository

import (
	"context"
	"errors"
	"ridepool/src/models"
	"ridepool/src/models/scopes"
	"ridepool/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}

func (s *GormStore) CreateRide(ctx context.Context, ride *models.Ride) error {
	if ride.Version == 0 {
		ride.Version = 1
	}
	return translate(s.conn(ctx).Create(ride).Error)
}

func (s *GormStore) GetRide(ctx context.Context, id uint) (*models.Ride, error) {
	var ride models.Ride
	err := s.conn(ctx).
		Model(&models.Ride{}).
		Scopes(scopes.WithID(id)).
		First(&ride).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &ride, nil
}

func (s *GormStore) GetRideForUpdate(ctx context.Context, id uint) (*models.Ride, error) {
	var ride models.Ride
	err := s.conn(ctx).
		Model(&models.Ride{}).
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: clause.CurrentTable},
		}).
		Scopes(scopes.WithID(id)).
		First(&ride).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &ride, nil
}

func (s *GormStore) ListRides(ctx context.Context, filter RideFilter) ([]models.Ride, error) {
	var rides []models.Ride
	q := s.conn(ctx).Model(&models.Ride{})
	if filter.DriverID > 0 {
		q = q.Where("driver_id = ?", filter.DriverID)
	}
	if filter.Origin != "" {
		q = q.Where("origin = ?", filter.Origin)
	}
	if filter.Destination != "" {
		q = q.Where("destination = ?", filter.Destination)
	}
	if err := q.Order("id").Find(&rides).Error; err != nil {
		return nil, translate(err)
	}
	return rides, nil
}

func (s *GormStore) SaveRideLedger(ctx context.Context, ride *models.Ride) error {
	result := s.conn(ctx).
		Model(&models.Ride{}).
		Where("id = ? AND version = ?", ride.ID, ride.Version).
		Updates(map[string]any{
			"available_seats_per_date": ride.AvailableSeatsPerDate,
			"available_seats":          ride.AvailableSeats,
			"is_available":             ride.IsAvailable,
			"version":                  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	ride.Version++
	return nil
}

func (s *GormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(booking).Error)
}

func (s *GormStore) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithID(id)).
		Preload("Payments").
		First(&booking).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &booking, nil
}

func (s *GormStore) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	var bookings []models.Booking
	q := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.OnRideDate(filter.RideDate), scopes.WithStatuses(filter.Statuses...))
	if filter.RideID > 0 {
		q = q.Where("ride_id = ?", filter.RideID)
	}
	if filter.PassengerID > 0 {
		q = q.Where("passenger_id = ?", filter.PassengerID)
	}
	if err := q.Order("id").Find(&bookings).Error; err != nil {
		return nil, translate(err)
	}
	return bookings, nil
}

func (s *GormStore) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithID(booking.ID)).
		Updates(map[string]any{
			"status":      booking.Status,
			"canceled_at": booking.CanceledAt,
		}).
		Error
	return translate(err)
}

func (s *GormStore) SetBookingStatus(ctx context.Context, ids []uint, from []types.BookingStatus, to types.BookingStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if len(from) == 0 {
		return 0, ErrNoSourceStatus
	}
	result := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithIDs(ids...), scopes.WithStatuses(from...)).
		Update("status", to)
	return result.RowsAffected, translate(result.Error)
}

func (s *GormStore) UpdateBookingTerms(ctx context.Context, booking *models.Booking) error {
	err := s.conn(ctx).
		Model(&models.Booking{}).
		Scopes(scopes.WithID(booking.ID)).
		Updates(map[string]any{
			"pickup_point": booking.PickupPoint,
			"pickup_time":  booking.PickupTime,
			"total_price":  booking.TotalPrice,
		}).
		Error
	return translate(err)
}

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	payment.PaidAt = payment.PaidAt.UTC()
	return translate(s.conn(ctx).Create(payment).Error)
}

func (s *GormStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]models.Payment, error) {
	var payments []models.Payment
	q := s.conn(ctx).Model(&models.Payment{})
	if filter.BookingID > 0 {
		q = q.Where("booking_id = ?", filter.BookingID)
	}
	if filter.DriverID > 0 {
		q = q.Where("driver_id = ?", filter.DriverID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("paid_at >= ?", filter.Since.UTC())
	}
	if err := q.Order("id").Find(&payments).Error; err != nil {
		return nil, translate(err)
	}
	return payments, nil
}

func (s *GormStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	err := s.conn(ctx).
		Model(&models.Payment{}).
		Scopes(scopes.WithID(payment.ID)).
		Updates(map[string]any{
			"status":           payment.Status,
			"amount":           payment.Amount,
			"refunded":         payment.Refunded,
			"refund_amount":    payment.RefundAmount,
			"cancellation_fee": payment.CancellationFee,
		}).
		Error
	return translate(err)
}

func (s *GormStore) FindRating(ctx context.Context, rideID, passengerID uint, rideDate *string) (*models.RideRating, error) {
	var rating models.RideRating
	q := s.conn(ctx).
		Model(&models.RideRating{}).
		Where("ride_id = ? AND passenger_id = ?", rideID, passengerID)
	if rideDate == nil {
		q = q.Where("ride_date IS NULL")
	} else {
		q = q.Where("ride_date = ?", *rideDate)
	}
	if err := q.First(&rating).Error; err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (s *GormStore) CreateRating(ctx context.Context, rating *models.RideRating) error {
	return translate(s.conn(ctx).Create(rating).Error)
}

func (s *GormStore) GetSetting(ctx context.Context, key, group string) (*models.Setting, error) {
	var setting models.Setting
	err := s.conn(ctx).
		Model(&models.Setting{}).
		Where(&models.Setting{SettingKey: key, Group: group}).
		First(&setting).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &setting, nil
}

func (s *GormStore) SaveSetting(ctx context.Context, setting *models.Setting) error {
	err := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}, {Name: "group"}},
			DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
		}).
		Create(setting).
		Error
	return translate(err)
}

func (s *GormStore) SaveSavedRide(ctx context.Context, saved *models.SavedRide) error {
	err := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "passenger_id"}, {Name: "ride_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"days", "updated_at"}),
		}).
		Create(saved).
		Error
	if err != nil {
		return translate(err)
	}
	// an upsert does not report the existing row's id everywhere
	stored, err := s.findSavedRide(ctx, saved.PassengerID, saved.RideID)
	if err != nil {
		return err
	}
	saved.ID = stored.ID
	saved.CreatedAt = stored.CreatedAt
	return nil
}

func (s *GormStore) findSavedRide(ctx context.Context, passengerID, rideID uint) (*models.SavedRide, error) {
	var saved models.SavedRide
	err := s.conn(ctx).
		Model(&models.SavedRide{}).
		Where("passenger_id = ? AND ride_id = ?", passengerID, rideID).
		First(&saved).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return &saved, nil
}

func (s *GormStore) GetSavedRide(ctx context.Context, id uint) (*models.SavedRide, error) {
	var saved models.SavedRide
	if err := s.conn(ctx).Scopes(scopes.WithID(id)).First(&saved).Error; err != nil {
		return nil, translate(err)
	}
	return &saved, nil
}

func (s *GormStore) ListSavedRides(ctx context.Context, passengerID uint) ([]models.SavedRide, error) {
	var saved []models.SavedRide
	err := s.conn(ctx).
		Model(&models.SavedRide{}).
		Where("passenger_id = ?", passengerID).
		Preload("Ride").
		Order("id").
		Find(&saved).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return saved, nil
}

func (s *GormStore) DeleteSavedRide(ctx context.Context, id uint) error {
	result := s.conn(ctx).Unscoped().Scopes(scopes.WithID(id)).Delete(&models.SavedRide{})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateProposal(ctx context.Context, proposal *models.EditProposal) error {
	return translate(s.conn(ctx).Create(proposal).Error)
}

func (s *GormStore) GetProposal(ctx context.Context, id uint) (*models.EditProposal, error) {
	var proposal models.EditProposal
	if err := s.conn(ctx).Scopes(scopes.WithID(id)).First(&proposal).Error; err != nil {
		return nil, translate(err)
	}
	return &proposal, nil
}

func (s *GormStore) ListProposals(ctx context.Context, bookingID uint, statuses ...types.ProposalStatus) ([]models.EditProposal, error) {
	var proposals []models.EditProposal
	err := s.conn(ctx).
		Model(&models.EditProposal{}).
		Where("booking_id = ?", bookingID).
		Scopes(scopes.WithStatuses(statuses...)).
		Order("id").
		Find(&proposals).
		Error
	if err != nil {
		return nil, translate(err)
	}
	return proposals, nil
}

func (s *GormStore) ResolveProposal(ctx context.Context, proposal *models.EditProposal) error {
	result := s.conn(ctx).
		Model(&models.EditProposal{}).
		Scopes(scopes.WithID(proposal.ID), scopes.WithStatuses(types.PROPOSAL_PENDING)).
		Updates(map[string]any{
			"status":       proposal.Status,
			"responded_at": proposal.RespondedAt,
		})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrStateChanged
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Scopes(scopes.WithID(id)).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.conn(ctx).Create(user).Error)
}
