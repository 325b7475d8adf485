package models

import (
	"ridepool/src/ledger"
	"ridepool/src/types"
	"time"
)

type Ride struct {
	ID           uint               `gorm:"primarykey" json:"id"`
	DriverID     uint               `gorm:"index" json:"driver_id"`
	DriverName   string             `json:"driver_name,omitempty"`
	Origin       string             `gorm:"index" json:"origin"`
	Destination  string             `gorm:"index" json:"destination"`
	Slug         string             `gorm:"index" json:"slug,omitempty"`
	PricePerSeat float64            `json:"price_per_seat"`
	Category     types.RideCategory `gorm:"index" json:"category"`
	IsAvailable  bool               `gorm:"default:true" json:"is_available"`

	DepartureAt     *time.Time       `json:"departure_at,omitempty"`
	RecurrenceDates types.StringList `json:"recurrence_dates,omitempty"`
	CommuteTimes    types.StringList `json:"commute_times,omitempty"`

	SeatsPerDate          int           `json:"seats_per_date"`
	AvailableSeats        int           `json:"available_seats"`
	AvailableSeatsPerDate types.SeatMap `json:"available_seats_per_date"`
	Version               uint          `gorm:"not null;default:1" json:"-"`

	Driver   *User     `gorm:"foreignKey:driver_id" json:"driver,omitempty"`
	Bookings []Booking `json:"bookings,omitempty"`

	types.Timestamps
}

func (r *Ride) IsCommuting() bool {
	return r.Category == types.RIDE_COMMUTING
}

// Ledger decodes the persisted seat map into a working ledger.
func (r *Ride) Ledger() *ledger.SeatLedger {
	return ledger.Restore(r.SeatsPerDate, r.AvailableSeatsPerDate)
}

// ApplyLedger writes l back onto the seat columns.
func (r *Ride) ApplyLedger(l *ledger.SeatLedger) {
	r.AvailableSeatsPerDate = types.SeatMap(l.Snapshot())
	r.AvailableSeats = l.TotalRemaining()
	r.IsAvailable = r.AvailableSeats > 0
}
