package models

import (
	"ridepool/src/types"
	"time"
)

type Booking struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	PassengerID   uint                `gorm:"index" json:"passenger_id"`
	RideID        uint                `gorm:"index" json:"ride_id"`
	RideDate      string              `gorm:"index" json:"ride_date"`
	RideDateTime  time.Time           `json:"ride_date_time"`
	SeatsReserved int                 `json:"seats_reserved"`
	TotalPrice    float64             `json:"total_price"`
	ContactEmail  string              `json:"contact_email,omitempty"`
	Status        types.BookingStatus `gorm:"index;default:'Booked'" json:"status"`
	CanceledAt    *time.Time          `json:"canceled_at,omitempty"`
	PickupPoint   string              `json:"pickup_point,omitempty"`
	PickupTime    string              `json:"pickup_time,omitempty"`

	Ride      *Ride          `gorm:"foreignKey:ride_id" json:"ride,omitempty"`
	Passenger *User          `gorm:"foreignKey:passenger_id" json:"passenger,omitempty"`
	Payments  []Payment      `json:"payments,omitempty"`
	Proposals []EditProposal `json:"proposals,omitempty"`

	types.Timestamps
}

func (b *Booking) IsActive() bool {
	return b.Status != types.BOOKING_CANCELED
}
