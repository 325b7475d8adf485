package models

import (
	"ridepool/src/types"
	"time"
)

// Payment is the charge for one booking-date unit.
type Payment struct {
	ID              uint                `gorm:"primarykey" json:"id"`
	Reference       string              `gorm:"uniqueIndex" json:"reference"`
	BookingID       uint                `gorm:"index" json:"booking_id"`
	RideID          uint                `gorm:"index" json:"ride_id"`
	DriverID        uint                `gorm:"index" json:"driver_id"`
	PassengerID     uint                `gorm:"index" json:"passenger_id"`
	RideDate        string              `json:"ride_date"`
	Amount          float64             `json:"amount"`
	PlatformFee     float64             `json:"platform_fee"`
	RefundAmount    float64             `json:"refund_amount"`
	CancellationFee float64             `json:"cancellation_fee"`
	Status          types.PaymentStatus `gorm:"index" json:"status"`
	Refunded        bool                `json:"refunded"`
	PaidAt          time.Time           `json:"paid_at"`

	types.Timestamps
}
