package models

import "ridepool/src/types"

type User struct {
	ID    uint       `gorm:"primarykey" json:"id"`
	Name  string     `json:"name,omitempty"`
	Email string     `gorm:"uniqueIndex" json:"email,omitempty"`
	Role  types.Role `gorm:"default:'passenger'" json:"role,omitempty"`
	UID   string     `json:"uid,omitempty"`

	Bookings []Booking `gorm:"foreignKey:passenger_id" json:"bookings,omitempty"`
	Rides    []Ride    `gorm:"foreignKey:driver_id" json:"rides,omitempty"`

	types.Timestamps
}
