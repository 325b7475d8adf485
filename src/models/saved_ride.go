package models

import "ridepool/src/types"

// SavedRide remembers a commuting ride a passenger rebooks regularly.
// Days holds weekday abbreviations (Mon..Sun); empty means every day the
// ride runs.
type SavedRide struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	PassengerID uint             `gorm:"uniqueIndex:idx_saved_ride_once" json:"passenger_id"`
	RideID      uint             `gorm:"uniqueIndex:idx_saved_ride_once" json:"ride_id"`
	Days        types.StringList `json:"days"`

	Ride *Ride `gorm:"foreignKey:ride_id" json:"ride,omitempty"`

	types.Timestamps
}
