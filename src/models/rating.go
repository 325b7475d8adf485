package models

import "ridepool/src/types"

// RideRating is unique per ride, passenger and date. Undated ratings of
// one-time rides get their own partial index since NULL dates never
// collide in idx_ride_rating_once.
type RideRating struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	RideID      uint    `gorm:"uniqueIndex:idx_ride_rating_once;uniqueIndex:idx_ride_rating_undated,where:ride_date IS NULL" json:"ride_id"`
	PassengerID uint    `gorm:"uniqueIndex:idx_ride_rating_once;uniqueIndex:idx_ride_rating_undated,where:ride_date IS NULL" json:"passenger_id"`
	RideDate    *string `gorm:"uniqueIndex:idx_ride_rating_once" json:"ride_date,omitempty"`
	Rating      int     `json:"rating"`
	Comment     string  `json:"comment,omitempty"`

	types.Timestamps
}
