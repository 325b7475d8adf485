package services

import (
	"context"
	"log"
	"strings"
)

type BookingConfirmation struct {
	Email       string   `json:"email"`
	PassengerID uint     `json:"passenger_id"`
	RideID      uint     `json:"ride_id"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	DriverName  string   `json:"driver_name"`
	Seats       int      `json:"seats"`
	TotalPrice  float64  `json:"total_price"`
	Dates       []string `json:"dates"`
	BookingIDs  []uint   `json:"booking_ids"`
}

// Notifier delivers booking confirmations. Implementations should return
// quickly; the engine calls them outside of any transaction and only logs
// failures.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, c BookingConfirmation) error
}

type LogNotifier struct{}

func (LogNotifier) SendBookingConfirmation(ctx context.Context, c BookingConfirmation) error {
	log.Printf("[notify] booking confirmation to %s: ride %d (%s -> %s), %d seat(s) on %s, total %.2f\n",
		c.Email, c.RideID, c.Origin, c.Destination, c.Seats, strings.Join(c.Dates, ", "), c.TotalPrice)
	return nil
}
