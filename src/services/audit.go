package services

import (
	"context"
	"fmt"
	"log"
	"ridepool/src/ledger"
	"ridepool/src/repository"
	"ridepool/src/types"
)

type LedgerDiscrepancy struct {
	RideID    uint   `json:"ride_id"`
	Date      string `json:"date"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
	Reserved  int    `json:"reserved"`
	Reason    string `json:"reason"`
}

func (d LedgerDiscrepancy) String() string {
	return fmt.Sprintf("ride %d on %s: %s (capacity %d, remaining %d, reserved %d)",
		d.RideID, d.Date, d.Reason, d.Capacity, d.Remaining, d.Reserved)
}

// AuditLedgers compares every ride's seat ledger with its active bookings.
func (e *Engine) AuditLedgers(ctx context.Context) ([]LedgerDiscrepancy, error) {
	rides, err := e.Store.ListRides(ctx, repository.RideFilter{})
	if err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	found := []LedgerDiscrepancy{}
	for i := range rides {
		ride := &rides[i]
		bookings, err := e.Store.ListBookings(ctx, repository.BookingFilter{
			RideID:   ride.ID,
			Statuses: []types.BookingStatus{types.BOOKING_BOOKED, types.BOOKING_ONGOING, types.BOOKING_DONE},
		})
		if err != nil {
			return nil, fmt.Errorf("list bookings of ride %d: %w", ride.ID, err)
		}
		reserved := map[ledger.DateKey]int{}
		for _, b := range bookings {
			reserved[ledger.DateKey(b.RideDate)] += b.SeatsReserved
		}

		l := ride.Ledger()
		for _, d := range l.Dates() {
			entry := LedgerDiscrepancy{
				RideID:    ride.ID,
				Date:      d.String(),
				Capacity:  l.Capacity(d),
				Remaining: l.Remaining(d),
				Reserved:  reserved[d],
			}
			delete(reserved, d)
			switch {
			case entry.Remaining < 0 || entry.Remaining > entry.Capacity:
				entry.Reason = "remaining seats out of range"
			case entry.Remaining+entry.Reserved != entry.Capacity:
				entry.Reason = "remaining plus reserved does not match capacity"
			default:
				continue
			}
			found = append(found, entry)
		}
		for d, n := range reserved {
			found = append(found, LedgerDiscrepancy{RideID: ride.ID, Date: d.String(), Reserved: n, Reason: "bookings on a date the ledger does not know"})
		}
	}
	for _, d := range found {
		log.Printf("[audit] %s\n", d.String())
	}
	return found, nil
}
