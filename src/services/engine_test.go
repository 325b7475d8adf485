package services

import (
	"context"
	"ridepool/src/ledger"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	dayOne   = "2025-12-01"
	dayTwo   = "2025-12-02"
	driverID = uint(100)
	riderID  = uint(200)
)

var testNow = time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []BookingConfirmation
	done chan struct{}
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{done: make(chan struct{}, 16)}
}

func (n *recordingNotifier) SendBookingConfirmation(ctx context.Context, c BookingConfirmation) error {
	n.mu.Lock()
	n.sent = append(n.sent, c)
	n.mu.Unlock()
	select {
	case n.done <- struct{}{}:
	default:
	}
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) BookingConfirmation {
	t.Helper()
	select {
	case <-n.done:
	case <-time.After(2 * time.Second):
		t.Fatal("no booking confirmation sent")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

func newTestStore(t *testing.T) *repository.GormStore {
	t.Helper()
	store, err := repository.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestEngine(t *testing.T) (*Engine, *repository.GormStore) {
	t.Helper()
	store := newTestStore(t)
	e := NewEngine(store)
	e.Now = func() time.Time { return testNow }
	e.Notifier = newRecordingNotifier()
	return e, store
}

func publishCommuting(t *testing.T, e *Engine, seats int) *models.Ride {
	t.Helper()
	ride, err := e.PublishRide(context.Background(), PublishRideInput{
		DriverID:        driverID,
		DriverName:      "Dana",
		Origin:          "Makati",
		Destination:     "Ortigas",
		PricePerSeat:    10,
		SeatsPerDate:    seats,
		Category:        types.RIDE_COMMUTING,
		RecurrenceDates: []string{dayTwo, dayOne},
		CommuteTimes:    []string{"17:30", "08:00"},
	})
	require.NoError(t, err)
	return ride
}

func publishOneTime(t *testing.T, e *Engine, seats int, departure string) *models.Ride {
	t.Helper()
	ride, err := e.PublishRide(context.Background(), PublishRideInput{
		DriverID:     driverID,
		Origin:       "Cebu City",
		Destination:  "Mactan Airport",
		PricePerSeat: 25.5,
		SeatsPerDate: seats,
		Category:     types.RIDE_ONE_TIME,
		DepartureAt:  departure,
	})
	require.NoError(t, err)
	return ride
}

func reserve(t *testing.T, e *Engine, rideID, passengerID uint, seats int, dates ...string) []models.Booking {
	t.Helper()
	bookings, err := e.Reserve(context.Background(), ReserveRequest{
		RideID:       rideID,
		PassengerID:  passengerID,
		Dates:        dates,
		Seats:        seats,
		ContactEmail: "rider@example.com",
	})
	require.NoError(t, err)
	return bookings
}

func remaining(t *testing.T, store repository.Store, rideID uint, date string) int {
	t.Helper()
	ride, err := store.GetRide(context.Background(), rideID)
	require.NoError(t, err)
	return ride.Ledger().Remaining(ledger.DateKey(date))
}
