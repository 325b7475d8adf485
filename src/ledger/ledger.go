package ledger

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const DateLayout = "2006-01-02"

// DateKey is a calendar date in ISO form, e.g. 2025-12-01.
type DateKey string

func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateKey(t.Format(DateLayout)), nil
}

func KeyOf(t time.Time) DateKey {
	return DateKey(t.Format(DateLayout))
}

// In returns midnight of the date in loc.
func (d DateKey) In(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, string(d), loc)
}

func (d DateKey) String() string {
	return string(d)
}

var (
	ErrInvalidCapacity  = errors.New("capacity must be at least 1")
	ErrInvalidSeatCount = errors.New("seat count must be at least 1")
	ErrNoDates          = errors.New("at least one date is required")
	ErrAlreadySeeded    = errors.New("ledger is already seeded")
)

type InsufficientSeatsError struct {
	Date      DateKey
	Requested int
	Available int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("only %d seat(s) left on %s, %d requested", e.Available, e.Date, e.Requested)
}

// SeatLedger tracks remaining seats per date against the capacity seeded at
// publish time. The zero value is an empty, unseeded ledger.
type SeatLedger struct {
	capacity  map[DateKey]int
	remaining map[DateKey]int
}

func New() *SeatLedger {
	return &SeatLedger{
		capacity:  map[DateKey]int{},
		remaining: map[DateKey]int{},
	}
}

// Restore rebuilds a ledger from persisted state. Every key of remaining
// is treated as seeded with the given capacity.
func Restore(capacity int, remaining map[string]int) *SeatLedger {
	l := New()
	for k, v := range remaining {
		key := DateKey(k)
		l.capacity[key] = capacity
		l.remaining[key] = v
	}
	return l
}

func (l *SeatLedger) Seed(dates []DateKey, capacity int) error {
	if capacity < 1 {
		return ErrInvalidCapacity
	}
	if len(dates) == 0 {
		return ErrNoDates
	}
	if len(l.capacity) > 0 {
		return ErrAlreadySeeded
	}
	if l.capacity == nil {
		l.capacity = map[DateKey]int{}
		l.remaining = map[DateKey]int{}
	}
	for _, d := range dates {
		l.capacity[d] = capacity
		l.remaining[d] = capacity
	}
	return nil
}

func (l *SeatLedger) Knows(d DateKey) bool {
	_, ok := l.capacity[d]
	return ok
}

// Remaining is 0 for dates the ledger was never seeded with.
func (l *SeatLedger) Remaining(d DateKey) int {
	return l.remaining[d]
}

func (l *SeatLedger) Capacity(d DateKey) int {
	return l.capacity[d]
}

func (l *SeatLedger) Reserve(d DateKey, n int) error {
	if n < 1 {
		return ErrInvalidSeatCount
	}
	available := l.Remaining(d)
	if available < n {
		return &InsufficientSeatsError{Date: d, Requested: n, Available: available}
	}
	l.remaining[d] = available - n
	return nil
}

// Release gives seats back, never past the seeded capacity. Unknown dates
// are ignored.
func (l *SeatLedger) Release(d DateKey, n int) {
	if n < 1 || !l.Knows(d) {
		return
	}
	next := l.remaining[d] + n
	if next > l.capacity[d] {
		next = l.capacity[d]
	}
	l.remaining[d] = next
}

func (l *SeatLedger) Dates() []DateKey {
	dates := make([]DateKey, 0, len(l.capacity))
	for d := range l.capacity {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates
}

func (l *SeatLedger) TotalRemaining() int {
	total := 0
	for _, v := range l.remaining {
		total += v
	}
	return total
}

// Snapshot returns the remaining seats keyed by date string.
func (l *SeatLedger) Snapshot() map[string]int {
	out := make(map[string]int, len(l.remaining))
	for d, v := range l.remaining {
		out[string(d)] = v
	}
	return out
}

func (l *SeatLedger) Clone() *SeatLedger {
	c := New()
	for d, v := range l.capacity {
		c.capacity[d] = v
	}
	for d, v := range l.remaining {
		c.remaining[d] = v
	}
	return c
}

func (l *SeatLedger) Validate() error {
	var errs []error
	for _, d := range l.Dates() {
		r, c := l.remaining[d], l.capacity[d]
		if r < 0 || r > c {
			errs = append(errs, fmt.Errorf("%s: remaining %d outside [0, %d]", d, r, c))
		}
	}
	return errors.Join(errs...)
}
