package services

import (
	"ridepool/src/repository"
	"time"
)

const DEFAULT_MAX_ATTEMPTS = 3

// Engine runs the ride inventory and booking lifecycle on top of a Store.
// Collaborators are plain fields so callers can swap them after NewEngine.
type Engine struct {
	Store    repository.Store
	Locker   RideLocker
	Fees     FeeProvider
	Notifier Notifier
	Location *time.Location
	Now      func() time.Time

	// MaxAttempts bounds optimistic retries of a ledger write.
	MaxAttempts        int
	AllowCancelOngoing bool
}

func NewEngine(store repository.Store) *Engine {
	return &Engine{
		Store:              store,
		Locker:             NewLocalRideLocker(),
		Fees:               NewSettingsFeeProvider(store, nil),
		Notifier:           LogNotifier{},
		Location:           time.UTC,
		Now:                time.Now,
		MaxAttempts:        DEFAULT_MAX_ATTEMPTS,
		AllowCancelOngoing: true,
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Clock is the engine's current time.
func (e *Engine) Clock() time.Time {
	return e.now()
}

func (e *Engine) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}

func (e *Engine) attempts() int {
	if e.MaxAttempts < 1 {
		return 1
	}
	return e.MaxAttempts
}
