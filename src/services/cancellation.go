package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/apperr"
	"ridepool/src/ledger"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"ridepool/src/utils"
	"time"
)

const (
	LATE_CANCELLATION_WINDOW = 15 * time.Minute
	LATE_CANCELLATION_FEE    = 0.75

	MSG_BOOKING_CANCELED = "Booking successfully canceled"
	MSG_PARTIAL_REFUND   = "Charged 75% cancellation fee"
	MSG_FULL_REFUND      = "Full refund issued."
)

type RefundQuote struct {
	Status          types.PaymentStatus `json:"status"`
	RefundAmount    float64             `json:"refund_amount"`
	CancellationFee float64             `json:"cancellation_fee"`
	MinutesToRide   float64             `json:"minutes_to_ride"`
}

func (q RefundQuote) Message() string {
	if q.Status == types.PAYMENT_PARTIALLY_REFUNDED {
		return MSG_PARTIAL_REFUND
	}
	return MSG_FULL_REFUND
}

// ComputeRefund splits amount into refund and fee. Less than 15 minutes
// before departure, including after it, keeps 75% as a fee.
func ComputeRefund(amount float64, rideAt, now time.Time) RefundQuote {
	q := RefundQuote{MinutesToRide: rideAt.Sub(now).Minutes()}
	if rideAt.Sub(now) < LATE_CANCELLATION_WINDOW {
		q.Status = types.PAYMENT_PARTIALLY_REFUNDED
		q.CancellationFee = utils.RoundMoney(amount * LATE_CANCELLATION_FEE)
		q.RefundAmount = utils.RoundMoney(amount - q.CancellationFee)
		return q
	}
	q.Status = types.PAYMENT_REFUNDED
	q.RefundAmount = utils.RoundMoney(amount)
	return q
}

type RefundOutcome struct {
	BookingID       uint                `json:"booking_id"`
	Status          types.PaymentStatus `json:"payment_status"`
	RefundAmount    float64             `json:"refund_amount"`
	CancellationFee float64             `json:"cancellation_fee"`
	MinutesToRide   float64             `json:"minutes_to_ride"`
	Message         string              `json:"message"`
	AlreadyCanceled bool                `json:"already_canceled"`
}

// storedOutcome rebuilds the result of an earlier cancellation from its
// payments.
func storedOutcome(booking *models.Booking) *RefundOutcome {
	out := &RefundOutcome{BookingID: booking.ID, AlreadyCanceled: true, Message: MSG_BOOKING_CANCELED}
	for _, p := range booking.Payments {
		out.Status = p.Status
		out.RefundAmount += p.RefundAmount
		out.CancellationFee += p.CancellationFee
	}
	out.RefundAmount = utils.RoundMoney(out.RefundAmount)
	out.CancellationFee = utils.RoundMoney(out.CancellationFee)
	return out
}

func (e *Engine) cancellable(booking *models.Booking) error {
	switch booking.Status {
	case types.BOOKING_BOOKED, types.BOOKING_CANCELED:
		return nil
	case types.BOOKING_ONGOING:
		if e.AllowCancelOngoing {
			return nil
		}
	}
	return apperr.InvalidStateError{Resource: "booking", State: string(booking.Status), Action: "cancel"}
}

// Cancel cancels a booking for its passenger, refunds its payment and
// gives the seats back to the ride. Canceling twice is harmless.
func (e *Engine) Cancel(ctx context.Context, bookingID, requesterID uint, now time.Time) (*RefundOutcome, error) {
	booking, err := e.Store.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "booking", ID: bookingID, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	if booking.PassengerID != requesterID {
		return nil, apperr.NotOwnerError{Resource: "booking", ID: bookingID}
	}
	if err := e.cancellable(booking); err != nil {
		return nil, err
	}
	if booking.Status == types.BOOKING_CANCELED {
		return storedOutcome(booking), nil
	}

	unlock, err := e.lockRide(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var outcome *RefundOutcome
	err = e.withLedgerRetry(ctx, booking.RideID, func(tx repository.Store) error {
		outcome, err = e.cancelInTx(ctx, tx, booking.RideID, bookingID, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !outcome.AlreadyCanceled {
		log.Printf("Canceled booking %d on ride %d (%s, refund %.2f)\n", booking.ID, booking.RideID, outcome.Status, outcome.RefundAmount)
	}
	return outcome, nil
}

func (e *Engine) cancelInTx(ctx context.Context, tx repository.Store, rideID, bookingID uint, now time.Time) (*RefundOutcome, error) {
	// lock the ride row before rereading the booking so journey and
	// rating writes of other instances are either fully seen or wait
	ride, err := tx.GetRideForUpdate(ctx, rideID)
	if errors.Is(err, repository.ErrNotFound) {
		fault := apperr.DataIntegrityError{Msg: fmt.Sprintf("booking %d points at missing ride %d", bookingID, rideID), Err: err}
		log.Printf("[integrity] %s\n", fault.Error())
		return nil, fault
	}
	if err != nil {
		return nil, fmt.Errorf("load ride %d: %w", rideID, err)
	}

	booking, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reload booking %d: %w", bookingID, err)
	}
	if err := e.cancellable(booking); err != nil {
		return nil, err
	}
	if booking.Status == types.BOOKING_CANCELED {
		return storedOutcome(booking), nil
	}
	if len(booking.Payments) == 0 {
		fault := apperr.DataIntegrityError{Msg: fmt.Sprintf("booking %d has no payment", booking.ID)}
		log.Printf("[integrity] %s\n", fault.Error())
		return nil, fault
	}

	outcome := &RefundOutcome{BookingID: booking.ID}
	for i := range booking.Payments {
		p := &booking.Payments[i]
		if p.Refunded {
			continue
		}
		q := ComputeRefund(p.Amount, booking.RideDateTime, now)
		p.Status = q.Status
		p.RefundAmount = q.RefundAmount
		p.CancellationFee = q.CancellationFee
		p.Refunded = true
		if err := tx.UpdatePayment(ctx, p); err != nil {
			return nil, fmt.Errorf("refund payment %d: %w", p.ID, err)
		}
		outcome.Status = q.Status
		outcome.MinutesToRide = q.MinutesToRide
		outcome.RefundAmount += q.RefundAmount
		outcome.CancellationFee += q.CancellationFee
		outcome.Message = MSG_BOOKING_CANCELED + ". " + q.Message()
	}
	outcome.RefundAmount = utils.RoundMoney(outcome.RefundAmount)
	outcome.CancellationFee = utils.RoundMoney(outcome.CancellationFee)
	if outcome.Status == "" {
		fault := apperr.DataIntegrityError{Msg: fmt.Sprintf("booking %d is active but every payment is refunded", booking.ID)}
		log.Printf("[integrity] %s\n", fault.Error())
		return nil, fault
	}

	canceledAt := now
	booking.Status = types.BOOKING_CANCELED
	booking.CanceledAt = &canceledAt
	if err := tx.UpdateBooking(ctx, booking); err != nil {
		return nil, fmt.Errorf("cancel booking %d: %w", booking.ID, err)
	}

	l := ride.Ledger()
	l.Release(ledger.DateKey(booking.RideDate), booking.SeatsReserved)
	ride.ApplyLedger(l)
	if err := tx.SaveRideLedger(ctx, ride); err != nil {
		return nil, err
	}
	return outcome, nil
}
