package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"ridepool/src/apperr"
	"ridepool/src/config"
	"ridepool/src/models"
	"ridepool/src/repository"
	"ridepool/src/types"
	"ridepool/src/utils"
	"strings"
)

type ProposeEditInput struct {
	Pickup string
	Time   string
	Cost   *float64
}

func (in *ProposeEditInput) normalize() error {
	in.Pickup = strings.TrimSpace(in.Pickup)
	if in.Time != "" {
		t, err := ParseCommuteTime(in.Time)
		if err != nil {
			return apperr.ValidationError{Field: "time", Msg: "must be HH:MM", Err: err}
		}
		in.Time = t.Format(config.TIME_FORMAT)
	}
	if in.Cost != nil {
		if *in.Cost <= 0 {
			return apperr.ValidationError{Field: "cost", Msg: "must be positive"}
		}
		cost := utils.RoundMoney(*in.Cost)
		in.Cost = &cost
	}
	if in.Pickup == "" && in.Time == "" && in.Cost == nil {
		return apperr.ValidationError{Field: "pickup", Msg: "propose at least one of pickup, time or cost"}
	}
	return nil
}

// bookingParties loads a booking with its ride and checks that callerID is
// its passenger or the ride's driver.
func (e *Engine) bookingParties(ctx context.Context, bookingID, callerID uint) (*models.Booking, *models.Ride, error) {
	booking, err := e.Store.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, apperr.NotFoundError{Resource: "booking", ID: bookingID, Err: err}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load booking %d: %w", bookingID, err)
	}
	ride, err := e.Store.GetRide(ctx, booking.RideID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[integrity] booking %d points at missing ride %d\n", booking.ID, booking.RideID)
		return nil, nil, apperr.DataIntegrityError{Msg: fmt.Sprintf("booking %d has no ride", booking.ID), Err: err}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load ride %d: %w", booking.RideID, err)
	}
	if booking.PassengerID != callerID && ride.DriverID != callerID {
		return nil, nil, apperr.NotOwnerError{Resource: "booking", ID: bookingID}
	}
	return booking, ride, nil
}

// ProposeEdit offers new pickup terms for a booked seat. Either side of the
// booking may propose; only one proposal per booking can be pending.
func (e *Engine) ProposeEdit(ctx context.Context, bookingID, callerID uint, in ProposeEditInput) (*models.EditProposal, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	booking, _, err := e.bookingParties(ctx, bookingID, callerID)
	if err != nil {
		return nil, err
	}
	if booking.Status != types.BOOKING_BOOKED {
		return nil, apperr.InvalidStateError{Resource: "booking", State: string(booking.Status), Action: "propose changes to"}
	}
	pending, err := e.Store.ListProposals(ctx, bookingID, types.PROPOSAL_PENDING)
	if err != nil {
		return nil, fmt.Errorf("list proposals of booking %d: %w", bookingID, err)
	}
	if len(pending) > 0 {
		return nil, apperr.InvalidStateError{Resource: "booking", State: "awaiting an answer", Action: "propose changes to"}
	}
	proposal := &models.EditProposal{
		BookingID:      bookingID,
		ProposerID:     callerID,
		ProposedPickup: in.Pickup,
		ProposedTime:   in.Time,
		ProposedCost:   in.Cost,
		Status:         types.PROPOSAL_PENDING,
	}
	if err := e.Store.CreateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("create proposal for booking %d: %w", bookingID, err)
	}
	log.Printf("User %d proposed changes to booking %d\n", callerID, bookingID)
	return proposal, nil
}

func (e *Engine) BookingProposals(ctx context.Context, bookingID, callerID uint) ([]models.EditProposal, error) {
	if _, _, err := e.bookingParties(ctx, bookingID, callerID); err != nil {
		return nil, err
	}
	proposals, err := e.Store.ListProposals(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list proposals of booking %d: %w", bookingID, err)
	}
	return proposals, nil
}

// RespondToProposal lets the other side of the booking accept or reject a
// pending proposal. Accepting applies the terms to the booking; a new cost
// also becomes the amount of its payment.
func (e *Engine) RespondToProposal(ctx context.Context, proposalID, callerID uint, accept bool) (*models.EditProposal, error) {
	proposal, err := e.Store.GetProposal(ctx, proposalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFoundError{Resource: "proposal", ID: proposalID, Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load proposal %d: %w", proposalID, err)
	}
	booking, _, err := e.bookingParties(ctx, proposal.BookingID, callerID)
	if err != nil {
		return nil, err
	}
	if proposal.ProposerID == callerID {
		return nil, apperr.ForbiddenError{Action: "answer your own proposal"}
	}
	if !proposal.IsPending() {
		return nil, apperr.InvalidStateError{Resource: "proposal", State: string(proposal.Status), Action: "answer"}
	}

	unlock, err := e.lockRide(ctx, booking.RideID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = e.Store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := loadRideForUpdate(ctx, tx, booking.RideID); err != nil {
			return err
		}
		current, err := tx.GetBooking(ctx, booking.ID)
		if err != nil {
			return fmt.Errorf("reload booking %d: %w", booking.ID, err)
		}
		if accept && current.Status != types.BOOKING_BOOKED {
			return apperr.InvalidStateError{Resource: "booking", State: string(current.Status), Action: "apply changes to"}
		}

		now := e.now().UTC()
		proposal.Status = types.PROPOSAL_REJECTED
		if accept {
			proposal.Status = types.PROPOSAL_ACCEPTED
		}
		proposal.RespondedAt = &now
		if err := tx.ResolveProposal(ctx, proposal); err != nil {
			if errors.Is(err, repository.ErrStateChanged) {
				return apperr.InvalidStateError{Resource: "proposal", State: "answered", Action: "answer"}
			}
			return fmt.Errorf("resolve proposal %d: %w", proposal.ID, err)
		}
		if !accept {
			return nil
		}
		return applyProposal(ctx, tx, current, proposal)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("User %d %s proposal %d on booking %d\n", callerID, proposal.Status, proposal.ID, proposal.BookingID)
	return proposal, nil
}

func applyProposal(ctx context.Context, tx repository.Store, booking *models.Booking, proposal *models.EditProposal) error {
	if proposal.ProposedPickup != "" {
		booking.PickupPoint = proposal.ProposedPickup
	}
	if proposal.ProposedTime != "" {
		booking.PickupTime = proposal.ProposedTime
	}
	if proposal.ProposedCost != nil {
		booking.TotalPrice = *proposal.ProposedCost
	}
	if err := tx.UpdateBookingTerms(ctx, booking); err != nil {
		return fmt.Errorf("update booking %d: %w", booking.ID, err)
	}
	if proposal.ProposedCost == nil {
		return nil
	}
	for i := range booking.Payments {
		payment := &booking.Payments[i]
		if payment.Refunded {
			continue
		}
		payment.Amount = booking.TotalPrice
		if err := tx.UpdatePayment(ctx, payment); err != nil {
			return fmt.Errorf("update payment %d: %w", payment.ID, err)
		}
		return nil
	}
	log.Printf("[integrity] booked booking %d has no open payment\n", booking.ID)
	return apperr.DataIntegrityError{Msg: fmt.Sprintf("booking %d has no open payment", booking.ID)}
}
