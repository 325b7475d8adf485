package models

import (
	"ridepool/src/types"
	"time"
)

// EditProposal is a change to a booking's pickup point, pickup time or
// cost offered by one side and answered by the other.
type EditProposal struct {
	ID             uint                 `gorm:"primarykey" json:"id"`
	BookingID      uint                 `gorm:"index" json:"booking_id"`
	ProposerID     uint                 `gorm:"index" json:"proposer_id"`
	ProposedPickup string               `json:"proposed_pickup,omitempty"`
	ProposedTime   string               `json:"proposed_time,omitempty"`
	ProposedCost   *float64             `json:"proposed_cost,omitempty"`
	Status         types.ProposalStatus `gorm:"index;default:'pending'" json:"status"`
	RespondedAt    *time.Time           `json:"responded_at,omitempty"`

	types.Timestamps
}

func (p *EditProposal) IsPending() bool {
	return p.Status == types.PROPOSAL_PENDING
}
