package services

import (
	"time"

	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

// EvaluateClaimEligibility applies the claim preconditions in order; the
// first failing check decides the error.
func EvaluateClaimEligibility(lookup entities.PacketLookup, claimer string) error {
	if !lookup.Found {
		return domainerrors.ErrPacketNotFound
	}
	packet := lookup.Packet
	if packet.RemainingPackets <= 0 {
		return domainerrors.ErrPacketExhausted
	}
	if claimer == packet.Creator {
		return domainerrors.ErrSelfClaimForbidden
	}
	if packet.HasClaimed(claimer) {
		return domainerrors.ErrAlreadyClaimed
	}
	return nil
}

// ClaimShare evaluates eligibility and, when allowed, returns the packet state
// after the claim. Callers must hold the packet's write lock (or row lock)
// between reading the lookup and persisting the result.
func ClaimShare(
	lookup entities.PacketLookup,
	claimer string,
	claimedAt time.Time,
) (entities.Packet, entities.Claim, error) {
	if err := EvaluateClaimEligibility(lookup, claimer); err != nil {
		return entities.Packet{}, entities.Claim{}, err
	}
	return lookup.Packet.WithClaim(claimer, claimedAt)
}
