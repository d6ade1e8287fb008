package entities

import (
	"time"
	"unicode/utf8"

	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/valueobjects"
)

const (
	MinPacketCount     = 1
	MaxPacketCount     = 100
	DefaultPacketCount = 5
	MaxMessageRunes    = 140
)

type PacketStatus string

const (
	PacketStatusActive    PacketStatus = "active"
	PacketStatusExhausted PacketStatus = "exhausted"
)

// PacketDraft is a validated packet that has not been assigned an id yet.
// The ledger assigns ids, so drafts only become packets inside a repository.
type PacketDraft struct {
	Creator      string
	TotalAmount  uint64
	ShareAmounts []uint64
	Message      string
	CreatedAt    time.Time
}

func NewPacketDraft(
	creator string,
	totalAmount uint64,
	shareAmounts []uint64,
	message string,
	createdAt time.Time,
) (PacketDraft, error) {
	if creator == "" {
		return PacketDraft{}, domainerrors.ErrInvalidCaller
	}
	if totalAmount == 0 {
		return PacketDraft{}, domainerrors.ErrInvalidAmount
	}
	if len(shareAmounts) < MinPacketCount || len(shareAmounts) > MaxPacketCount {
		return PacketDraft{}, domainerrors.ErrInvalidCount
	}
	if utf8.RuneCountInString(message) > MaxMessageRunes {
		return PacketDraft{}, domainerrors.ErrInvalidMessage
	}
	var sum uint64
	for _, share := range shareAmounts {
		if share == 0 {
			return PacketDraft{}, domainerrors.ErrInvalidAllocation
		}
		sum += share
	}
	if sum != totalAmount {
		return PacketDraft{}, domainerrors.ErrInvalidAllocation
	}
	if createdAt.IsZero() {
		return PacketDraft{}, domainerrors.ErrRepositoryInvariantBroke
	}

	return PacketDraft{
		Creator:      creator,
		TotalAmount:  totalAmount,
		ShareAmounts: append([]uint64(nil), shareAmounts...),
		Message:      message,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

// Materialize turns the draft into an active packet with the given ledger id.
func (d PacketDraft) Materialize(id uint64) Packet {
	return Packet{
		ID:               id,
		Creator:          d.Creator,
		TotalAmount:      d.TotalAmount,
		RemainingAmount:  d.TotalAmount,
		PacketCount:      len(d.ShareAmounts),
		RemainingPackets: len(d.ShareAmounts),
		ShareAmounts:     append([]uint64(nil), d.ShareAmounts...),
		Claimants:        []string{},
		ClaimedBy:        map[string]uint64{},
		Message:          d.Message,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.CreatedAt,
	}
}

// Packet is one escrow instance. It is mutated only through WithClaim.
type Packet struct {
	ID               uint64
	Creator          string
	TotalAmount      uint64
	RemainingAmount  uint64
	PacketCount      int
	RemainingPackets int
	ShareAmounts     []uint64
	Claimants        []string
	ClaimedBy        map[string]uint64
	Message          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p Packet) Status() PacketStatus {
	if p.RemainingPackets == 0 {
		return PacketStatusExhausted
	}
	return PacketStatusActive
}

func (p Packet) HasClaimed(identity string) bool {
	_, ok := p.ClaimedBy[identity]
	return ok
}

// NextShareIndex is the position in ShareAmounts the next claim consumes.
func (p Packet) NextShareIndex() int {
	return p.PacketCount - p.RemainingPackets
}

// WithClaim returns a copy of the packet with one more share consumed by
// claimer. Eligibility must already be evaluated; the checks here only guard
// the bookkeeping invariants.
func (p Packet) WithClaim(claimer string, claimedAt time.Time) (Packet, Claim, error) {
	index := p.NextShareIndex()
	if p.RemainingPackets <= 0 || index < 0 || index >= len(p.ShareAmounts) {
		return Packet{}, Claim{}, domainerrors.ErrRepositoryInvariantBroke
	}
	amount := p.ShareAmounts[index]
	if amount > p.RemainingAmount {
		return Packet{}, Claim{}, domainerrors.ErrRepositoryInvariantBroke
	}

	next := p.Clone()
	next.RemainingAmount -= amount
	next.RemainingPackets--
	next.Claimants = append(next.Claimants, claimer)
	next.ClaimedBy[claimer] = amount
	next.UpdatedAt = claimedAt.UTC()

	// The last share absorbs the allocation remainder, so both counters
	// reach zero together.
	if (next.RemainingPackets == 0) != (next.RemainingAmount == 0) {
		return Packet{}, Claim{}, domainerrors.ErrRepositoryInvariantBroke
	}

	return next, Claim{
		PacketID:         p.ID,
		Claimer:          claimer,
		Amount:           amount,
		ShareIndex:       index,
		RemainingAmount:  next.RemainingAmount,
		RemainingPackets: next.RemainingPackets,
		ClaimedAt:        claimedAt.UTC(),
	}, nil
}

// Clone deep-copies the packet so snapshots never share backing arrays.
func (p Packet) Clone() Packet {
	out := p
	out.ShareAmounts = append([]uint64(nil), p.ShareAmounts...)
	out.Claimants = append([]string{}, p.Claimants...)
	out.ClaimedBy = make(map[string]uint64, len(p.ClaimedBy))
	for identity, amount := range p.ClaimedBy {
		out.ClaimedBy[identity] = amount
	}
	return out
}

func (p Packet) View() PacketView {
	return PacketView{
		ID:               p.ID,
		Creator:          p.Creator,
		TotalAmount:      p.TotalAmount,
		RemainingAmount:  p.RemainingAmount,
		PacketCount:      p.PacketCount,
		RemainingPackets: p.RemainingPackets,
		Claimants:        append([]string{}, p.Claimants...),
		Message:          p.Message,
		Status:           p.Status(),
		CreatedAt:        p.CreatedAt,
	}
}

// PacketView is the read-side shape returned by info queries.
type PacketView struct {
	ID               uint64
	Creator          string
	TotalAmount      uint64
	RemainingAmount  uint64
	PacketCount      int
	RemainingPackets int
	Claimants        []string
	Message          string
	Status           PacketStatus
	CreatedAt        time.Time
}

// EmptyPacketView is reported for ids that were never created.
func EmptyPacketView() PacketView {
	return PacketView{
		Creator:   valueobjects.ZeroIdentity,
		Claimants: []string{},
	}
}

// PacketLookup tags a repository read with whether the packet exists.
type PacketLookup struct {
	Packet Packet
	Found  bool
}

func Found(packet Packet) PacketLookup {
	return PacketLookup{Packet: packet, Found: true}
}

func Missing() PacketLookup {
	return PacketLookup{}
}

// View collapses the lookup into the read API shape; missing packets become
// the zero-valued sentinel view instead of an error.
func (l PacketLookup) View() PacketView {
	if !l.Found {
		return EmptyPacketView()
	}
	return l.Packet.View()
}
