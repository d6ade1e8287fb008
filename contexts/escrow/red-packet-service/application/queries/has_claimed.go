package queries

import (
	"context"
	"log/slog"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/valueobjects"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type HasClaimedQuery struct {
	PacketID uint64
	Identity string
}

type HasClaimedResult struct {
	Claimed bool
}

type HasClaimedUseCase struct {
	Packets ports.PacketRepository
	Logger  *slog.Logger
}

// Execute answers false for unknown packets and for identities that could
// never have claimed (empty or the zero address).
func (u HasClaimedUseCase) Execute(ctx context.Context, query HasClaimedQuery) (HasClaimedResult, error) {
	identity, err := valueobjects.NormalizeIdentity(query.Identity)
	if err != nil {
		return HasClaimedResult{}, nil
	}

	claimed, err := u.Packets.HasClaimed(ctx, query.PacketID, identity)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("has claimed lookup failed",
			"event", "has_claimed_failed",
			"module", application.ModuleName,
			"layer", "application",
			"packet_id", query.PacketID,
			"identity", identity,
			"error", err.Error(),
		)
		return HasClaimedResult{}, err
	}
	return HasClaimedResult{Claimed: claimed}, nil
}
