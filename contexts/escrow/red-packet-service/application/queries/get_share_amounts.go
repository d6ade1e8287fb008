package queries

import (
	"context"
	"log/slog"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type GetShareAmountsQuery struct {
	PacketID uint64
}

type GetShareAmountsResult struct {
	Shares []uint64
}

type GetShareAmountsUseCase struct {
	Packets ports.PacketRepository
	Logger  *slog.Logger
}

// Execute returns the full precomputed share vector, including shares that
// were already claimed. Unknown packets yield an empty vector.
func (u GetShareAmountsUseCase) Execute(ctx context.Context, query GetShareAmountsQuery) (GetShareAmountsResult, error) {
	lookup, err := u.Packets.GetPacket(ctx, query.PacketID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("get share amounts failed",
			"event", "get_share_amounts_failed",
			"module", application.ModuleName,
			"layer", "application",
			"packet_id", query.PacketID,
			"error", err.Error(),
		)
		return GetShareAmountsResult{}, err
	}
	if !lookup.Found {
		return GetShareAmountsResult{Shares: []uint64{}}, nil
	}
	return GetShareAmountsResult{
		Shares: append([]uint64{}, lookup.Packet.ShareAmounts...),
	}, nil
}
