package queries

import (
	"context"
	"log/slog"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type GetPacketInfoQuery struct {
	PacketID uint64
}

type GetPacketInfoResult struct {
	Packet entities.PacketView
	Found  bool
}

type GetPacketInfoUseCase struct {
	Packets ports.PacketRepository
	Logger  *slog.Logger
}

// Execute never fails on an unknown id; it reports the empty sentinel view
// with Found=false instead.
func (u GetPacketInfoUseCase) Execute(ctx context.Context, query GetPacketInfoQuery) (GetPacketInfoResult, error) {
	logger := application.ResolveLogger(u.Logger)

	lookup, err := u.Packets.GetPacket(ctx, query.PacketID)
	if err != nil {
		logger.Error("get packet info failed",
			"event", "get_packet_info_failed",
			"module", application.ModuleName,
			"layer", "application",
			"packet_id", query.PacketID,
			"error", err.Error(),
		)
		return GetPacketInfoResult{}, err
	}

	logger.Debug("get packet info completed",
		"event", "get_packet_info_completed",
		"module", application.ModuleName,
		"layer", "application",
		"packet_id", query.PacketID,
		"found", lookup.Found,
	)

	return GetPacketInfoResult{
		Packet: lookup.View(),
		Found:  lookup.Found,
	}, nil
}
