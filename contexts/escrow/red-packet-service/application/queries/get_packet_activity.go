package queries

import (
	"context"
	"log/slog"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type GetPacketActivityQuery struct {
	PacketID uint64
}

type GetPacketActivityResult struct {
	Items []entities.ActivityEntry
}

type GetPacketActivityUseCase struct {
	Activity ports.ActivityStore
	Logger   *slog.Logger
}

// Execute reads the projected feed. The projection is eventually consistent
// with the ledger: entries appear once the outbox relay has delivered them.
func (u GetPacketActivityUseCase) Execute(ctx context.Context, query GetPacketActivityQuery) (GetPacketActivityResult, error) {
	items, err := u.Activity.ListActivity(ctx, query.PacketID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("get packet activity failed",
			"event", "get_packet_activity_failed",
			"module", application.ModuleName,
			"layer", "application",
			"packet_id", query.PacketID,
			"error", err.Error(),
		)
		return GetPacketActivityResult{}, err
	}
	if items == nil {
		items = []entities.ActivityEntry{}
	}
	return GetPacketActivityResult{Items: items}, nil
}
