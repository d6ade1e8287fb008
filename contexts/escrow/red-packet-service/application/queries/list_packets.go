package queries

import (
	"context"
	"log/slog"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ListPacketsQuery struct {
	Cursor string
	Limit  int
}

type ListPacketsResult struct {
	Items      []entities.PacketView
	NextCursor string
}

type ListPacketsUseCase struct {
	Packets ports.PacketRepository
	Logger  *slog.Logger
}

func (u ListPacketsUseCase) Execute(ctx context.Context, query ListPacketsQuery) (ListPacketsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	packets, nextCursor, err := u.Packets.ListPackets(ctx, ports.PacketListFilter{
		Cursor: query.Cursor,
		Limit:  limit,
	})
	if err != nil {
		logger.Warn("list packets failed",
			"event", "list_packets_failed",
			"module", application.ModuleName,
			"layer", "application",
			"error", err.Error(),
		)
		return ListPacketsResult{}, err
	}

	items := make([]entities.PacketView, 0, len(packets))
	for _, packet := range packets {
		items = append(items, packet.View())
	}

	logger.Info("list packets completed",
		"event", "list_packets_completed",
		"module", application.ModuleName,
		"layer", "application",
		"items_count", len(items),
		"has_next_cursor", nextCursor != "",
	)

	return ListPacketsResult{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

type PacketCountUseCase struct {
	Packets ports.PacketRepository
}

// Execute returns the id the next created packet will receive, which is also
// the number of packets created so far.
func (u PacketCountUseCase) Execute(ctx context.Context) (uint64, error) {
	return u.Packets.CountPackets(ctx)
}
