package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/valueobjects"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type ClaimPacketCommand struct {
	PacketID uint64
	Claimer  string
}

type ClaimPacketResult struct {
	Claim entities.Claim
}

type ClaimPacketUseCase struct {
	Packets     ports.PacketRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute withdraws the next share of a packet for the caller. Eligibility is
// evaluated by the repository while it holds the packet lock, so two claims
// racing for the last share cannot both succeed.
func (u ClaimPacketUseCase) Execute(ctx context.Context, cmd ClaimPacketCommand) (ClaimPacketResult, error) {
	logger := application.ResolveLogger(u.Logger)

	claimer, err := valueobjects.NormalizeIdentity(cmd.Claimer)
	if err != nil {
		return ClaimPacketResult{}, err
	}

	now := u.now()
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return ClaimPacketResult{}, err
	}

	claim, err := u.Packets.ClaimShareWithOutbox(ctx, cmd.PacketID, claimer, now, ports.OutboxEvent{
		EventID:    eventID,
		EventType:  contractsv1.RedPacketClaimedEventType,
		OccurredAt: now,
	})
	if err != nil {
		if isClaimRejection(err) {
			logger.Warn("claim packet rejected",
				"event", "claim_packet_rejected",
				"module", application.ModuleName,
				"layer", "application",
				"packet_id", cmd.PacketID,
				"claimer", claimer,
				"error", err.Error(),
			)
		} else {
			logger.Error("claim packet failed on write transaction",
				"event", "claim_packet_write_failed",
				"module", application.ModuleName,
				"layer", "application",
				"packet_id", cmd.PacketID,
				"claimer", claimer,
				"error", err.Error(),
			)
		}
		return ClaimPacketResult{}, err
	}

	logger.Info("red packet claimed",
		"event", "red_packet_claimed",
		"module", application.ModuleName,
		"layer", "application",
		"packet_id", claim.PacketID,
		"claimer", claim.Claimer,
		"amount", claim.Amount,
		"remaining_packets", claim.RemainingPackets,
	)

	return ClaimPacketResult{Claim: claim}, nil
}

func (u ClaimPacketUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

func isClaimRejection(err error) bool {
	return errors.Is(err, domainerrors.ErrPacketNotFound) ||
		errors.Is(err, domainerrors.ErrPacketExhausted) ||
		errors.Is(err, domainerrors.ErrSelfClaimForbidden) ||
		errors.Is(err, domainerrors.ErrAlreadyClaimed)
}
