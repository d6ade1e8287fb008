package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/domain/valueobjects"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

type CreatePacketCommand struct {
	Creator        string
	Amount         uint64
	Count          int
	Message        string
	IdempotencyKey string
}

type CreatePacketResult struct {
	Packet   entities.Packet
	Replayed bool
}

type CreatePacketUseCase struct {
	Packets        ports.PacketRepository
	Idempotency    ports.IdempotencyStore
	Random         ports.RandomSource
	Clock          ports.Clock
	IDGenerator    ports.IDGenerator
	AmountPolicy   services.AmountPolicy
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Execute runs the create workflow in this order:
// 1) input validation (caller, amount, count, message)
// 2) idempotency lookup/replay when a key is supplied
// 3) share allocation
// 4) atomic id assignment + packet + outbox + idempotency binding.
func (u CreatePacketUseCase) Execute(ctx context.Context, cmd CreatePacketCommand) (CreatePacketResult, error) {
	logger := application.ResolveLogger(u.Logger)

	creator, err := valueobjects.NormalizeIdentity(cmd.Creator)
	if err != nil {
		return CreatePacketResult{}, err
	}
	if err := u.AmountPolicy.ValidateAmount(cmd.Amount); err != nil {
		logger.Warn("create packet rejected amount",
			"event", "create_packet_invalid_amount",
			"module", application.ModuleName,
			"layer", "application",
			"creator", creator,
			"amount", cmd.Amount,
			"error", err.Error(),
		)
		return CreatePacketResult{}, err
	}
	if err := services.ValidatePacketCount(cmd.Count); err != nil {
		return CreatePacketResult{}, err
	}
	if err := services.ValidateMessage(cmd.Message); err != nil {
		return CreatePacketResult{}, err
	}

	now := u.now()
	idempotencyKey := strings.TrimSpace(cmd.IdempotencyKey)
	requestHash := hashCreateRequest(creator, cmd)

	logger.Info("create packet started",
		"event", "create_packet_started",
		"module", application.ModuleName,
		"layer", "application",
		"creator", creator,
		"amount", cmd.Amount,
		"count", cmd.Count,
	)

	if idempotencyKey != "" && u.Idempotency != nil {
		record, found, err := u.Idempotency.Get(ctx, idempotencyKey, now)
		if err != nil {
			logger.Error("idempotency get failed",
				"event", "create_packet_idempotency_get_failed",
				"module", application.ModuleName,
				"layer", "application",
				"creator", creator,
				"error", err.Error(),
			)
			return CreatePacketResult{}, err
		}
		if found {
			// A reused idempotency key must map to an identical request payload.
			if record.RequestHash != requestHash {
				logger.Warn("idempotency key conflict",
					"event", "create_packet_idempotency_conflict",
					"module", application.ModuleName,
					"layer", "application",
					"creator", creator,
				)
				return CreatePacketResult{}, domainerrors.ErrIdempotencyKeyConflict
			}
			lookup, err := u.Packets.GetPacket(ctx, record.PacketID)
			if err != nil {
				return CreatePacketResult{}, err
			}
			if !lookup.Found {
				return CreatePacketResult{}, domainerrors.ErrRepositoryInvariantBroke
			}
			logger.Info("create packet replayed from idempotency",
				"event", "create_packet_replayed",
				"module", application.ModuleName,
				"layer", "application",
				"packet_id", record.PacketID,
			)
			return CreatePacketResult{Packet: lookup.Packet, Replayed: true}, nil
		}
	}

	shares, err := services.AllocateShares(cmd.Amount, cmd.Count, u.random())
	if err != nil {
		logger.Warn("create packet allocation failed",
			"event", "create_packet_allocation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"amount", cmd.Amount,
			"count", cmd.Count,
			"error", err.Error(),
		)
		return CreatePacketResult{}, err
	}

	draft, err := entities.NewPacketDraft(creator, cmd.Amount, shares, cmd.Message, now)
	if err != nil {
		return CreatePacketResult{}, err
	}

	var binding *ports.IdempotencyRecord
	if idempotencyKey != "" && u.Idempotency != nil {
		binding = &ports.IdempotencyRecord{
			Key:         idempotencyKey,
			RequestHash: requestHash,
			ExpiresAt:   now.Add(u.idempotencyTTL()),
		}
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreatePacketResult{}, err
	}
	packet, replayed, err := u.Packets.CreatePacketWithOutbox(ctx, draft, ports.OutboxEvent{
		EventID:    eventID,
		EventType:  contractsv1.RedPacketCreatedEventType,
		OccurredAt: now,
	}, binding)
	if errors.Is(err, domainerrors.ErrIdempotencyKeyConflict) {
		logger.Warn("idempotency key conflict",
			"event", "create_packet_idempotency_conflict",
			"module", application.ModuleName,
			"layer", "application",
			"creator", creator,
		)
		return CreatePacketResult{}, err
	}
	if err != nil {
		logger.Error("create packet failed on write transaction",
			"event", "create_packet_write_failed",
			"module", application.ModuleName,
			"layer", "application",
			"creator", creator,
			"error", err.Error(),
		)
		return CreatePacketResult{}, err
	}
	if replayed {
		// A concurrent request with the same key won the write.
		logger.Info("create packet replayed from idempotency",
			"event", "create_packet_replayed",
			"module", application.ModuleName,
			"layer", "application",
			"packet_id", packet.ID,
		)
		return CreatePacketResult{Packet: packet, Replayed: true}, nil
	}

	logger.Info("red packet created",
		"event", "red_packet_created",
		"module", application.ModuleName,
		"layer", "application",
		"packet_id", packet.ID,
		"creator", packet.Creator,
		"total_amount", packet.TotalAmount,
		"packet_count", packet.PacketCount,
	)

	return CreatePacketResult{Packet: packet}, nil
}

func (u CreatePacketUseCase) random() ports.RandomSource {
	if u.Random == nil {
		return runtimeRandom{}
	}
	return u.Random
}

func (u CreatePacketUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u CreatePacketUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}

type runtimeRandom struct{}

func (runtimeRandom) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

func hashCreateRequest(creator string, cmd CreatePacketCommand) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s", creator, cmd.Amount, cmd.Count, cmd.Message)))
	return hex.EncodeToString(sum[:])
}
