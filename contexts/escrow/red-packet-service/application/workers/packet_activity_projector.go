package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

const defaultProjectorConsumerGroup = "red-packet-activity-cg"

// PacketActivityProjector consumes red packet events and maintains the
// per-packet activity feed.
type PacketActivityProjector struct {
	Subscriber    ports.EventSubscriber
	Activity      ports.ActivityStore
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	Topic         string
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (p PacketActivityProjector) Start(ctx context.Context) error {
	topic := p.Topic
	if topic == "" {
		topic = contractsv1.RedPacketEventsTopic
	}
	group := p.ConsumerGroup
	if group == "" {
		group = defaultProjectorConsumerGroup
	}
	return p.Subscriber.Subscribe(ctx, topic, group, p.Handle)
}

// Handle projects one envelope. Replayed event ids are acknowledged without
// touching the feed.
func (p PacketActivityProjector) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(p.Logger)

	entry, ok, err := activityFromEnvelope(event)
	if err != nil {
		logger.Error("packet event decode failed",
			"event", "red_packet_activity_decode_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	if !ok {
		return nil
	}

	now := p.now()
	alreadyProcessed, err := p.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(p.dedupTTL()))
	if err != nil {
		logger.Error("packet event dedupe failed",
			"event", "red_packet_activity_dedupe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("packet event already processed",
			"event", "red_packet_activity_event_replayed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	if err := p.Activity.AppendActivity(ctx, entry); err != nil {
		logger.Error("packet activity append failed",
			"event", "red_packet_activity_append_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"packet_id", entry.PacketID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("packet event projected",
		"event", "red_packet_activity_projected",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"packet_id", entry.PacketID,
	)
	return nil
}

func activityFromEnvelope(event ports.EventEnvelope) (entities.ActivityEntry, bool, error) {
	switch event.EventType {
	case contractsv1.RedPacketCreatedEventType:
		var data contractsv1.RedPacketCreatedData
		if err := event.DecodeData(&data); err != nil {
			return entities.ActivityEntry{}, false, err
		}
		amount, err := strconv.ParseUint(data.TotalAmount, 10, 64)
		if err != nil {
			return entities.ActivityEntry{}, false, fmt.Errorf("decode total_amount: %w", err)
		}
		return entities.ActivityEntry{
			EventID:    event.EventID,
			PacketID:   data.PacketID,
			Type:       entities.ActivityTypeCreated,
			Actor:      data.Creator,
			Amount:     amount,
			OccurredAt: event.OccurredAt.UTC(),
		}, true, nil
	case contractsv1.RedPacketClaimedEventType:
		var data contractsv1.RedPacketClaimedData
		if err := event.DecodeData(&data); err != nil {
			return entities.ActivityEntry{}, false, err
		}
		amount, err := strconv.ParseUint(data.Amount, 10, 64)
		if err != nil {
			return entities.ActivityEntry{}, false, fmt.Errorf("decode amount: %w", err)
		}
		return entities.ActivityEntry{
			EventID:    event.EventID,
			PacketID:   data.PacketID,
			Type:       entities.ActivityTypeClaimed,
			Actor:      data.Claimer,
			Amount:     amount,
			OccurredAt: event.OccurredAt.UTC(),
		}, true, nil
	default:
		return entities.ActivityEntry{}, false, nil
	}
}

func (p PacketActivityProjector) dedupTTL() time.Duration {
	if p.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return p.DedupTTL
}

func (p PacketActivityProjector) now() time.Time {
	if p.Clock == nil {
		return time.Now().UTC()
	}
	return p.Clock.Now().UTC()
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
