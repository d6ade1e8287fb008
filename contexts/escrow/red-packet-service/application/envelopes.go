package application

import (
	"encoding/json"
	"strconv"

	contractsv1 "redpacket/contracts/gen/events/v1"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

const (
	SourceService    = "red-packet-service"
	partitionKeyPath = "packet_id"
)

// BuildCreatedEnvelope renders red_packet.created for a packet that was just stored.
// Both ledger adapters use it so memory and postgres outboxes carry identical payloads.
func BuildCreatedEnvelope(event ports.OutboxEvent, packet entities.Packet) (ports.EventEnvelope, error) {
	data, err := json.Marshal(contractsv1.RedPacketCreatedData{
		PacketID:    packet.ID,
		Creator:     packet.Creator,
		TotalAmount: strconv.FormatUint(packet.TotalAmount, 10),
		PacketCount: packet.PacketCount,
		Message:     packet.Message,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newEnvelope(event, packet.ID, data), nil
}

// BuildClaimedEnvelope renders red_packet.claimed for a committed claim.
func BuildClaimedEnvelope(event ports.OutboxEvent, claim entities.Claim) (ports.EventEnvelope, error) {
	data, err := json.Marshal(contractsv1.RedPacketClaimedData{
		PacketID:         claim.PacketID,
		Claimer:          claim.Claimer,
		Amount:           strconv.FormatUint(claim.Amount, 10),
		ShareIndex:       claim.ShareIndex,
		RemainingPackets: claim.RemainingPackets,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newEnvelope(event, claim.PacketID, data), nil
}

// OutboxMessageFor serializes an envelope into the row shape stored in outboxes.
func OutboxMessageFor(envelope ports.EventEnvelope) (ports.OutboxMessage, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return ports.OutboxMessage{}, err
	}
	return ports.OutboxMessage{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt,
	}, nil
}

func newEnvelope(event ports.OutboxEvent, packetID uint64, data []byte) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:          event.EventID,
		EventType:        event.EventType,
		OccurredAt:       event.OccurredAt.UTC(),
		SourceService:    SourceService,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     strconv.FormatUint(packetID, 10),
		Data:             data,
	}
}
