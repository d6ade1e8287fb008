package postgresadapter

import (
	"database/sql"
	"strconv"
	"time"

	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

// Amounts are stored as numeric(20,0) so the full uint64 range fits; they
// travel through gorm as decimal strings.

type sequenceModel struct {
	Name      string `gorm:"column:name;primaryKey"`
	NextValue uint64 `gorm:"column:next_value;type:bigint;not null"`
}

func (sequenceModel) TableName() string {
	return "red_packet_sequences"
}

type packetModel struct {
	PacketID         uint64    `gorm:"column:packet_id;primaryKey;autoIncrement:false;type:bigint"`
	Creator          string    `gorm:"column:creator;not null;index"`
	TotalAmount      string    `gorm:"column:total_amount;type:numeric(20,0);not null"`
	RemainingAmount  string    `gorm:"column:remaining_amount;type:numeric(20,0);not null"`
	PacketCount      int       `gorm:"column:packet_count;not null"`
	RemainingPackets int       `gorm:"column:remaining_packets;not null"`
	ShareAmounts     []byte    `gorm:"column:share_amounts;type:jsonb;not null"`
	Message          string    `gorm:"column:message"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (packetModel) TableName() string {
	return "red_packets"
}

func packetModelFromEntity(packet entities.Packet) (packetModel, error) {
	shares, err := encodeShares(packet.ShareAmounts)
	if err != nil {
		return packetModel{}, err
	}
	return packetModel{
		PacketID:         packet.ID,
		Creator:          packet.Creator,
		TotalAmount:      strconv.FormatUint(packet.TotalAmount, 10),
		RemainingAmount:  strconv.FormatUint(packet.RemainingAmount, 10),
		PacketCount:      packet.PacketCount,
		RemainingPackets: packet.RemainingPackets,
		ShareAmounts:     shares,
		Message:          packet.Message,
		CreatedAt:        packet.CreatedAt.UTC(),
		UpdatedAt:        packet.UpdatedAt.UTC(),
	}, nil
}

// toEntity rebuilds the packet from its row and its claim rows ordered by
// share index.
func (m packetModel) toEntity(claims []claimModel) (entities.Packet, error) {
	total, err := strconv.ParseUint(m.TotalAmount, 10, 64)
	if err != nil {
		return entities.Packet{}, err
	}
	remaining, err := strconv.ParseUint(m.RemainingAmount, 10, 64)
	if err != nil {
		return entities.Packet{}, err
	}
	shares, err := decodeShares(m.ShareAmounts)
	if err != nil {
		return entities.Packet{}, err
	}
	if len(claims) != m.PacketCount-m.RemainingPackets {
		return entities.Packet{}, domainerrors.ErrRepositoryInvariantBroke
	}

	packet := entities.Packet{
		ID:               m.PacketID,
		Creator:          m.Creator,
		TotalAmount:      total,
		RemainingAmount:  remaining,
		PacketCount:      m.PacketCount,
		RemainingPackets: m.RemainingPackets,
		ShareAmounts:     shares,
		Claimants:        make([]string, 0, len(claims)),
		ClaimedBy:        make(map[string]uint64, len(claims)),
		Message:          m.Message,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
	for _, claim := range claims {
		amount, err := strconv.ParseUint(claim.Amount, 10, 64)
		if err != nil {
			return entities.Packet{}, err
		}
		packet.Claimants = append(packet.Claimants, claim.Claimer)
		packet.ClaimedBy[claim.Claimer] = amount
	}
	return packet, nil
}

type claimModel struct {
	PacketID   uint64    `gorm:"column:packet_id;primaryKey;autoIncrement:false;type:bigint;uniqueIndex:red_packet_claims_unique_share,priority:1"`
	Claimer    string    `gorm:"column:claimer;primaryKey"`
	Amount     string    `gorm:"column:amount;type:numeric(20,0);not null"`
	ShareIndex int       `gorm:"column:share_index;not null;uniqueIndex:red_packet_claims_unique_share,priority:2"`
	ClaimedAt  time.Time `gorm:"column:claimed_at"`
}

func (claimModel) TableName() string {
	return "red_packet_claims"
}

func claimModelFromEntity(claim entities.Claim) claimModel {
	return claimModel{
		PacketID:   claim.PacketID,
		Claimer:    claim.Claimer,
		Amount:     strconv.FormatUint(claim.Amount, 10),
		ShareIndex: claim.ShareIndex,
		ClaimedAt:  claim.ClaimedAt.UTC(),
	}
}

type idempotencyModel struct {
	Key         string    `gorm:"column:key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	PacketID    uint64    `gorm:"column:packet_id;type:bigint"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "red_packet_idempotency"
}

func (m idempotencyModel) toPort() ports.IdempotencyRecord {
	return ports.IdempotencyRecord{
		Key:         m.Key,
		RequestHash: m.RequestHash,
		PacketID:    m.PacketID,
		ExpiresAt:   m.ExpiresAt.UTC(),
	}
}

type outboxModel struct {
	Seq          uint64     `gorm:"column:seq;autoIncrement;uniqueIndex"`
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "red_packet_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "red_packet_event_dedup"
}

type activityModel struct {
	Seq        uint64    `gorm:"column:seq;autoIncrement;uniqueIndex"`
	EventID    string    `gorm:"column:event_id;primaryKey"`
	PacketID   uint64    `gorm:"column:packet_id;type:bigint;index"`
	Type       string    `gorm:"column:type"`
	Actor      string    `gorm:"column:actor"`
	Amount     string    `gorm:"column:amount;type:numeric(20,0)"`
	OccurredAt time.Time `gorm:"column:occurred_at"`
}

func (activityModel) TableName() string {
	return "red_packet_activity"
}

func (m activityModel) toEntity() (entities.ActivityEntry, error) {
	amount, err := strconv.ParseUint(m.Amount, 10, 64)
	if err != nil {
		return entities.ActivityEntry{}, err
	}
	return entities.ActivityEntry{
		EventID:    m.EventID,
		PacketID:   m.PacketID,
		Type:       entities.ActivityType(m.Type),
		Actor:      m.Actor,
		Amount:     amount,
		OccurredAt: m.OccurredAt.UTC(),
	}, nil
}

func readSnapshot() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}
