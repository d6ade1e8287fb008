package ports

import (
	"context"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
)

// PacketListFilter defines read-side pagination over the ledger.
type PacketListFilter struct {
	Cursor string
	Limit  int
}

// OutboxEvent carries the identity of the integration event a ledger write emits.
// Repositories build the payload from the packet state they commit.
type OutboxEvent struct {
	EventID    string
	EventType  string
	OccurredAt time.Time
}

// PacketRepository owns the ledger: id assignment, packet storage and the
// serialization of claims on a single packet.
type PacketRepository interface {
	// CreatePacketWithOutbox assigns the next id and stores the packet and its
	// created event atomically. A non-nil idempotency record is bound to the new
	// packet in the same write; if its key is already bound to the same request
	// hash, the bound packet is returned with replayed=true and nothing is
	// written, and a different hash fails with ErrIdempotencyKeyConflict.
	CreatePacketWithOutbox(
		ctx context.Context,
		draft entities.PacketDraft,
		event OutboxEvent,
		idempotency *IdempotencyRecord,
	) (packet entities.Packet, replayed bool, err error)
	// ClaimShareWithOutbox serializes claims per packet: it evaluates
	// eligibility against the locked state, persists the new packet state and
	// appends the claimed event, or changes nothing.
	ClaimShareWithOutbox(
		ctx context.Context,
		packetID uint64,
		claimer string,
		claimedAt time.Time,
		event OutboxEvent,
	) (entities.Claim, error)
	GetPacket(ctx context.Context, packetID uint64) (entities.PacketLookup, error)
	HasClaimed(ctx context.Context, packetID uint64, identity string) (bool, error)
	ListPackets(ctx context.Context, filter PacketListFilter) ([]entities.Packet, string, error)
	// CountPackets returns the next id to be assigned.
	CountPackets(ctx context.Context) (uint64, error)
}

// IdempotencyRecord captures dedupe metadata for create requests. PacketID is
// assigned by the ledger when the record is bound.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	PacketID    uint64
	ExpiresAt   time.Time
}

// IdempotencyStore is the read side of create idempotency; records are written
// by PacketRepository.CreatePacketWithOutbox.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
}

// ActivityStore persists the projected packet activity feed.
type ActivityStore interface {
	AppendActivity(ctx context.Context, entry entities.ActivityEntry) error
	ListActivity(ctx context.Context, packetID uint64) ([]entities.ActivityEntry, error)
}

// RandomSource feeds the split allocator. Uint64N returns a value in [0, n).
type RandomSource interface {
	Uint64N(n uint64) uint64
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventDedupStore provides idempotent processing guarantees for consumed events.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// EventSubscriber registers a topic consumer callback.
type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
