package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/ports"
)

// Store is an in-memory ledger for local runtime and tests.
//
// Lock order is packets -> record -> aux. The packets lock only guards the
// append-only slice (and so id assignment); each packet record carries its
// own lock, so claims on different packets never wait on each other.
type Store struct {
	packetsMu sync.RWMutex
	packets   []*packetRecord

	auxMu       sync.RWMutex
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	eventDedup  map[string]string
	activity    map[uint64][]entities.ActivityEntry

	sequence uint64
	logger   *slog.Logger
}

type packetRecord struct {
	mu     sync.RWMutex
	packet entities.Packet
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		packets:     make([]*packetRecord, 0),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		eventDedup:  make(map[string]string),
		activity:    make(map[uint64][]entities.ActivityEntry),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) CreatePacketWithOutbox(
	_ context.Context,
	draft entities.PacketDraft,
	event ports.OutboxEvent,
	idempotency *ports.IdempotencyRecord,
) (entities.Packet, bool, error) {
	s.packetsMu.Lock()
	defer s.packetsMu.Unlock()

	// Holding the packets lock serializes creates, so the key check and the
	// binding below cannot interleave with another create.
	if idempotency != nil {
		bound, found, err := s.boundIdempotency(*idempotency, draft.CreatedAt)
		if err != nil {
			return entities.Packet{}, false, err
		}
		if found {
			if bound >= uint64(len(s.packets)) {
				return entities.Packet{}, false, domainerrors.ErrRepositoryInvariantBroke
			}
			record := s.packets[bound]
			record.mu.RLock()
			packet := record.packet.Clone()
			record.mu.RUnlock()
			return packet, true, nil
		}
	}

	packet := draft.Materialize(uint64(len(s.packets)))
	envelope, err := application.BuildCreatedEnvelope(event, packet)
	if err != nil {
		return entities.Packet{}, false, err
	}
	message, err := application.OutboxMessageFor(envelope)
	if err != nil {
		return entities.Packet{}, false, err
	}
	if err := s.appendOutbox(message, idempotency, packet.ID); err != nil {
		return entities.Packet{}, false, err
	}
	s.packets = append(s.packets, &packetRecord{packet: packet})

	s.logger.Info("packet and outbox persisted in memory store",
		"event", "memory_create_packet_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"packet_id", packet.ID,
		"outbox_event_id", event.EventID,
	)
	return packet.Clone(), false, nil
}

func (s *Store) ClaimShareWithOutbox(
	_ context.Context,
	packetID uint64,
	claimer string,
	claimedAt time.Time,
	event ports.OutboxEvent,
) (entities.Claim, error) {
	record, ok := s.record(packetID)
	if !ok {
		return entities.Claim{}, domainerrors.ErrPacketNotFound
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	// Eligibility and the state change happen under the same packet lock; the
	// outbox append is the last fallible step so a failure leaves the packet
	// untouched.
	next, claim, err := services.ClaimShare(entities.Found(record.packet), claimer, claimedAt)
	if err != nil {
		return entities.Claim{}, err
	}
	envelope, err := application.BuildClaimedEnvelope(event, claim)
	if err != nil {
		return entities.Claim{}, err
	}
	message, err := application.OutboxMessageFor(envelope)
	if err != nil {
		return entities.Claim{}, err
	}
	if err := s.appendOutbox(message, nil, packetID); err != nil {
		return entities.Claim{}, err
	}
	record.packet = next

	s.logger.Info("claim and outbox persisted in memory store",
		"event", "memory_claim_share_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"packet_id", packetID,
		"claimer", claimer,
		"outbox_event_id", event.EventID,
	)
	return claim, nil
}

func (s *Store) GetPacket(_ context.Context, packetID uint64) (entities.PacketLookup, error) {
	record, ok := s.record(packetID)
	if !ok {
		return entities.Missing(), nil
	}
	record.mu.RLock()
	defer record.mu.RUnlock()
	return entities.Found(record.packet.Clone()), nil
}

func (s *Store) HasClaimed(_ context.Context, packetID uint64, identity string) (bool, error) {
	record, ok := s.record(packetID)
	if !ok {
		return false, nil
	}
	record.mu.RLock()
	defer record.mu.RUnlock()
	return record.packet.HasClaimed(identity), nil
}

func (s *Store) ListPackets(_ context.Context, filter ports.PacketListFilter) ([]entities.Packet, string, error) {
	start, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	s.packetsMu.RLock()
	total := len(s.packets)
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	records := append([]*packetRecord(nil), s.packets[start:end]...)
	s.packetsMu.RUnlock()

	page := make([]entities.Packet, 0, len(records))
	for _, record := range records {
		record.mu.RLock()
		page = append(page, record.packet.Clone())
		record.mu.RUnlock()
	}

	nextCursor := ""
	if end < total {
		nextCursor = encodeCursor(end)
	}

	s.logger.Debug("packets listed from memory store",
		"event", "memory_list_packets",
		"module", application.ModuleName,
		"layer", "adapter",
		"start", start,
		"end", end,
		"total", total,
	)
	return page, nextCursor, nil
}

func (s *Store) CountPackets(_ context.Context) (uint64, error) {
	s.packetsMu.RLock()
	defer s.packetsMu.RUnlock()
	return uint64(len(s.packets)), nil
}

func (s *Store) record(packetID uint64) (*packetRecord, bool) {
	s.packetsMu.RLock()
	defer s.packetsMu.RUnlock()
	if packetID >= uint64(len(s.packets)) {
		return nil, false
	}
	return s.packets[packetID], true
}

// appendOutbox stores the event and, when given, binds the idempotency key to
// packetID under the same lock.
func (s *Store) appendOutbox(message ports.OutboxMessage, idempotency *ports.IdempotencyRecord, packetID uint64) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()

	if _, exists := s.outbox[message.OutboxID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outbox[message.OutboxID] = message
	s.outboxOrder = append(s.outboxOrder, message.OutboxID)
	if idempotency != nil {
		record := *idempotency
		record.PacketID = packetID
		s.idempotency[record.Key] = record
	}
	return nil
}

// boundIdempotency reports the packet a live key is bound to.
func (s *Store) boundIdempotency(record ports.IdempotencyRecord, now time.Time) (uint64, bool, error) {
	existing, found, err := s.Get(context.Background(), record.Key, now)
	if err != nil || !found {
		return 0, false, err
	}
	if existing.RequestHash != record.RequestHash {
		return 0, false, domainerrors.ErrIdempotencyKeyConflict
	}
	return existing.PacketID, true, nil
}

func (s *Store) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()

	record, ok := s.idempotency[key]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.IsZero() && now.After(record.ExpiresAt) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()

	if existing, ok := s.eventDedup[eventID]; ok {
		if existing != payloadHash {
			return false, domainerrors.ErrIdempotencyKeyConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = payloadHash
	return false, nil
}

func (s *Store) AppendActivity(_ context.Context, entry entities.ActivityEntry) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	s.activity[entry.PacketID] = append(s.activity[entry.PacketID], entry)
	return nil
}

func (s *Store) ListActivity(_ context.Context, packetID uint64) ([]entities.ActivityEntry, error) {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	return append([]entities.ActivityEntry{}, s.activity[packetID]...), nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("rp-%d", value), nil
}

// Uint64N draws from the runtime generator, which is safe for concurrent use.
func (s *Store) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

func decodeCursor(cursor string) (int, error) {
	if strings.TrimSpace(cursor) == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidListFilter
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0, domainerrors.ErrInvalidListFilter
	}
	return index, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
