package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "redpacket/contexts/escrow/red-packet-service/application"
	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	packetSequenceName = "red_packet_id"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the ledger tables and seeds the id sequence row.
func (r *Repository) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.AutoMigrate(
		&sequenceModel{},
		&packetModel{},
		&claimModel{},
		&outboxModel{},
		&idempotencyModel{},
		&eventDedupModel{},
		&activityModel{},
	); err != nil {
		return fmt.Errorf("migrate red packet tables: %w", err)
	}
	return db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(&sequenceModel{Name: packetSequenceName, NextValue: 0}).
		Error
}

func (r *Repository) CreatePacketWithOutbox(
	ctx context.Context,
	draft entities.PacketDraft,
	event ports.OutboxEvent,
	idempotency *ports.IdempotencyRecord,
) (entities.Packet, bool, error) {
	var (
		created  entities.Packet
		replayed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The sequence row lock serializes id assignment across API replicas,
		// and with it the idempotency check below.
		var sequence sequenceModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", packetSequenceName).
			First(&sequence).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}

		if idempotency != nil {
			bound, found, err := boundIdempotency(tx, *idempotency, draft.CreatedAt)
			if err != nil {
				return err
			}
			if found {
				lookup, err := loadPacket(tx, tx, bound)
				if err != nil {
					return err
				}
				if !lookup.Found {
					return domainerrors.ErrRepositoryInvariantBroke
				}
				created = lookup.Packet
				replayed = true
				return nil
			}
		}

		packet := draft.Materialize(sequence.NextValue)
		row, err := packetModelFromEntity(packet)
		if err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		if err := tx.Model(&sequenceModel{}).
			Where("name = ?", packetSequenceName).
			Update("next_value", sequence.NextValue+1).
			Error; err != nil {
			return err
		}

		envelope, err := application.BuildCreatedEnvelope(event, packet)
		if err != nil {
			return err
		}
		if err := insertOutbox(tx, envelope); err != nil {
			return err
		}
		if idempotency != nil {
			record := idempotencyModel{
				Key:         idempotency.Key,
				RequestHash: idempotency.RequestHash,
				PacketID:    packet.ID,
				ExpiresAt:   idempotency.ExpiresAt.UTC(),
			}
			if err := tx.Create(&record).Error; err != nil {
				if isUniqueViolation(err) {
					return domainerrors.ErrIdempotencyKeyConflict
				}
				return err
			}
		}
		created = packet
		return nil
	})
	if err != nil {
		return entities.Packet{}, false, err
	}

	r.logger.Info("packet and outbox persisted",
		"event", "postgres_create_packet_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"packet_id", created.ID,
		"replayed", replayed,
		"outbox_event_id", event.EventID,
	)
	return created, replayed, nil
}

func (r *Repository) ClaimShareWithOutbox(
	ctx context.Context,
	packetID uint64,
	claimer string,
	claimedAt time.Time,
	event ports.OutboxEvent,
) (entities.Claim, error) {
	var committed entities.Claim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup, err := loadPacket(tx.Clauses(clause.Locking{Strength: "UPDATE"}), tx, packetID)
		if err != nil {
			return err
		}

		next, claim, err := services.ClaimShare(lookup, claimer, claimedAt)
		if err != nil {
			return err
		}

		result := tx.Model(&packetModel{}).
			Where("packet_id = ?", packetID).
			Updates(map[string]any{
				"remaining_amount":  strconv.FormatUint(next.RemainingAmount, 10),
				"remaining_packets": next.RemainingPackets,
				"updated_at":        next.UpdatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRepositoryInvariantBroke
		}

		claimRow := claimModelFromEntity(claim)
		if err := tx.Create(&claimRow).Error; err != nil {
			if isUniqueViolation(err) {
				if constraintName(err) == "red_packet_claims_pkey" {
					return domainerrors.ErrAlreadyClaimed
				}
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}

		envelope, err := application.BuildClaimedEnvelope(event, claim)
		if err != nil {
			return err
		}
		if err := insertOutbox(tx, envelope); err != nil {
			return err
		}
		committed = claim
		return nil
	})
	if err != nil {
		return entities.Claim{}, err
	}

	r.logger.Info("claim and outbox persisted",
		"event", "postgres_claim_share_with_outbox",
		"module", application.ModuleName,
		"layer", "adapter",
		"packet_id", packetID,
		"claimer", claimer,
		"outbox_event_id", event.EventID,
	)
	return committed, nil
}

func (r *Repository) GetPacket(ctx context.Context, packetID uint64) (entities.PacketLookup, error) {
	db := r.db.WithContext(ctx)
	var lookup entities.PacketLookup
	// Packet row and claim rows are read in one repeatable-read snapshot.
	err := db.Transaction(func(tx *gorm.DB) error {
		loaded, err := loadPacket(tx, tx, packetID)
		if err != nil {
			return err
		}
		lookup = loaded
		return nil
	}, readSnapshot())
	if err != nil {
		return entities.PacketLookup{}, err
	}
	return lookup, nil
}

func (r *Repository) HasClaimed(ctx context.Context, packetID uint64, identity string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("packet_id = ? AND claimer = ?", packetID, identity).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListPackets(ctx context.Context, filter ports.PacketListFilter) ([]entities.Packet, string, error) {
	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var (
		rows   []packetModel
		claims []claimModel
	)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Order(clause.OrderByColumn{Column: clause.Column{Name: "packet_id"}, Desc: false}).
			Offset(offset).
			Limit(limit + 1).
			Find(&rows).
			Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]uint64, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.PacketID)
		}
		return tx.
			Where("packet_id IN ?", ids).
			Order("packet_id ASC, share_index ASC").
			Find(&claims).
			Error
	}, readSnapshot())
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	claimsByPacket := make(map[uint64][]claimModel, len(rows))
	for _, claim := range claims {
		claimsByPacket[claim.PacketID] = append(claimsByPacket[claim.PacketID], claim)
	}

	items := make([]entities.Packet, 0, len(rows))
	for _, row := range rows {
		packet, err := row.toEntity(claimsByPacket[row.PacketID])
		if err != nil {
			return nil, "", err
		}
		items = append(items, packet)
	}
	return items, nextCursor, nil
}

func (r *Repository) CountPackets(ctx context.Context) (uint64, error) {
	var sequence sequenceModel
	err := r.db.WithContext(ctx).
		Where("name = ?", packetSequenceName).
		First(&sequence).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return sequence.NextValue, nil
}

func (r *Repository) Get(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("key = ?", key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}

	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := r.db.WithContext(ctx).
			Where("key = ?", key).
			Delete(&idempotencyModel{}).
			Error; err != nil {
			return ports.IdempotencyRecord{}, false, err
		}
		return ports.IdempotencyRecord{}, false, nil
	}
	return row.toPort(), true, nil
}

// boundIdempotency reports the packet a live key is bound to. Expired rows
// are removed so the key can be bound again.
func boundIdempotency(tx *gorm.DB, record ports.IdempotencyRecord, now time.Time) (uint64, bool, error) {
	var row idempotencyModel
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("key = ?", record.Key).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !row.ExpiresAt.IsZero() && now.UTC().After(row.ExpiresAt.UTC()) {
		if err := tx.Where("key = ?", record.Key).Delete(&idempotencyModel{}).Error; err != nil {
			return 0, false, err
		}
		return 0, false, nil
	}
	if row.RequestHash != record.RequestHash {
		return 0, false, domainerrors.ErrIdempotencyKeyConflict
	}
	return row.PacketID, true, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC, seq ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrIdempotencyKeyConflict
	}
	return true, nil
}

func (r *Repository) AppendActivity(ctx context.Context, entry entities.ActivityEntry) error {
	row := activityModel{
		EventID:    entry.EventID,
		PacketID:   entry.PacketID,
		Type:       string(entry.Type),
		Actor:      entry.Actor,
		Amount:     strconv.FormatUint(entry.Amount, 10),
		OccurredAt: entry.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error; err != nil {
		return err
	}
	return nil
}

func (r *Repository) ListActivity(ctx context.Context, packetID uint64) ([]entities.ActivityEntry, error) {
	var rows []activityModel
	if err := r.db.WithContext(ctx).
		Where("packet_id = ?", packetID).
		Order("occurred_at ASC, seq ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, nil
}

// loadPacket reads the packet row through packetQuery (which may carry a row
// lock) and its claims through claimQuery.
func loadPacket(packetQuery *gorm.DB, claimQuery *gorm.DB, packetID uint64) (entities.PacketLookup, error) {
	var row packetModel
	if err := packetQuery.
		Where("packet_id = ?", packetID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Missing(), nil
		}
		return entities.PacketLookup{}, err
	}

	var claims []claimModel
	if err := claimQuery.
		Where("packet_id = ?", packetID).
		Order("share_index ASC").
		Find(&claims).
		Error; err != nil {
		return entities.PacketLookup{}, err
	}

	packet, err := row.toEntity(claims)
	if err != nil {
		return entities.PacketLookup{}, err
	}
	return entities.Found(packet), nil
}

func insertOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	message, err := application.OutboxMessageFor(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     message.OutboxID,
		EventType:    message.EventType,
		PartitionKey: message.PartitionKey,
		Payload:      message.Payload,
		Status:       outboxStatusPending,
		CreatedAt:    message.CreatedAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
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

func encodeShares(shares []uint64) ([]byte, error) {
	values := make([]string, 0, len(shares))
	for _, share := range shares {
		values = append(values, strconv.FormatUint(share, 10))
	}
	return json.Marshal(values)
}

func decodeShares(raw []byte) ([]uint64, error) {
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("decode share_amounts: %w", err)
	}
	shares := make([]uint64, 0, len(values))
	for _, value := range values {
		share, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode share_amounts: %w", err)
		}
		shares = append(shares, share)
	}
	return shares, nil
}
