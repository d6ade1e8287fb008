package postgresadapter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPacketModelRoundTripKeepsClaimOrder(t *testing.T) {
	draft, err := entities.NewPacketDraft("creator", ^uint64(0), []uint64{^uint64(0) - 1, 1}, "gm", time.Unix(1_700_000_000, 0))
	if err != nil {
		t.Fatalf("new draft failed: %v", err)
	}
	packet, claim, err := draft.Materialize(3).WithClaim("alice", time.Unix(1_700_000_010, 0))
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	row, err := packetModelFromEntity(packet)
	if err != nil {
		t.Fatalf("to model failed: %v", err)
	}
	if row.TotalAmount != "18446744073709551615" || string(row.ShareAmounts) != `["18446744073709551614","1"]` {
		t.Fatalf("unexpected row encoding: %+v shares=%s", row, row.ShareAmounts)
	}

	restored, err := row.toEntity([]claimModel{claimModelFromEntity(claim)})
	if err != nil {
		t.Fatalf("to entity failed: %v", err)
	}
	if restored.ID != 3 || restored.RemainingAmount != 1 || restored.RemainingPackets != 1 {
		t.Fatalf("unexpected restored packet: %+v", restored)
	}
	if len(restored.Claimants) != 1 || restored.ClaimedBy["alice"] != ^uint64(0)-1 {
		t.Fatalf("unexpected restored claims: %+v", restored)
	}
}

func TestPacketModelRejectsMissingClaimRows(t *testing.T) {
	row := packetModel{
		TotalAmount:      "10",
		RemainingAmount:  "4",
		PacketCount:      2,
		RemainingPackets: 1,
		ShareAmounts:     []byte(`["6","4"]`),
	}
	if _, err := row.toEntity(nil); !errors.Is(err, domainerrors.ErrRepositoryInvariantBroke) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestDecodeSharesRejectsGarbage(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `["x"]`, `{}`} {
		if _, err := decodeShares([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestCursorEncoding(t *testing.T) {
	offset, err := decodeCursor(encodeCursor(40))
	if err != nil || offset != 40 {
		t.Fatalf("expected offset 40, got %d err=%v", offset, err)
	}
	if offset, err := decodeCursor(""); err != nil || offset != 0 {
		t.Fatalf("expected empty cursor to start at 0, got %d err=%v", offset, err)
	}
	if _, err := decodeCursor(encodeCursor(-1)); !errors.Is(err, domainerrors.ErrInvalidListFilter) {
		t.Fatalf("expected invalid list filter for negative offset, got %v", err)
	}
}

func TestUniqueViolationDetection(t *testing.T) {
	err := fmt.Errorf("insert claim: %w", &pgconn.PgError{Code: "23505", ConstraintName: "red_packet_claims_pkey"})
	if !isUniqueViolation(err) || constraintName(err) != "red_packet_claims_pkey" {
		t.Fatalf("expected wrapped unique violation to be detected")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "40001"}) || isUniqueViolation(errors.New("boom")) {
		t.Fatalf("only 23505 counts as a unique violation")
	}
}
