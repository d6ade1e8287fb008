package httpadapter

import (
	"errors"
	"testing"

	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

func TestParseBaseUnits(t *testing.T) {
	valid := map[string]uint64{
		"100000000000000":      100_000_000_000_000,
		" 42 ":                 42,
		"0":                    0,
		"18446744073709551615": ^uint64(0),
	}
	for raw, want := range valid {
		got, err := ParseBaseUnits(raw)
		if err != nil {
			t.Fatalf("parse %q failed: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %d, got %d", raw, want, got)
		}
	}

	for _, raw := range []string{"", "abc", "1.5", "18446744073709551616"} {
		if _, err := ParseBaseUnits(raw); !errors.Is(err, domainerrors.ErrInvalidAmount) {
			t.Fatalf("expected invalid amount for %q, got %v", raw, err)
		}
	}
}

func TestParsePacketID(t *testing.T) {
	id, err := ParsePacketID("17")
	if err != nil || id != 17 {
		t.Fatalf("expected 17, got %d err=%v", id, err)
	}
	for _, raw := range []string{"", "-1", "abc", "1e3"} {
		if _, err := ParsePacketID(raw); !errors.Is(err, domainerrors.ErrInvalidPacketID) {
			t.Fatalf("expected invalid packet id for %q, got %v", raw, err)
		}
	}
}

func TestDisplayAmount(t *testing.T) {
	cases := []struct {
		amount   uint64
		decimals int32
		want     string
	}{
		{amount: 100_000_000_000_000, decimals: 18, want: "0.0001"},
		{amount: 1_500_000, decimals: 6, want: "1.5"},
		{amount: 0, decimals: 18, want: "0"},
		{amount: 7, decimals: 0, want: "7"},
	}
	for _, tc := range cases {
		if got := DisplayAmount(tc.amount, tc.decimals); got != tc.want {
			t.Fatalf("display %d/%d: expected %s, got %s", tc.amount, tc.decimals, tc.want, got)
		}
	}
}

func TestHandlerDefaults(t *testing.T) {
	var h Handler
	if h.defaultCount() != 5 {
		t.Fatalf("expected default count 5, got %d", h.defaultCount())
	}
	if got := (Handler{BaseUnitDecimals: -1}).display(100_000_000_000_000); got != "0.0001" {
		t.Fatalf("expected 18 decimal display for unset decimals, got %s", got)
	}
}

func TestHandlerDisplaysConfiguredZeroDecimals(t *testing.T) {
	h := Handler{BaseUnitDecimals: 0}
	if got := h.display(100); got != "100" {
		t.Fatalf("zero decimals must show base units unchanged, got %s", got)
	}
	if got := (Handler{BaseUnitDecimals: 6}).display(1_500_000); got != "1.5" {
		t.Fatalf("expected 1.5 with 6 decimals, got %s", got)
	}
}
