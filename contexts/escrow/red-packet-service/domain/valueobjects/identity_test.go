package valueobjects

import (
	"errors"
	"testing"

	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		err  error
	}{
		{name: "checksums lowercase address", raw: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", want: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{name: "trims whitespace", raw: "  0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED ", want: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
		{name: "opaque identity kept", raw: "user-42", want: "user-42"},
		{name: "empty", raw: "   ", err: domainerrors.ErrInvalidCaller},
		{name: "zero address", raw: "0x0000000000000000000000000000000000000000", err: domainerrors.ErrInvalidCaller},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeIdentity(tc.raw)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalize failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestZeroIdentityIsZeroAddress(t *testing.T) {
	if ZeroIdentity != "0x0000000000000000000000000000000000000000" {
		t.Fatalf("unexpected zero identity %s", ZeroIdentity)
	}
}
