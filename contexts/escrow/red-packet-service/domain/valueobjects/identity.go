package valueobjects

import (
	"strings"

	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroIdentity is the creator reported for packets that do not exist.
var ZeroIdentity = common.Address{}.Hex()

// NormalizeIdentity trims the caller identity supplied by the session layer.
// Hex account addresses are rewritten to their EIP-55 checksum form so that
// differently cased spellings of one account map to a single claimant.
func NormalizeIdentity(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", domainerrors.ErrInvalidCaller
	}
	if common.IsHexAddress(value) {
		value = common.HexToAddress(value).Hex()
	}
	if value == ZeroIdentity {
		return "", domainerrors.ErrInvalidCaller
	}
	return value, nil
}
