package services

import (
	"sort"

	"redpacket/contexts/escrow/red-packet-service/domain/entities"
	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

// RandomSource supplies cut points for the allocator.
// Uint64N must return a value in [0, n).
type RandomSource interface {
	Uint64N(n uint64) uint64
}

// AllocateShares splits total into count strictly positive shares summing to total.
//
// count-1 distinct cut points are drawn uniformly from [1, total-1] and sorted;
// consecutive differences become the first count-1 shares and the remainder
// becomes the last one. Distinct cuts keep every share >= 1, and the remainder
// keeps the sum exact.
func AllocateShares(total uint64, count int, source RandomSource) ([]uint64, error) {
	if total == 0 {
		return nil, domainerrors.ErrInvalidAmount
	}
	if count < entities.MinPacketCount || count > entities.MaxPacketCount {
		return nil, domainerrors.ErrInvalidCount
	}
	if total < uint64(count) {
		return nil, domainerrors.ErrInvalidAllocation
	}
	if count == 1 {
		return []uint64{total}, nil
	}
	if source == nil {
		return nil, domainerrors.ErrInvalidAllocation
	}

	cuts := sampleCutPoints(total-1, uint64(count-1), source)
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })

	shares := make([]uint64, 0, count)
	var previous uint64
	for _, cut := range cuts {
		shares = append(shares, cut-previous)
		previous = cut
	}
	shares = append(shares, total-previous)

	if err := validateShares(total, count, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// sampleCutPoints draws k distinct values from [1, n] (Floyd's algorithm).
// A repeated draw takes the upper bound of the current range instead, which
// keeps every k-subset equally likely without rejection loops.
func sampleCutPoints(n uint64, k uint64, source RandomSource) []uint64 {
	chosen := make(map[uint64]struct{}, k)
	cuts := make([]uint64, 0, k)
	for j := n - k + 1; j <= n; j++ {
		candidate := 1 + source.Uint64N(j)%j
		if _, taken := chosen[candidate]; taken {
			candidate = j
		}
		chosen[candidate] = struct{}{}
		cuts = append(cuts, candidate)
	}
	return cuts
}

func validateShares(total uint64, count int, shares []uint64) error {
	if len(shares) != count {
		return domainerrors.ErrInvalidAllocation
	}
	var sum uint64
	for _, share := range shares {
		if share == 0 {
			return domainerrors.ErrInvalidAllocation
		}
		sum += share
	}
	if sum != total {
		return domainerrors.ErrInvalidAllocation
	}
	return nil
}
