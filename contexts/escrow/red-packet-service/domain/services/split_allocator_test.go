package services

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"testing"

	domainerrors "redpacket/contexts/escrow/red-packet-service/domain/errors"
)

type sequenceSource struct {
	values []uint64
	next   int
}

func (s *sequenceSource) Uint64N(n uint64) uint64 {
	value := s.values[s.next%len(s.values)]
	s.next++
	return value % n
}

func TestAllocateSharesDeterministicVectors(t *testing.T) {
	cases := []struct {
		name   string
		total  uint64
		count  int
		values []uint64
		want   []uint64
	}{
		{name: "distinct draws", total: 10, count: 3, values: []uint64{2, 6}, want: []uint64{3, 4, 3}},
		{name: "collision takes range bound", total: 10, count: 3, values: []uint64{2, 2}, want: []uint64{3, 6, 1}},
		{name: "total equals count", total: 5, count: 5, values: []uint64{0, 0, 0, 0}, want: []uint64{1, 1, 1, 1, 1}},
		{name: "single share", total: 7, count: 1, values: []uint64{0}, want: []uint64{7}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AllocateShares(tc.total, tc.count, &sequenceSource{values: tc.values})
			if err != nil {
				t.Fatalf("allocate failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAllocateSharesExactSumAndPositivity(t *testing.T) {
	source := rand.New(rand.NewPCG(42, 7))
	totals := []uint64{1, 2, 5, 99, 100, 101, 1_000, 100_000_000_000_000, ^uint64(0)}

	for _, total := range totals {
		for count := 1; count <= 100; count++ {
			if total < uint64(count) {
				continue
			}
			shares, err := AllocateShares(total, count, source)
			if err != nil {
				t.Fatalf("allocate(%d, %d) failed: %v", total, count, err)
			}
			if len(shares) != count {
				t.Fatalf("allocate(%d, %d) returned %d shares", total, count, len(shares))
			}
			var sum uint64
			for _, share := range shares {
				if share == 0 {
					t.Fatalf("allocate(%d, %d) produced a zero share: %v", total, count, shares)
				}
				sum += share
			}
			if sum != total {
				t.Fatalf("allocate(%d, %d) sums to %d", total, count, sum)
			}
		}
	}
}

func TestAllocateSharesCutSubsetsAreUniform(t *testing.T) {
	// total=4, count=3 draws 2 cut points from {1,2,3}. Enumerating every
	// source outcome must hit each of the three subsets equally often.
	counts := map[[3]uint64]int{}
	for first := uint64(0); first < 2; first++ {
		for second := uint64(0); second < 3; second++ {
			shares, err := AllocateShares(4, 3, &sequenceSource{values: []uint64{first, second}})
			if err != nil {
				t.Fatalf("allocate failed: %v", err)
			}
			counts[[3]uint64{shares[0], shares[1], shares[2]}]++
		}
	}

	if len(counts) != 3 {
		t.Fatalf("expected 3 distinct splits, got %v", counts)
	}
	for split, n := range counts {
		if n != 2 {
			t.Fatalf("split %v drawn %d times, expected 2", split, n)
		}
	}
}

func TestAllocateSharesRejectsInvalidInput(t *testing.T) {
	source := &sequenceSource{values: []uint64{1}}
	cases := []struct {
		name  string
		total uint64
		count int
		want  error
	}{
		{name: "zero amount", total: 0, count: 1, want: domainerrors.ErrInvalidAmount},
		{name: "zero count", total: 10, count: 0, want: domainerrors.ErrInvalidCount},
		{name: "count above max", total: 1_000, count: 101, want: domainerrors.ErrInvalidCount},
		{name: "amount below count", total: 3, count: 4, want: domainerrors.ErrInvalidAllocation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AllocateShares(tc.total, tc.count, source)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := AllocateShares(10, 2, nil); !errors.Is(err, domainerrors.ErrInvalidAllocation) {
		t.Fatalf("expected allocation error without random source, got %v", err)
	}
}
