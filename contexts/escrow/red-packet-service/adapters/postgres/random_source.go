package postgresadapter

import "math/rand/v2"

// RuntimeRandom feeds the split allocator from the runtime generator.
type RuntimeRandom struct{}

func (RuntimeRandom) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}
