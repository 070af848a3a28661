package randx

import (
	"math/rand/v2"
)

// NewPCG returns a PCG-backed generator fully determined by seed.
func NewPCG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewPCGs returns n independent generators, one per worker, derived from seed.
// The same seed and n always yield the same streams.
func NewPCGs(seed uint64, n int) []*rand.Rand {
	master := NewPCG(seed)
	rngs := make([]*rand.Rand, n)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewPCG(master.Uint64(), master.Uint64()))
	}
	return rngs
}
