// Package shuffle derives the reproducible playlist order from a stored seed.
//
// Permute is a pure function: the same tracks and seed always produce the same
// order, byte for byte, across runs and Go releases. The generator is PCG
// (specified by math/rand/v2) and the Fisher–Yates draws use an unbiased
// bounded sampler implemented here, so no library Shuffle internals are relied on.
package shuffle

import "math/rand/v2"

// Permute returns a shuffled copy of tracks. The input slice is not modified.
func Permute[T any](tracks []T, seed uint64) []T {
	out := make([]T, len(tracks))
	copy(out, tracks)

	src := rand.NewPCG(seed, seed)
	for i := len(out) - 1; i > 0; i-- {
		j := bounded(src, uint64(i)+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// bounded draws uniformly from [0, n) by rejecting the biased low range.
func bounded(src *rand.PCG, n uint64) uint64 {
	threshold := -n % n
	for {
		v := src.Uint64()
		if v >= threshold {
			return v % n
		}
	}
}
