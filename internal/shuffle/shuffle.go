// Package shuffle produces the deterministic presentation order of a
// labeling session.
package shuffle

import "math/rand/v2"

// streamSalt decorrelates the PCG stream from the seed state.
const streamSalt = 0x9e3779b97f4a7c15

// Order returns a permutation of [0, n) determined entirely by (n, seed).
// The generator is PCG from math/rand/v2, whose output is fixed across Go
// releases.
func Order(n int, seed int64) []int {
	if n <= 0 {
		return []int{}
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^streamSalt))
	rng.Shuffle(n, func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order
}

// Positions inverts an order: Positions(o)[idx] is the position of input
// index idx within o.
func Positions(order []int) []int {
	pos := make([]int, len(order))
	for p, idx := range order {
		pos[idx] = p
	}
	return pos
}
