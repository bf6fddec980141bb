package game

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// NewRand returns a deterministic generator for seed. Equal seeds replay
// identical order sequences.
func NewRand(seed int64) *rand.Rand {
	// #nosec G404
	return rand.New(rand.NewPCG(seedWord(seed, "orders"), seedWord(seed, "pcg")))
}

func seedWord(seed int64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%d:%s", seed, salt)))
	return h.Sum64()
}
