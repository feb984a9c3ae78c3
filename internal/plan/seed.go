package plan

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand/v2"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/agentplan/pkg/agentplan/types"
)

// seededRand returns a PRNG whose stream depends only on the idea and the
// node path, so every phrasing and fan-out choice is reproducible.
func seededRand(idea string, id types.NodeID) *rand.Rand {
	hasher := blake3.New()
	// blake3 hashers never fail on Write
	_, _ = hasher.Write([]byte(idea))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.Write([]byte(id))
	sum := hasher.Sum(nil)

	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	))
}

// jitter returns a multiplier in [lo, hi)
func jitter(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Fingerprint returns a stable hex digest of a generation request. Two
// requests with the same fingerprint produce identical plans.
func Fingerprint(idea string, opts Options) (string, error) {
	normalized, err := json.Marshal(opts.Normalize())
	if err != nil {
		return "", fmt.Errorf("marshal options: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write([]byte(normalizeIdea(idea))); err != nil {
		return "", fmt.Errorf("hash idea: %w", err)
	}
	if _, err := hasher.Write([]byte{0}); err != nil {
		return "", fmt.Errorf("hash separator: %w", err)
	}
	if _, err := hasher.Write(normalized); err != nil {
		return "", fmt.Errorf("hash options: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
