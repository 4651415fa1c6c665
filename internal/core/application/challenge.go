package application

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// MinChallengeFloor is the lowest floor a challenge can be configured with,
// every generated challenge is strictly greater than it.
const MinChallengeFloor = 999

// newChallengeAmount returns floor + 1 + r with r uniform in [0, span).
func newChallengeAmount(floor, span uint64) (uint64, error) {
	if span == 0 {
		span = 1
	}
	r, err := rand.Int(rand.Reader, new(big.Int).SetUint64(span))
	if err != nil {
		return 0, fmt.Errorf("failed to read randomness: %w", err)
	}
	return floor + 1 + r.Uint64(), nil
}
