package delegation

import (
	"crypto/rand"
	"math/big"
)

// GenerateSalt returns 32 cryptographically random bytes interpreted as a
// uint256, used as delegation uniqueness entropy (spec §4.2, §8 invariant:
// "two consecutive calls are, with overwhelming probability, distinct").
func GenerateSalt() (*big.Int, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(buf), nil
}
