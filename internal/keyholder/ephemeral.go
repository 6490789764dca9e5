package keyholder

import (
	"crypto/ecdsa"
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// newEphemeralKey generates a fresh secp256k1 key for ephemeral mode. If
// the process RNG is unavailable it falls back to a deterministic
// pseudo-random key derived from a monotonic counter — explicitly
// non-cryptographic, documented as such, and only intended for test and
// bootstrap scenarios where uniqueness (not secrecy) is the requirement
// (spec §4.3, "Ephemeral keys and weak-entropy environments").
func newEphemeralKey(weakEntropyCounter *uint64) (*ecdsa.PrivateKey, error) {
	key, err := crypto.GenerateKey()
	if err == nil {
		return key, nil
	}

	*weakEntropyCounter++
	return weakEntropyFallbackKey(*weakEntropyCounter)
}

// weakEntropyFallbackKey derives a non-cryptographic but valid secp256k1
// key from a counter, for environments that deny access to crypto/rand.
func weakEntropyFallbackKey(counter uint64) (*ecdsa.PrivateKey, error) {
	seed := make([]byte, 32)
	binary.BigEndian.PutUint64(seed[24:], counter)
	digest := crypto.Keccak256(seed)

	key, err := crypto.ToECDSA(digest)
	if err != nil {
		return nil, fmt.Errorf("keyholder: weak-entropy fallback key: %w", err)
	}
	return key, nil
}
