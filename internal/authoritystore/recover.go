package authoritystore

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// recoverSigner recovers the address that produced sig over digest. sig's
// recovery byte may be encoded either as 0/1 or normalized to 27/28; both
// forms are accepted.
func recoverSigner(digest [32]byte, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("authoritystore: signature must be 65 bytes, got %d", len(sig))
	}
	normalized := append([]byte(nil), sig...)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}

	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("authoritystore: recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
