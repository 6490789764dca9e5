// Package delegation implements the delegation value type, its
// content-addressed id, lifecycle transitions, and the EIP-712 typed-data
// construction used to sign it (spec §3, §6).
package delegation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
)

// Status is the delegation lifecycle state (spec §3).
type Status string

const (
	StatusPending Status = "pending"
	StatusSigned  Status = "signed"
	StatusRevoked Status = "revoked"
)

// Root is the all-ones 32-byte sentinel marking a delegation with no
// parent (spec §6).
var Root = func() [32]byte {
	var r [32]byte
	for i := range r {
		r[i] = 0xff
	}
	return r
}()

// Delegation is a signed authorization token from delegator to delegate,
// carrying caveats (spec §3). Records are immutable in shape: lifecycle
// transitions produce new Delegation values sharing the same ID, they
// never mutate a Delegation in place.
type Delegation struct {
	ID        [32]byte
	Delegator common.Address
	Delegate  common.Address
	Authority [32]byte
	Caveats   []caveat.Caveat
	Salt      *big.Int
	ChainID   int64
	Signature []byte // nil iff Status == StatusPending
	Status    Status
}

// WithSignature returns a new Delegation transitioned pending -> signed,
// with signature attached. The receiver is left unmodified (spec §3: "create
// new records with the same id").
func (d Delegation) WithSignature(sig []byte) Delegation {
	next := d
	next.Signature = append([]byte(nil), sig...)
	next.Status = StatusSigned
	return next
}

// Revoked returns a new Delegation transitioned to the terminal revoked
// state. The receiver is left unmodified.
func (d Delegation) Revoked() Delegation {
	next := d
	next.Status = StatusRevoked
	return next
}

// Clone deep-copies a Delegation so callers holding a value returned by the
// Authority Store cannot mutate the store's internal state (spec §3:
// "the Coordinator holds values (copies) only transiently").
func (d Delegation) Clone() Delegation {
	next := d
	next.Caveats = append([]caveat.Caveat(nil), d.Caveats...)
	if d.Salt != nil {
		next.Salt = new(big.Int).Set(d.Salt)
	}
	next.Signature = append([]byte(nil), d.Signature...)
	return next
}
