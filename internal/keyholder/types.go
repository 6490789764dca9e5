// Package keyholder owns all secret key material for the wallet: seed
// phrases, derived accounts, and ephemeral keys. No other component ever
// observes a private key; callers only ever get back addresses and
// signatures (spec §4.3).
package keyholder

import (
	"github.com/ethereum/go-ethereum/common"
)

// Kind is the Key Holder's initialisation state (spec §3, "Key Holder
// state").
type Kind string

const (
	KindNone      Kind = "none"
	KindSeed      Kind = "seed-based"
	KindEphemeral Kind = "ephemeral"
)

// RootDerivationPathFormat is the Ethereum-standard BIP-44 path with the
// account index as its last component (spec §4.3).
const RootDerivationPathFormat = "m/44'/60'/0'/0/%d"

// InitOptions selects how the Key Holder is initialised (spec §4.3,
// `initialize(options)`).
type InitOptions struct {
	Kind     Kind
	Mnemonic string // required when Kind == KindSeed; ignored otherwise
}

// Account is one registered signing identity.
type Account struct {
	Address common.Address
	Index   uint32 // derivation index; meaningless for KindEphemeral
}

// persistedState is the Key Holder's durable record: {initOptions,
// derivedCount} per spec §6, "Persisted layout". The mnemonic / ephemeral
// private key are stored encrypted at rest (pkg/secretbox).
type persistedState struct {
	Kind                Kind
	EncryptedSecret     string
	DerivedAccountCount uint32
}
