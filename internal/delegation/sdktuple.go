package delegation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
)

// SdkTuple is the wire-shape used by ABI encoding:
// (address delegate, address delegator, bytes32 authority,
//  (address enforcer, bytes terms)[] caveats, uint256 salt, bytes
//  signature) — spec §6's "Delegation ABI tuple".
type SdkTuple struct {
	Delegate  common.Address
	Delegator common.Address
	Authority [32]byte
	Caveats   []CaveatTuple
	Salt      *big.Int
	Signature []byte
}

// CaveatTuple is the ABI tuple shape of a single Caveat, dropping the
// client-side Type tag (the on-chain side only ever sees enforcer+terms).
type CaveatTuple struct {
	Enforcer common.Address
	Terms    []byte
}

// ToSdkTuple projects a Delegation into its wire shape. The caveat Type tag
// is looked up by enforcer address via kindOf when decoding back
// (FromSdkTuple) since the ABI tuple itself carries no type information.
func ToSdkTuple(d Delegation) SdkTuple {
	caveats := make([]CaveatTuple, 0, len(d.Caveats))
	for _, c := range d.Caveats {
		caveats = append(caveats, CaveatTuple{Enforcer: c.Enforcer, Terms: append([]byte(nil), c.Terms...)})
	}
	return SdkTuple{
		Delegate:  d.Delegate,
		Delegator: d.Delegator,
		Authority: d.Authority,
		Caveats:   caveats,
		Salt:      new(big.Int).Set(d.Salt),
		Signature: append([]byte(nil), d.Signature...),
	}
}

// FromSdkTuple reconstructs a Delegation from its wire shape. kindOf maps an
// enforcer address back to the client-side CaveatKind tag it was created
// with; the caller supplies the mapping. kindOf may be nil, in which case every reconstructed caveat carries an empty Type.
// chainID is carried alongside the tuple because the ABI shape itself has
// no chainId field (it is bound at redemption time, not at rest).
func FromSdkTuple(t SdkTuple, chainID int64, kindOf func(common.Address) caveat.Kind) Delegation {
	caveats := make([]caveat.Caveat, 0, len(t.Caveats))
	for _, c := range t.Caveats {
		kind := caveat.Kind("")
		if kindOf != nil {
			kind = kindOf(c.Enforcer)
		}
		caveats = append(caveats, caveat.Caveat{Enforcer: c.Enforcer, Terms: append([]byte(nil), c.Terms...), Type: kind})
	}
	d := Delegation{
		Delegator: t.Delegator,
		Delegate:  t.Delegate,
		Authority: t.Authority,
		Caveats:   caveats,
		Salt:      new(big.Int).Set(t.Salt),
		ChainID:   chainID,
		Signature: append([]byte(nil), t.Signature...),
	}
	d.ID = DeriveID(d.Delegator, d.Delegate, d.Authority, d.Salt)
	if len(d.Signature) > 0 {
		d.Status = StatusSigned
	} else {
		d.Status = StatusPending
	}
	return d
}

// delegationTupleABIType is the full Delegation tuple: (address delegate,
// address delegator, bytes32 authority, Caveat[] caveats, uint256 salt,
// bytes signature).
var delegationTupleABIType = mustDelegationTupleType()

func mustDelegationTupleType() abi.Type {
	t, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "delegate", Type: "address"},
		{Name: "delegator", Type: "address"},
		{Name: "authority", Type: "bytes32"},
		{Name: "caveats", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "enforcer", Type: "address"},
			{Name: "terms", Type: "bytes"},
		}},
		{Name: "salt", Type: "uint256"},
		{Name: "signature", Type: "bytes"},
	})
	if err != nil {
		panic("delegation: delegation tuple type: " + err.Error())
	}
	return t
}

// EncodeChain ABI-encodes a delegation chain (leaf-to-root order) as
// Delegation[] — the permissionContext bytes embedded in redeemDelegations'
// permissionContexts argument (spec §4.5 step 5, §6).
func EncodeChain(chain []Delegation) ([]byte, error) {
	tuples := make([]struct {
		Delegate  common.Address `abi:"delegate"`
		Delegator common.Address `abi:"delegator"`
		Authority [32]byte       `abi:"authority"`
		Caveats   []struct {
			Enforcer common.Address `abi:"enforcer"`
			Terms    []byte         `abi:"terms"`
		} `abi:"caveats"`
		Salt      *big.Int `abi:"salt"`
		Signature []byte   `abi:"signature"`
	}, len(chain))

	for i, d := range chain {
		t := ToSdkTuple(d)
		tuples[i].Delegate = t.Delegate
		tuples[i].Delegator = t.Delegator
		tuples[i].Authority = t.Authority
		tuples[i].Salt = t.Salt
		tuples[i].Signature = t.Signature
		tuples[i].Caveats = make([]struct {
			Enforcer common.Address `abi:"enforcer"`
			Terms    []byte         `abi:"terms"`
		}, len(t.Caveats))
		for j, c := range t.Caveats {
			tuples[i].Caveats[j].Enforcer = c.Enforcer
			tuples[i].Caveats[j].Terms = c.Terms
		}
	}

	args := abi.Arguments{{Type: delegationTupleABIType}}
	return args.Pack(tuples)
}
