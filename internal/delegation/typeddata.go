package delegation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TypedDataTypes is the EIP-712 type definitions shared by every
// Delegation payload (spec §6).
var TypedDataTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Delegation": {
		{Name: "delegate", Type: "address"},
		{Name: "delegator", Type: "address"},
		{Name: "authority", Type: "bytes32"},
		{Name: "caveats", Type: "Caveat[]"},
		{Name: "salt", Type: "uint256"},
	},
	"Caveat": {
		{Name: "enforcer", Type: "address"},
		{Name: "terms", Type: "bytes"},
	},
}

// DomainName and DomainVersion are fixed by the DelegationManager's EIP-712
// domain (spec §6).
const (
	DomainName    = "DelegationManager"
	DomainVersion = "1"
)

// BuildTypedData constructs the EIP-712 payload for d, binding it to the
// configured verifying-contract (DelegationManager) address (spec §6).
// salt is emitted as a base-10 stringified uint256 per EIP-712 numeric
// encoding rules.
func BuildTypedData(d Delegation, verifyingContract common.Address) apitypes.TypedData {
	caveatsMessage := make([]any, 0, len(d.Caveats))
	for _, c := range d.Caveats {
		caveatsMessage = append(caveatsMessage, map[string]any{
			"enforcer": c.Enforcer.Hex(),
			"terms":    hexBytes(c.Terms),
		})
	}

	return apitypes.TypedData{
		Types:       TypedDataTypes,
		PrimaryType: "Delegation",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).SetInt64(d.ChainID)),
			VerifyingContract: verifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"delegate":  d.Delegate.Hex(),
			"delegator": d.Delegator.Hex(),
			"authority": "0x" + common.Bytes2Hex(d.Authority[:]),
			"caveats":   caveatsMessage,
			"salt":      d.Salt.String(),
		},
	}
}

func hexBytes(b []byte) string { return "0x" + common.Bytes2Hex(b) }

// HashTypedData computes the EIP-712 digest ("\x19\x01" || domainSeparator
// || hashStruct(message)) that the delegator signs over. This is the hash
// the Key Holder's signTypedData strategy produces a signature for.
func HashTypedData(td apitypes.TypedData) ([32]byte, error) {
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], digest)
	return out, nil
}
