package delegation

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	idTypeAddress, _ = abi.NewType("address", "", nil)
	idTypeBytes32, _ = abi.NewType("bytes32", "", nil)
	idTypeUint256, _ = abi.NewType("uint256", "", nil)
)

// DeriveID computes id = keccak256(packed(delegator, delegate, authority,
// salt:uint256)) per spec §6. This is the delegation's content address:
// changing any of these four fields changes the id.
func DeriveID(delegator, delegate common.Address, authority [32]byte, salt *big.Int) [32]byte {
	args := abi.Arguments{
		{Type: idTypeAddress},
		{Type: idTypeAddress},
		{Type: idTypeBytes32},
		{Type: idTypeUint256},
	}
	packed, err := args.Pack(delegator, delegate, authority, salt)
	if err != nil {
		// Packing fixed-width, already-validated Go types never fails; a
		// failure here indicates a caller passed a nil salt, which is a
		// programming error, not a runtime condition to recover from.
		panic("delegation: DeriveID: " + err.Error())
	}
	return [32]byte(crypto.Keccak256Hash(packed))
}

// VerifyID reports whether d.ID matches the id derived from its identity
// fields (spec §8 invariant: "for every stored Delegation, id ==
// derivedId(...)").
func VerifyID(d Delegation) bool {
	return DeriveID(d.Delegator, d.Delegate, d.Authority, d.Salt) == d.ID
}
