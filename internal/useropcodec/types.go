// Package useropcodec assembles the callData that redeems a delegation
// chain inside an ERC-4337 v0.7 UserOperation, and computes its canonical
// hash (spec §4.5, §6).
package useropcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EntryPointV07 is the canonical ERC-4337 v0.7 EntryPoint address
// (spec §6).
var EntryPointV07 = common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")

// RedeemDelegationsSelector is the DelegationManager's
// redeemDelegations(bytes[],uint256[],bytes[]) selector (spec §4.5, §6).
var RedeemDelegationsSelector = [4]byte{0x89, 0xa0, 0xb7, 0x72}

// GetNonceSelector is EntryPoint.getNonce(address,uint192) (spec §6).
var GetNonceSelector = [4]byte{0x35, 0x56, 0x7e, 0x1a}

// SingleDefaultMode is the mode value passed alongside each permission
// context in redeemDelegations (spec §4.5 step 5).
var SingleDefaultMode = big.NewInt(0)

// UserOperation is the ERC-4337 v0.7 pseudo-transaction (spec §3).
type UserOperation struct {
	Sender                        common.Address
	Nonce                         *big.Int
	Factory                       *common.Address
	FactoryData                   []byte
	CallData                      []byte
	CallGasLimit                  *big.Int
	VerificationGasLimit          *big.Int
	PreVerificationGas            *big.Int
	MaxFeePerGas                  *big.Int
	MaxPriorityFeePerGas          *big.Int
	Paymaster                     *common.Address
	PaymasterVerificationGasLimit *big.Int
	PaymasterPostOpGasLimit       *big.Int
	PaymasterData                 []byte
	Signature                     []byte
}

// Execution is a concrete on-chain call — what a UserOperation actually
// performs (spec §3).
type Execution struct {
	Target   common.Address
	Value    *big.Int
	CallData []byte
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
