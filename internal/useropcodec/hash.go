package useropcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// pack128Pair packs two uint128 values into a single 32-byte word, high
// first then low — the "(uint128, uint128)" packing spec §4.5 step 7 calls
// out as part of the binary contract.
func pack128Pair(high, low *big.Int) []byte {
	out := make([]byte, 32)
	copy(out[0:16], common.LeftPadBytes(bigOrZero(high).Bytes(), 16))
	copy(out[16:32], common.LeftPadBytes(bigOrZero(low).Bytes(), 16))
	return out
}

// initCode reconstructs the factory ++ factoryData bytes used only for
// hashing (v0.7 does not carry initCode as a single field on the wire, but
// the v0.6-style packed hash still hashes it as one blob).
func initCode(u UserOperation) []byte {
	if u.Factory == nil {
		return nil
	}
	return append(append([]byte{}, u.Factory.Bytes()...), u.FactoryData...)
}

// paymasterAndData reconstructs the paymaster ++ gas-limits ++ data blob
// used only for hashing, mirroring initCode's treatment.
func paymasterAndData(u UserOperation) []byte {
	if u.Paymaster == nil {
		return nil
	}
	out := append([]byte{}, u.Paymaster.Bytes()...)
	out = append(out, pack128Pair(u.PaymasterVerificationGasLimit, u.PaymasterPostOpGasLimit)...)
	out = append(out, u.PaymasterData...)
	return out
}

// Hash computes the ERC-4337 v0.7 UserOp hash (spec §4.5 step 7, §6):
//
//	innerHash = keccak(sender, nonce, keccak(initCode), keccak(callData),
//	                    packed(verificationGasLimit, callGasLimit),
//	                    preVerificationGas,
//	                    packed(maxPriorityFeePerGas, maxFeePerGas),
//	                    keccak(paymasterAndData))
//	hash = keccak(innerHash, entryPoint, chainId)
//
// Hash is deterministic for fixed inputs and differs whenever chainId
// differs (spec §8 invariants).
func Hash(u UserOperation, entryPoint common.Address, chainID *big.Int) [32]byte {
	initCodeHash := crypto.Keccak256(initCode(u))
	callDataHash := crypto.Keccak256(u.CallData)
	paymasterHash := crypto.Keccak256(paymasterAndData(u))

	var buf []byte
	buf = append(buf, common.LeftPadBytes(u.Sender.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(bigOrZero(u.Nonce).Bytes(), 32)...)
	buf = append(buf, initCodeHash...)
	buf = append(buf, callDataHash...)
	buf = append(buf, pack128Pair(u.VerificationGasLimit, u.CallGasLimit)...)
	buf = append(buf, common.LeftPadBytes(bigOrZero(u.PreVerificationGas).Bytes(), 32)...)
	buf = append(buf, pack128Pair(u.MaxPriorityFeePerGas, u.MaxFeePerGas)...)
	buf = append(buf, paymasterHash...)

	innerHash := crypto.Keccak256(buf)

	var final []byte
	final = append(final, innerHash...)
	final = append(final, common.LeftPadBytes(entryPoint.Bytes(), 32)...)
	final = append(final, common.LeftPadBytes(chainID.Bytes(), 32)...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(final))
	return out
}
