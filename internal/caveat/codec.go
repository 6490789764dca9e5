package caveat

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	typeAddress, _        = abi.NewType("address", "", nil)
	typeAddressArray, _    = abi.NewType("address[]", "", nil)
	typeBytes4Array, _    = abi.NewType("bytes4[]", "", nil)
	typeUint256, _        = abi.NewType("uint256", "", nil)
	typeUint128, _        = abi.NewType("uint128", "", nil)
)

// EncodeAllowedTargets ABI-encodes an address[] of permitted targets.
func EncodeAllowedTargets(targets []common.Address) ([]byte, error) {
	args := abi.Arguments{{Type: typeAddressArray}}
	return args.Pack(targets)
}

// DecodeAllowedTargets decodes terms produced by EncodeAllowedTargets.
func DecodeAllowedTargets(terms []byte) ([]common.Address, error) {
	args := abi.Arguments{{Type: typeAddressArray}}
	values, err := args.Unpack(terms)
	if err != nil {
		return nil, fmt.Errorf("allowedTargets: %w", err)
	}
	return values[0].([]common.Address), nil
}

// EncodeAllowedMethods ABI-encodes a bytes4[] of permitted selectors.
func EncodeAllowedMethods(selectors [][4]byte) ([]byte, error) {
	args := abi.Arguments{{Type: typeBytes4Array}}
	return args.Pack(selectors)
}

// DecodeAllowedMethods decodes terms produced by EncodeAllowedMethods.
func DecodeAllowedMethods(terms []byte) ([][4]byte, error) {
	args := abi.Arguments{{Type: typeBytes4Array}}
	values, err := args.Unpack(terms)
	if err != nil {
		return nil, fmt.Errorf("allowedMethods: %w", err)
	}
	return values[0].([][4]byte), nil
}

// EncodeValueLte ABI-encodes the uint256 maximum value.
func EncodeValueLte(max *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: typeUint256}}
	return args.Pack(max)
}

// DecodeValueLte decodes terms produced by EncodeValueLte.
func DecodeValueLte(terms []byte) (*big.Int, error) {
	args := abi.Arguments{{Type: typeUint256}}
	values, err := args.Unpack(terms)
	if err != nil {
		return nil, fmt.Errorf("valueLte: %w", err)
	}
	return values[0].(*big.Int), nil
}

// EncodeNativeTokenTransferAmount ABI-encodes the uint256 budget. The
// budget itself is never evaluated client-side (spec §4.1, pass-through).
func EncodeNativeTokenTransferAmount(budget *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: typeUint256}}
	return args.Pack(budget)
}

// DecodeNativeTokenTransferAmount decodes terms produced by
// EncodeNativeTokenTransferAmount.
func DecodeNativeTokenTransferAmount(terms []byte) (*big.Int, error) {
	return DecodeValueLte(terms)
}

// EncodeLimitedCalls ABI-encodes the uint256 call counter limit. Like
// nativeTokenTransferAmount, the counter lives on-chain and is never
// evaluated client-side (spec §4.1, pass-through).
func EncodeLimitedCalls(limit *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: typeUint256}}
	return args.Pack(limit)
}

// DecodeLimitedCalls decodes terms produced by EncodeLimitedCalls.
func DecodeLimitedCalls(terms []byte) (*big.Int, error) {
	return DecodeValueLte(terms)
}

// ERC20TransferAmountTerms is the decoded (token, max) pair for
// erc20TransferAmount.
type ERC20TransferAmountTerms struct {
	Token common.Address
	Max   *big.Int
}

// EncodeERC20TransferAmount ABI-encodes (address token, uint256 max).
func EncodeERC20TransferAmount(token common.Address, max *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: typeAddress}, {Type: typeUint256}}
	return args.Pack(token, max)
}

// DecodeERC20TransferAmount decodes terms produced by
// EncodeERC20TransferAmount.
func DecodeERC20TransferAmount(terms []byte) (ERC20TransferAmountTerms, error) {
	args := abi.Arguments{{Type: typeAddress}, {Type: typeUint256}}
	values, err := args.Unpack(terms)
	if err != nil {
		return ERC20TransferAmountTerms{}, fmt.Errorf("erc20TransferAmount: %w", err)
	}
	return ERC20TransferAmountTerms{
		Token: values[0].(common.Address),
		Max:   values[1].(*big.Int),
	}, nil
}

// TimestampTerms is the decoded (notBefore, notAfter) window for timestamp.
type TimestampTerms struct {
	NotBefore *big.Int
	NotAfter  *big.Int
}

// EncodeTimestamp ABI-encodes (uint128 notBefore, uint128 notAfter).
func EncodeTimestamp(notBefore, notAfter *big.Int) ([]byte, error) {
	args := abi.Arguments{{Type: typeUint128}, {Type: typeUint128}}
	return args.Pack(notBefore, notAfter)
}

// DecodeTimestamp decodes terms produced by EncodeTimestamp.
func DecodeTimestamp(terms []byte) (TimestampTerms, error) {
	args := abi.Arguments{{Type: typeUint128}, {Type: typeUint128}}
	values, err := args.Unpack(terms)
	if err != nil {
		return TimestampTerms{}, fmt.Errorf("timestamp: %w", err)
	}
	return TimestampTerms{
		NotBefore: values[0].(*big.Int),
		NotAfter:  values[1].(*big.Int),
	}, nil
}
