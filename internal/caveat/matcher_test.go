package caveat

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestAllowedTargets(t *testing.T) {
	target := common.HexToAddress("0x1234000000000000000000000000000000005678")
	terms, err := EncodeAllowedTargets([]common.Address{target})
	require.NoError(t, err)
	c := Caveat{Type: KindAllowedTargets, Terms: terms}

	permit := Evaluate(c, Action{To: target}, nil)
	require.True(t, permit.Permit)

	other := common.HexToAddress("0xDEAD000000000000000000000000000000BEEF0")
	reject := Evaluate(c, Action{To: other}, nil)
	require.False(t, reject.Permit)
	require.Equal(t, KindAllowedTargets, reject.FailedCaveat)
}

func TestAllowedMethodsNoDataDoesNotReject(t *testing.T) {
	terms, err := EncodeAllowedMethods([][4]byte{{0xaa, 0xbb, 0xcc, 0xdd}})
	require.NoError(t, err)
	c := Caveat{Type: KindAllowedMethods, Terms: terms}

	r := Evaluate(c, Action{To: common.Address{}}, nil)
	require.True(t, r.Permit)
}

func TestValueLteAbsentValueTreatedAsZero(t *testing.T) {
	terms, err := EncodeValueLte(big.NewInt(100))
	require.NoError(t, err)
	c := Caveat{Type: KindValueLte, Terms: terms}

	r := Evaluate(c, Action{}, nil)
	require.True(t, r.Permit)
}

func TestERC20TransferAmount(t *testing.T) {
	token := common.HexToAddress("0xdead000000000000000000000000000000dead")
	bob := common.HexToAddress("0x00000000000000000000000000000000000B0B")
	terms, err := EncodeERC20TransferAmount(token, big.NewInt(1_000_000))
	require.NoError(t, err)
	c := Caveat{Type: KindERC20TransferAmount, Terms: terms}

	data := func(amount int64) []byte {
		return encodeTransferCalldata(bob, big.NewInt(amount))
	}

	permit := Evaluate(c, Action{To: token, Data: data(500_000)}, nil)
	require.True(t, permit.Permit)

	reject := Evaluate(c, Action{To: token, Data: data(1_000_001)}, nil)
	require.False(t, reject.Permit)

	wrongTo := common.HexToAddress("0x000000000000000000000000000000000000aa")
	rejectMismatch := Evaluate(c, Action{To: wrongTo, Data: data(1)}, nil)
	require.False(t, rejectMismatch.Permit)
	require.Contains(t, rejectMismatch.Reason, "token mismatch")
}

func TestERC20TransferAmountIncompleteCalldata(t *testing.T) {
	token := common.HexToAddress("0xdead000000000000000000000000000000dead")
	terms, err := EncodeERC20TransferAmount(token, big.NewInt(1))
	require.NoError(t, err)
	c := Caveat{Type: KindERC20TransferAmount, Terms: terms}

	r := Evaluate(c, Action{To: token, Data: []byte{0xa9, 0x05, 0x9c, 0xbb}}, nil)
	require.False(t, r.Permit)
	require.Equal(t, "incomplete calldata", r.Reason)
}

func TestTimestampWindow(t *testing.T) {
	now := int64(1_700_000_000)
	clock := func() int64 { return now }

	permitTerms, err := EncodeTimestamp(big.NewInt(now-3600), big.NewInt(now+3600))
	require.NoError(t, err)
	permit := Evaluate(Caveat{Type: KindTimestamp, Terms: permitTerms}, Action{}, clock)
	require.True(t, permit.Permit)

	rejectTerms, err := EncodeTimestamp(big.NewInt(now-7200), big.NewInt(now-3600))
	require.NoError(t, err)
	reject := Evaluate(Caveat{Type: KindTimestamp, Terms: rejectTerms}, Action{}, clock)
	require.False(t, reject.Permit)
	require.Equal(t, "after the allowed window", reject.Reason)
}

func TestPassThroughCaveatsNeverReject(t *testing.T) {
	native, err := EncodeNativeTokenTransferAmount(big.NewInt(1))
	require.NoError(t, err)
	limited, err := EncodeLimitedCalls(big.NewInt(0))
	require.NoError(t, err)

	require.True(t, Evaluate(Caveat{Type: KindNativeTokenTransferAmount, Terms: native}, Action{}, nil).Permit)
	require.True(t, Evaluate(Caveat{Type: KindLimitedCalls, Terms: limited}, Action{}, nil).Permit)
}

func TestEvaluateAllIsCommutative(t *testing.T) {
	target := common.HexToAddress("0x1234000000000000000000000000000000005678")
	targetsTerms, _ := EncodeAllowedTargets([]common.Address{target})
	valueTerms, _ := EncodeValueLte(big.NewInt(10))

	a := Caveat{Type: KindAllowedTargets, Terms: targetsTerms}
	b := Caveat{Type: KindValueLte, Terms: valueTerms}
	action := Action{To: target, Value: big.NewInt(5).Bytes()}

	require.True(t, EvaluateAll([]Caveat{a, b}, action, nil).Permit)
	require.True(t, EvaluateAll([]Caveat{b, a}, action, nil).Permit)
}

// encodeTransferCalldata builds a raw transfer(address,uint256) call,
// independent of the production codec, so the matcher test exercises the
// same bytes an ERC-20 token contract would actually receive.
func encodeTransferCalldata(to common.Address, amount *big.Int) []byte {
	selector := []byte{0xa9, 0x05, 0x9c, 0xbb}
	padded := append(common.LeftPadBytes(to.Bytes(), 32), common.LeftPadBytes(amount.Bytes(), 32)...)
	return append(selector, padded...)
}
