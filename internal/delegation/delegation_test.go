package delegation

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
)

func newTestDelegation(t *testing.T) Delegation {
	t.Helper()
	delegator := common.HexToAddress("0x00000000000000000000000000000000000A11")
	delegate := common.HexToAddress("0x00000000000000000000000000000000000B0B")
	d := Delegation{
		Delegator: delegator,
		Delegate:  delegate,
		Authority: Root,
		Salt:      big.NewInt(1),
		ChainID:   1,
		Status:    StatusPending,
	}
	d.ID = DeriveID(d.Delegator, d.Delegate, d.Authority, d.Salt)
	return d
}

func TestDeriveIDInvariant(t *testing.T) {
	d := newTestDelegation(t)
	require.True(t, VerifyID(d))

	tampered := d
	tampered.Salt = big.NewInt(2)
	require.False(t, VerifyID(tampered))
}

func TestLifecycleTransitionsAreImmutable(t *testing.T) {
	d := newTestDelegation(t)
	require.Equal(t, StatusPending, d.Status)
	require.Nil(t, d.Signature)

	signed := d.WithSignature([]byte{0xde, 0xad, 0xbe, 0xef})
	require.Equal(t, StatusSigned, signed.Status)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, signed.Signature)
	require.Equal(t, d.ID, signed.ID)

	// original is unchanged
	require.Equal(t, StatusPending, d.Status)
	require.Nil(t, d.Signature)

	revoked := signed.Revoked()
	require.Equal(t, StatusRevoked, revoked.Status)
	require.Equal(t, StatusSigned, signed.Status)
}

func TestSdkTupleRoundTrip(t *testing.T) {
	d := newTestDelegation(t)
	token := common.HexToAddress("0xdead000000000000000000000000000000dead")
	terms, err := caveat.EncodeERC20TransferAmount(token, big.NewInt(1000))
	require.NoError(t, err)
	d.Caveats = []caveat.Caveat{{Enforcer: common.HexToAddress("0x00000000000000000000000000000000000C0C"), Terms: terms, Type: caveat.KindERC20TransferAmount}}
	signed := d.WithSignature([]byte{0x01, 0x02})

	kindByEnforcer := map[common.Address]caveat.Kind{
		common.HexToAddress("0x00000000000000000000000000000000000C0C"): caveat.KindERC20TransferAmount,
	}

	tuple := ToSdkTuple(signed)
	back := FromSdkTuple(tuple, signed.ChainID, func(a common.Address) caveat.Kind { return kindByEnforcer[a] })

	require.Equal(t, signed.Delegator, back.Delegator)
	require.Equal(t, signed.Delegate, back.Delegate)
	require.Equal(t, signed.Authority, back.Authority)
	require.Equal(t, signed.Salt, back.Salt)
	require.Equal(t, signed.Signature, back.Signature)
	require.Equal(t, signed.ID, back.ID)
}

func TestGenerateSaltDistinct(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestBuildTypedDataSaltIsDecimalString(t *testing.T) {
	d := newTestDelegation(t)
	td := BuildTypedData(d, common.HexToAddress("0x00000000000000000000000000000000000DD1"))
	require.Equal(t, "1", td.Message["salt"])

	hash, err := HashTypedData(td)
	require.NoError(t, err)
	require.NotEqual(t, [32]byte{}, hash)
}
