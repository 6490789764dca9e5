package keyholder

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
)

// testMnemonic is the well-known all-"abandon" BIP-39 test vector.
const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func newTestHolder(t *testing.T, store durablestore.Store) *KeyHolder {
	t.Helper()
	if store == nil {
		store = durablestore.NewMemoryStore()
	}
	return New(store, []byte("test-master-secret"), nil)
}

func TestInitializeSeedAndDeriveAccounts(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)

	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))

	_, err := k.DeriveAccount(ctx, 0)
	require.NoError(t, err)
	acc1, err := k.DeriveAccount(ctx, 1)
	require.NoError(t, err)

	accounts := k.GetAccounts()
	require.Len(t, accounts, 2)
	require.Equal(t, acc1.Address, accounts[1].Address)
	require.NotEqual(t, accounts[0].Address, accounts[1].Address)
}

func TestInitializeRejectsSecondCall(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))

	err := k.Initialize(ctx, InitOptions{Kind: KindEphemeral})
	require.Error(t, err)
}

func TestDeriveAccountRequiresSeedKind(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindEphemeral}))

	_, err := k.DeriveAccount(ctx, 0)
	require.Error(t, err)
}

func TestSignHashAndSignMessageDiffer(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))
	acc, err := k.DeriveAccount(ctx, 0)
	require.NoError(t, err)

	var hash [32]byte
	copy(hash[:], crypto.Keccak256([]byte("some 32 byte user operation hash")))

	rawSig, err := k.SignHash(hash, &acc.Address)
	require.NoError(t, err)

	messageSig, err := k.SignMessage(hash[:], &acc.Address)
	require.NoError(t, err)

	// Raw ECDSA over the hash and EIP-191 personal-sign over the same bytes
	// must never coincide — they hash fundamentally different preimages
	// (spec §8).
	require.NotEqual(t, rawSig, messageSig)
}

func TestSignTypedData(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))
	acc, err := k.DeriveAccount(ctx, 0)
	require.NoError(t, err)

	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": []apitypes.Type{
				{Name: "name", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Mail": []apitypes.Type{
				{Name: "contents", Type: "string"},
			},
		},
		PrimaryType: "Mail",
		Domain: apitypes.TypedDataDomain{
			Name:    "test",
			ChainId: (*math.HexOrDecimal256)(big.NewInt(1)),
		},
		Message: apitypes.TypedDataMessage{
			"contents": "hello",
		},
	}

	sig, err := k.SignTypedData(td, &acc.Address)
	require.NoError(t, err)
	require.Len(t, sig, 65)
}

func TestSignTransactionSelectsEncodingByShape(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))
	acc, err := k.DeriveAccount(ctx, 0)
	require.NoError(t, err)

	to := common.HexToAddress("0x000000000000000000000000000000deadbeef")
	chainID := big.NewInt(1)

	legacy, err := k.SignTransaction(TransactionRequest{
		From: acc.Address, To: &to, Nonce: 0, GasLimit: 21000,
		Value: big.NewInt(1), GasPrice: big.NewInt(1_000_000_000), ChainID: chainID,
	})
	require.NoError(t, err)
	require.Equal(t, uint8(types.LegacyTxType), legacy.Type())

	dynamic, err := k.SignTransaction(TransactionRequest{
		From: acc.Address, To: &to, Nonce: 1, GasLimit: 21000,
		Value: big.NewInt(1), GasFeeCap: big.NewInt(2_000_000_000), GasTipCap: big.NewInt(1_000_000_000),
		ChainID: chainID,
	})
	require.NoError(t, err)
	require.Equal(t, uint8(types.DynamicFeeTxType), dynamic.Type())

	setCode, err := k.SignTransaction(TransactionRequest{
		From: acc.Address, To: &to, Nonce: 2, GasLimit: 50000,
		GasFeeCap: big.NewInt(2_000_000_000), GasTipCap: big.NewInt(1_000_000_000),
		ChainID: chainID,
		AuthorizationList: []types.SetCodeAuthorization{
			{ChainID: *uint256.MustFromBig(chainID), Address: to, Nonce: 0},
		},
	})
	require.NoError(t, err)
	require.Equal(t, uint8(types.SetCodeTxType), setCode.Type())
}

func TestSignTransactionRejectsUnknownSender(t *testing.T) {
	ctx := context.Background()
	k := newTestHolder(t, nil)
	require.NoError(t, k.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))

	_, err := k.SignTransaction(TransactionRequest{
		From:     common.HexToAddress("0x00000000000000000000000000000000000001"),
		GasPrice: big.NewInt(1),
		ChainID:  big.NewInt(1),
	})
	require.Error(t, err)
}

func TestRestoreRehydratesFromStore(t *testing.T) {
	ctx := context.Background()
	store := durablestore.NewMemoryStore()
	masterSecret := []byte("shared-master-secret")

	k1 := New(store, masterSecret, nil)
	require.NoError(t, k1.Initialize(ctx, InitOptions{Kind: KindSeed, Mnemonic: testMnemonic}))
	acc0, err := k1.DeriveAccount(ctx, 0)
	require.NoError(t, err)

	k2 := New(store, masterSecret, nil)
	require.NoError(t, k2.Restore(ctx))

	accounts := k2.GetAccounts()
	require.Len(t, accounts, 1)
	require.Equal(t, acc0.Address, accounts[0].Address)
}

func TestEphemeralInitializeAndPersistRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := durablestore.NewMemoryStore()
	masterSecret := []byte("another-master-secret")

	k1 := New(store, masterSecret, nil)
	require.NoError(t, k1.Initialize(ctx, InitOptions{Kind: KindEphemeral}))
	accounts := k1.GetAccounts()
	require.Len(t, accounts, 1)

	k2 := New(store, masterSecret, nil)
	require.NoError(t, k2.Restore(ctx))
	require.Equal(t, accounts[0].Address, k2.GetAccounts()[0].Address)
}
