package authoritystore

import (
	"context"
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
)

var verifyingContract = common.HexToAddress("0x00000000000000000000000000000000c0ffee")

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(durablestore.NewMemoryStore(), verifyingContract, nil)
}

func sign(t *testing.T, key *ecdsa.PrivateKey, d delegation.Delegation) []byte {
	t.Helper()
	digest, err := delegation.HashTypedData(delegation.BuildTypedData(d, verifyingContract))
	require.NoError(t, err)
	sig, err := crypto.Sign(digest[:], key)
	require.NoError(t, err)
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig
}

func TestCreatePrepareAndStoreSigned(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	delegator := crypto.PubkeyToAddress(key.PublicKey)
	delegate := common.HexToAddress("0x0000000000000000000000000000000000beef")

	d, err := s.Create(ctx, delegator, delegate, nil, 1, nil, nil)
	require.NoError(t, err)
	require.Equal(t, delegation.StatusPending, d.Status)
	require.True(t, delegation.VerifyID(d))

	td, err := s.PrepareForSigning(d.ID)
	require.NoError(t, err)
	require.Equal(t, "Delegation", td.PrimaryType)

	sig := sign(t, key, d)
	signed, err := s.StoreSigned(ctx, d.ID, sig)
	require.NoError(t, err)
	require.Equal(t, delegation.StatusSigned, signed.Status)

	_, err = s.StoreSigned(ctx, d.ID, sig)
	require.Error(t, err)
}

func TestReceiveRejectsIDMismatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	delegator := crypto.PubkeyToAddress(key.PublicKey)
	delegate := common.HexToAddress("0x0000000000000000000000000000000000beef")

	d, err := s.Create(ctx, delegator, delegate, nil, 1, nil, nil)
	require.NoError(t, err)
	sig := sign(t, key, d)
	d = d.WithSignature(sig)
	d.ID[0] ^= 0xff // corrupt the id

	_, err = s.Receive(ctx, d, DelegatorUnknown)
	require.Error(t, err)
}

func TestReceiveWithEOAHintVerifiesSigner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	delegator := crypto.PubkeyToAddress(key.PublicKey)
	delegate := common.HexToAddress("0x0000000000000000000000000000000000beef")

	d, err := s.Create(ctx, delegator, delegate, nil, 1, nil, nil)
	require.NoError(t, err)
	sig := sign(t, key, d)
	signed := d.WithSignature(sig)

	received, err := s.Receive(ctx, signed, DelegatorEOA)
	require.NoError(t, err)
	require.Equal(t, delegator, received.Delegator)

	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	wrongSig := sign(t, otherKey, d)
	tampered := d.WithSignature(wrongSig)
	_, err = s.Receive(ctx, tampered, DelegatorEOA)
	require.Error(t, err)
}

func TestFindForActionRespectsCaveatsAndOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	delegator := common.HexToAddress("0x0000000000000000000000000000000000aaaa")
	delegate := common.HexToAddress("0x0000000000000000000000000000000000beef")
	allowedTarget := common.HexToAddress("0x0000000000000000000000000000000000cafe")

	terms, err := caveat.EncodeAllowedTargets([]common.Address{allowedTarget})
	require.NoError(t, err)
	restricted := caveat.Caveat{Enforcer: common.HexToAddress("0x01"), Terms: terms, Type: caveat.KindAllowedTargets}

	first, err := s.Create(ctx, delegator, delegate, []caveat.Caveat{restricted}, 1, nil, nil)
	require.NoError(t, err)
	first, err = s.StoreSigned(ctx, first.ID, []byte{0x01})
	require.NoError(t, err)

	second, err := s.Create(ctx, delegator, delegate, nil, 1, nil, nil)
	require.NoError(t, err)
	second, err = s.StoreSigned(ctx, second.ID, []byte{0x01})
	require.NoError(t, err)

	found, ok := s.FindForAction(caveat.Action{To: common.HexToAddress("0x0000000000000000000000000000000000dead")}, nil)
	require.True(t, ok)
	require.Equal(t, second.ID, found.ID)

	found, ok = s.FindForAction(caveat.Action{To: allowedTarget}, nil)
	require.True(t, ok)
	require.Equal(t, first.ID, found.ID)
}

func TestRevokeIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	d, err := s.Create(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02"), nil, 1, nil, nil)
	require.NoError(t, err)

	revoked, err := s.Revoke(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, delegation.StatusRevoked, revoked.Status)

	_, err = s.Revoke(ctx, d.ID)
	require.Error(t, err)
}

func TestRestoreRebuildsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	store := durablestore.NewMemoryStore()
	s1 := New(store, verifyingContract, nil)

	a, err := s1.Create(ctx, common.HexToAddress("0x01"), common.HexToAddress("0x02"), nil, 1, nil, nil)
	require.NoError(t, err)
	b, err := s1.Create(ctx, common.HexToAddress("0x03"), common.HexToAddress("0x04"), nil, 1, nil, nil)
	require.NoError(t, err)

	s2 := New(store, verifyingContract, nil)
	require.NoError(t, s2.Restore(ctx))

	list := s2.List()
	require.Len(t, list, 2)
	require.Equal(t, a.ID, list[0].ID)
	require.Equal(t, b.ID, list[1].ID)
}
