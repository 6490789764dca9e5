package coordinator

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"

	"github.com/ai-wallet-labs/delegation-wallet/internal/authoritystore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/peer"
	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

var verifyingContract = common.HexToAddress("0x00000000000000000000000000000000c0ffee")

func newTestCoordinator(t *testing.T) (*Coordinator, *keyholder.KeyHolder, durablestore.Store) {
	t.Helper()
	store := durablestore.NewMemoryStore()
	kh := keyholder.New(store, []byte("test-master-secret"), nil)
	as := authoritystore.New(store, verifyingContract, nil)
	cg := chaingateway.New(nil)
	c := New(kh, as, cg, store, nil)
	return c, kh, store
}

func initLocalAccount(t *testing.T, kh *keyholder.KeyHolder) common.Address {
	t.Helper()
	require.NoError(t, kh.Initialize(context.Background(), keyholder.InitOptions{Kind: keyholder.KindSeed, Mnemonic: testMnemonic}))
	acc, err := kh.DeriveAccount(context.Background(), 0)
	require.NoError(t, err)
	return acc.Address
}

type fakeExternalSigner struct {
	accounts []common.Address
	sign     func(peer.SigningRequest) ([]byte, error)
}

func (f *fakeExternalSigner) Accounts(ctx context.Context) ([]common.Address, error) {
	return f.accounts, nil
}

func (f *fakeExternalSigner) Sign(ctx context.Context, req peer.SigningRequest) ([]byte, error) {
	return f.sign(req)
}

func TestPickDelegatorPrefersSmartAccountThenLocalThenExternal(t *testing.T) {
	c, kh, _ := newTestCoordinator(t)
	ctx := context.Background()

	_, err := c.pickDelegator(ctx)
	require.Error(t, err)

	external := common.HexToAddress("0xaaaa")
	c.ConnectExternalSigner(&fakeExternalSigner{accounts: []common.Address{external}})
	got, err := c.pickDelegator(ctx)
	require.NoError(t, err)
	require.Equal(t, external, got)

	local := initLocalAccount(t, kh)
	got, err = c.pickDelegator(ctx)
	require.NoError(t, err)
	require.Equal(t, local, got)

	sa, err := c.CreateSmartAccount(ctx, SmartAccountHybrid, big.NewInt(1), common.HexToAddress("0xbbbb"))
	require.NoError(t, err)
	got, err = c.pickDelegator(ctx)
	require.NoError(t, err)
	require.Equal(t, sa.Address, got)
}

func TestCreateDelegationSignsWithLocalKey(t *testing.T) {
	c, kh, _ := newTestCoordinator(t)
	ctx := context.Background()
	delegator := initLocalAccount(t, kh)

	delegate := common.HexToAddress("0xdddd")
	d, err := c.CreateDelegation(ctx, delegate, nil, 1, nil, nil)
	require.NoError(t, err)

	require.Equal(t, delegator, d.Delegator)
	require.Equal(t, delegate, d.Delegate)
	require.Equal(t, delegation.StatusSigned, d.Status)
	require.True(t, delegation.VerifyID(d))
	require.NotEmpty(t, d.Signature)
}

func TestRedeemDelegationRejectsUnsignedDelegation(t *testing.T) {
	c, kh, _ := newTestCoordinator(t)
	ctx := context.Background()
	delegator := initLocalAccount(t, kh)

	pending, err := c.authority.Create(ctx, delegator, common.HexToAddress("0xdddd"), nil, 1, nil, nil)
	require.NoError(t, err)

	_, err = c.RedeemDelegation(ctx, RedeemRoute{ID: &pending.ID}, useropcodec.Execution{}, verifyingContract)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not signed")
}

func TestRedeemDelegationFailsWithoutRoute(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	_, err := c.RedeemDelegation(context.Background(), RedeemRoute{}, useropcodec.Execution{}, verifyingContract)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must provide one of")
}

func TestSendTransactionBroadcastsWhenNoBundlerConfigured(t *testing.T) {
	c, kh, _ := newTestCoordinator(t)
	ctx := context.Background()
	from := initLocalAccount(t, kh)

	var capturedMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		capturedMethod = req.Method
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "0x" + "11"}
		raw, _ := json.Marshal(resp)
		w.Write(raw)
	}))
	defer srv.Close()

	require.NoError(t, c.ConfigureProvider(ctx, chaingateway.ChainConfig{ChainID: 1, RPCURL: srv.URL}))

	to := common.HexToAddress("0xeeee")
	result, err := c.SendTransaction(ctx, keyholder.TransactionRequest{
		From: from, To: &to, Nonce: 0, GasLimit: 21000,
		Value: big.NewInt(1), ChainID: big.NewInt(1), GasFeeCap: big.NewInt(2), GasTipCap: big.NewInt(1),
	}, verifyingContract)
	require.NoError(t, err)
	require.False(t, result.ViaUserOp)
	require.Equal(t, "eth_sendRawTransaction", capturedMethod)
}

func TestSendTransactionTakesUserOpPathWhenDelegationMatches(t *testing.T) {
	c, kh, _ := newTestCoordinator(t)
	ctx := context.Background()
	delegator := initLocalAccount(t, kh)
	agent, err := kh.DeriveAccount(ctx, 1)
	require.NoError(t, err)

	to := common.HexToAddress("0xeeee")
	terms, err := caveat.EncodeAllowedTargets([]common.Address{to})
	require.NoError(t, err)
	caveats := []caveat.Caveat{{Enforcer: common.HexToAddress("0xf00d"), Terms: terms, Type: caveat.KindAllowedTargets}}

	d, err := c.CreateDelegation(ctx, agent.Address, caveats, 1, nil, nil)
	require.NoError(t, err)
	require.Equal(t, delegator, d.Delegator)

	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     uint64 `json:"id"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		methods = append(methods, req.Method)

		var result any
		switch req.Method {
		case "eth_call":
			result = "0x1"
		case "eth_getBlockByNumber":
			result = map[string]any{"baseFeePerGas": "0x3b9aca00"}
		case "eth_maxPriorityFeePerGas":
			result = "0x3b9aca00"
		case "eth_estimateUserOperationGas":
			result = map[string]any{"preVerificationGas": "0x5208", "verificationGasLimit": "0x5208", "callGasLimit": "0x5208"}
		case "eth_sendUserOperation":
			result = "0xuserop"
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}
		raw, _ := json.Marshal(resp)
		w.Write(raw)
	}))
	defer srv.Close()

	require.NoError(t, c.ConfigureProvider(ctx, chaingateway.ChainConfig{ChainID: 1, RPCURL: srv.URL}))
	require.NoError(t, c.ConfigureBundler(ctx, chaingateway.BundlerConfig{URL: srv.URL, EntryPoint: useropcodec.EntryPointV07.Hex()}))

	result, err := c.SendTransaction(ctx, keyholder.TransactionRequest{
		From: agent.Address, To: &to, ChainID: big.NewInt(1),
	}, verifyingContract)
	require.NoError(t, err)
	require.True(t, result.ViaUserOp)
	require.Equal(t, "0xuserop", result.UserOpHash)
	require.Contains(t, methods, "eth_sendUserOperation")
}

func TestWaitForUserOpReceiptTimesOut(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID uint64 `json:"id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": nil}
		raw, _ := json.Marshal(resp)
		w.Write(raw)
	}))
	defer srv.Close()

	require.NoError(t, c.ConfigureBundler(context.Background(), chaingateway.BundlerConfig{URL: srv.URL, EntryPoint: useropcodec.EntryPointV07.Hex()}))

	_, err := c.WaitForUserOpReceipt(context.Background(), "0xabc", 5*time.Millisecond, 20*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not included after")
}

func TestHandleSigningRequestFailsWithoutSigner(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	req := peer.NewSigningRequest(peer.KindTypedData, nil)
	td := apitypes.TypedData{}
	req.TypedData = &td
	_, err := c.HandleSigningRequest(context.Background(), req)
	require.Error(t, err)
}
