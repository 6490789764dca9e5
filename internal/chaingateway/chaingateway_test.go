package chaingateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := New(nil)
	g.Configure(ChainConfig{ChainID: 1, RPCURL: srv.URL})
	return g
}

func jsonRPCResult(w http.ResponseWriter, id uint64, result any) {
	resp := map[string]any{"jsonrpc": "2.0", "id": id, "result": result}
	raw, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

func TestGetBalanceHappyPath(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "eth_getBalance", req.Method)
		jsonRPCResult(w, req.ID, "0x2710")
	})

	bal, err := g.GetBalance(context.Background(), common.HexToAddress("0x01"))
	require.NoError(t, err)
	require.Equal(t, int64(10000), bal.Int64())
}

func TestCallRetriesOnTransientStatusThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		jsonRPCResult(w, req.ID, "0x1")
	})

	chainID, err := g.GetChainID(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), chainID.Int64())
	require.Equal(t, int32(2), attempts.Load())
}

func TestCallDoesNotRetryNonRetryableStatus(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := g.GetChainID(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(1), attempts.Load())
}

func TestCallDoesNotRetryJSONRPCErrorObject(t *testing.T) {
	var attempts atomic.Int32
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		var req rpcRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]any{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]any{"code": -32000, "message": "execution reverted"},
		}
		raw, _ := json.Marshal(resp)
		w.Write(raw)
	})

	_, err := g.GetChainID(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(1), attempts.Load())
}

func TestRequestIDsAreMonotonicAcrossCalls(t *testing.T) {
	seen := make([]uint64, 0, 3)
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req.ID)
		jsonRPCResult(w, req.ID, "0x0")
	})

	for i := 0; i < 3; i++ {
		_, err := g.GetChainID(context.Background())
		require.NoError(t, err)
	}

	for i := 1; i < len(seen); i++ {
		require.Greater(t, seen[i], seen[i-1])
	}
}

func TestGetEntryPointNonceEncodesCalldata(t *testing.T) {
	var capturedData string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		params, ok := req.Params.([]any)
		require.True(t, ok)
		call := params[0].(map[string]any)
		capturedData = call["data"].(string)
		jsonRPCResult(w, req.ID, "0x5")
	})

	entryPoint := common.HexToAddress("0x0000000071727De22E5E9d8BAf0edAc6f37da032")
	sender := common.HexToAddress("0x000000000000000000000000000000000000aa")
	nonce, err := g.GetEntryPointNonce(context.Background(), entryPoint, sender, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), nonce.Int64())
	require.Equal(t, fmt.Sprintf("0x%x", getNonceSelectorBytes()), capturedData[:10])
}

func getNonceSelectorBytes() [4]byte {
	return [4]byte{0x35, 0x56, 0x7e, 0x1a}
}
