package chaingateway

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// Gateway is the Chain Gateway: the wallet's only path to a node and a
// bundler, both reached over plain JSON-RPC (spec §4.4).
type Gateway struct {
	chain   ChainConfig
	bundler BundlerConfig
	http    *http.Client
	log     *logrus.Entry
}

// New constructs an unconfigured Gateway. Configure must be called before
// any node-facing method is used.
func New(log *logrus.Logger) *Gateway {
	if log == nil {
		log = logrus.New()
	}
	return &Gateway{
		http: &http.Client{},
		log:  log.WithField("component", "chaingateway"),
	}
}

// Configure sets the JSON-RPC node endpoint (spec §4.4).
func (g *Gateway) Configure(cfg ChainConfig) {
	g.chain = cfg
	g.log.WithField("chainId", cfg.ChainID).Info("chain gateway configured")
}

// ConfigureBundler sets the ERC-4337 bundler endpoint.
func (g *Gateway) ConfigureBundler(cfg BundlerConfig) {
	g.bundler = cfg
	g.log.WithField("bundlerUrl", cfg.URL).Info("bundler configured")
}

// Request issues an arbitrary JSON-RPC call against the configured node
// (spec §4.4's `request(method, params)` escape hatch).
func (g *Gateway) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if g.chain.RPCURL == "" {
		return nil, walleterr.New(walleterr.NotInitialised, "chain gateway not configured")
	}
	return call(ctx, g.http, g.chain.RPCURL, method, params)
}

// BroadcastTransaction submits a signed, RLP-encoded transaction via
// eth_sendRawTransaction and returns its hash.
func (g *Gateway) BroadcastTransaction(ctx context.Context, signedTxRaw []byte) (common.Hash, error) {
	raw, err := g.Request(ctx, "eth_sendRawTransaction", []any{hexutil.Encode(signedTxRaw)})
	if err != nil {
		return common.Hash{}, err
	}
	var hashHex string
	if err := json.Unmarshal(raw, &hashHex); err != nil {
		return common.Hash{}, walleterr.Wrap(walleterr.NetworkFatal, err, "decode transaction hash")
	}
	return common.HexToHash(hashHex), nil
}

// GetBalance returns the wei balance of addr at the "latest" block.
func (g *Gateway) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	raw, err := g.Request(ctx, "eth_getBalance", []any{addr.Hex(), "latest"})
	if err != nil {
		return nil, err
	}
	return decodeHexBigInt(raw)
}

// GetChainID returns the node's advertised chain id.
func (g *Gateway) GetChainID(ctx context.Context) (*big.Int, error) {
	raw, err := g.Request(ctx, "eth_chainId", []any{})
	if err != nil {
		return nil, err
	}
	return decodeHexBigInt(raw)
}

// GetNonce returns addr's EOA transaction count at the "latest" block.
func (g *Gateway) GetNonce(ctx context.Context, addr common.Address) (uint64, error) {
	raw, err := g.Request(ctx, "eth_getTransactionCount", []any{addr.Hex(), "latest"})
	if err != nil {
		return 0, err
	}
	n, err := decodeHexBigInt(raw)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

var (
	getNonceAddressType = mustABIType("address")
	getNonceUint192Type = mustABIType("uint192")
	getNonceArgs        = abi.Arguments{{Type: getNonceAddressType}, {Type: getNonceUint192Type}}
)

func mustABIType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("chaingateway: abi type " + name + ": " + err.Error())
	}
	return t
}

// GetEntryPointNonce ABI-encodes a call to the EntryPoint's
// getNonce(address,uint192) and issues eth_call (spec §4.4). key
// defaults to 0 (the common case of a single sequential nonce channel).
func (g *Gateway) GetEntryPointNonce(ctx context.Context, entryPoint, sender common.Address, key *big.Int) (*big.Int, error) {
	if key == nil {
		key = big.NewInt(0)
	}
	packed, err := getNonceArgs.Pack(sender, key)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "pack getNonce call")
	}
	calldata := append(append([]byte{}, useropcodec.GetNonceSelector[:]...), packed...)

	raw, err := g.Request(ctx, "eth_call", []any{
		map[string]any{"to": entryPoint.Hex(), "data": hexutil.Encode(calldata)},
		"latest",
	})
	if err != nil {
		return nil, err
	}
	return decodeHexBigInt(raw)
}

func decodeHexBigInt(raw json.RawMessage) (*big.Int, error) {
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		return nil, walleterr.Wrap(walleterr.NetworkFatal, err, "decode hex quantity")
	}
	n, ok := new(big.Int).SetString(trimHexPrefix(hexStr), 16)
	if !ok {
		return nil, walleterr.New(walleterr.NetworkFatal, "malformed hex quantity %q", hexStr)
	}
	return n, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
