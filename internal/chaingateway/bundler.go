package chaingateway

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// userOpJSON is the bundler wire shape for a UserOperation: every integer
// field hex-encoded, per the ERC-4337 JSON-RPC convention.
type userOpJSON struct {
	Sender                        string  `json:"sender"`
	Nonce                         string  `json:"nonce"`
	Factory                       *string `json:"factory,omitempty"`
	FactoryData                   string  `json:"factoryData,omitempty"`
	CallData                      string  `json:"callData"`
	CallGasLimit                  string  `json:"callGasLimit"`
	VerificationGasLimit          string  `json:"verificationGasLimit"`
	PreVerificationGas            string  `json:"preVerificationGas"`
	MaxFeePerGas                  string  `json:"maxFeePerGas"`
	MaxPriorityFeePerGas          string  `json:"maxPriorityFeePerGas"`
	Paymaster                     *string `json:"paymaster,omitempty"`
	PaymasterVerificationGasLimit string  `json:"paymasterVerificationGasLimit,omitempty"`
	PaymasterPostOpGasLimit       string  `json:"paymasterPostOpGasLimit,omitempty"`
	PaymasterData                 string  `json:"paymasterData,omitempty"`
	Signature                     string  `json:"signature"`
}

func toUserOpJSON(op useropcodec.UserOperation) userOpJSON {
	j := userOpJSON{
		Sender:               op.Sender.Hex(),
		Nonce:                hexutil.EncodeBig(op.Nonce),
		CallData:             hexutil.Encode(op.CallData),
		CallGasLimit:         hexutil.EncodeBig(op.CallGasLimit),
		VerificationGasLimit: hexutil.EncodeBig(op.VerificationGasLimit),
		PreVerificationGas:   hexutil.EncodeBig(op.PreVerificationGas),
		MaxFeePerGas:         hexutil.EncodeBig(op.MaxFeePerGas),
		MaxPriorityFeePerGas: hexutil.EncodeBig(op.MaxPriorityFeePerGas),
		Signature:            hexutil.Encode(op.Signature),
	}
	if op.Factory != nil {
		addr := op.Factory.Hex()
		j.Factory = &addr
		j.FactoryData = hexutil.Encode(op.FactoryData)
	}
	if op.Paymaster != nil {
		addr := op.Paymaster.Hex()
		j.Paymaster = &addr
		j.PaymasterVerificationGasLimit = hexutil.EncodeBig(op.PaymasterVerificationGasLimit)
		j.PaymasterPostOpGasLimit = hexutil.EncodeBig(op.PaymasterPostOpGasLimit)
		j.PaymasterData = hexutil.Encode(op.PaymasterData)
	}
	return j
}

func (g *Gateway) requestBundler(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if g.bundler.URL == "" {
		return nil, walleterr.New(walleterr.NotInitialised, "bundler not configured")
	}
	return call(ctx, g.http, g.bundler.URL, method, params)
}

// SubmitUserOp sends a UserOperation to the configured bundler via
// eth_sendUserOperation and returns its hash (spec §4.4).
func (g *Gateway) SubmitUserOp(ctx context.Context, op useropcodec.UserOperation) (string, error) {
	raw, err := g.requestBundler(ctx, "eth_sendUserOperation", []any{toUserOpJSON(op), g.bundler.EntryPoint})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", walleterr.Wrap(walleterr.NetworkFatal, err, "decode user operation hash")
	}
	return hash, nil
}

// EstimateUserOpGas calls eth_estimateUserOperationGas (spec §4.4).
func (g *Gateway) EstimateUserOpGas(ctx context.Context, op useropcodec.UserOperation) (UserOpGasEstimate, error) {
	raw, err := g.requestBundler(ctx, "eth_estimateUserOperationGas", []any{toUserOpJSON(op), g.bundler.EntryPoint})
	if err != nil {
		return UserOpGasEstimate{}, err
	}
	var estimate UserOpGasEstimate
	if err := json.Unmarshal(raw, &estimate); err != nil {
		return UserOpGasEstimate{}, walleterr.Wrap(walleterr.NetworkFatal, err, "decode gas estimate")
	}
	return estimate, nil
}

// GetUserOpReceipt calls eth_getUserOperationReceipt (spec §4.4). A nil
// result (still pending) is reported via the bool return, not an error.
func (g *Gateway) GetUserOpReceipt(ctx context.Context, userOpHash string) (UserOpReceipt, bool, error) {
	raw, err := g.requestBundler(ctx, "eth_getUserOperationReceipt", []any{userOpHash})
	if err != nil {
		return UserOpReceipt{}, false, err
	}
	if string(raw) == "null" || len(raw) == 0 {
		return UserOpReceipt{}, false, nil
	}
	var receipt UserOpReceipt
	if err := json.Unmarshal(raw, &receipt); err != nil {
		return UserOpReceipt{}, false, walleterr.Wrap(walleterr.NetworkFatal, err, "decode user operation receipt")
	}
	return receipt, true, nil
}
