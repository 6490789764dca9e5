// Package chaingateway is the wallet's only network boundary: thin
// JSON-RPC wrappers against a node endpoint and a bundler endpoint, with a
// uniform retry policy and a deterministic request id (spec §4.4).
package chaingateway

import "math/big"

// ChainConfig names the node this gateway talks to.
type ChainConfig struct {
	ChainID int64
	RPCURL  string
}

// BundlerConfig names the ERC-4337 bundler endpoint.
type BundlerConfig struct {
	URL        string
	EntryPoint string // hex address, validated by the Coordinator before use
}

// GasFees is the result of GetGasFees (spec §4.4).
type GasFees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// DefaultPriorityFeeWei is the conservative fallback priority fee (1 gwei)
// used when eth_maxPriorityFeePerGas fails (spec §4.4).
var DefaultPriorityFeeWei = big.NewInt(1_000_000_000)

// UserOpReceipt is the decoded shape of eth_getUserOperationReceipt's
// result, kept deliberately loose (a generic map for the nested receipt) since
// bundlers vary in the exact receipt shape they return.
type UserOpReceipt struct {
	UserOpHash    string         `json:"userOpHash"`
	Success       bool           `json:"success"`
	Reason        string         `json:"reason,omitempty"`
	ActualGasCost string         `json:"actualGasCost,omitempty"`
	ActualGasUsed string         `json:"actualGasUsed,omitempty"`
	Receipt       map[string]any `json:"receipt,omitempty"`
}

// UserOpGasEstimate is the decoded shape of
// eth_estimateUserOperationGas's result.
type UserOpGasEstimate struct {
	PreVerificationGas   string `json:"preVerificationGas"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	CallGasLimit         string `json:"callGasLimit"`
}
