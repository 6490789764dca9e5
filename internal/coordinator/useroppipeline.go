package coordinator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// PendingFees optionally overrides SubmitDelegationUserOp's fee lookup
// (spec §4.5c step 2: "If fees absent, fetch suggested fees from the Chain
// Gateway"). Leave both nil to always fetch.
type PendingFees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// SubmitDelegationUserOp executes the full UserOp pipeline (spec §4.5c):
// given a delegation chain in leaf-to-root order and a desired execution,
// build, estimate, hash, sign, and submit the redeeming UserOperation,
// returning the bundler-assigned UserOp hash.
func (c *Coordinator) SubmitDelegationUserOp(ctx context.Context, chain []delegation.Delegation, execution useropcodec.Execution, delegationManager common.Address, fees PendingFees) (string, error) {
	c.mu.Lock()
	bundlerConfigured := c.bundlerConfig.URL != ""
	entryPointHex := c.bundlerConfig.EntryPoint
	chainID := c.chainConfig.ChainID
	c.mu.Unlock()

	// Step 1: require a configured bundler.
	if !bundlerConfigured {
		return "", walleterr.New(walleterr.NotInitialised, "no bundler configured")
	}
	if len(chain) == 0 {
		return "", walleterr.New(walleterr.ValidationFailed, "delegation chain must not be empty")
	}
	entryPoint := common.HexToAddress(entryPointHex)
	if entryPointHex == "" {
		entryPoint = useropcodec.EntryPointV07
	}

	// Step 2: fees, fetched from the Chain Gateway if absent.
	maxFee, priorityFee := fees.MaxFeePerGas, fees.MaxPriorityFeePerGas
	if maxFee == nil || priorityFee == nil {
		gasFees, err := c.chain.GetGasFees(ctx)
		if err != nil {
			return "", err
		}
		maxFee, priorityFee = gasFees.MaxFeePerGas, gasFees.MaxPriorityFeePerGas
	}

	// Step 3: sender is the leaf's delegate.
	sender := chain[0].Delegate

	// Step 4: fetch the sender's ERC-4337 nonce.
	nonce, err := c.chain.GetEntryPointNonce(ctx, entryPoint, sender, nil)
	if err != nil {
		return "", err
	}

	// Step 5: build the unsigned UserOp's callData.
	callData, err := useropcodec.BuildRedeemCallData(delegationManager, chain, execution)
	if err != nil {
		return "", walleterr.Wrap(walleterr.ConfigurationInvalid, err, "build redeem callData")
	}

	op := useropcodec.UserOperation{
		Sender:               sender,
		Nonce:                nonce,
		CallData:             callData,
		CallGasLimit:         big.NewInt(500_000),
		VerificationGasLimit: big.NewInt(500_000),
		PreVerificationGas:   big.NewInt(100_000),
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: priorityFee,
	}

	// Step 6: ask the bundler to estimate gas, replacing the placeholders.
	estimate, err := c.chain.EstimateUserOpGas(ctx, op)
	if err != nil {
		return "", err
	}
	if v, ok := parseHexBig(estimate.CallGasLimit); ok {
		op.CallGasLimit = v
	}
	if v, ok := parseHexBig(estimate.VerificationGasLimit); ok {
		op.VerificationGasLimit = v
	}
	if v, ok := parseHexBig(estimate.PreVerificationGas); ok {
		op.PreVerificationGas = v
	}

	// Step 7: compute the ERC-4337 v0.7 UserOp hash.
	hash := useropcodec.Hash(op, entryPoint, big.NewInt(chainID))

	// Step 8: sign the hash as a raw ECDSA value (no EIP-191).
	sig, err := c.signRawHashStrategy(ctx, hash, &sender)
	if err != nil {
		return "", err
	}
	op.Signature = sig

	// Step 9: submit to the bundler.
	return c.chain.SubmitUserOp(ctx, op)
}

func parseHexBig(hexStr string) (*big.Int, bool) {
	if hexStr == "" {
		return nil, false
	}
	n, ok := new(big.Int).SetString(trimHex(hexStr), 16)
	return n, ok
}

func trimHex(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}
