package coordinator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
)

// SendTransactionResult reports which of the two dispatch paths
// sendTransaction took (spec §4.5e).
type SendTransactionResult struct {
	ViaUserOp       bool
	UserOpHash      string
	TransactionHash common.Hash
}

// SendTransaction dispatches a transaction by action {to, value, data}: if
// a bundler is configured and the Authority Store finds a matching signed
// delegation for that action, it takes the UserOp path; otherwise it
// signs and broadcasts the transaction directly via the transaction
// signing strategy (spec §4.5e). delegationManager is only used on the
// UserOp path.
func (c *Coordinator) SendTransaction(ctx context.Context, req keyholder.TransactionRequest, delegationManager common.Address) (SendTransactionResult, error) {
	c.mu.Lock()
	bundlerConfigured := c.bundlerConfig.URL != ""
	chainID := c.chainConfig.ChainID
	c.mu.Unlock()

	if bundlerConfigured && req.To != nil {
		action := caveat.Action{To: *req.To, Data: req.Data}
		if req.Value != nil {
			action.Value = req.Value.Bytes()
		}
		if d, ok := c.authority.FindForAction(action, &chainID); ok {
			execution := useropcodec.Execution{Target: *req.To, Value: valueOrZero(req.Value), CallData: req.Data}
			hash, err := c.RedeemDelegation(ctx, RedeemRoute{Chain: []delegation.Delegation{d}}, execution, delegationManager)
			if err != nil {
				return SendTransactionResult{}, err
			}
			return SendTransactionResult{ViaUserOp: true, UserOpHash: hash}, nil
		}
	}

	signed, err := c.signTransactionStrategy(ctx, req)
	if err != nil {
		return SendTransactionResult{}, err
	}
	txHash, err := c.chain.BroadcastTransaction(ctx, signed)
	if err != nil {
		return SendTransactionResult{}, err
	}
	return SendTransactionResult{TransactionHash: txHash}, nil
}

func valueOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
