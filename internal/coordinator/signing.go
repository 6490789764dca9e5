package coordinator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
)

// SignTransaction resolves the transaction signing strategy and returns
// the RLP-encoded signed transaction (spec §4.3, §4.5a, §6).
func (c *Coordinator) SignTransaction(ctx context.Context, req keyholder.TransactionRequest) ([]byte, error) {
	return c.signTransactionStrategy(ctx, req)
}

// SignTypedData resolves the typed-data signing strategy (spec §4.5a,
// §6). from is optional; nil selects the first eligible account under
// whichever strategy is chosen.
func (c *Coordinator) SignTypedData(ctx context.Context, td apitypes.TypedData, from *common.Address) ([]byte, error) {
	return c.signTypedDataStrategy(ctx, td, from)
}

// SignMessage resolves the EIP-191 message signing strategy (spec §4.5a,
// §6).
func (c *Coordinator) SignMessage(ctx context.Context, message []byte, from *common.Address) ([]byte, error) {
	return c.signMessageStrategy(ctx, message, from)
}
