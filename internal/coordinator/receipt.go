package coordinator

import (
	"context"
	"time"

	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// WaitForUserOpReceipt polls the Chain Gateway for userOpHash's receipt on
// a caller-specified cadence until a non-null receipt appears or timeout
// elapses (spec §4.5f). On timeout it fails with "not included after
// <timeout> ms".
func (c *Coordinator) WaitForUserOpReceipt(ctx context.Context, userOpHash string, interval, timeout time.Duration) (chaingateway.UserOpReceipt, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, found, err := c.chain.GetUserOpReceipt(ctx, userOpHash)
		if err != nil {
			return chaingateway.UserOpReceipt{}, err
		}
		if found {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return chaingateway.UserOpReceipt{}, walleterr.Wrap(walleterr.Timeout, ctx.Err(), "user operation %s not included after %d ms", userOpHash, timeout.Milliseconds())
		case <-deadline.C:
			return chaingateway.UserOpReceipt{}, walleterr.New(walleterr.Timeout, "user operation %s not included after %d ms", userOpHash, timeout.Milliseconds())
		case <-ticker.C:
		}
	}
}
