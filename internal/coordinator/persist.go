package coordinator

import (
	"context"

	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// persistLocked writes the Coordinator's configuration record. Caller must
// hold c.mu.
func (c *Coordinator) persistLocked(ctx context.Context) error {
	state := persistedState{
		ChainConfig:   c.chainConfig,
		BundlerConfig: c.bundlerConfig,
		SmartAccount:  c.smartAccount,
	}
	if err := c.store.Save(ctx, namespace, recordKey, state); err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "persist coordinator state")
	}
	return nil
}

// Restore rehydrates chain/bundler/smart-account configuration from a
// prior process. externalSigner and peerWallet are not persisted (spec §3,
// "stale-tolerable references") and must be reconnected by the caller via
// ConnectExternalSigner / ConnectPeerWallet after Restore.
func (c *Coordinator) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var state persistedState
	found, err := c.store.Load(ctx, namespace, recordKey, &state)
	if err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "load coordinator state")
	}
	if !found {
		return nil
	}

	c.chainConfig = state.ChainConfig
	c.bundlerConfig = state.BundlerConfig
	c.smartAccount = state.SmartAccount

	if c.chainConfig.RPCURL != "" {
		c.chain.Configure(c.chainConfig)
	}
	if c.bundlerConfig.URL != "" {
		c.chain.ConfigureBundler(c.bundlerConfig)
	}

	c.log.Info("coordinator state restored")
	return nil
}
