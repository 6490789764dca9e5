package coordinator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/peer"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// InitializeKeyring forwards to the Key Holder's initialize operation
// (spec §4.3, §6).
func (c *Coordinator) InitializeKeyring(ctx context.Context, opts keyholder.InitOptions) error {
	return c.keyHolder.Initialize(ctx, opts)
}

// ConfigureProvider sets the node the Chain Gateway talks to and persists
// it as part of Coordinator state (spec §3, §6).
func (c *Coordinator) ConfigureProvider(ctx context.Context, cfg chaingateway.ChainConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.chainConfig = cfg
	c.chain.Configure(cfg)
	return c.persistLocked(ctx)
}

// ConfigureBundler sets the ERC-4337 bundler the Chain Gateway submits
// UserOperations to (spec §3, §6).
func (c *Coordinator) ConfigureBundler(ctx context.Context, cfg chaingateway.BundlerConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bundlerConfig = cfg
	c.chain.ConfigureBundler(cfg)
	return c.persistLocked(ctx)
}

// ConnectExternalSigner registers a caller-supplied signing capability,
// the second-priority strategy for every request kind (spec §4.5a). Not
// persisted across restarts; the caller reconnects it after Restore.
func (c *Coordinator) ConnectExternalSigner(signer peer.ExternalSigner) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.externalSigner = signer
}

// ConnectPeerWallet registers a forwarding peer, the last-resort signing
// strategy before failure (spec §4.5a).
func (c *Coordinator) ConnectPeerWallet(w peer.PeerWallet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peerWallet = w
}

// CreateSmartAccount registers the wallet's smart-account identity (spec
// §3, §9 supplemented feature): kind plus the caller-computed counterfactual
// or deployed address. Once configured, this address becomes the
// delegator of choice for createDelegation (spec §4.5b).
func (c *Coordinator) CreateSmartAccount(ctx context.Context, kind SmartAccountKind, deploySalt *big.Int, address common.Address) (SmartAccount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sa := SmartAccount{Kind: kind, DeploySalt: deploySalt, Address: address}
	c.smartAccount = &sa
	if err := c.persistLocked(ctx); err != nil {
		return SmartAccount{}, err
	}
	c.log.WithField("address", address.Hex()).WithField("kind", kind).Info("smart account configured")
	return sa, nil
}

// GetAccounts returns the locally held signing accounts (spec §4.3, §6).
func (c *Coordinator) GetAccounts() []keyholder.Account {
	return c.keyHolder.GetAccounts()
}

// GetSmartAccountAddress returns the configured smart-account address, if
// any (spec §6).
func (c *Coordinator) GetSmartAccountAddress() (common.Address, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.smartAccount == nil {
		return common.Address{}, false
	}
	return c.smartAccount.Address, true
}

// Capabilities summarizes which signing strategies and configuration are
// currently available, for getCapabilities (spec §6). It is a read-only
// snapshot, not itself a strategy resolver.
type Capabilities struct {
	HasLocalAccounts     bool
	HasSmartAccount      bool
	HasExternalSigner    bool
	HasPeerWallet        bool
	ProviderConfigured   bool
	BundlerConfigured    bool
}

// GetCapabilities reports what this Coordinator instance can currently do
// (spec §6, `getCapabilities`).
func (c *Coordinator) GetCapabilities() Capabilities {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Capabilities{
		HasLocalAccounts:   len(c.keyHolder.GetAccounts()) > 0,
		HasSmartAccount:    c.smartAccount != nil,
		HasExternalSigner:  c.externalSigner != nil,
		HasPeerWallet:      c.peerWallet != nil,
		ProviderConfigured: c.chainConfig.RPCURL != "",
		BundlerConfigured:  c.bundlerConfig.URL != "",
	}
}

// HandleSigningRequest is the peer-facing entry point a remote wallet
// forwards a request to when this instance is acting as the peer of last
// resort for another wallet (spec §6, `handleSigningRequest`). It routes
// through the identical strategy resolution a local request would use,
// minus the peer-forwarding step itself (forwarding to a peer-of-a-peer is
// not supported; spec §5 disallows multi-hop causality loops).
func (c *Coordinator) HandleSigningRequest(ctx context.Context, req peer.SigningRequest) ([]byte, error) {
	switch req.Kind {
	case peer.KindTransaction:
		if req.Tx == nil {
			return nil, walleterr.New(walleterr.ValidationFailed, "transaction request missing payload")
		}
		return c.signTransactionLocalOrExternal(ctx, *req.Tx)
	case peer.KindTypedData:
		if req.TypedData == nil {
			return nil, walleterr.New(walleterr.ValidationFailed, "typed data request missing payload")
		}
		return c.signTypedDataLocalOrExternal(ctx, *req.TypedData, req.From)
	case peer.KindMessage:
		return c.signMessageLocalOrExternal(ctx, req.Message, req.From)
	case peer.KindRawHash:
		if req.Hash == nil {
			return nil, walleterr.New(walleterr.ValidationFailed, "raw hash request missing digest")
		}
		return c.signRawHashLocalOrExternal(ctx, *req.Hash, req.From)
	default:
		return nil, walleterr.New(walleterr.ValidationFailed, "unknown signing request kind %q", req.Kind)
	}
}
