package coordinator

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/authoritystore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// pickDelegator selects the delegator per spec §4.5b: smart-account
// address if configured, otherwise the first local account, otherwise the
// first external-signer account, otherwise failure.
func (c *Coordinator) pickDelegator(ctx context.Context) (common.Address, error) {
	c.mu.Lock()
	smartAccount := c.smartAccount
	external := c.externalSigner
	c.mu.Unlock()

	if smartAccount != nil {
		return smartAccount.Address, nil
	}
	if accounts := c.keyHolder.GetAccounts(); len(accounts) > 0 {
		return accounts[0].Address, nil
	}
	if external != nil {
		accounts, err := external.Accounts(ctx)
		if err == nil && len(accounts) > 0 {
			return accounts[0], nil
		}
	}
	return common.Address{}, walleterr.New(walleterr.NoAuthority, "no accounts available")
}

// CreateDelegation runs the full delegation-creation flow (spec §4.5b):
// pick a delegator, ask the Authority Store to create the pending record,
// prepare its typed-data payload, sign it via the resolved strategy, store
// the signed form, and return it.
func (c *Coordinator) CreateDelegation(ctx context.Context, delegate common.Address, caveats []caveat.Caveat, chainID int64, salt *big.Int, authority *[32]byte) (delegation.Delegation, error) {
	delegator, err := c.pickDelegator(ctx)
	if err != nil {
		return delegation.Delegation{}, err
	}

	pending, err := c.authority.Create(ctx, delegator, delegate, caveats, chainID, salt, authority)
	if err != nil {
		return delegation.Delegation{}, err
	}

	td, err := c.authority.PrepareForSigning(pending.ID)
	if err != nil {
		return delegation.Delegation{}, err
	}

	sig, err := c.signTypedDataStrategy(ctx, td, &delegator)
	if err != nil {
		return delegation.Delegation{}, err
	}

	return c.authority.StoreSigned(ctx, pending.ID, sig)
}

// ReceiveDelegation imports a signed delegation from a peer (spec §4.2,
// §6).
func (c *Coordinator) ReceiveDelegation(ctx context.Context, d delegation.Delegation, delegatorKind authoritystore.DelegatorKind) (delegation.Delegation, error) {
	return c.authority.Receive(ctx, d, delegatorKind)
}

// RevokeDelegation transitions a delegation to its terminal revoked state
// (spec §4.2, §6).
func (c *Coordinator) RevokeDelegation(ctx context.Context, id [32]byte) (delegation.Delegation, error) {
	return c.authority.Revoke(ctx, id)
}

// ListDelegations returns every stored delegation in deterministic
// insertion order (spec §4.2, §6).
func (c *Coordinator) ListDelegations() []delegation.Delegation {
	return c.authority.List()
}
