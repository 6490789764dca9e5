package coordinator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/useropcodec"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// RedeemRoute selects how redeemDelegation resolves the chain to redeem
// (spec §4.5d): exactly one of Chain, ID, or Action should be set.
type RedeemRoute struct {
	Chain         []delegation.Delegation
	ID            *[32]byte
	Action        *caveat.Action
	ActionChainID *int64
}

// RedeemDelegation resolves a delegation chain via one of three routes —
// an explicit chain, a single delegation id, or an Action matched against
// the Authority Store — and submits the redeeming UserOp (spec §4.5d).
// Every delegation in the resolved chain must be status=signed; a
// mismatched status fails with the offending id and its actual status.
func (c *Coordinator) RedeemDelegation(ctx context.Context, route RedeemRoute, execution useropcodec.Execution, delegationManager common.Address) (string, error) {
	chain, err := c.resolveRedeemChain(route)
	if err != nil {
		return "", err
	}

	for _, d := range chain {
		if d.Status != delegation.StatusSigned {
			return "", walleterr.New(walleterr.InvalidState, "delegation %s is %s, not signed", idHex(d.ID), d.Status)
		}
	}

	return c.SubmitDelegationUserOp(ctx, chain, execution, delegationManager, PendingFees{})
}

func (c *Coordinator) resolveRedeemChain(route RedeemRoute) ([]delegation.Delegation, error) {
	switch {
	case len(route.Chain) > 0:
		return route.Chain, nil
	case route.ID != nil:
		d, ok := c.authority.Get(*route.ID)
		if !ok {
			return nil, walleterr.New(walleterr.NotFound, "delegation %s not found", idHex(*route.ID))
		}
		return []delegation.Delegation{d}, nil
	case route.Action != nil:
		d, ok := c.authority.FindForAction(*route.Action, route.ActionChainID)
		if !ok {
			return nil, walleterr.New(walleterr.NoAuthority, "no delegation permits the given action")
		}
		return []delegation.Delegation{d}, nil
	default:
		return nil, walleterr.New(walleterr.ValidationFailed, "must provide one of an explicit chain, a delegation id, or an action")
	}
}

func idHex(id [32]byte) string {
	return "0x" + common.Bytes2Hex(id[:])
}
