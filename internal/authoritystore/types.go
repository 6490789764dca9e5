// Package authoritystore holds the canonical record of every delegation
// this wallet has created or received, driving its lifecycle from pending
// through signed to revoked (spec §4.2).
package authoritystore

import (
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
)

const namespace = "authoritystore"

// DelegatorKind is an optional hint to Receive about what signed a
// delegation being imported from a peer (spec §9 Open Question 2). The
// base behavior (unset) never cryptographically verifies the signature;
// asserting EOA opts into the stricter check.
type DelegatorKind string

const (
	DelegatorUnknown      DelegatorKind = ""
	DelegatorEOA          DelegatorKind = "EOA"
	DelegatorSmartAccount DelegatorKind = "SmartAccount"
)

// record is the durable shape of one stored delegation: the delegation
// value plus the insertion sequence needed to rebuild deterministic
// iteration order after a restart (spec §4.2, "iteration order is
// deterministic by insertion").
type record struct {
	Delegation delegation.Delegation
	Sequence   uint64
}
