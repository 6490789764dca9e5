// Package caveat implements the caveat codec and client-side matcher
// described in spec §4.1: deterministic ABI encoding of caveat terms, and
// the advisory prefilter that predicts whether an action will be accepted
// by the on-chain enforcer a caveat names.
package caveat

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind is the closed set of caveat terms this wallet understands. The kind
// is a client-side convenience only — on-chain, a caveat is identified
// solely by its Enforcer address (spec §3).
type Kind string

const (
	KindAllowedTargets             Kind = "allowedTargets"
	KindAllowedMethods             Kind = "allowedMethods"
	KindValueLte                   Kind = "valueLte"
	KindNativeTokenTransferAmount  Kind = "nativeTokenTransferAmount"
	KindERC20TransferAmount        Kind = "erc20TransferAmount"
	KindLimitedCalls                Kind = "limitedCalls"
	KindTimestamp                  Kind = "timestamp"
)

// Caveat is a single policy clause: a deployed enforcer contract plus the
// opaque ABI-encoded terms it was configured with (spec §3).
type Caveat struct {
	Enforcer common.Address
	Terms    []byte
	Type     Kind
}

// Action is the candidate on-chain interaction a caller wants to authorize
// (spec §3).
type Action struct {
	To    common.Address
	Value []byte // optional; nil means "no value supplied"
	Data  []byte // optional; nil means "no calldata supplied"
}

// ValueOrZero returns the action's value as a big-endian byte slice,
// treating an absent value as zero (spec §4.1 edge case for valueLte).
func (a Action) ValueOrZero() []byte {
	if len(a.Value) == 0 {
		return []byte{0}
	}
	return a.Value
}

// sameAddress compares two addresses byte-wise after lowercasing, matching
// the spec's "case-insensitive" comparison rule for Address (spec §3, §4.1).
func sameAddress(a, b common.Address) bool {
	return strings.EqualFold(a.Hex(), b.Hex())
}
