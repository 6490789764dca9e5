package caveat

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// erc20TransferSelector is keccak256("transfer(address,uint256)")[:4].
var erc20TransferSelector = [4]byte{0xa9, 0x05, 0x9c, 0xbb}

// Clock supplies "now" in whole seconds, per spec §4.1 (tests inject a
// fixed clock; production uses the process clock).
type Clock func() int64

// SystemClock is the default Clock, returning the process wall-clock time
// truncated to whole seconds.
func SystemClock() int64 { return time.Now().Unix() }

// Result is the structured outcome of evaluating one Caveat against one
// Action (spec §4.1). The boolean form (Permit) is derived from this.
type Result struct {
	Permit       bool
	FailedCaveat Kind
	Reason       string
}

// Evaluate checks a single caveat against an action, returning a structured
// Result. clock is used only by the timestamp kind; pass nil to use
// SystemClock.
func Evaluate(c Caveat, action Action, clock Clock) Result {
	if clock == nil {
		clock = SystemClock
	}
	switch c.Type {
	case KindAllowedTargets:
		return evalAllowedTargets(c, action)
	case KindAllowedMethods:
		return evalAllowedMethods(c, action)
	case KindValueLte:
		return evalValueLte(c, action)
	case KindNativeTokenTransferAmount, KindLimitedCalls:
		// Client-side pass-through: the on-chain budget/counter lives in
		// contract storage this wallet never reads (spec §4.1, §9).
		return Result{Permit: true}
	case KindERC20TransferAmount:
		return evalERC20TransferAmount(c, action)
	case KindTimestamp:
		return evalTimestamp(c, clock)
	default:
		return Result{Permit: false, FailedCaveat: c.Type, Reason: fmt.Sprintf("unknown caveat kind %q", c.Type)}
	}
}

func evalAllowedTargets(c Caveat, action Action) Result {
	targets, err := DecodeAllowedTargets(c.Terms)
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: err.Error()}
	}
	for _, t := range targets {
		if sameAddress(t, action.To) {
			return Result{Permit: true}
		}
	}
	return Result{Permit: false, FailedCaveat: c.Type, Reason: fmt.Sprintf("target %s not in allowed set", action.To.Hex())}
}

func evalAllowedMethods(c Caveat, action Action) Result {
	// The caveat's presence alone does not reject when no calldata is
	// supplied; the rule only runs when data is present (spec §4.1 edge
	// case, matching the on-chain enforcer's skip).
	if len(action.Data) == 0 {
		return Result{Permit: true}
	}
	selectors, err := DecodeAllowedMethods(c.Terms)
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: err.Error()}
	}
	if len(action.Data) < 4 {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "calldata shorter than a selector"}
	}
	var got [4]byte
	copy(got[:], action.Data[:4])
	for _, s := range selectors {
		if bytes.Equal(s[:], got[:]) {
			return Result{Permit: true}
		}
	}
	return Result{Permit: false, FailedCaveat: c.Type, Reason: fmt.Sprintf("selector 0x%x not in allowed set", got)}
}

func evalValueLte(c Caveat, action Action) Result {
	max, err := DecodeValueLte(c.Terms)
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: err.Error()}
	}
	value := new(big.Int).SetBytes(action.ValueOrZero())
	if value.Cmp(max) <= 0 {
		return Result{Permit: true}
	}
	return Result{Permit: false, FailedCaveat: c.Type, Reason: fmt.Sprintf("value %s exceeds max %s", value, max)}
}

func evalERC20TransferAmount(c Caveat, action Action) Result {
	terms, err := DecodeERC20TransferAmount(c.Terms)
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: err.Error()}
	}
	// 4-byte selector + 32-byte address + 32-byte amount (spec §4.1 edge case).
	if len(action.Data) < 4+32+32 {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "incomplete calldata"}
	}
	if !sameAddress(action.To, terms.Token) {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "token mismatch"}
	}
	var got [4]byte
	copy(got[:], action.Data[:4])
	if !bytes.Equal(got[:], erc20TransferSelector[:]) {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "calldata is not an ERC-20 transfer"}
	}
	addrType, _ := abi.NewType("address", "", nil)
	uint256Type, _ := abi.NewType("uint256", "", nil)
	args := abi.Arguments{{Type: addrType}, {Type: uint256Type}}
	values, err := args.Unpack(action.Data[4:])
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "malformed transfer(address,uint256) arguments"}
	}
	amount := values[1].(*big.Int)
	if amount.Cmp(terms.Max) <= 0 {
		return Result{Permit: true}
	}
	return Result{Permit: false, FailedCaveat: c.Type, Reason: fmt.Sprintf("transfer amount %s exceeds max %s", amount, terms.Max)}
}

func evalTimestamp(c Caveat, clock Clock) Result {
	terms, err := DecodeTimestamp(c.Terms)
	if err != nil {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: err.Error()}
	}
	now := big.NewInt(clock())
	if now.Cmp(terms.NotBefore) < 0 {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "before the allowed window"}
	}
	if now.Cmp(terms.NotAfter) > 0 {
		return Result{Permit: false, FailedCaveat: c.Type, Reason: "after the allowed window"}
	}
	return Result{Permit: true}
}

// EvaluateAll evaluates every caveat in order and returns the conjunction:
// permit iff all caveats permit (spec §4.1 — caveat order is irrelevant,
// the conjunction is commutative). Evaluation stops at the first failing
// caveat, and that caveat's Result is returned as the diagnostic.
func EvaluateAll(caveats []Caveat, action Action, clock Clock) Result {
	for _, c := range caveats {
		if r := Evaluate(c, action, clock); !r.Permit {
			return r
		}
	}
	return Result{Permit: true}
}
