package useropcodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
)

// executeSelector is keccak256("execute(address,uint256,bytes)")[:4], the
// Hybrid/Stateless7702 smart-account single-execution entry point this
// wallet targets (spec Open Question 1) — computed at init the same way
// the teacher computes it, rather than hardcoded.
var executeSelector = crypto.Keccak256([]byte("execute(address,uint256,bytes)"))[:4]

var executeArgs = abi.Arguments{
	{Type: mustType("address")},
	{Type: mustType("uint256")},
	{Type: mustType("bytes")},
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("useropcodec: abi type " + name + ": " + err.Error())
	}
	return t
}

var (
	bytesArrayType, _   = abi.NewType("bytes[]", "", nil)
	uint256ArrayType, _ = abi.NewType("uint256[]", "", nil)
)

// redeemDelegationsArgs is the (bytes[] permissionContexts, uint256[]
// modes, bytes[] executions) argument list of
// DelegationManager.redeemDelegations (spec §4.5 step 5, §6).
var redeemDelegationsArgs = abi.Arguments{
	{Type: bytesArrayType},
	{Type: uint256ArrayType},
	{Type: bytesArrayType},
}

// BuildRedeemCallData assembles the outer execute(address,uint256,bytes)
// callData that redeems a single delegation chain against a single desired
// execution (spec §4.5 step 5, §6):
//
//	execute(
//	  target:   delegationManager,
//	  value:    0,
//	  callData: redeemDelegations([encode(chain)], [SingleDefault], [encode([execution])]),
//	)
func BuildRedeemCallData(delegationManager common.Address, chain []delegation.Delegation, execution Execution) ([]byte, error) {
	permissionContext, err := delegation.EncodeChain(chain)
	if err != nil {
		return nil, err
	}
	innerExecutions, err := encodeExecutions([]Execution{execution})
	if err != nil {
		return nil, err
	}

	redeemPacked, err := redeemDelegationsArgs.Pack(
		[][]byte{permissionContext},
		[]*big.Int{new(big.Int).Set(SingleDefaultMode)},
		[][]byte{innerExecutions},
	)
	if err != nil {
		return nil, err
	}
	redeemCallData := append(append([]byte{}, RedeemDelegationsSelector[:]...), redeemPacked...)

	outerPacked, err := executeArgs.Pack(delegationManager, big.NewInt(0), redeemCallData)
	if err != nil {
		return nil, err
	}

	return append(append([]byte{}, executeSelector...), outerPacked...), nil
}

// executionTupleArrayType is used only to ABI-encode the inner
// "executions" argument of redeemDelegations, which is itself a
// bytes-encoded Execution[] per chain (spec §4.5 step 5: "Executions is a
// one-element list containing a one-element inner execution list").
var executionTupleArrayType = mustExecutionTupleArrayType()

func mustExecutionTupleArrayType() abi.Type {
	t, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	})
	if err != nil {
		panic("useropcodec: execution tuple[] type: " + err.Error())
	}
	return t
}

func encodeExecutions(executions []Execution) ([]byte, error) {
	tuples := make([]struct {
		Target   common.Address `abi:"target"`
		Value    *big.Int       `abi:"value"`
		CallData []byte         `abi:"callData"`
	}, len(executions))
	for i, e := range executions {
		tuples[i].Target = e.Target
		tuples[i].Value = bigOrZero(e.Value)
		tuples[i].CallData = e.CallData
	}
	args := abi.Arguments{{Type: executionTupleArrayType}}
	return args.Pack(tuples)
}
