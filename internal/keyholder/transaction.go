package keyholder

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// TransactionRequest carries enough of a transaction's shape for
// SignTransaction to pick the right wire encoding. Presence of fields,
// not an explicit type tag, selects the serialization (spec §4.3).
type TransactionRequest struct {
	From     common.Address
	To       *common.Address
	Nonce    uint64
	GasLimit uint64
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int

	// Legacy only.
	GasPrice *big.Int

	// EIP-1559 (type-2). Presence of GasFeeCap selects this shape over
	// legacy.
	GasFeeCap *big.Int
	GasTipCap *big.Int

	// EIP-7702 (type-4). A non-empty AuthorizationList selects this
	// shape over everything else, regardless of the other fields set.
	AuthorizationList []types.SetCodeAuthorization
}

// SignTransaction selects the serialization by inspecting the request —
// presence of an authorization list ⇒ type-4 (EIP-7702); presence of
// maxFeePerGas ⇒ type-2 (EIP-1559); otherwise legacy (spec §4.3). Rejects
// if req.From is not registered.
func (k *KeyHolder) SignTransaction(req TransactionRequest) (*types.Transaction, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, ok := k.byAddress[req.From]
	if !ok {
		return nil, walleterr.New(walleterr.NotFound, "account %s not registered", req.From.Hex())
	}

	var txdata types.TxData
	switch {
	case len(req.AuthorizationList) > 0:
		to := common.Address{}
		if req.To != nil {
			to = *req.To
		}
		txdata = &types.SetCodeTx{
			ChainID:    uint256.MustFromBig(req.ChainID),
			Nonce:      req.Nonce,
			GasTipCap:  uint256.MustFromBig(bigOrZero(req.GasTipCap)),
			GasFeeCap:  uint256.MustFromBig(bigOrZero(req.GasFeeCap)),
			Gas:        req.GasLimit,
			To:         to,
			Value:      uint256.MustFromBig(bigOrZero(req.Value)),
			Data:       req.Data,
			AuthList:   req.AuthorizationList,
		}
	case req.GasFeeCap != nil:
		txdata = &types.DynamicFeeTx{
			ChainID:   req.ChainID,
			Nonce:     req.Nonce,
			GasTipCap: bigOrZero(req.GasTipCap),
			GasFeeCap: req.GasFeeCap,
			Gas:       req.GasLimit,
			To:        req.To,
			Value:     bigOrZero(req.Value),
			Data:      req.Data,
		}
	default:
		txdata = &types.LegacyTx{
			Nonce:    req.Nonce,
			GasPrice: bigOrZero(req.GasPrice),
			Gas:      req.GasLimit,
			To:       req.To,
			Value:    bigOrZero(req.Value),
			Data:     req.Data,
		}
	}

	signer := types.LatestSignerForChainID(req.ChainID)
	signed, err := types.SignNewTx(key, signer, txdata)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "sign transaction")
	}
	return signed, nil
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
