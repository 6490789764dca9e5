package chaingateway

import (
	"context"
	"encoding/json"
	"math/big"
)

// GetGasFees reads the latest block's baseFeePerGas and queries
// eth_maxPriorityFeePerGas (falling back to DefaultPriorityFeeWei on
// failure), returning maxFeePerGas = 2*baseFee + priority (spec §4.4).
func (g *Gateway) GetGasFees(ctx context.Context) (GasFees, error) {
	baseFee, err := g.getLatestBaseFee(ctx)
	if err != nil {
		return GasFees{}, err
	}

	priority := g.getPriorityFee(ctx)

	maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
	maxFee.Add(maxFee, priority)

	return GasFees{MaxFeePerGas: maxFee, MaxPriorityFeePerGas: priority}, nil
}

func (g *Gateway) getLatestBaseFee(ctx context.Context) (*big.Int, error) {
	raw, err := g.Request(ctx, "eth_getBlockByNumber", []any{"latest", false})
	if err != nil {
		return nil, err
	}
	var block struct {
		BaseFeePerGas string `json:"baseFeePerGas"`
	}
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, err
	}
	n, ok := new(big.Int).SetString(trimHexPrefix(block.BaseFeePerGas), 16)
	if !ok {
		return big.NewInt(0), nil
	}
	return n, nil
}

// getPriorityFee returns eth_maxPriorityFeePerGas's result, or
// DefaultPriorityFeeWei if the call fails for any reason (spec §4.4,
// "defaults to a conservative 1 gwei on failure").
func (g *Gateway) getPriorityFee(ctx context.Context) *big.Int {
	raw, err := g.Request(ctx, "eth_maxPriorityFeePerGas", []any{})
	if err != nil {
		return new(big.Int).Set(DefaultPriorityFeeWei)
	}
	fee, err := decodeHexBigInt(raw)
	if err != nil {
		return new(big.Int).Set(DefaultPriorityFeeWei)
	}
	return fee
}
