package coordinator

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/peer"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// signTransactionStrategy resolves and executes the transaction signing
// strategy: local key owning req.From -> external signer -> peer wallet ->
// fail (spec §4.5a). It returns the RLP-encoded signed transaction.
func (c *Coordinator) signTransactionStrategy(ctx context.Context, req keyholder.TransactionRequest) ([]byte, error) {
	if c.keyHolder.HasAccount(req.From) {
		tx, err := c.keyHolder.SignTransaction(req)
		if err != nil {
			return nil, err
		}
		return tx.MarshalBinary()
	}

	c.mu.Lock()
	external, forward := c.externalSigner, c.peerWallet
	c.mu.Unlock()

	sigReq := peer.NewSigningRequest(peer.KindTransaction, &req.From)
	sigReq.Tx = &req

	if external != nil {
		raw, err := external.Sign(ctx, sigReq)
		if err == nil {
			return raw, nil
		}
	}
	if forward != nil {
		return forward.HandleSigningRequest(ctx, sigReq)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for transaction")
}

// signTypedDataStrategy resolves and executes the typed-data signing
// strategy: local key (if initialised) -> external signer -> peer wallet
// -> fail (spec §4.5a).
func (c *Coordinator) signTypedDataStrategy(ctx context.Context, td apitypes.TypedData, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignTypedData(td, from)
		if err == nil {
			return sig, nil
		}
	}

	c.mu.Lock()
	external, forward := c.externalSigner, c.peerWallet
	c.mu.Unlock()

	sigReq := peer.NewSigningRequest(peer.KindTypedData, from)
	sigReq.TypedData = &td

	if external != nil {
		sig, err := external.Sign(ctx, sigReq)
		if err == nil {
			return sig, nil
		}
	}
	if forward != nil {
		return forward.HandleSigningRequest(ctx, sigReq)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for typed data")
}

// signMessageStrategy mirrors signTypedDataStrategy for EIP-191 personal
// messages (spec §4.5a).
func (c *Coordinator) signMessageStrategy(ctx context.Context, message []byte, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignMessage(message, from)
		if err == nil {
			return sig, nil
		}
	}

	c.mu.Lock()
	external, forward := c.externalSigner, c.peerWallet
	c.mu.Unlock()

	sigReq := peer.NewSigningRequest(peer.KindMessage, from)
	sigReq.Message = append([]byte(nil), message...)

	if external != nil {
		sig, err := external.Sign(ctx, sigReq)
		if err == nil {
			return sig, nil
		}
	}
	if forward != nil {
		return forward.HandleSigningRequest(ctx, sigReq)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for message")
}

// signRawHashStrategy resolves and executes the raw-hash signing strategy:
// local key (if initialised) -> external signer via the message path ->
// peer wallet via the message path -> fail (spec §4.5a). Raw-hash requests
// are always forwarded over the message path unchanged, never reinterpreted
// as a typed-data or EIP-191 request.
func (c *Coordinator) signRawHashStrategy(ctx context.Context, hash [32]byte, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignHash(hash, from)
		if err == nil {
			return sig, nil
		}
	}

	c.mu.Lock()
	external, forward := c.externalSigner, c.peerWallet
	c.mu.Unlock()

	sigReq := peer.NewSigningRequest(peer.KindRawHash, from)
	sigReq.Hash = &hash

	if external != nil {
		sig, err := external.Sign(ctx, sigReq)
		if err == nil {
			return sig, nil
		}
	}
	if forward != nil {
		return forward.HandleSigningRequest(ctx, sigReq)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for raw hash")
}

// signTypedDataLocalOrExternal and its siblings below implement the same
// priority order minus the peer-forwarding step, used by
// HandleSigningRequest when this instance is itself acting as somebody
// else's peer wallet (spec §5: no multi-hop forwarding).
func (c *Coordinator) signTypedDataLocalOrExternal(ctx context.Context, td apitypes.TypedData, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignTypedData(td, from)
		if err == nil {
			return sig, nil
		}
	}
	c.mu.Lock()
	external := c.externalSigner
	c.mu.Unlock()
	if external != nil {
		req := peer.NewSigningRequest(peer.KindTypedData, from)
		req.TypedData = &td
		return external.Sign(ctx, req)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for typed data")
}

func (c *Coordinator) signMessageLocalOrExternal(ctx context.Context, message []byte, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignMessage(message, from)
		if err == nil {
			return sig, nil
		}
	}
	c.mu.Lock()
	external := c.externalSigner
	c.mu.Unlock()
	if external != nil {
		req := peer.NewSigningRequest(peer.KindMessage, from)
		req.Message = append([]byte(nil), message...)
		return external.Sign(ctx, req)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for message")
}

func (c *Coordinator) signRawHashLocalOrExternal(ctx context.Context, hash [32]byte, from *common.Address) ([]byte, error) {
	if c.keyHolder.IsInitialized() {
		sig, err := c.keyHolder.SignHash(hash, from)
		if err == nil {
			return sig, nil
		}
	}
	c.mu.Lock()
	external := c.externalSigner
	c.mu.Unlock()
	if external != nil {
		req := peer.NewSigningRequest(peer.KindRawHash, from)
		req.Hash = &hash
		return external.Sign(ctx, req)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for raw hash")
}

func (c *Coordinator) signTransactionLocalOrExternal(ctx context.Context, req keyholder.TransactionRequest) ([]byte, error) {
	if c.keyHolder.HasAccount(req.From) {
		tx, err := c.keyHolder.SignTransaction(req)
		if err == nil {
			return tx.MarshalBinary()
		}
	}
	c.mu.Lock()
	external := c.externalSigner
	c.mu.Unlock()
	if external != nil {
		sigReq := peer.NewSigningRequest(peer.KindTransaction, &req.From)
		sigReq.Tx = &req
		return external.Sign(ctx, sigReq)
	}
	return nil, walleterr.New(walleterr.NoAuthority, "no authority for transaction")
}
