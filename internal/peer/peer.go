// Package peer defines the capability interfaces the Coordinator dispatches
// a signing request to once no locally-held key can satisfy it (spec §4.5a):
// a caller-supplied external signer, or a forwarded request to another
// wallet instance acting as a peer over the message-passing boundary.
package peer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/google/uuid"

	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
)

// RequestKind identifies what shape of digest a signing request carries,
// mirroring the Coordinator's per-kind strategy ordering (spec §4.5a).
type RequestKind string

const (
	KindTransaction RequestKind = "transaction"
	KindTypedData   RequestKind = "typedData"
	KindMessage     RequestKind = "message"
	KindRawHash     RequestKind = "rawHash"
)

// SigningRequest is the capability-agnostic envelope handed to an
// ExternalSigner or a PeerWallet. Exactly one of TypedData/Message/Hash/Tx is
// populated, selected by Kind; a raw-hash request is carried over the
// message path unchanged (spec §4.5a: "external signer via message path").
type SigningRequest struct {
	ID        string
	Kind      RequestKind
	From      *common.Address
	TypedData *apitypes.TypedData
	Message   []byte
	Hash      *[32]byte
	Tx        *keyholder.TransactionRequest
}

// NewSigningRequest stamps a fresh correlation id onto req (spec §6,
// "correlation / message ids" — distinct from the Chain Gateway's
// monotonic JSON-RPC id, which never leaves that component).
func NewSigningRequest(kind RequestKind, from *common.Address) SigningRequest {
	return SigningRequest{ID: uuid.NewString(), Kind: kind, From: from}
}

// ExternalSigner is a caller-supplied signing capability connected via
// connectExternalSigner (spec §4.5a), e.g. a hardware wallet or a remote
// KMS the host process brokers on this wallet's behalf.
type ExternalSigner interface {
	// Accounts reports which addresses this signer can sign for.
	Accounts(ctx context.Context) ([]common.Address, error)
	// Sign produces a signature for req. The signer is responsible for
	// applying whatever envelope its own wire format requires (EIP-191,
	// EIP-712, or none, depending on req.Kind).
	Sign(ctx context.Context, req SigningRequest) ([]byte, error)
}

// PeerWallet is another wallet instance reachable over the message-passing
// boundary, used as the last-resort signing strategy (spec §4.5a, §5).
type PeerWallet interface {
	// HandleSigningRequest forwards req to the peer and returns its
	// signature, mirroring the Coordinator's own handleSigningRequest
	// public operation (spec §6) from the other side of the boundary.
	HandleSigningRequest(ctx context.Context, req SigningRequest) ([]byte, error)
}
