package authoritystore

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"

	"github.com/ai-wallet-labs/delegation-wallet/internal/caveat"
	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// Store is the Authority Store: the canonical, durable record of every
// delegation this wallet knows about (spec §4.2).
type Store struct {
	store             durablestore.Store
	verifyingContract common.Address
	log               *logrus.Entry

	mu       sync.Mutex
	byID     map[[32]byte]delegation.Delegation
	order    [][32]byte
	sequence uint64
}

// New constructs an empty Store. verifyingContract is the DelegationManager
// address bound into every EIP-712 payload PrepareForSigning produces.
func New(store durablestore.Store, verifyingContract common.Address, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{
		store:             store,
		verifyingContract: verifyingContract,
		log:               log.WithField("component", "authoritystore"),
		byID:              make(map[[32]byte]delegation.Delegation),
	}
}

func idKey(id [32]byte) string { return hexutil.Encode(id[:]) }

// Create derives salt and authority when absent, computes the id, and
// stores the delegation pending (spec §4.2). Pass nil salt/authority to
// have them derived.
func (s *Store) Create(ctx context.Context, delegator, delegate common.Address, caveats []caveat.Caveat, chainID int64, salt *big.Int, authority *[32]byte) (delegation.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if salt == nil {
		generated, err := delegation.GenerateSalt()
		if err != nil {
			return delegation.Delegation{}, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "generate delegation salt")
		}
		salt = generated
	}
	auth := delegation.Root
	if authority != nil {
		auth = *authority
	}

	d := delegation.Delegation{
		Delegator: delegator,
		Delegate:  delegate,
		Authority: auth,
		Caveats:   append([]caveat.Caveat(nil), caveats...),
		Salt:      salt,
		ChainID:   chainID,
		Status:    delegation.StatusPending,
	}
	d.ID = delegation.DeriveID(d.Delegator, d.Delegate, d.Authority, d.Salt)

	s.insertLocked(d)
	if err := s.persistLocked(ctx, d); err != nil {
		return delegation.Delegation{}, err
	}

	s.log.WithField("id", idKey(d.ID)).Info("delegation created")
	return d.Clone(), nil
}

// PrepareForSigning returns the EIP-712 payload for id (spec §4.2).
func (s *Store) PrepareForSigning(id [32]byte) (apitypes.TypedData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return apitypes.TypedData{}, walleterr.New(walleterr.NotFound, "delegation %s not found", idKey(id))
	}
	return delegation.BuildTypedData(d, s.verifyingContract), nil
}

// StoreSigned transitions id pending -> signed and attaches signature
// (spec §4.2).
func (s *Store) StoreSigned(ctx context.Context, id [32]byte, signature []byte) (delegation.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return delegation.Delegation{}, walleterr.New(walleterr.NotFound, "delegation %s not found", idKey(id))
	}
	if d.Status != delegation.StatusPending {
		return delegation.Delegation{}, walleterr.New(walleterr.InvalidState, "delegation %s is %s, not pending", idKey(id), d.Status)
	}

	signed := d.WithSignature(signature)
	s.byID[id] = signed
	if err := s.persistLocked(ctx, signed); err != nil {
		return delegation.Delegation{}, err
	}

	s.log.WithField("id", idKey(id)).Info("delegation signed")
	return signed.Clone(), nil
}

// Receive imports a signed delegation from a peer (spec §4.2). It
// validates status=signed, a present signature, and that the id matches
// the delegation's identity fields. When delegatorKind asserts EOA, it
// additionally recovers the EIP-712 signer and rejects on mismatch — the
// stricter check the base behavior (unset, or SmartAccount) skips, since
// a smart-account owner's ecrecover result is the EOA, not the smart
// account itself (spec §9 Open Question 2).
func (s *Store) Receive(ctx context.Context, d delegation.Delegation, delegatorKind DelegatorKind) (delegation.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Status != delegation.StatusSigned {
		return delegation.Delegation{}, walleterr.New(walleterr.ValidationFailed, "received delegation must be signed, got %s", d.Status)
	}
	if len(d.Signature) == 0 {
		return delegation.Delegation{}, walleterr.New(walleterr.ValidationFailed, "received delegation has no signature")
	}
	if !delegation.VerifyID(d) {
		return delegation.Delegation{}, walleterr.New(walleterr.ValidationFailed, "id mismatch")
	}

	if delegatorKind == DelegatorEOA {
		digest, err := delegation.HashTypedData(delegation.BuildTypedData(d, s.verifyingContract))
		if err != nil {
			return delegation.Delegation{}, walleterr.Wrap(walleterr.ValidationFailed, err, "hash received delegation")
		}
		signer, err := recoverSigner(digest, d.Signature)
		if err != nil {
			return delegation.Delegation{}, walleterr.Wrap(walleterr.ValidationFailed, err, "recover delegation signer")
		}
		if signer != d.Delegator {
			return delegation.Delegation{}, walleterr.New(walleterr.ValidationFailed, "recovered signer %s does not match delegator %s", signer.Hex(), d.Delegator.Hex())
		}
	}

	received := d.Clone()
	s.insertLocked(received)
	if err := s.persistLocked(ctx, received); err != nil {
		return delegation.Delegation{}, err
	}

	s.log.WithField("id", idKey(received.ID)).WithField("delegatorKind", delegatorKind).Info("delegation received")
	return received.Clone(), nil
}

// FindForAction returns the first stored signed delegation matching chainID
// (if non-nil) whose caveats permit action, in deterministic insertion order
// (spec §4.2). Pending and revoked delegations are skipped.
func (s *Store) FindForAction(action caveat.Action, chainID *int64) (delegation.Delegation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		d := s.byID[id]
		if d.Status != delegation.StatusSigned {
			continue
		}
		if chainID != nil && d.ChainID != *chainID {
			continue
		}
		if caveat.EvaluateAll(d.Caveats, action, nil).Permit {
			return d.Clone(), true
		}
	}
	return delegation.Delegation{}, false
}

// Get returns the stored delegation for id.
func (s *Store) Get(id [32]byte) (delegation.Delegation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return delegation.Delegation{}, false
	}
	return d.Clone(), true
}

// List returns every stored delegation in deterministic insertion order.
func (s *Store) List() []delegation.Delegation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]delegation.Delegation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Revoke transitions id to the terminal revoked state (spec §4.2).
func (s *Store) Revoke(ctx context.Context, id [32]byte) (delegation.Delegation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return delegation.Delegation{}, walleterr.New(walleterr.NotFound, "delegation %s not found", idKey(id))
	}
	if d.Status == delegation.StatusRevoked {
		return delegation.Delegation{}, walleterr.New(walleterr.InvalidState, "delegation %s already revoked", idKey(id))
	}

	revoked := d.Revoked()
	s.byID[id] = revoked
	if err := s.persistLocked(ctx, revoked); err != nil {
		return delegation.Delegation{}, err
	}

	s.log.WithField("id", idKey(id)).Info("delegation revoked")
	return revoked.Clone(), nil
}

// insertLocked registers d under a fresh sequence number if it is not
// already known; re-receiving a known id updates the stored value in
// place without disturbing iteration order. Caller must hold s.mu.
func (s *Store) insertLocked(d delegation.Delegation) {
	if _, exists := s.byID[d.ID]; !exists {
		s.order = append(s.order, d.ID)
		s.sequence++
	}
	s.byID[d.ID] = d
}
