package keyholder

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"

	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

const namespace = "keyholder"
const recordKey = "state"

// KeyHolder owns the secret key material for the wallet. No exported
// method ever returns a private key (spec §4.3).
type KeyHolder struct {
	store     durablestore.Store
	masterKey []byte // derives at-rest encryption keys via pkg/secretbox; never the signing key itself
	log       *logrus.Entry

	mu                 sync.Mutex
	kind               Kind
	mnemonic           string
	hdMaster           *hdkeychain.ExtendedKey
	ephemeralKey       *ecdsa.PrivateKey
	accounts           []Account
	byAddress          map[common.Address]*ecdsa.PrivateKey
	weakEntropyCounter uint64
}

// New constructs an uninitialised Key Holder backed by store. masterSecret
// is the wallet-host-provided key used to derive at-rest encryption keys
// for the persisted mnemonic / ephemeral key.
func New(store durablestore.Store, masterSecret []byte, log *logrus.Logger) *KeyHolder {
	if log == nil {
		log = logrus.New()
	}
	return &KeyHolder{
		store:     store,
		masterKey: masterSecret,
		log:       log.WithField("component", "keyholder"),
		kind:      KindNone,
		byAddress: make(map[common.Address]*ecdsa.PrivateKey),
	}
}

// Initialize sets up the Key Holder per spec §4.3. Fails if already
// initialised.
func (k *KeyHolder) Initialize(ctx context.Context, opts InitOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.kind != KindNone {
		return walleterr.New(walleterr.InvalidState, "key holder already initialised as %s", k.kind)
	}

	switch opts.Kind {
	case KindSeed:
		hdMaster, err := masterKeyFromMnemonic(opts.Mnemonic)
		if err != nil {
			return walleterr.Wrap(walleterr.ValidationFailed, err, "invalid seed options")
		}
		k.mnemonic = opts.Mnemonic
		k.hdMaster = hdMaster
		k.kind = KindSeed
	case KindEphemeral:
		key, err := newEphemeralKey(&k.weakEntropyCounter)
		if err != nil {
			return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "generate ephemeral key")
		}
		k.ephemeralKey = key
		addr := crypto.PubkeyToAddress(key.PublicKey)
		k.accounts = append(k.accounts, Account{Address: addr})
		k.byAddress[addr] = key
		k.kind = KindEphemeral
	default:
		return walleterr.New(walleterr.ValidationFailed, "unknown key holder kind %q", opts.Kind)
	}

	k.log.WithField("kind", k.kind).Info("key holder initialised")
	return k.persist(ctx)
}

// DeriveAccount derives the BIP-44 account at index and registers it
// (spec §4.3). Only valid for seed-based keyrings.
func (k *KeyHolder) DeriveAccount(ctx context.Context, index uint32) (Account, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.kind != KindSeed {
		return Account{}, walleterr.New(walleterr.InvalidState, "deriveAccount requires a seed-based key holder, got %s", k.kind)
	}

	privKey, err := derivePrivateKey(k.hdMaster, index)
	if err != nil {
		return Account{}, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "derive account %d", index)
	}

	addr := crypto.PubkeyToAddress(privKey.PublicKey)
	account := Account{Address: addr, Index: index}
	k.accounts = append(k.accounts, account)
	k.byAddress[addr] = privKey

	if err := k.persist(ctx); err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetAccounts returns all registered addresses in insertion order.
func (k *KeyHolder) GetAccounts() []Account {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]Account, len(k.accounts))
	copy(out, k.accounts)
	return out
}

// IsInitialized reports whether Initialize has already run (spec §4.5a,
// "local key (if initialised)").
func (k *KeyHolder) IsInitialized() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.kind != KindNone
}

// HasAccount reports whether addr is a registered signing identity.
func (k *KeyHolder) HasAccount(addr common.Address) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.byAddress[addr]
	return ok
}

func (k *KeyHolder) resolveSigner(from *common.Address) (*ecdsa.PrivateKey, error) {
	if from == nil {
		if len(k.accounts) == 0 {
			return nil, walleterr.New(walleterr.NotFound, "no accounts registered")
		}
		return k.byAddress[k.accounts[0].Address], nil
	}
	key, ok := k.byAddress[*from]
	if !ok {
		return nil, walleterr.New(walleterr.NotFound, "account %s not registered", from.Hex())
	}
	return key, nil
}

// SignTypedData signs an EIP-712 payload (spec §4.3). Uses the first
// registered account when from is nil.
func (k *KeyHolder) SignTypedData(td apitypes.TypedData, from *common.Address) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, err := k.resolveSigner(from)
	if err != nil {
		return nil, err
	}

	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ValidationFailed, err, "hash typed data")
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "sign typed data")
	}
	normalizeV(sig)
	return sig, nil
}

// SignMessage signs text as an EIP-191 personal message (spec §4.3).
func (k *KeyHolder) SignMessage(message []byte, from *common.Address) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, err := k.resolveSigner(from)
	if err != nil {
		return nil, err
	}

	digest := personalSignHash(message)
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "sign message")
	}
	normalizeV(sig)
	return sig, nil
}

// SignHash signs a 32-byte digest with raw ECDSA — no EIP-191 envelope.
// Required for UserOp hashes, which the ERC-4337 EntryPoint verifies
// without any message prefix (spec §4.3).
func (k *KeyHolder) SignHash(hash [32]byte, from *common.Address) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	key, err := k.resolveSigner(from)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ConfigurationInvalid, err, "sign hash")
	}
	normalizeV(sig)
	return sig, nil
}

// personalSignHash applies the EIP-191 "\x19Ethereum Signed Message:\n"
// prefix before hashing.
func personalSignHash(message []byte) []byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	return crypto.Keccak256([]byte(prefix), message)
}

// normalizeV adjusts the recovery id to the 27/28 convention used
// on-wire, matching how Ethereum signatures are normally encoded.
func normalizeV(sig []byte) {
	if len(sig) == 65 && sig[64] < 27 {
		sig[64] += 27
	}
}
