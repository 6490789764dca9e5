package keyholder

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
	"github.com/ai-wallet-labs/delegation-wallet/pkg/secretbox"
)

// persist writes {initOptions, derivedCount} to the durable store (spec
// §6, "Key Holder persists {initOptions, derivedCount}"); the mnemonic or
// ephemeral private key is encrypted at rest. Caller must hold k.mu.
func (k *KeyHolder) persist(ctx context.Context) error {
	key, err := secretbox.DeriveKey(k.masterKey, "keyholder-secret")
	if err != nil {
		return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "derive at-rest encryption key")
	}

	var plaintext string
	switch k.kind {
	case KindSeed:
		plaintext = k.mnemonic
	case KindEphemeral:
		plaintext = hexutil.Encode(crypto.FromECDSA(k.ephemeralKey))
	}

	encrypted, err := secretbox.Seal(plaintext, key)
	if err != nil {
		return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "encrypt secret")
	}

	state := persistedState{
		Kind:                k.kind,
		EncryptedSecret:     encrypted,
		DerivedAccountCount: uint32(len(k.accounts)),
	}
	if err := k.store.Save(ctx, namespace, recordKey, state); err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "persist key holder state")
	}
	return nil
}

// Restore rehydrates the Key Holder from its durable record, re-deriving
// every account up to the persisted count (spec §3, "only the count need
// be persisted alongside the mnemonic"). A no-op if nothing was stored.
func (k *KeyHolder) Restore(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	var state persistedState
	found, err := k.store.Load(ctx, namespace, recordKey, &state)
	if err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "load key holder state")
	}
	if !found {
		return nil
	}

	key, err := secretbox.DeriveKey(k.masterKey, "keyholder-secret")
	if err != nil {
		return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "derive at-rest encryption key")
	}
	plaintext, err := secretbox.Open(state.EncryptedSecret, key)
	if err != nil {
		return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "decrypt persisted secret")
	}

	switch state.Kind {
	case KindSeed:
		hdMaster, err := masterKeyFromMnemonic(plaintext)
		if err != nil {
			return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "restore seed")
		}
		k.mnemonic = plaintext
		k.hdMaster = hdMaster
		k.kind = KindSeed
		for i := uint32(0); i < state.DerivedAccountCount; i++ {
			privKey, err := derivePrivateKey(k.hdMaster, i)
			if err != nil {
				return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "re-derive account %d", i)
			}
			addr := crypto.PubkeyToAddress(privKey.PublicKey)
			k.accounts = append(k.accounts, Account{Address: addr, Index: i})
			k.byAddress[addr] = privKey
		}
	case KindEphemeral:
		raw, err := hexutil.Decode(plaintext)
		if err != nil {
			return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "decode ephemeral key")
		}
		privKey, err := crypto.ToECDSA(raw)
		if err != nil {
			return walleterr.Wrap(walleterr.ConfigurationInvalid, err, "restore ephemeral key")
		}
		k.ephemeralKey = privKey
		addr := crypto.PubkeyToAddress(privKey.PublicKey)
		k.accounts = append(k.accounts, Account{Address: addr})
		k.byAddress[addr] = privKey
		k.kind = KindEphemeral
	default:
		return walleterr.New(walleterr.ConfigurationInvalid, "unknown persisted key holder kind %q", state.Kind)
	}

	k.log.WithField("kind", k.kind).WithField("accounts", len(k.accounts)).Info("key holder restored")
	return nil
}
