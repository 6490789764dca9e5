package keyholder

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcutil/hdkeychain"
	"github.com/tyler-smith/go-bip39"
)

const hardenedOffset = uint32(0x80000000)

// bip44EthereumPath is m/44'/60'/0'/0/{index} — purpose' / coin-type'
// (60 = Ethereum per SLIP-44) / account' / change / address_index (spec
// §4.3). The first three levels are hardened, the last two are not.
func bip44EthereumPath(index uint32) []uint32 {
	return []uint32{
		44 + hardenedOffset,
		60 + hardenedOffset,
		0 + hardenedOffset,
		0,
		index,
	}
}

func masterKeyFromMnemonic(mnemonic string) (*hdkeychain.ExtendedKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("keyholder: invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, "")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("keyholder: derive master key: %w", err)
	}
	return master, nil
}

// derivePrivateKey walks the hardened+plain BIP-44 path from master and
// returns the account's secp256k1 key.
func derivePrivateKey(master *hdkeychain.ExtendedKey, index uint32) (*ecdsa.PrivateKey, error) {
	key := master
	var err error
	for _, n := range bip44EthereumPath(index) {
		key, err = key.Child(n)
		if err != nil {
			return nil, fmt.Errorf("keyholder: derive child %d: %w", n, err)
		}
	}

	btcecKey, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("keyholder: extract private key: %w", err)
	}
	return btcecKey.ToECDSA(), nil
}

// GenerateMnemonic returns a fresh BIP-39 mnemonic with 128 bits of
// entropy (12 words).
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(128)
	if err != nil {
		return "", fmt.Errorf("keyholder: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("keyholder: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// IsEIP7702Delegated reports whether code is an EIP-7702 delegation
// designator: the 3-byte prefix 0xef0100 followed by a 20-byte
// implementation address (spec §9 Open Question 3). Informational only —
// it does not gate any signing or redemption path.
func IsEIP7702Delegated(code []byte) bool {
	if len(code) != 23 {
		return false
	}
	return code[0] == 0xef && code[1] == 0x01 && code[2] == 0x00
}
