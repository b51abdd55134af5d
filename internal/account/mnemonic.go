package account

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits is the entropy size for 24-word mnemonics.
const MnemonicEntropyBits = 256

// SeedSize is the length of a BIP-39 seed in bytes.
const SeedSize = 64

// BIP-44 path: m/44'/683'/account'/0/0.
const (
	PurposeBIP44 = bip32.FirstHardenedChild + 44
	CoinTypeAleo = bip32.FirstHardenedChild + 683
)

// GenerateMnemonic creates a new 24-word BIP-39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks word count, word list and checksum.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// FromMnemonic derives the account at m/44'/683'/index'/0/0.
func FromMnemonic(mnemonic, passphrase string, index uint32) (*Account, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return FromSeed(seed, index)
}

// FromSeed derives the account at m/44'/683'/index'/0/0 from a 64-byte seed.
func FromSeed(seed []byte, index uint32) (*Account, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	for _, idx := range []uint32{PurposeBIP44, CoinTypeAleo, bip32.FirstHardenedChild + index, 0, 0} {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
	}

	// bip32 private keys are 33 bytes with a leading 0x00.
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	acct, err := FromPrivateKey(fmt.Sprintf("%x", raw))
	if err != nil {
		return nil, fmt.Errorf("derived key: %w", err)
	}
	return acct, nil
}
