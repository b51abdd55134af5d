package record

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Klingon-tech/aleo-netclient/pkg/crypto"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"golang.org/x/crypto/chacha20poly1305"
)

// Ciphertext layout: ephemeral pubkey(33) | nonce(24) | sealed plaintext.
const (
	ephemeralSize = 33
	nonceSize     = chacha20poly1305.NonceSizeX
	minSize       = ephemeralSize + nonceSize + chacha20poly1305.Overhead

	kdfContext = "aleo-netclient 2024 record encryption key"
)

// Cipher decrypts record ciphertexts with a view key.
type Cipher interface {
	Decrypt(ciphertext string, vk *crypto.ViewKey) Outcome
}

// ECDHCipher encrypts records to an address with an ephemeral secp256k1 key,
// a BLAKE3-derived key and XChaCha20-Poly1305.
type ECDHCipher struct{}

// Encrypt seals rec to the owner address and returns the "record1..." string.
// rec.Owner and rec.Nonce are overwritten.
func (ECDHCipher) Encrypt(owner types.Address, rec types.RecordPlaintext) (string, error) {
	eph, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	defer eph.Zero()
	ephPub := eph.PublicKey()

	shared, err := crypto.SharedSecretTo(eph, owner)
	if err != nil {
		return "", fmt.Errorf("derive shared secret: %w", err)
	}
	aead, err := newAEAD(shared, ephPub)
	if err != nil {
		return "", err
	}

	rec.Owner = owner
	rec.Nonce = recordNonce(ephPub)
	plaintext, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, minSize+len(plaintext))
	out = append(out, ephPub...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, ephPub)

	return types.Bech32Encode(types.RecordHRP, out)
}

// Decrypt attempts to open ciphertext with vk.
func (ECDHCipher) Decrypt(ciphertext string, vk *crypto.ViewKey) Outcome {
	payload, err := decodePayload(ciphertext)
	if err != nil {
		return malformed(err)
	}
	ephPub := payload[:ephemeralSize]
	nonce := payload[ephemeralSize : ephemeralSize+nonceSize]
	sealed := payload[ephemeralSize+nonceSize:]

	shared, err := vk.SharedSecret(ephPub)
	if err != nil {
		return malformed(err)
	}
	aead, err := newAEAD(shared, ephPub)
	if err != nil {
		return malformed(err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed, ephPub)
	if err != nil {
		// Authentication failure means the key is wrong, not that the data is bad.
		return notOwned()
	}

	var rec types.RecordPlaintext
	if err := json.Unmarshal(plaintext, &rec); err != nil {
		return malformed(fmt.Errorf("decode plaintext: %w", err))
	}
	if rec.Owner != vk.Address() {
		return notOwned()
	}
	return owned(&rec)
}

func decodePayload(ciphertext string) ([]byte, error) {
	payload, err := types.DecodeWithHRP(ciphertext, types.RecordHRP)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	if len(payload) < minSize {
		return nil, fmt.Errorf("ciphertext too short: %d bytes, need at least %d", len(payload), minSize)
	}
	return payload, nil
}

func newAEAD(shared, ephPub []byte) (cipher.AEAD, error) {
	material := make([]byte, 0, len(shared)+len(ephPub))
	material = append(material, shared...)
	material = append(material, ephPub...)
	key := crypto.DeriveKey(kdfContext, material)
	aead, err := chacha20poly1305.NewX(key)
	for i := range key {
		key[i] = 0
	}
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return aead, nil
}

// recordNonce renders the per-record nonce as a decimal group element.
func recordNonce(ephPub []byte) string {
	h := crypto.TaggedHash("record-nonce", ephPub)
	return new(big.Int).SetBytes(h[:31]).String()
}
