package account

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// CiphertextHRP prefixes an encrypted private key.
const CiphertextHRP = "ciphertext"

const (
	saltSize = 32
	// salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | sealed key
	headerSize = saltSize + 4 + 4 + 1

	maxMemoryKiB = 4 * 1024 * 1024
)

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(password, salt, params.Iterations, params.Memory, params.Parallelism, chacha20poly1305.KeySize)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Encrypt seals the private key under password and returns "ciphertext1...".
func (a *Account) Encrypt(password []byte, params EncryptionParams) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	secret := a.privateKey.Serialize()
	defer zero(secret)

	out := make([]byte, 0, headerSize+len(nonce)+len(secret)+aead.Overhead())
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	header := append([]byte(nil), out[:headerSize]...)
	out = aead.Seal(out, nonce, secret, header)

	return types.Bech32Encode(CiphertextHRP, out)
}

// FromCiphertext decrypts an account exported with Encrypt.
func FromCiphertext(ciphertext string, password []byte) (*Account, error) {
	data, err := types.DecodeWithHRP(ciphertext, CiphertextHRP)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	nonceSize := chacha20poly1305.NonceSizeX
	if minSize := headerSize + nonceSize + chacha20poly1305.Overhead; len(data) < minSize {
		return nil, fmt.Errorf("ciphertext too short: %d bytes, need at least %d", len(data), minSize)
	}

	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(data[saltSize:]),
		Iterations:  binary.LittleEndian.Uint32(data[saltSize+4:]),
		Parallelism: data[saltSize+8],
	}
	if params.Iterations == 0 || params.Parallelism == 0 || params.Memory > maxMemoryKiB {
		return nil, fmt.Errorf("ciphertext has invalid key derivation parameters")
	}
	key := deriveKey(password, data[:saltSize], params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := data[headerSize : headerSize+nonceSize]
	secret, err := aead.Open(nil, nonce, data[headerSize+nonceSize:], data[:headerSize])
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	defer zero(secret)

	return FromPrivateKey(fmt.Sprintf("%x", secret))
}
