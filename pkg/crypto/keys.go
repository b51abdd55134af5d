package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Klingon-tech/aleo-netclient/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

const viewKeyTag = "aleo-netclient/view-key"

var (
	ErrKeyLength   = errors.New("private key must be 32 bytes")
	ErrKeyRange    = errors.New("private key scalar out of range")
	ErrKeyEncoding = errors.New("private key is neither apk bech32 nor hex")
)

// PrivateKey is the spending key of an account.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte scalar.
// The scalar must be non-zero and below the curve order.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("%w, got %d", ErrKeyLength, len(b))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(b); overflow || s.IsZero() {
		return nil, ErrKeyRange
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&s)}, nil
}

// ParsePrivateKey parses the canonical "apk1..." form or 64 hex characters.
func ParsePrivateKey(s string) (*PrivateKey, error) {
	s = strings.TrimSpace(s)
	var raw []byte
	var err error
	switch {
	case strings.HasPrefix(s, types.PrivateKeyHRP+"1"):
		raw, err = types.DecodeWithHRP(s, types.PrivateKeyHRP)
	case len(s) == 64:
		raw, err = hex.DecodeString(s)
	default:
		return nil, ErrKeyEncoding
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyEncoding, err)
	}
	return PrivateKeyFromBytes(raw)
}

// String returns the canonical bech32 form ("apk1...").
func (pk *PrivateKey) String() string {
	s, _ := types.Bech32Encode(types.PrivateKeyHRP, pk.Serialize())
	return s
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// PublicKey returns the compressed 33-byte signing public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// ViewKey derives the key that decrypts records addressed to this account.
func (pk *PrivateKey) ViewKey() *ViewKey {
	digest := TaggedHash(viewKeyTag, pk.Serialize())
	var s secp256k1.ModNScalar
	s.SetByteSlice(digest[:])
	return &ViewKey{key: secp256k1.NewPrivateKey(&s)}
}

// Address returns the account address (the view key's public point).
func (pk *PrivateKey) Address() types.Address {
	return pk.ViewKey().Address()
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := schnorr.Sign(pk.key, hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// Zero wipes the scalar from memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// ViewKey decrypts records but cannot spend them.
type ViewKey struct {
	key *secp256k1.PrivateKey
}

// ParseViewKey parses the "avk1..." form.
func ParseViewKey(s string) (*ViewKey, error) {
	raw, err := types.DecodeWithHRP(strings.TrimSpace(s), types.ViewKeyHRP)
	if err != nil {
		return nil, fmt.Errorf("parse view key: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("view key must be 32 bytes, got %d", len(raw))
	}
	var sc secp256k1.ModNScalar
	if overflow := sc.SetByteSlice(raw); overflow || sc.IsZero() {
		return nil, fmt.Errorf("view key scalar out of range")
	}
	return &ViewKey{key: secp256k1.NewPrivateKey(&sc)}, nil
}

// String returns the bech32 form ("avk1...").
func (vk *ViewKey) String() string {
	s, _ := types.Bech32Encode(types.ViewKeyHRP, vk.key.Serialize())
	return s
}

// Address returns the address whose records this key can decrypt.
func (vk *ViewKey) Address() types.Address {
	var a types.Address
	copy(a[:], vk.key.PubKey().SerializeCompressed())
	return a
}

// SharedSecret performs ECDH with a peer's compressed public key.
func (vk *ViewKey) SharedSecret(peer []byte) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(peer)
	if err != nil {
		return nil, fmt.Errorf("parse peer key: %w", err)
	}
	return secp256k1.GenerateSharedSecret(vk.key, pub), nil
}

// SharedSecretTo performs ECDH from an ephemeral key to a recipient address.
func SharedSecretTo(ephemeral *PrivateKey, to types.Address) ([]byte, error) {
	pub, err := secp256k1.ParsePubKey(to[:])
	if err != nil {
		return nil, fmt.Errorf("parse address point: %w", err)
	}
	return secp256k1.GenerateSharedSecret(ephemeral.key, pub), nil
}

// VerifySignature checks a Schnorr signature against a 32-byte hash and a
// compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}
