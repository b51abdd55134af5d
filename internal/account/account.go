// Package account holds the key material a client scans and signs with.
package account

import (
	"fmt"

	"github.com/Klingon-tech/aleo-netclient/internal/apierr"
	"github.com/Klingon-tech/aleo-netclient/pkg/crypto"
	"github.com/Klingon-tech/aleo-netclient/pkg/types"
)

// Account bundles a private key with the view key and address derived from it.
type Account struct {
	privateKey *crypto.PrivateKey
	viewKey    *crypto.ViewKey
	address    types.Address
}

// New generates a random account.
func New() (*Account, error) {
	pk, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return fromKey(pk), nil
}

// FromPrivateKey parses private key material. Any parse failure is reported
// as an *apierr.InvalidKeyError.
func FromPrivateKey(s string) (*Account, error) {
	pk, err := crypto.ParsePrivateKey(s)
	if err != nil {
		return nil, &apierr.InvalidKeyError{Err: err}
	}
	return fromKey(pk), nil
}

func fromKey(pk *crypto.PrivateKey) *Account {
	vk := pk.ViewKey()
	return &Account{privateKey: pk, viewKey: vk, address: vk.Address()}
}

// PrivateKey returns the spending key.
func (a *Account) PrivateKey() *crypto.PrivateKey { return a.privateKey }

// ViewKey returns the key used to decrypt records.
func (a *Account) ViewKey() *crypto.ViewKey { return a.viewKey }

// Address returns the account address.
func (a *Account) Address() types.Address { return a.address }

// String returns the address.
func (a *Account) String() string { return a.address.String() }

// Sign signs the BLAKE3 digest of message.
func (a *Account) Sign(message []byte) ([]byte, error) {
	digest := crypto.Hash(message)
	sig, err := a.privateKey.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign message: %w", err)
	}
	return sig, nil
}

// SigningKey returns the compressed public key that verifies Sign output.
func (a *Account) SigningKey() []byte { return a.privateKey.PublicKey() }

// Verify checks a signature produced by Sign against signingKey.
func Verify(signingKey, message, signature []byte) bool {
	digest := crypto.Hash(message)
	return crypto.VerifySignature(digest[:], signature, signingKey)
}

// Zero wipes the private key. The account must not be used afterwards.
func (a *Account) Zero() {
	a.privateKey.Zero()
}
