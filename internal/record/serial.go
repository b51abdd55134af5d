package record

import (
	"math/big"

	"github.com/Klingon-tech/aleo-netclient/pkg/crypto"
)

// Commitment returns the decimal field commitment of a record ciphertext.
func Commitment(ciphertext string) (string, error) {
	payload, err := decodePayload(ciphertext)
	if err != nil {
		return "", err
	}
	h := crypto.TaggedHash("record-commitment", payload)
	return toField(h), nil
}

// SerialNumber returns the serial number that is revealed as a transition
// input when the record is spent. Only the owner's private key can derive it.
func SerialNumber(pk *crypto.PrivateKey, ciphertext string) (string, error) {
	payload, err := decodePayload(ciphertext)
	if err != nil {
		return "", err
	}
	commitment := crypto.TaggedHash("record-commitment", payload)
	h := crypto.TaggedHash("record-serial", pk.Serialize(), commitment[:])
	return toField(h), nil
}

// toField renders 248 bits of a digest as a "<decimal>field" literal.
func toField(h [crypto.HashSize]byte) string {
	return new(big.Int).SetBytes(h[:31]).String() + "field"
}
