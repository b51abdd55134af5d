// Package types defines the wire types served by the node's HTTP API and the
// primitive identifiers shared across the client.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// AddressSize is the length of an address in bytes (compressed secp256k1 point).
const AddressSize = 33

// Address identifies the owner of a record.
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the bech32 form ("aleo1...").
func (a Address) String() string {
	s, err := Bech32Encode(AddressHRP, a[:])
	if err != nil {
		return AddressHRP + ":" + hex.EncodeToString(a[:])
	}
	return s
}

// Bytes returns a copy of the address bytes.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts the bech32 form or raw hex.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses "aleo1..." or 66 hex characters. Record plaintexts
// carry a visibility suffix ("aleo1....private") which is stripped.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	var raw []byte
	var err error
	if strings.HasPrefix(s, AddressHRP+"1") {
		raw, err = DecodeWithHRP(s, AddressHRP)
		if err != nil {
			return Address{}, fmt.Errorf("invalid bech32 address: %w", err)
		}
	} else {
		raw, err = hex.DecodeString(s)
		if err != nil {
			return Address{}, fmt.Errorf("invalid address: %w", err)
		}
	}
	if len(raw) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(raw))
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}
