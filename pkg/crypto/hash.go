// Package crypto provides the hashing and key primitives used by accounts and
// the record cipher.
package crypto

import (
	"github.com/zeebo/blake3"
)

// HashSize is the length of a BLAKE3-256 digest.
const HashSize = 32

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) [HashSize]byte {
	return blake3.Sum256(data)
}

// TaggedHash hashes the concatenation of parts under a domain tag, so that
// digests computed for different purposes never collide.
func TaggedHash(tag string, parts ...[]byte) [HashSize]byte {
	h := blake3.New()
	tagDigest := blake3.Sum256([]byte(tag))
	_, _ = h.Write(tagDigest[:])
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DeriveKey derives a 32-byte symmetric key from material under context.
func DeriveKey(context string, material []byte) []byte {
	out := make([]byte, 32)
	blake3.DeriveKey(context, material, out)
	return out
}
