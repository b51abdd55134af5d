// Package record decrypts record ciphertexts found in transition outputs.
//
// Decryption never fails with an error: the result is an Outcome tagged as
// Owned, NotOwned or Malformed, because most records on chain belong to
// someone else and a scan must tell "skip" apart from "abort".
package record

import "github.com/Klingon-tech/aleo-netclient/pkg/types"

// Status tags a decryption outcome.
type Status uint8

const (
	// Malformed: the ciphertext could not be parsed at all.
	Malformed Status = iota
	// NotOwned: well formed, but not addressed to the view key.
	NotOwned
	// Owned: decrypted and addressed to the view key.
	Owned
)

func (s Status) String() string {
	switch s {
	case Owned:
		return "owned"
	case NotOwned:
		return "not_owned"
	default:
		return "malformed"
	}
}

// Outcome is the result of a single decryption attempt.
type Outcome struct {
	Status Status
	Record *types.RecordPlaintext // set when Status == Owned
	Err    error                  // reason for Malformed
}

func owned(r *types.RecordPlaintext) Outcome { return Outcome{Status: Owned, Record: r} }

func notOwned() Outcome { return Outcome{Status: NotOwned} }

func malformed(err error) Outcome { return Outcome{Status: Malformed, Err: err} }
