// Package dexerrors defines the error kinds the dexios-go core surfaces to
// its callers. Every package in the core wraps one of these sentinels with
// fmt.Errorf("%w: ...") rather than minting its own ad-hoc error type, so
// callers can use errors.Is regardless of which package raised the failure.
package dexerrors

import "errors"

var (
	// ErrMalformedHeader covers an unknown version/algorithm/mode tag, a
	// truncated header, or a failed header read.
	ErrMalformedHeader = errors.New("dexios: malformed header")

	// ErrUnsupportedSerialization is returned when serializing a V1 or V2
	// header; those versions are read-only.
	ErrUnsupportedSerialization = errors.New("dexios: header version does not support serialization")

	// ErrUnsupportedOperation covers operations that do not apply to a
	// given header version, such as key rotation below V4.
	ErrUnsupportedOperation = errors.New("dexios: operation not supported for this header version")

	// ErrKdf is returned when the key derivation function refuses its
	// inputs.
	ErrKdf = errors.New("dexios: key derivation failed")

	// ErrCipherInit is returned when a key or parameter is rejected during
	// AEAD cipher construction.
	ErrCipherInit = errors.New("dexios: cipher initialization failed")

	// ErrEncrypt covers AEAD encryption failures.
	ErrEncrypt = errors.New("dexios: encryption failed")

	// ErrDecrypt is the single generic decryption failure. It intentionally
	// does not distinguish a wrong key from tampered ciphertext, to avoid
	// giving an attacker a decryption oracle.
	ErrDecrypt = errors.New("dexios: decryption failed (wrong key or corrupted/tampered data)")

	// ErrKeyDecrypt is raised specifically when unwrapping the V4 wrapped
	// master key fails.
	ErrKeyDecrypt = errors.New("dexios: unable to decrypt master key (wrong password or corrupted header)")

	// ErrIO wraps an underlying read/write/seek/flush failure.
	ErrIO = errors.New("dexios: i/o error")
)
