// Package kdf derives a 32-byte key from a password and salt. Versions V1
// through V3 use Argon2id; V4 uses a from-scratch balloon hash over BLAKE3.
// Either way the raw password is wiped the moment derivation completes,
// successful or not.
package kdf

import (
	"fmt"

	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/header"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
)

// Derive consumes raw (wiping it before returning, regardless of outcome)
// and produces the 32-byte key for the given header version and salt.
func Derive(raw *protected.Bytes, salt []byte, version header.Version) (*protected.Key32, error) {
	defer raw.Wipe()

	if raw.Len() == 0 {
		return nil, fmt.Errorf("%w: empty password", dexerrors.ErrKdf)
	}
	if len(salt) != primitives.SaltLen {
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", dexerrors.ErrKdf, len(salt), primitives.SaltLen)
	}

	switch version {
	case header.V1, header.V2, header.V3:
		return deriveArgon2id(raw.Expose(), salt)
	case header.V4:
		return deriveBalloon(raw.Expose(), salt)
	default:
		return nil, fmt.Errorf("%w: unsupported header version %v", dexerrors.ErrKdf, version)
	}
}
