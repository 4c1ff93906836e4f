package kdf

import (
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for header versions V1-V3. These mirror the upstream
// Argon2 crate's own default Params — 19 MiB of memory, 2 passes, single
// lane — rather than the OWASP-recommended figures, since the whole point
// of a legacy-compatible KDF path is to keep deriving the same key for the
// same (password, salt) pair that earlier dexios-go versions produced.
const (
	argon2Time    = 2
	argon2MemoryKiB = 19 * 1024
	argon2Threads = 1
)

func deriveArgon2id(password, salt []byte) (*protected.Key32, error) {
	derived := argon2.IDKey(password, salt, argon2Time, argon2MemoryKiB, argon2Threads, primitives.KeyLen)
	defer zero(derived)

	var key [32]byte
	copy(key[:], derived)
	return protected.NewKey32(key), nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
