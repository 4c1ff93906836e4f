// Package cipherengine wraps the three supported AEAD algorithms behind a
// single crypto/cipher.AEAD-shaped interface and layers a chunked streaming
// construction on top for large files.
package cipherengine

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/postalsys/dexios-go/internal/deoxysbc"
	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
	"golang.org/x/crypto/chacha20poly1305"
)

// New builds the one-shot AEAD for the given algorithm and 32-byte key.
func New(alg primitives.Algorithm, key *protected.Key32) (cipher.AEAD, error) {
	raw := key.Expose()
	if raw == nil {
		return nil, fmt.Errorf("%w: key already wiped", dexerrors.ErrCipherInit)
	}

	switch alg {
	case primitives.XChaCha20Poly1305:
		aead, err := chacha20poly1305.NewX(raw[:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dexerrors.ErrCipherInit, err)
		}
		return aead, nil

	case primitives.Aes256Gcm:
		block, err := aes.NewCipher(raw[:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dexerrors.ErrCipherInit, err)
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dexerrors.ErrCipherInit, err)
		}
		return aead, nil

	case primitives.DeoxysII256:
		aead, err := deoxysbc.New(raw[:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dexerrors.ErrCipherInit, err)
		}
		return aead, nil

	default:
		return nil, fmt.Errorf("%w: unknown algorithm %v", dexerrors.ErrCipherInit, alg)
	}
}
