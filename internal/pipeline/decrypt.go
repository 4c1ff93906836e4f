package pipeline

import (
	"fmt"
	"io"

	"github.com/postalsys/dexios-go/internal/cipherengine"
	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/header"
	"github.com/postalsys/dexios-go/internal/kdf"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
)

// DecryptRequest configures a single decrypt operation. Password is
// consumed: the pipeline wipes it once derivation completes.
type DecryptRequest struct {
	Password *protected.Bytes
}

// Decrypt reads a header followed by ciphertext from r and writes the
// recovered plaintext to w. r must support Seek so the header codec can
// determine its own length before committing to a read size.
func Decrypt(r io.ReadSeeker, w io.Writer, req DecryptRequest) error {
	h, aad, err := header.Deserialize(r)
	if err != nil {
		return err
	}

	hashedKey, err := kdf.Derive(req.Password, h.Salt, h.Version)
	if err != nil {
		return err
	}

	bodyKey, err := resolveBodyKey(h, hashedKey)
	if err != nil {
		return err
	}

	bodyAEAD, err := cipherengine.New(h.Algorithm, bodyKey)
	if err != nil {
		bodyKey.Wipe()
		return err
	}

	switch h.Mode {
	case primitives.Memory:
		err = decryptMemory(r, w, bodyAEAD, h.Nonce, aad)
	case primitives.Stream:
		err = decryptStream(r, w, bodyAEAD, h.Nonce, aad)
	default:
		err = fmt.Errorf("%w: unknown mode %v", dexerrors.ErrDecrypt, h.Mode)
	}

	bodyKey.Wipe()
	return err
}

// resolveBodyKey returns the key that encrypts the payload body. For V4
// headers this means unwrapping the master key under hashedKey; for V1-V3
// headers hashedKey is used directly, with no indirection.
func resolveBodyKey(h *header.Header, hashedKey *protected.Key32) (*protected.Key32, error) {
	if h.Version != header.V4 {
		return hashedKey, nil
	}
	defer hashedKey.Wipe()

	keyWrapAEAD, err := cipherengine.New(h.Algorithm, hashedKey)
	if err != nil {
		return nil, err
	}

	rawMasterKey, err := keyWrapAEAD.Open(nil, h.WrappedMasterKeyNonce, h.WrappedMasterKey, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dexerrors.ErrKeyDecrypt, err)
	}

	var arr [32]byte
	copy(arr[:], rawMasterKey)
	for i := range rawMasterKey {
		rawMasterKey[i] = 0
	}
	key := protected.NewKey32(arr)
	arr = [32]byte{}
	return key, nil
}

func decryptMemory(r io.Reader, w io.Writer, aead cipherAEAD, nonce, aad []byte) error {
	ciphertext, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read ciphertext: %v", dexerrors.ErrIO, err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrDecrypt, err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("%w: write plaintext: %v", dexerrors.ErrIO, err)
	}
	return nil
}

// decryptStream mirrors encryptStream's one-block-at-a-time shape: a full
// ciphertext chunk (BlockSize plus the AEAD tag) is always opened with
// DecryptNext, and the loop reads again to find out whether more follow.
// Only a short read is opened with DecryptLast, including the empty tail
// that an exact-multiple-of-BlockSize plaintext produces on the wire.
func decryptStream(r io.Reader, w io.Writer, aead cipherAEAD, randomPortion, aad []byte) error {
	dec, err := cipherengine.NewDecryptor(aead, randomPortion)
	if err != nil {
		return err
	}

	chunkSize := primitives.BlockSize + aead.Overhead()
	first := true

	for {
		chunk, err := readChunk(r, chunkSize)
		if err != nil {
			return err
		}
		if first && len(chunk) == 0 {
			return fmt.Errorf("%w: ciphertext is empty", dexerrors.ErrDecrypt)
		}
		first = false

		if len(chunk) == chunkSize {
			pt, err := dec.DecryptNext(chunk, aad)
			if err != nil {
				return err
			}
			if _, werr := w.Write(pt); werr != nil {
				return fmt.Errorf("%w: write plaintext block: %v", dexerrors.ErrIO, werr)
			}
			continue
		}

		pt, err := dec.DecryptLast(chunk, aad)
		if err != nil {
			return err
		}
		if _, werr := w.Write(pt); werr != nil {
			return fmt.Errorf("%w: write plaintext block: %v", dexerrors.ErrIO, werr)
		}
		return nil
	}
}
