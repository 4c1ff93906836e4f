// Package pipeline implements the end-to-end encryption and decryption
// flows: deriving keys, wrapping the V4 master key, and driving the
// one-shot or streaming cipher over the payload.
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

// EncryptRequest configures a single encrypt operation. Password is
// consumed: the pipeline wipes it once derivation completes.
type EncryptRequest struct {
	Password  *protected.Bytes
	Algorithm primitives.Algorithm
	Mode      primitives.Mode
}

// Encrypt reads plaintext from r, writes a V4 header followed by
// ciphertext to w, and returns once the whole payload has been sealed.
// Every new encryption produces a V4 header: V1-V3 are decrypt-only
// compatibility layouts.
func Encrypt(r io.Reader, w io.Writer, req EncryptRequest) error {
	salt, err := primitives.GenSalt()
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrEncrypt, err)
	}

	hashedKey, err := kdf.Derive(req.Password, salt, header.V4)
	if err != nil {
		return err
	}

	rawMasterKey, err := primitives.RandomKey()
	if err != nil {
		hashedKey.Wipe()
		return fmt.Errorf("%w: generate master key: %v", dexerrors.ErrEncrypt, err)
	}
	var masterKeyArr [32]byte
	copy(masterKeyArr[:], rawMasterKey)
	for i := range rawMasterKey {
		rawMasterKey[i] = 0
	}
	masterKey := protected.NewKey32(masterKeyArr)
	masterKeyArr = [32]byte{}

	wrappedKeyNonce, err := primitives.GenNonce(req.Algorithm, primitives.Memory)
	if err != nil {
		hashedKey.Wipe()
		masterKey.Wipe()
		return fmt.Errorf("%w: %v", dexerrors.ErrEncrypt, err)
	}

	keyWrapAEAD, err := cipherengine.New(req.Algorithm, hashedKey)
	hashedKey.Wipe()
	if err != nil {
		masterKey.Wipe()
		return err
	}
	wrappedMasterKey := keyWrapAEAD.Seal(nil, wrappedKeyNonce, masterKey.Expose()[:], nil)

	bodyNonce, err := primitives.GenNonce(req.Algorithm, req.Mode)
	if err != nil {
		masterKey.Wipe()
		return fmt.Errorf("%w: %v", dexerrors.ErrEncrypt, err)
	}

	h := &header.Header{
		Version:               header.V4,
		Algorithm:             req.Algorithm,
		Mode:                  req.Mode,
		Salt:                  salt,
		Nonce:                 bodyNonce,
		WrappedMasterKey:      wrappedMasterKey,
		WrappedMasterKeyNonce: wrappedKeyNonce,
	}

	aad, err := header.Serialize(w, h)
	if err != nil {
		masterKey.Wipe()
		return err
	}

	bodyAEAD, err := cipherengine.New(req.Algorithm, masterKey)
	if err != nil {
		masterKey.Wipe()
		return err
	}

	switch req.Mode {
	case primitives.Memory:
		err = encryptMemory(r, w, bodyAEAD, bodyNonce, aad)
	case primitives.Stream:
		err = encryptStream(r, w, bodyAEAD, bodyNonce, aad)
	default:
		err = fmt.Errorf("%w: unknown mode %v", dexerrors.ErrEncrypt, req.Mode)
	}

	masterKey.Wipe()
	return err
}

func encryptMemory(r io.Reader, w io.Writer, aead cipherAEAD, nonce, aad []byte) error {
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read plaintext: %v", dexerrors.ErrIO, err)
	}
	ciphertext := aead.Seal(nil, nonce, plaintext, aad)
	if _, err := w.Write(ciphertext); err != nil {
		return fmt.Errorf("%w: write ciphertext: %v", dexerrors.ErrIO, err)
	}
	return nil
}

// encryptStream reads one block at a time and, for each, checks whether the
// read filled the block completely. A full block is never assumed to be
// the last one: it is always sealed with EncryptNext, and the loop reads
// again to find out. Only a short read (including a zero-byte read right
// at EOF) is sealed with EncryptLast. This means a plaintext whose length
// is an exact multiple of BlockSize still ends with an EncryptLast call on
// an empty tail, one read past the final full block.
func encryptStream(r io.Reader, w io.Writer, aead cipherAEAD, randomPortion, aad []byte) error {
	enc, err := cipherengine.NewEncryptor(aead, randomPortion)
	if err != nil {
		return err
	}

	for {
		chunk, err := readChunk(r, primitives.BlockSize)
		if err != nil {
			return err
		}

		if len(chunk) == primitives.BlockSize {
			ct, err := enc.EncryptNext(chunk, aad)
			if err != nil {
				return err
			}
			if _, werr := w.Write(ct); werr != nil {
				return fmt.Errorf("%w: write ciphertext block: %v", dexerrors.ErrIO, werr)
			}
			continue
		}

		ct, err := enc.EncryptLast(chunk, aad)
		if err != nil {
			return err
		}
		if _, werr := w.Write(ct); werr != nil {
			return fmt.Errorf("%w: write ciphertext block: %v", dexerrors.ErrIO, werr)
		}
		return nil
	}
}

// cipherAEAD is the subset of crypto/cipher.AEAD the stream helpers need;
// declared locally so encryptStream/decryptStream don't have to import
// crypto/cipher just for the type name.
type cipherAEAD interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
	Overhead() int
}
