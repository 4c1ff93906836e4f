package cipherengine

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	"github.com/postalsys/dexios-go/internal/dexerrors"
)

// maxStreamCounter is the largest value the 31-bit block counter can hold;
// the top bit of the counter word is reserved for the last-block flag, so
// only 31 bits are available to the counter itself.
const maxStreamCounter = 1<<31 - 1

// streamNonce holds a full AEAD nonce whose trailing 4 bytes are
// overwritten per block with a little-endian (counter<<0 | lastFlag<<31)
// word — the same "mutate a fixed buffer by counter" approach the
// session-key nonce builder in the end-to-end transport layer uses, just
// with the flag/counter packed into the tail instead of the head.
type streamNonce struct {
	buf     []byte
	tailLen int
}

func newStreamNonce(aead cipher.AEAD, randomPortion []byte) (*streamNonce, error) {
	want := aead.NonceSize() - 4
	if len(randomPortion) != want {
		return nil, fmt.Errorf("%w: stream nonce random portion is %d bytes, want %d",
			dexerrors.ErrCipherInit, len(randomPortion), want)
	}
	buf := make([]byte, aead.NonceSize())
	copy(buf, randomPortion)
	return &streamNonce{buf: buf, tailLen: 4}, nil
}

func (n *streamNonce) set(counter uint32, last bool) []byte {
	word := counter
	if last {
		word |= 1 << 31
	}
	binary.LittleEndian.PutUint32(n.buf[len(n.buf)-n.tailLen:], word)
	return n.buf
}

// Encryptor processes a plaintext as a sequence of fixed-size blocks,
// sealing each with a counter folded into the nonce so that reordering or
// truncating blocks breaks authentication.
type Encryptor struct {
	aead     cipher.AEAD
	nonce    *streamNonce
	counter  uint32
	finished bool
}

// NewEncryptor builds a streaming encryptor. randomPortion must be exactly
// aead.NonceSize()-4 bytes — the random part of the nonce generated once
// per file; the remaining 4 bytes are owned by the stream.
func NewEncryptor(aead cipher.AEAD, randomPortion []byte) (*Encryptor, error) {
	nonce, err := newStreamNonce(aead, randomPortion)
	if err != nil {
		return nil, err
	}
	return &Encryptor{aead: aead, nonce: nonce}, nil
}

// EncryptNext seals a non-final block.
func (e *Encryptor) EncryptNext(plaintext, ad []byte) ([]byte, error) {
	return e.encrypt(plaintext, ad, false)
}

// EncryptLast seals the final block of the stream. After this call the
// Encryptor must not be used again.
func (e *Encryptor) EncryptLast(plaintext, ad []byte) ([]byte, error) {
	return e.encrypt(plaintext, ad, true)
}

func (e *Encryptor) encrypt(plaintext, ad []byte, last bool) ([]byte, error) {
	if e.finished {
		return nil, fmt.Errorf("%w: stream already finalized", dexerrors.ErrEncrypt)
	}
	if e.counter > maxStreamCounter {
		return nil, fmt.Errorf("%w: stream block counter exhausted", dexerrors.ErrEncrypt)
	}

	nonce := e.nonce.set(e.counter, last)
	ct := e.aead.Seal(nil, nonce, plaintext, ad)

	e.counter++
	if last {
		e.finished = true
	}
	return ct, nil
}

// Decryptor is the Encryptor's counterpart: it expects blocks to arrive in
// order and rejects a short (non-last) block being presented as the final
// one or vice versa, since the last-block flag is itself authenticated.
type Decryptor struct {
	aead     cipher.AEAD
	nonce    *streamNonce
	counter  uint32
	finished bool
}

// NewDecryptor builds a streaming decryptor from the same random nonce
// portion the encryptor used.
func NewDecryptor(aead cipher.AEAD, randomPortion []byte) (*Decryptor, error) {
	nonce, err := newStreamNonce(aead, randomPortion)
	if err != nil {
		return nil, err
	}
	return &Decryptor{aead: aead, nonce: nonce}, nil
}

// DecryptNext opens a non-final block.
func (d *Decryptor) DecryptNext(ciphertext, ad []byte) ([]byte, error) {
	return d.decrypt(ciphertext, ad, false)
}

// DecryptLast opens the final block of the stream.
func (d *Decryptor) DecryptLast(ciphertext, ad []byte) ([]byte, error) {
	return d.decrypt(ciphertext, ad, true)
}

func (d *Decryptor) decrypt(ciphertext, ad []byte, last bool) ([]byte, error) {
	if d.finished {
		return nil, fmt.Errorf("%w: stream already finalized", dexerrors.ErrDecrypt)
	}
	if d.counter > maxStreamCounter {
		return nil, fmt.Errorf("%w: stream block counter exhausted", dexerrors.ErrDecrypt)
	}

	nonce := d.nonce.set(d.counter, last)
	pt, err := d.aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, fmt.Errorf("%w: block %d: %v", dexerrors.ErrDecrypt, d.counter, err)
	}

	d.counter++
	if last {
		d.finished = true
	}
	return pt, nil
}
