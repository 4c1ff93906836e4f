package deoxysbc

import (
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// nonceSize is the fixed base nonce length for Deoxys-II-256-128: 120 bits.
// Stream mode callers build the full 15-byte nonce themselves (11 random
// bytes plus a 4-byte counter/flag) before calling Seal or Open; this type
// has no notion of streaming.
const nonceSize = 15

// blockSize is the Deoxys-BC block size in bytes (128 bits), and therefore
// also the AEAD tag size.
const blockSize = 16

// Domain-separation tags mixed into the tweak alongside the nonce. Keeping
// associated-data blocks, the tag derivation, and message-encryption blocks
// on disjoint domains is what stops a ciphertext block from being replayed
// as an AD block or vice versa.
const (
	domainADFull    byte = 0x02
	domainADPartial byte = 0x03
	domainTag       byte = 0x01
	domainEnc       byte = 0x04
)

type aead struct {
	tk2, tk3 [16]byte
}

// New builds a Deoxys-II-256-128 AEAD from a 32-byte key.
func New(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("deoxysbc: key is %d bytes, want 32", len(key))
	}
	a := &aead{}
	copy(a.tk2[:], key[:16])
	copy(a.tk3[:], key[16:])
	return a, nil
}

func (a *aead) NonceSize() int { return nonceSize }
func (a *aead) Overhead() int  { return blockSize }

func (a *aead) tweak(domain byte, nonce []byte, counter uint32) Tweakey {
	var tk1 [16]byte
	tk1[0] = domain
	copy(tk1[1:], nonce)

	var c [4]byte
	binary.BigEndian.PutUint32(c[:], counter)
	for i := 0; i < 4; i++ {
		tk1[12+i] ^= c[i]
	}
	return Tweakey{TK1: tk1, TK2: a.tk2, TK3: a.tk3}
}

// padBlock right-pads a partial final block with 0x80 then zeros, the same
// one-and-zeros padding OCB-family modes use to keep the padding
// unambiguous regardless of how many trailing zero bytes the data itself
// ends with.
func padBlock(b []byte) [16]byte {
	var out [16]byte
	copy(out[:], b)
	if len(b) < 16 {
		out[len(b)] = 0x80
	}
	return out
}

func splitBlocks(data []byte) (full [][]byte, partial []byte) {
	for len(data) >= blockSize {
		full = append(full, data[:blockSize])
		data = data[blockSize:]
	}
	if len(data) > 0 {
		partial = data
	}
	return full, partial
}

func (a *aead) authValue(nonce, ad []byte) [16]byte {
	var auth [16]byte
	if len(ad) == 0 {
		return auth
	}

	full, partial := splitBlocks(ad)
	for i, block := range full {
		ks := EncryptBlock(a.tweak(domainADFull, nonce, uint32(i)), toBlock(block))
		xorInto(&auth, ks)
	}
	if partial != nil {
		ks := EncryptBlock(a.tweak(domainADPartial, nonce, uint32(len(full))), padBlock(partial))
		xorInto(&auth, ks)
	}
	return auth
}

func checksum(blocks [][]byte, partial []byte) [16]byte {
	var sum [16]byte
	for _, block := range blocks {
		xorInto(&sum, toBlock(block))
	}
	if partial != nil {
		xorInto(&sum, padBlock(partial))
	}
	return sum
}

func (a *aead) computeTag(nonce []byte, msgLen int, cs [16]byte, auth [16]byte) [16]byte {
	tag := EncryptBlock(a.tweak(domainTag, nonce, uint32(msgLen)), cs)
	xorInto(&tag, auth)
	return tag
}

// keystreamBlocks encrypts/decrypts message blocks using the tag as the
// per-block PRF input: this is what makes the construction a synthetic
// counter-in-tweak mode rather than plain CTR, since the keystream cannot
// be produced without first knowing (on encrypt) or being given (on
// decrypt) the tag.
func (a *aead) keystreamBlocks(nonce []byte, tag [16]byte, full [][]byte, partial []byte) (outFull [][16]byte, outPartial []byte) {
	outFull = make([][16]byte, len(full))
	for i, block := range full {
		ks := EncryptBlock(a.tweak(domainEnc, nonce, uint32(i)), tag)
		var out [16]byte
		for j := range out {
			out[j] = block[j] ^ ks[j]
		}
		outFull[i] = out
	}
	if partial != nil {
		ks := EncryptBlock(a.tweak(domainEnc, nonce, uint32(len(full))), tag)
		outPartial = make([]byte, len(partial))
		for j := range outPartial {
			outPartial[j] = partial[j] ^ ks[j]
		}
	}
	return outFull, outPartial
}

func (a *aead) Seal(dst, nonce, plaintext, additionalData []byte) []byte {
	if len(nonce) != nonceSize {
		panic(fmt.Sprintf("deoxysbc: nonce is %d bytes, want %d", len(nonce), nonceSize))
	}

	full, partial := splitBlocks(plaintext)
	auth := a.authValue(nonce, additionalData)
	cs := checksum(full, partial)
	tag := a.computeTag(nonce, len(plaintext), cs, auth)

	cipherFull, cipherPartial := a.keystreamBlocks(nonce, tag, full, partial)

	ret, out := sliceForAppend(dst, len(plaintext)+blockSize)
	pos := 0
	for _, block := range cipherFull {
		copy(out[pos:], block[:])
		pos += blockSize
	}
	copy(out[pos:], cipherPartial)
	pos += len(cipherPartial)
	copy(out[pos:], tag[:])

	return ret
}

func (a *aead) Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	if len(nonce) != nonceSize {
		return nil, fmt.Errorf("deoxysbc: nonce is %d bytes, want %d", len(nonce), nonceSize)
	}
	if len(ciphertext) < blockSize {
		return nil, fmt.Errorf("deoxysbc: ciphertext shorter than tag")
	}

	body := ciphertext[:len(ciphertext)-blockSize]
	var tag [16]byte
	copy(tag[:], ciphertext[len(ciphertext)-blockSize:])

	full, partial := splitBlocks(body)
	plainFull, plainPartial := a.keystreamBlocks(nonce, tag, full, partial)

	auth := a.authValue(nonce, additionalData)
	cs := checksum(blockPointers(plainFull), plainPartial)
	expected := a.computeTag(nonce, len(body), cs, auth)

	if subtle.ConstantTimeCompare(expected[:], tag[:]) != 1 {
		return nil, fmt.Errorf("deoxysbc: message authentication failed")
	}

	ret, out := sliceForAppend(dst, len(body))
	pos := 0
	for _, block := range plainFull {
		copy(out[pos:], block[:])
		pos += blockSize
	}
	copy(out[pos:], plainPartial)

	return ret, nil
}

func toBlock(b []byte) [16]byte {
	var out [16]byte
	copy(out[:], b)
	return out
}

func xorInto(dst *[16]byte, src [16]byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

func blockPointers(blocks [][16]byte) [][]byte {
	out := make([][]byte, len(blocks))
	for i := range blocks {
		out[i] = blocks[i][:]
	}
	return out
}

// sliceForAppend mirrors the helper of the same name in golang.org/x/crypto's
// AEAD implementations: it grows dst by n bytes, reusing its backing array
// when there is room, and returns both the full result and the appended
// tail to write into.
func sliceForAppend(dst []byte, n int) (head, tail []byte) {
	total := len(dst) + n
	if cap(dst) >= total {
		head = dst[:total]
	} else {
		head = make([]byte, total)
		copy(head, dst)
	}
	tail = head[len(dst):]
	return head, tail
}
