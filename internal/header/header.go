// Package header implements the dexios-go binary header: the fixed-offset
// envelope that precedes every ciphertext and carries the version,
// algorithm, mode, salt, nonce and (for V4) the wrapped master key.
package header

import (
	"fmt"

	"github.com/postalsys/dexios-go/internal/primitives"
)

// Version identifies the on-disk header layout. V1 and V2 are legacy,
// read-only layouts kept for decrypting old archives; new encryptions
// always produce V4.
type Version int

const (
	V1 Version = iota + 1
	V2
	V3
	V4
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2:
		return "V2"
	case V3:
		return "V3"
	case V4:
		return "V4"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// versionTags maps each Version to its 2-byte on-disk tag, big-endian.
var versionTags = map[Version][2]byte{
	V1: {0xDE, 0x01},
	V2: {0xDE, 0x02},
	V3: {0xDE, 0x03},
	V4: {0xDE, 0x04},
}

var tagVersions = reverseVersionMap(versionTags)

func reverseVersionMap(m map[Version][2]byte) map[[2]byte]Version {
	out := make(map[[2]byte]Version, len(m))
	for v, tag := range m {
		out[tag] = v
	}
	return out
}

// algorithmTags maps each primitives.Algorithm to its 2-byte on-disk tag.
var algorithmTags = map[primitives.Algorithm][2]byte{
	primitives.XChaCha20Poly1305: {0x0E, 0x01},
	primitives.Aes256Gcm:         {0x0E, 0x02},
	primitives.DeoxysII256:       {0x0E, 0x03},
}

var tagAlgorithms = reverseAlgorithmMap(algorithmTags)

func reverseAlgorithmMap(m map[primitives.Algorithm][2]byte) map[[2]byte]primitives.Algorithm {
	out := make(map[[2]byte]primitives.Algorithm, len(m))
	for a, tag := range m {
		out[tag] = a
	}
	return out
}

// modeTags maps each primitives.Mode to its 2-byte on-disk tag.
var modeTags = map[primitives.Mode][2]byte{
	primitives.Stream: {0x0C, 0x01},
	primitives.Memory: {0x0C, 0x02},
}

var tagModes = reverseModeMap(modeTags)

func reverseModeMap(m map[primitives.Mode][2]byte) map[[2]byte]primitives.Mode {
	out := make(map[[2]byte]primitives.Mode, len(m))
	for mo, tag := range m {
		out[tag] = mo
	}
	return out
}

// Header is the fully parsed form of a dexios-go header, independent of its
// on-disk byte layout.
type Header struct {
	Version   Version
	Algorithm primitives.Algorithm
	Mode      primitives.Mode
	Salt      []byte
	Nonce     []byte

	// WrappedMasterKey and WrappedMasterKeyNonce are only populated for V4
	// headers: the master key, sealed under the password-derived key, plus
	// the nonce used to seal it.
	WrappedMasterKey      []byte
	WrappedMasterKeyNonce []byte
}

// WrappedMasterKeyLen is the ciphertext length of a sealed 32-byte master
// key: 32 bytes of key plus a 16-byte AEAD tag.
const WrappedMasterKeyLen = primitives.KeyLen + 16

// TotalSize returns the on-disk size of the header in bytes.
func (h *Header) TotalSize() (int, error) {
	switch h.Version {
	case V1, V2, V3:
		return 64, nil
	case V4:
		return 128, nil
	default:
		return 0, fmt.Errorf("header: unknown version %v", h.Version)
	}
}
