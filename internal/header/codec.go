package header

import (
	"fmt"
	"io"

	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/primitives"
)

// versionFromTag maps a 2-byte on-disk version tag to its Version, failing
// with ErrMalformedHeader for an unknown tag. Reading the tag, and rewinding
// the reader afterwards, is left to the caller.
func versionFromTag(tag [2]byte) (Version, error) {
	v, ok := tagVersions[tag]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized header version tag %x", dexerrors.ErrMalformedHeader, tag)
	}
	return v, nil
}

func algorithmFromTag(tag [2]byte) (primitives.Algorithm, error) {
	a, ok := tagAlgorithms[tag]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized algorithm tag %x", dexerrors.ErrMalformedHeader, tag)
	}
	return a, nil
}

func modeFromTag(tag [2]byte) (primitives.Mode, error) {
	m, ok := tagModes[tag]
	if !ok {
		return 0, fmt.Errorf("%w: unrecognized mode tag %x", dexerrors.ErrMalformedHeader, tag)
	}
	return m, nil
}

// Serialize writes the on-disk form of h to w and returns the AAD that must
// be passed to the body AEAD. Only V3 and V4 headers can be serialized; V1
// and V2 are read-only legacy layouts.
func Serialize(w io.Writer, h *Header) ([]byte, error) {
	switch h.Version {
	case V3:
		return serializeV3(w, h)
	case V4:
		return serializeV4(w, h)
	default:
		return nil, fmt.Errorf("%w: %v", dexerrors.ErrUnsupportedSerialization, h.Version)
	}
}

func serializeV3(w io.Writer, h *Header) ([]byte, error) {
	buf := make([]byte, 64)

	if err := putVersionAlgMode(buf, h); err != nil {
		return nil, err
	}
	copy(buf[6:22], h.Salt)
	// buf[22:38] is reserved, left zero.
	copy(buf[38:], h.Nonce)

	if _, err := w.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: write header: %v", dexerrors.ErrIO, err)
	}
	return buf, nil // AAD for V3 is the entire header.
}

func serializeV4(w io.Writer, h *Header) ([]byte, error) {
	buf := make([]byte, 128)

	if err := putVersionAlgMode(buf, h); err != nil {
		return nil, err
	}
	copy(buf[6:22], h.Salt)
	copy(buf[22:], h.Nonce)

	if len(h.WrappedMasterKey) != WrappedMasterKeyLen {
		return nil, fmt.Errorf("%w: wrapped master key is %d bytes, want %d",
			dexerrors.ErrMalformedHeader, len(h.WrappedMasterKey), WrappedMasterKeyLen)
	}
	copy(buf[48:96], h.WrappedMasterKey)

	keyNonceLen := len(h.WrappedMasterKeyNonce)
	if 96+keyNonceLen > 128 {
		return nil, fmt.Errorf("%w: wrapped master key nonce too long (%d bytes)",
			dexerrors.ErrMalformedHeader, keyNonceLen)
	}
	copy(buf[96:], h.WrappedMasterKeyNonce)

	if _, err := w.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: write header: %v", dexerrors.ErrIO, err)
	}
	return aadV4(buf, keyNonceLen), nil
}

func putVersionAlgMode(buf []byte, h *Header) error {
	vt, ok := versionTags[h.Version]
	if !ok {
		return fmt.Errorf("%w: unknown version %v", dexerrors.ErrMalformedHeader, h.Version)
	}
	at, ok := algorithmTags[h.Algorithm]
	if !ok {
		return fmt.Errorf("%w: unknown algorithm %v", dexerrors.ErrMalformedHeader, h.Algorithm)
	}
	mt, ok := modeTags[h.Mode]
	if !ok {
		return fmt.Errorf("%w: unknown mode %v", dexerrors.ErrMalformedHeader, h.Mode)
	}
	copy(buf[0:2], vt[:])
	copy(buf[2:4], at[:])
	copy(buf[4:6], mt[:])
	return nil
}

// aadV4 returns the AAD for a 128-byte V4 header buffer: everything except
// the wrapped-key region [48, 96+keyNonceLen). Excluding that region lets
// key rotation replace the wrapped master key without invalidating the tag
// on every block of the already-encrypted body.
func aadV4(buf []byte, keyNonceLen int) []byte {
	aad := make([]byte, 0, len(buf)-48-keyNonceLen)
	aad = append(aad, buf[:48]...)
	aad = append(aad, buf[96+keyNonceLen:]...)
	return aad
}

// Deserialize reads a header from r, which must support Seek so the codec
// can peek the version tag before committing to a read size. It returns the
// parsed header and the AAD to use for the body AEAD.
func Deserialize(r io.ReadSeeker) (*Header, []byte, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: seek: %v", dexerrors.ErrIO, err)
	}

	var tagBuf [2]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, nil, fmt.Errorf("%w: read version tag: %v", dexerrors.ErrMalformedHeader, err)
	}
	version, err := versionFromTag(tagBuf)
	if err != nil {
		return nil, nil, err
	}

	size := 64
	if version == V4 {
		size = 128
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("%w: seek: %v", dexerrors.ErrIO, err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, nil, fmt.Errorf("%w: read header: %v", dexerrors.ErrMalformedHeader, err)
	}

	alg, err := algorithmFromTag([2]byte{buf[2], buf[3]})
	if err != nil {
		return nil, nil, err
	}
	mode, err := modeFromTag([2]byte{buf[4], buf[5]})
	if err != nil {
		return nil, nil, err
	}

	switch version {
	case V1:
		return parseV1(buf, alg, mode)
	case V2:
		return parseV2(buf, alg, mode)
	case V3:
		return parseV3(buf, alg, mode)
	case V4:
		return parseV4(buf, alg, mode)
	default:
		return nil, nil, fmt.Errorf("%w: unhandled version %v", dexerrors.ErrMalformedHeader, version)
	}
}

func parseV1(buf []byte, alg primitives.Algorithm, mode primitives.Mode) (*Header, []byte, error) {
	n, err := primitives.NonceLength(alg, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dexerrors.ErrMalformedHeader, err)
	}
	h := &Header{
		Version:   V1,
		Algorithm: alg,
		Mode:      mode,
		Salt:      cloneRange(buf, 6, 22),
		Nonce:     cloneRange(buf, 38, 38+n),
	}
	return h, nil, nil // V1 carries no AAD.
}

func parseV2(buf []byte, alg primitives.Algorithm, mode primitives.Mode) (*Header, []byte, error) {
	n, err := primitives.NonceLength(alg, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dexerrors.ErrMalformedHeader, err)
	}
	h := &Header{
		Version:   V2,
		Algorithm: alg,
		Mode:      mode,
		Salt:      cloneRange(buf, 6, 22),
		Nonce:     cloneRange(buf, 22, 22+n),
	}
	return h, nil, nil // V2 carries no AAD.
}

func parseV3(buf []byte, alg primitives.Algorithm, mode primitives.Mode) (*Header, []byte, error) {
	n, err := primitives.NonceLength(alg, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dexerrors.ErrMalformedHeader, err)
	}
	h := &Header{
		Version:   V3,
		Algorithm: alg,
		Mode:      mode,
		Salt:      cloneRange(buf, 6, 22),
		Nonce:     cloneRange(buf, 38, 38+n),
	}
	return h, cloneRange(buf, 0, len(buf)), nil // V3 AAD is the whole header.
}

func parseV4(buf []byte, alg primitives.Algorithm, mode primitives.Mode) (*Header, []byte, error) {
	n, err := primitives.NonceLength(alg, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dexerrors.ErrMalformedHeader, err)
	}
	keyNonceLen, err := primitives.NonceLength(alg, primitives.Memory)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", dexerrors.ErrMalformedHeader, err)
	}
	if 96+keyNonceLen > len(buf) {
		return nil, nil, fmt.Errorf("%w: wrapped key nonce overruns header", dexerrors.ErrMalformedHeader)
	}

	h := &Header{
		Version:               V4,
		Algorithm:             alg,
		Mode:                  mode,
		Salt:                  cloneRange(buf, 6, 22),
		Nonce:                 cloneRange(buf, 22, 22+n),
		WrappedMasterKey:      cloneRange(buf, 48, 96),
		WrappedMasterKeyNonce: cloneRange(buf, 96, 96+keyNonceLen),
	}
	return h, aadV4(buf, keyNonceLen), nil
}

func cloneRange(buf []byte, lo, hi int) []byte {
	out := make([]byte, hi-lo)
	copy(out, buf[lo:hi])
	return out
}

// ReplaceWrappedMasterKey rewrites only the wrapped-master-key region of an
// already-written V4 header in place, for key rotation. w must be an
// io.WriteSeeker positioned anywhere; headerStart is the file offset the
// header begins at.
func ReplaceWrappedMasterKey(w io.WriteSeeker, headerStart int64, wrappedKey, wrappedKeyNonce []byte) error {
	if len(wrappedKey) != WrappedMasterKeyLen {
		return fmt.Errorf("%w: wrapped master key is %d bytes, want %d",
			dexerrors.ErrMalformedHeader, len(wrappedKey), WrappedMasterKeyLen)
	}
	if _, err := w.Seek(headerStart+48, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %v", dexerrors.ErrIO, err)
	}
	if _, err := w.Write(wrappedKey); err != nil {
		return fmt.Errorf("%w: write wrapped key: %v", dexerrors.ErrIO, err)
	}
	if _, err := w.Write(wrappedKeyNonce); err != nil {
		return fmt.Errorf("%w: write wrapped key nonce: %v", dexerrors.ErrIO, err)
	}
	return nil
}
