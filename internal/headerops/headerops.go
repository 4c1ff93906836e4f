// Package headerops implements the header-level maintenance operations
// that never touch the encrypted body: dump, restore, strip and key
// rotation.
package headerops

import (
	"bytes"
	"fmt"
	"io"

	"github.com/postalsys/dexios-go/internal/cipherengine"
	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/header"
	"github.com/postalsys/dexios-go/internal/kdf"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
	"gopkg.in/yaml.v3"
)

// DumpMetadata is the sidecar YAML written alongside the raw header bytes,
// recording enough context to restore the header to a matching body later.
type DumpMetadata struct {
	SourcePath    string `yaml:"source_path"`
	HeaderVersion string `yaml:"header_version"`
	Algorithm     string `yaml:"algorithm"`
	Mode          string `yaml:"mode"`
}

// Dump reads the header from r (an encrypted file) and writes its raw
// bytes to headerOut, plus a YAML description of it to metaOut.
func Dump(r io.ReadSeeker, sourcePath string, headerOut, metaOut io.Writer) error {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}

	h, _, err := header.Deserialize(r)
	if err != nil {
		return err
	}

	size, err := h.TotalSize()
	if err != nil {
		return err
	}
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}
	raw := make([]byte, size)
	if _, err := io.ReadFull(r, raw); err != nil {
		return fmt.Errorf("%w: re-read header: %v", dexerrors.ErrIO, err)
	}
	if _, err := headerOut.Write(raw); err != nil {
		return fmt.Errorf("%w: write header dump: %v", dexerrors.ErrIO, err)
	}

	meta := DumpMetadata{
		SourcePath:    sourcePath,
		HeaderVersion: h.Version.String(),
		Algorithm:     h.Algorithm.String(),
		Mode:          h.Mode.String(),
	}
	enc := yaml.NewEncoder(metaOut)
	defer enc.Close()
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("%w: encode header metadata: %v", dexerrors.ErrIO, err)
	}
	return nil
}

// Restore reads a previously dumped header from headerIn and writes it
// over the first N bytes of target in place, where N is learned by
// parsing the dump itself. It refuses to touch target if the dump does
// not parse as a real header.
func Restore(headerIn io.Reader, target io.WriteSeeker) error {
	raw, err := io.ReadAll(headerIn)
	if err != nil {
		return fmt.Errorf("%w: read dumped header: %v", dexerrors.ErrIO, err)
	}
	if _, _, err := header.Deserialize(bytes.NewReader(raw)); err != nil {
		return err
	}

	if _, err := target.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}
	if _, err := target.Write(raw); err != nil {
		return fmt.Errorf("%w: overwrite header: %v", dexerrors.ErrIO, err)
	}
	return nil
}

// Strip parses target's existing header to learn its size and verify it
// is a real header, then zeros those first N bytes in place, leaving the
// encrypted body untouched but no longer decryptable without a restored
// header.
func Strip(target io.ReadWriteSeeker) error {
	start, err := target.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}

	h, _, err := header.Deserialize(target)
	if err != nil {
		return err
	}
	size, err := h.TotalSize()
	if err != nil {
		return err
	}

	if _, err := target.Seek(start, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}
	if _, err := target.Write(make([]byte, size)); err != nil {
		return fmt.Errorf("%w: zero header: %v", dexerrors.ErrIO, err)
	}
	return nil
}

// RotateKey re-wraps a V4 header's master key under newPassword, without
// touching the salt or the encrypted body: the V4 AAD is carved out so
// that only the wrapped-key region changes on disk. It is unsupported for
// V1-V3 headers, which have no wrapped key to rotate.
func RotateKey(rw io.ReadWriteSeeker, oldPassword, newPassword *protected.Bytes) error {
	headerStart, err := rw.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrIO, err)
	}

	h, _, err := header.Deserialize(rw)
	if err != nil {
		return err
	}
	if h.Version != header.V4 {
		return fmt.Errorf("%w: key rotation requires a V4 header, got %v", dexerrors.ErrUnsupportedOperation, h.Version)
	}

	oldHashedKey, err := kdf.Derive(oldPassword, h.Salt, h.Version)
	if err != nil {
		return err
	}
	unwrapAEAD, err := cipherengine.New(h.Algorithm, oldHashedKey)
	oldHashedKey.Wipe()
	if err != nil {
		return err
	}
	masterKeyBytes, err := unwrapAEAD.Open(nil, h.WrappedMasterKeyNonce, h.WrappedMasterKey, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrKeyDecrypt, err)
	}
	defer zero(masterKeyBytes)

	newHashedKey, err := kdf.Derive(newPassword, h.Salt, h.Version)
	if err != nil {
		return err
	}
	wrapAEAD, err := cipherengine.New(h.Algorithm, newHashedKey)
	newHashedKey.Wipe()
	if err != nil {
		return err
	}

	newWrappedKeyNonce, err := primitives.GenNonce(h.Algorithm, primitives.Memory)
	if err != nil {
		return fmt.Errorf("%w: %v", dexerrors.ErrEncrypt, err)
	}
	newWrappedKey := wrapAEAD.Seal(nil, newWrappedKeyNonce, masterKeyBytes, nil)

	return header.ReplaceWrappedMasterKey(rw, headerStart, newWrappedKey, newWrappedKeyNonce)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
