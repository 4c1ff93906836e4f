package header

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/primitives"
)

type seekBuffer struct {
	*bytes.Reader
}

func newSeekBuffer(b []byte) *seekBuffer {
	return &seekBuffer{bytes.NewReader(b)}
}

func fill(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestSerializeDeserializeV3RoundTrip(t *testing.T) {
	want := &Header{
		Version:   V3,
		Algorithm: primitives.XChaCha20Poly1305,
		Mode:      primitives.Stream,
		Salt:      fill(primitives.SaltLen, 0xAA),
		Nonce:     fill(20, 0xBB),
	}

	var buf bytes.Buffer
	aad, err := Serialize(&buf, want)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != 64 {
		t.Fatalf("serialized V3 header is %d bytes, want 64", buf.Len())
	}
	if !bytes.Equal(aad, buf.Bytes()) {
		t.Error("V3 AAD must be the entire header")
	}

	got, gotAAD, err := Deserialize(newSeekBuffer(buf.Bytes()))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Version != V3 || got.Algorithm != want.Algorithm || got.Mode != want.Mode {
		t.Fatalf("round trip tag mismatch: got %+v", got)
	}
	if !bytes.Equal(got.Salt, want.Salt) {
		t.Errorf("salt mismatch: got %x, want %x", got.Salt, want.Salt)
	}
	if !bytes.Equal(got.Nonce, want.Nonce) {
		t.Errorf("nonce mismatch: got %x, want %x", got.Nonce, want.Nonce)
	}
	if !bytes.Equal(gotAAD, aad) {
		t.Errorf("AAD mismatch after round trip: got %x, want %x", gotAAD, aad)
	}
}

func TestSerializeDeserializeV4RoundTrip(t *testing.T) {
	want := &Header{
		Version:               V4,
		Algorithm:             primitives.Aes256Gcm,
		Mode:                  primitives.Memory,
		Salt:                  fill(primitives.SaltLen, 0x11),
		Nonce:                 fill(12, 0x22),
		WrappedMasterKey:      fill(WrappedMasterKeyLen, 0x33),
		WrappedMasterKeyNonce: fill(12, 0x44),
	}

	var buf bytes.Buffer
	aad, err := Serialize(&buf, want)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if buf.Len() != 128 {
		t.Fatalf("serialized V4 header is %d bytes, want 128", buf.Len())
	}

	got, gotAAD, err := Deserialize(newSeekBuffer(buf.Bytes()))
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !bytes.Equal(got.Salt, want.Salt) ||
		!bytes.Equal(got.Nonce, want.Nonce) ||
		!bytes.Equal(got.WrappedMasterKey, want.WrappedMasterKey) ||
		!bytes.Equal(got.WrappedMasterKeyNonce, want.WrappedMasterKeyNonce) {
		t.Fatalf("round trip field mismatch: got %+v", got)
	}
	if !bytes.Equal(gotAAD, aad) {
		t.Errorf("AAD mismatch after round trip: got %x, want %x", gotAAD, aad)
	}
}

// TestV4AADStableAcrossKeyRotation is the direct test of the header's core
// V4 invariant: replacing the wrapped master key (and its nonce) must not
// change the AAD fed to the body AEAD, since the body ciphertext is never
// re-encrypted during rotation.
func TestV4AADStableAcrossKeyRotation(t *testing.T) {
	h := &Header{
		Version:               V4,
		Algorithm:             primitives.DeoxysII256,
		Mode:                  primitives.Stream,
		Salt:                  fill(primitives.SaltLen, 0x01),
		Nonce:                 fill(11, 0x02),
		WrappedMasterKey:      fill(WrappedMasterKeyLen, 0x03),
		WrappedMasterKeyNonce: fill(15, 0x04),
	}

	var buf bytes.Buffer
	aadBefore, err := Serialize(&buf, h)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	h.WrappedMasterKey = fill(WrappedMasterKeyLen, 0xFF)
	h.WrappedMasterKeyNonce = fill(15, 0xEE)

	var buf2 bytes.Buffer
	aadAfter, err := Serialize(&buf2, h)
	if err != nil {
		t.Fatalf("Serialize after rotation: %v", err)
	}

	if !bytes.Equal(aadBefore, aadAfter) {
		t.Errorf("AAD changed after wrapped-key rotation: before=%x after=%x", aadBefore, aadAfter)
	}
	if bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Error("serialized header did not change after rotating the wrapped key")
	}
}

func TestSerializeV1V2Unsupported(t *testing.T) {
	for _, v := range []Version{V1, V2} {
		h := &Header{Version: v, Algorithm: primitives.Aes256Gcm, Mode: primitives.Memory}
		var buf bytes.Buffer
		_, err := Serialize(&buf, h)
		if !errors.Is(err, dexerrors.ErrUnsupportedSerialization) {
			t.Errorf("Serialize(%v) error = %v, want ErrUnsupportedSerialization", v, err)
		}
	}
}

func TestDeserializeUnknownVersionTag(t *testing.T) {
	buf := fill(64, 0x00)
	buf[0], buf[1] = 0x99, 0x99
	_, _, err := Deserialize(newSeekBuffer(buf))
	if !errors.Is(err, dexerrors.ErrMalformedHeader) {
		t.Errorf("Deserialize with bad version tag: err = %v, want ErrMalformedHeader", err)
	}
}

func TestDeserializeTruncatedHeader(t *testing.T) {
	full := fill(64, 0x00)
	full[0], full[1] = versionTags[V3][0], versionTags[V3][1]
	full[2], full[3] = algorithmTags[primitives.Aes256Gcm][0], algorithmTags[primitives.Aes256Gcm][1]
	full[4], full[5] = modeTags[primitives.Memory][0], modeTags[primitives.Memory][1]

	truncated := full[:40]
	_, _, err := Deserialize(newSeekBuffer(truncated))
	if err == nil {
		t.Fatal("Deserialize on truncated header: want error, got nil")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, dexerrors.ErrMalformedHeader) {
		t.Errorf("Deserialize on truncated header: err = %v", err)
	}
}

func TestHeaderTotalSize(t *testing.T) {
	cases := map[Version]int{V1: 64, V2: 64, V3: 64, V4: 128}
	for v, want := range cases {
		h := &Header{Version: v}
		got, err := h.TotalSize()
		if err != nil {
			t.Fatalf("TotalSize(%v): %v", v, err)
		}
		if got != want {
			t.Errorf("TotalSize(%v) = %d, want %d", v, got, want)
		}
	}
}
