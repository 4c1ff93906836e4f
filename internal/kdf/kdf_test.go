package kdf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/postalsys/dexios-go/internal/dexerrors"
	"github.com/postalsys/dexios-go/internal/header"
	"github.com/postalsys/dexios-go/internal/primitives"
	"github.com/postalsys/dexios-go/internal/protected"
)

func testSalt(b byte) []byte {
	s := make([]byte, primitives.SaltLen)
	for i := range s {
		s[i] = b
	}
	return s
}

func TestDeriveDeterministic(t *testing.T) {
	for _, v := range []header.Version{header.V1, header.V2, header.V3, header.V4} {
		salt := testSalt(0x42)

		k1, err := Derive(protected.New([]byte("correct horse battery staple")), salt, v)
		if err != nil {
			t.Fatalf("Derive(%v) #1: %v", v, err)
		}
		k2, err := Derive(protected.New([]byte("correct horse battery staple")), salt, v)
		if err != nil {
			t.Fatalf("Derive(%v) #2: %v", v, err)
		}

		a, b := k1.Expose(), k2.Expose()
		if a == nil || b == nil {
			t.Fatalf("Derive(%v): key exposed as nil", v)
		}
		if !bytes.Equal(a[:], b[:]) {
			t.Errorf("Derive(%v) is not deterministic for identical inputs", v)
		}
	}
}

func TestDeriveDistinctSaltsDiffer(t *testing.T) {
	pw := "same password"
	k1, err := Derive(protected.New([]byte(pw)), testSalt(0x01), header.V3)
	if err != nil {
		t.Fatal(err)
	}
	k2, err := Derive(protected.New([]byte(pw)), testSalt(0x02), header.V3)
	if err != nil {
		t.Fatal(err)
	}
	a, b := k1.Expose(), k2.Expose()
	if bytes.Equal(a[:], b[:]) {
		t.Error("different salts produced the same derived key")
	}
}

func TestDeriveWipesRawPassword(t *testing.T) {
	secret := []byte("wipe me please")
	raw := protected.New(secret)

	if _, err := Derive(raw, testSalt(0x09), header.V4); err != nil {
		t.Fatal(err)
	}

	for i, b := range secret {
		if b != 0 {
			t.Errorf("raw password byte %d = %d, want 0 after Derive", i, b)
		}
	}
	if raw.Expose() != nil {
		t.Error("raw password still exposable after Derive")
	}
}

func TestDeriveEmptyPassword(t *testing.T) {
	_, err := Derive(protected.New(nil), testSalt(0x00), header.V3)
	if !errors.Is(err, dexerrors.ErrKdf) {
		t.Errorf("Derive with empty password: err = %v, want ErrKdf", err)
	}
}

func TestDeriveBadSaltLength(t *testing.T) {
	_, err := Derive(protected.New([]byte("x")), []byte{1, 2, 3}, header.V3)
	if !errors.Is(err, dexerrors.ErrKdf) {
		t.Errorf("Derive with bad salt length: err = %v, want ErrKdf", err)
	}
}

func TestDeriveUnsupportedVersion(t *testing.T) {
	_, err := Derive(protected.New([]byte("x")), testSalt(0x00), header.Version(99))
	if !errors.Is(err, dexerrors.ErrKdf) {
		t.Errorf("Derive with unsupported version: err = %v, want ErrKdf", err)
	}
}

func TestBalloonDiffersFromArgon2(t *testing.T) {
	pw, salt := "shared password", testSalt(0x55)
	argonKey, err := Derive(protected.New([]byte(pw)), salt, header.V3)
	if err != nil {
		t.Fatal(err)
	}
	balloonKey, err := Derive(protected.New([]byte(pw)), salt, header.V4)
	if err != nil {
		t.Fatal(err)
	}
	a, b := argonKey.Expose(), balloonKey.Expose()
	if bytes.Equal(a[:], b[:]) {
		t.Error("Argon2id and balloon hashing produced the same key for the same input")
	}
}
