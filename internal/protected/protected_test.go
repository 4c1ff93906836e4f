package protected

import "testing"

func TestBytesWipeZeroes(t *testing.T) {
	secret := []byte{1, 2, 3, 4, 5}
	p := New(secret)

	if got := p.Expose(); len(got) != 5 {
		t.Fatalf("Expose() returned %d bytes, want 5", len(got))
	}

	p.Wipe()

	for i, b := range secret {
		if b != 0 {
			t.Errorf("secret[%d] = %d, want 0 after Wipe", i, b)
		}
	}

	if got := p.Expose(); got != nil {
		t.Errorf("Expose() after Wipe = %v, want nil", got)
	}
}

func TestBytesWipeIdempotent(t *testing.T) {
	p := New([]byte{9, 9, 9})
	p.Wipe()
	p.Wipe() // must not panic
}

func TestBytesStringRedacted(t *testing.T) {
	p := New([]byte("super-secret-password"))
	if got := p.String(); got != redacted {
		t.Errorf("String() = %q, want %q", got, redacted)
	}
	if got := p.GoString(); got != redacted {
		t.Errorf("GoString() = %q, want %q", got, redacted)
	}
}

func TestKey32WipeZeroes(t *testing.T) {
	var raw [32]byte
	for i := range raw {
		raw[i] = byte(i + 1)
	}

	k := NewKey32(raw)
	exposed := k.Expose()
	for i, b := range exposed {
		if b != raw[i] {
			t.Fatalf("Expose()[%d] = %d, want %d", i, b, raw[i])
		}
	}

	k.Wipe()

	for i, b := range exposed {
		if b != 0 {
			t.Errorf("key byte %d = %d, want 0 after Wipe", i, b)
		}
	}

	after := k.Expose()
	if after != nil {
		t.Fatalf("Expose() after Wipe = %v, want nil", after)
	}
}

func TestKey32StringRedacted(t *testing.T) {
	var raw [32]byte
	k := NewKey32(raw)
	if got := k.String(); got != redacted {
		t.Errorf("String() = %q, want %q", got, redacted)
	}
}
