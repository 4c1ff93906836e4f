// Package protected owns secret byte buffers and guarantees they are
// zeroized before the memory backing them is released back to the runtime.
package protected

import "fmt"

// redacted is what Protected values render as under fmt's %v/%s verbs,
// so a stray log.Printf("%v", secret) never leaks key material.
const redacted = "[REDACTED]"

// Bytes owns a byte slice that must be zeroized once it is no longer
// needed. There is no copy constructor: the only way to obtain the bytes
// is Expose, and the only way to release them is Wipe.
type Bytes struct {
	inner []byte
	wiped bool
}

// New takes ownership of b. Callers must not retain their own reference to
// b after calling New — doing so defeats the zeroization guarantee.
func New(b []byte) *Bytes {
	return &Bytes{inner: b}
}

// Expose returns the protected slice. The borrow is only valid until Wipe
// is called; callers must not retain it past that point.
func (p *Bytes) Expose() []byte {
	if p.wiped {
		return nil
	}
	return p.inner
}

// Len reports the length of the protected buffer.
func (p *Bytes) Len() int {
	return len(p.inner)
}

// Wipe overwrites the backing buffer with zeros and releases it. It is
// idempotent and safe to call multiple times. Callers own the moment this
// runs — there is no finalizer, since relying on GC timing for secret
// lifetime is not a guarantee Go gives us.
func (p *Bytes) Wipe() {
	if p.wiped {
		return
	}
	for i := range p.inner {
		p.inner[i] = 0
	}
	p.inner = nil
	p.wiped = true
}

// String implements fmt.Stringer so accidental logging never prints secret
// bytes.
func (p *Bytes) String() string {
	return redacted
}

// GoString implements fmt.GoStringer for the same reason under %#v.
func (p *Bytes) GoString() string {
	return redacted
}

// Key32 is the fixed-size analogue of Bytes, used for the 32-byte hashed
// key and 32-byte master key that flow through the KDF and cipher
// initialization steps.
type Key32 struct {
	inner [32]byte
	wiped bool
}

// NewKey32 takes ownership of the array's contents by copying them in;
// since Go arrays are values, the caller's own copy is left behind and
// should be wiped separately if it held the same secret.
func NewKey32(b [32]byte) *Key32 {
	return &Key32{inner: b}
}

// Expose returns a pointer to the protected array. The borrow is only
// valid until Wipe is called.
func (k *Key32) Expose() *[32]byte {
	if k.wiped {
		return nil
	}
	return &k.inner
}

// Wipe zeros the array in place.
func (k *Key32) Wipe() {
	if k.wiped {
		return
	}
	for i := range k.inner {
		k.inner[i] = 0
	}
	k.wiped = true
}

func (k *Key32) String() string {
	return redacted
}

func (k *Key32) GoString() string {
	return redacted
}

var _ fmt.Stringer = (*Bytes)(nil)
var _ fmt.Stringer = (*Key32)(nil)
