package secret

import (
	"crypto/subtle"
	"runtime"
)

// Buffer holds sensitive bytes such as a master passphrase, a derived key
// or a record password. The backing array is owned by the Buffer and is
// overwritten with zeros by Erase.
type Buffer struct {
	data   []byte
	erased bool
}

// New wraps b without copying. The caller must not keep using b afterwards.
func New(b []byte) *Buffer {
	buf := &Buffer{data: b}
	if len(b) > 0 {
		// Backstop for buffers dropped without Erase.
		runtime.AddCleanup(buf, func(p []byte) { clear(p) }, b)
	}
	return buf
}

// FromString copies s into a new Buffer. The string itself cannot be
// scrubbed, so this is meant for tests and values that were never secret.
func FromString(s string) *Buffer {
	return New([]byte(s))
}

// Clone returns an independent copy.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b.data))
	copy(c, b.data)
	clone := New(c)
	clone.erased = b.erased
	return clone
}

// Bytes exposes the backing array. After Erase it is all zeros.
func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

// String returns a copy as a Go string, for display or clipboard hand-off.
// An erased buffer yields "".
func (b *Buffer) String() string {
	if b == nil || b.erased {
		return ""
	}
	return string(b.data)
}

// Len returns the length of the secret.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Equal compares two buffers in constant time.
func (b *Buffer) Equal(other *Buffer) bool {
	return subtle.ConstantTimeCompare(b.Bytes(), other.Bytes()) == 1
}

// IsErased reports whether Erase has run.
func (b *Buffer) IsErased() bool {
	return b != nil && b.erased
}

// Erase overwrites the backing array with zeros. It is safe to call more
// than once and on a nil Buffer.
func (b *Buffer) Erase() {
	if b == nil {
		return
	}
	clear(b.data)
	b.erased = true
}

// EraseAll erases every buffer in bufs.
func EraseAll(bufs ...*Buffer) {
	for _, b := range bufs {
		b.Erase()
	}
}
