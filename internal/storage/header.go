package storage

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/lockpass/internal/crypto"
)

// Format versions. Versions below CurrentVersion are flat legacy envelopes;
// CurrentVersion is the bbolt container.
const (
	VersionV1      uint32 = 1
	VersionV2      uint32 = 2
	CurrentVersion uint32 = 3
)

// Header holds everything needed to derive the key. It is stored
// unencrypted so it can be read before the body is decrypted.
type Header struct {
	Version  uint32
	KDF      crypto.KDF
	VaultID  string
	Created  time.Time
	Modified time.Time
}

// Envelope is a vault file: header plus the sealed body.
type Envelope struct {
	Header Header
	Body   []byte
}

// NewHeader creates a current-format header for a fresh vault
func NewHeader(kdf *crypto.KDF, now time.Time) Header {
	return Header{
		Version:  CurrentVersion,
		KDF:      *kdf,
		VaultID:  uuid.NewString(),
		Created:  now,
		Modified: now,
	}
}

// IsLegacy reports whether the header came from a pre-bbolt envelope
func (h Header) IsLegacy() bool {
	return h.Version < CurrentVersion
}

// AdditionalData returns the canonical header bytes authenticated together
// with the body. Legacy envelopes were sealed without additional data.
func (h Header) AdditionalData() []byte {
	if h.IsLegacy() {
		return nil
	}

	var b []byte
	b = append(b, "lockpass"...)
	b = binary.BigEndian.AppendUint32(b, h.Version)
	b = appendField(b, []byte(h.KDF.Algorithm))
	b = appendField(b, h.KDF.Salt)
	b = binary.BigEndian.AppendUint32(b, h.KDF.Iterations)
	b = binary.BigEndian.AppendUint32(b, h.KDF.Memory)
	b = append(b, h.KDF.Threads)
	b = appendField(b, []byte(h.VaultID))
	b = AppendTime(b, h.Created)
	b = AppendTime(b, h.Modified)
	return b
}

// TimeSize is the encoded size of a timestamp: int64 unix seconds followed
// by uint32 nanoseconds. Unlike UnixNano this covers every time.Time,
// including the zero value.
const TimeSize = 12

// AppendTime appends the encoding of t to b
func AppendTime(b []byte, t time.Time) []byte {
	b = binary.BigEndian.AppendUint64(b, uint64(t.Unix()))
	return binary.BigEndian.AppendUint32(b, uint32(t.Nanosecond()))
}

// ParseTime decodes a timestamp written by AppendTime
func ParseTime(b []byte) (time.Time, bool) {
	if len(b) != TimeSize {
		return time.Time{}, false
	}
	nsec := binary.BigEndian.Uint32(b[8:])
	if nsec >= 1e9 {
		return time.Time{}, false
	}
	return time.Unix(int64(binary.BigEndian.Uint64(b)), int64(nsec)), true
}

func appendField(b, field []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(field)))
	return append(b, field...)
}
