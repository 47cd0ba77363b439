package storage

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/crypto"
)

// Legacy envelope layout (versions 1 and 2), all integers big endian:
//
//	version    uint32
//	iterations uint32  PBKDF2-HMAC-SHA256
//	salt       [32]byte
//	body       nonce || ciphertext || tag
const (
	legacyVersionSize    = 4
	legacyIterationsSize = 4
	legacyHeaderSize     = legacyVersionSize + legacyIterationsSize + crypto.SaltSize
)

func isLegacy(prefix []byte) bool {
	if len(prefix) < legacyVersionSize {
		return false
	}
	v := binary.BigEndian.Uint32(prefix)
	return v == VersionV1 || v == VersionV2
}

func readLegacy(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	return parseLegacy(data)
}

func parseLegacy(data []byte) (*Envelope, error) {
	if len(data) < legacyHeaderSize {
		return nil, fmt.Errorf("%w: legacy header is truncated", ErrMalformedHeader)
	}

	version := binary.BigEndian.Uint32(data)
	iterations := binary.BigEndian.Uint32(data[legacyVersionSize:])
	salt := data[legacyVersionSize+legacyIterationsSize : legacyHeaderSize]

	return &Envelope{
		Header: Header{
			Version: version,
			KDF: crypto.KDF{
				Algorithm:  crypto.PBKDF2SHA256,
				Salt:       append([]byte(nil), salt...),
				Iterations: iterations,
			},
		},
		Body: append([]byte(nil), data[legacyHeaderSize:]...),
	}, nil
}
