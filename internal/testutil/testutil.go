// Package testutil holds fixtures shared by lockpass package tests.
package testutil

import (
	"encoding/binary"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/stretchr/testify/require"
)

// FastKDF returns an Argon2id KDF at the minimum accepted cost, so tests
// do not spend seconds deriving keys.
func FastKDF() (*crypto.KDF, error) {
	return crypto.NewKDFWithCost(crypto.MinTime, crypto.MinMemory, crypto.MinThreads)
}

// WriteLegacyVault writes a version 1 or 2 flat envelope sealing body with
// a PBKDF2 key derived from passphrase.
func WriteLegacyVault(t *testing.T, path string, version uint32, passphrase string, body []byte) {
	t.Helper()

	salt, err := crypto.GenerateRandom(crypto.SaltSize)
	require.NoError(t, err)
	kdf := &crypto.KDF{
		Algorithm:  crypto.PBKDF2SHA256,
		Salt:       salt,
		Iterations: crypto.MinPBKDF2Iterations,
	}

	password := secret.FromString(passphrase)
	defer password.Erase()
	key, err := kdf.DeriveKey(password)
	require.NoError(t, err)
	defer key.Erase()

	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()
	sealed, err := enc.Encrypt(body, nil)
	require.NoError(t, err)

	var data []byte
	data = binary.BigEndian.AppendUint32(data, version)
	data = binary.BigEndian.AppendUint32(data, kdf.Iterations)
	data = append(data, salt...)
	data = append(data, sealed...)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

// Clock is a manually advanced clock.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ErrNoEntropy is returned by FailingReader.
var ErrNoEntropy = errors.New("entropy source unavailable")

// FailingReader simulates a broken random source.
type FailingReader struct{}

func (FailingReader) Read([]byte) (int, error) {
	return 0, ErrNoEntropy
}
