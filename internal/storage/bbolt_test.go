package storage

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnvelope(t *testing.T) *Envelope {
	t.Helper()
	kdf, err := testutil.FastKDF()
	require.NoError(t, err)
	return &Envelope{
		Header: NewHeader(kdf, time.Unix(1700000000, 42)),
		Body:   []byte("sealed body"),
	}
}

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lockpass")
	env := testEnvelope(t)

	require.NoError(t, Write(path, env))

	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, got.Header.Version)
	assert.Equal(t, env.Header.KDF, got.Header.KDF)
	assert.Equal(t, env.Header.VaultID, got.Header.VaultID)
	assert.True(t, env.Header.Created.Equal(got.Header.Created))
	assert.True(t, env.Header.Modified.Equal(got.Header.Modified))
	assert.Equal(t, env.Body, got.Body)
	assert.Equal(t, env.Header.AdditionalData(), got.Header.AdditionalData())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerm), info.Mode().Perm())
}

func TestWriteReplacesAndLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lockpass")
	env := testEnvelope(t)

	require.NoError(t, Write(path, env))
	env.Body = []byte("second body")
	require.NoError(t, Write(path, env))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second body"), got.Body)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.lockpass", entries[0].Name())
}

func TestWriteFailureLeavesOriginalUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.lockpass")
	env := testEnvelope(t)
	require.NoError(t, Write(path, env))

	// A legacy header cannot be written.
	legacy := *env
	legacy.Header.Version = VersionV2
	legacy.Body = []byte("never written")
	assert.Error(t, Write(path, &legacy))

	// A missing directory fails before anything is touched.
	assert.Error(t, Write(filepath.Join(dir, "missing", "vault"), env))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed body"), got.Body)
}

func TestWriteAndReadZeroTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lockpass")
	env := testEnvelope(t)
	env.Header.Created = time.Time{}
	env.Header.Modified = time.Date(2300, 6, 1, 0, 0, 0, 7, time.UTC)
	require.NoError(t, Write(path, env))

	got, err := Read(path)
	require.NoError(t, err)
	assert.True(t, got.Header.Created.IsZero())
	assert.True(t, env.Header.Modified.Equal(got.Header.Modified))
	assert.Equal(t, env.Header.AdditionalData(), got.Header.AdditionalData())
}

func TestReadDamagedPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lockpass")
	require.NoError(t, Write(path, testEnvelope(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Keep both meta pages valid and wipe every data page after them.
	pageSize := int(binary.NativeEndian.Uint32(data[boltMagicOffset+8:]))
	require.Greater(t, len(data), 2*pageSize)
	clear(data[2*pageSize:])
	require.NoError(t, os.WriteFile(path, data, FilePerm))

	_, err = Read(path)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadUnrecognizedFormat(t *testing.T) {
	dir := t.TempDir()
	cases := map[string][]byte{
		"empty":         {},
		"text":          []byte("username=me password=hunter2\n"),
		"future legacy": {0, 0, 0, 9, 0, 0, 0, 1},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, data, 0600))
			_, err := Read(path)
			assert.ErrorIs(t, err, ErrUnrecognizedFormat)
		})
	}
}

func TestReadLegacy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy")
	testutil.WriteLegacyVault(t, path, VersionV1, "hunter2", []byte(`{"passwords":[]}`))

	env, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, VersionV1, env.Header.Version)
	assert.True(t, env.Header.IsLegacy())
	assert.Equal(t, crypto.PBKDF2SHA256, env.Header.KDF.Algorithm)
	assert.Equal(t, uint32(crypto.MinPBKDF2Iterations), env.Header.KDF.Iterations)
	assert.Len(t, env.Header.KDF.Salt, crypto.SaltSize)
	assert.Nil(t, env.Header.AdditionalData())
	assert.NotEmpty(t, env.Body)
}

func TestReadTruncatedLegacyHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy")
	require.NoError(t, os.WriteFile(path, []byte{0, 0, 0, 1, 0, 0, 0x27, 0x10, 1, 2, 3}, 0600))

	_, err := Read(path)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestAdditionalDataCoversHeaderFields(t *testing.T) {
	env := testEnvelope(t)
	base := env.Header.AdditionalData()

	changed := env.Header
	changed.KDF.Iterations++
	assert.NotEqual(t, base, changed.AdditionalData())

	changed = env.Header
	changed.VaultID = "other"
	assert.NotEqual(t, base, changed.AdditionalData())

	changed = env.Header
	changed.Modified = changed.Modified.Add(time.Second)
	assert.NotEqual(t, base, changed.AdditionalData())
}

func TestReadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lockpass")
	env := testEnvelope(t)
	require.NoError(t, Write(path, env))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, env.Header.VaultID, h.VaultID)
}
