package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/lockpass/internal/crypto"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	HeaderBucket = []byte("header") // Version, KDF params, vault ID, timestamps - unencrypted
	BodyBucket   = []byte("body")   // Sealed record collection
)

// Header keys
var (
	HeaderVersion    = []byte("version")
	HeaderKDF        = []byte("kdf")
	HeaderSalt       = []byte("salt")
	HeaderIterations = []byte("iterations")
	HeaderMemory     = []byte("memory")
	HeaderThreads    = []byte("threads")
	HeaderVaultID    = []byte("vault_id")
	HeaderCreated    = []byte("created")
	HeaderModified   = []byte("modified")

	BodyRecords = []byte("records")
)

const (
	FilePerm = 0600

	// bbolt meta page: 16-byte page header followed by the magic number
	boltMagic       = 0xED0CDAED
	boltMagicOffset = 16
	prefixSize      = boltMagicOffset + 4

	openTimeout = time.Second
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized vault format")
	ErrMalformedHeader    = errors.New("malformed vault header")
)

// Read loads a vault file of any known format. The body is returned
// still sealed.
func Read(path string) (*Envelope, error) {
	prefix, err := readPrefix(path)
	if err != nil {
		return nil, err
	}

	switch {
	case isBolt(prefix):
		return readBolt(path)
	case isLegacy(prefix):
		return readLegacy(path)
	default:
		return nil, ErrUnrecognizedFormat
	}
}

// ReadHeader returns only the header of a vault file
func ReadHeader(path string) (*Header, error) {
	env, err := Read(path)
	if err != nil {
		return nil, err
	}
	return &env.Header, nil
}

func readPrefix(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vault: %w", err)
	}
	defer f.Close()

	buf := make([]byte, prefixSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read vault: %w", err)
	}
	return buf[:n], nil
}

func isBolt(prefix []byte) bool {
	return len(prefix) >= prefixSize &&
		binary.NativeEndian.Uint32(prefix[boltMagicOffset:]) == boltMagic
}

func readBolt(path string) (env *Envelope, err error) {
	// bbolt panics on some damaged pages instead of returning an error.
	defer func() {
		if r := recover(); r != nil {
			env, err = nil, fmt.Errorf("%w: %v", ErrMalformedHeader, r)
		}
	}()

	db, err := bolt.Open(path, FilePerm, &bolt.Options{ReadOnly: true, Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	defer db.Close()

	env = &Envelope{}
	err = db.View(func(tx *bolt.Tx) error {
		header, err := getHeader(tx)
		if err != nil {
			return err
		}
		env.Header = *header

		body := tx.Bucket(BodyBucket)
		if body == nil {
			return fmt.Errorf("%w: body bucket not found", ErrMalformedHeader)
		}
		data := body.Get(BodyRecords)
		if data == nil {
			return fmt.Errorf("%w: records not found", ErrMalformedHeader)
		}
		// Make a copy since the slice is only valid during the transaction
		env.Body = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return env, nil
}

func getHeader(tx *bolt.Tx) (*Header, error) {
	b := tx.Bucket(HeaderBucket)
	if b == nil {
		return nil, fmt.Errorf("%w: header bucket not found", ErrMalformedHeader)
	}

	version, err := getUint32(b, HeaderVersion)
	if err != nil {
		return nil, err
	}
	iterations, err := getUint32(b, HeaderIterations)
	if err != nil {
		return nil, err
	}
	memory, err := getUint32(b, HeaderMemory)
	if err != nil {
		return nil, err
	}
	threads := b.Get(HeaderThreads)
	if len(threads) != 1 {
		return nil, fmt.Errorf("%w: threads not found", ErrMalformedHeader)
	}
	algorithm := b.Get(HeaderKDF)
	if algorithm == nil {
		return nil, fmt.Errorf("%w: kdf not found", ErrMalformedHeader)
	}
	salt := b.Get(HeaderSalt)
	if salt == nil {
		return nil, fmt.Errorf("%w: salt not found", ErrMalformedHeader)
	}
	created, err := getTime(b, HeaderCreated)
	if err != nil {
		return nil, err
	}
	modified, err := getTime(b, HeaderModified)
	if err != nil {
		return nil, err
	}

	return &Header{
		Version: version,
		KDF: crypto.KDF{
			Algorithm:  crypto.Algorithm(algorithm),
			Salt:       append([]byte(nil), salt...),
			Iterations: iterations,
			Memory:     memory,
			Threads:    threads[0],
		},
		VaultID:  string(b.Get(HeaderVaultID)),
		Created:  created,
		Modified: modified,
	}, nil
}

func getUint32(b *bolt.Bucket, key []byte) (uint32, error) {
	v := b.Get(key)
	if len(v) != 4 {
		return 0, fmt.Errorf("%w: %s not found", ErrMalformedHeader, key)
	}
	return binary.BigEndian.Uint32(v), nil
}

func getTime(b *bolt.Bucket, key []byte) (time.Time, error) {
	t, ok := ParseTime(b.Get(key))
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s not found", ErrMalformedHeader, key)
	}
	return t, nil
}

func putHeader(tx *bolt.Tx, h *Header) error {
	b, err := tx.CreateBucketIfNotExists(HeaderBucket)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", HeaderBucket, err)
	}

	values := []struct {
		key   []byte
		value []byte
	}{
		{HeaderVersion, binary.BigEndian.AppendUint32(nil, h.Version)},
		{HeaderKDF, []byte(h.KDF.Algorithm)},
		{HeaderSalt, h.KDF.Salt},
		{HeaderIterations, binary.BigEndian.AppendUint32(nil, h.KDF.Iterations)},
		{HeaderMemory, binary.BigEndian.AppendUint32(nil, h.KDF.Memory)},
		{HeaderThreads, []byte{h.KDF.Threads}},
		{HeaderVaultID, []byte(h.VaultID)},
		{HeaderCreated, AppendTime(nil, h.Created)},
		{HeaderModified, AppendTime(nil, h.Modified)},
	}
	for _, v := range values {
		if err := b.Put(v.key, v.value); err != nil {
			return err
		}
	}
	return nil
}

// Write persists env in the current format. The new file is built next to
// path and renamed over it, so a crash leaves either the old or the new
// vault on disk, never a partial one.
func Write(path string, env *Envelope) error {
	if env.Header.Version != CurrentVersion {
		return fmt.Errorf("cannot write format version %d", env.Header.Version)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary vault: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to create temporary vault: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	db, err := bolt.Open(tmpPath, FilePerm, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if err := putHeader(tx, &env.Header); err != nil {
			return err
		}
		body, err := tx.CreateBucketIfNotExists(BodyBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BodyBucket, err)
		}
		return body.Put(BodyRecords, env.Body)
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write vault: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	// Atomic replace
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace vault: %w", err)
	}
	committed = true

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk. It is best effort: the new vault is
// already in place, and some platforms cannot sync directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}
