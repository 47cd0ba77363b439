package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/illarion/lockpass/internal/storage"
)

// Canonical payload of the current format, big endian:
//
//	count uint32
//	count x {
//	    name     uint32 length + bytes
//	    username uint32 length + bytes
//	    password uint32 length + bytes
//	    created  int64 unix seconds + uint32 nanoseconds
//	    updated  int64 unix seconds + uint32 nanoseconds
//	}
//
// Records are ordered by name. The whole payload is built in one buffer
// sized up front so no stray copies of passwords are left behind by growth.

var errMalformedPayload = errors.New("malformed payload")

func sortedNames(records map[string]*Record) []string {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func encodeRecords(records map[string]*Record) []byte {
	names := sortedNames(records)

	size := 4
	for _, name := range names {
		r := records[name]
		size += 4 + len(r.Name) + 4 + len(r.Username) + 4 + r.Password.Len() + 2*storage.TimeSize
	}

	buf := make([]byte, 0, size)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(names)))
	for _, name := range names {
		r := records[name]
		buf = appendBytes(buf, []byte(r.Name))
		buf = appendBytes(buf, []byte(r.Username))
		buf = appendBytes(buf, r.Password.Bytes())
		buf = storage.AppendTime(buf, r.CreatedAt)
		buf = storage.AppendTime(buf, r.UpdatedAt)
	}
	return buf
}

func appendBytes(buf, b []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b)))
	return append(buf, b...)
}

type payloadReader struct {
	data []byte
	off  int
}

func (r *payloadReader) next(n int) ([]byte, error) {
	if n < 0 || len(r.data)-r.off < n {
		return nil, errMalformedPayload
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *payloadReader) uint32() (uint32, error) {
	b, err := r.next(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *payloadReader) timestamp() (time.Time, error) {
	b, err := r.next(storage.TimeSize)
	if err != nil {
		return time.Time{}, err
	}
	t, ok := storage.ParseTime(b)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: bad timestamp", errMalformedPayload)
	}
	return t, nil
}

func (r *payloadReader) field() ([]byte, error) {
	n, err := r.uint32()
	if err != nil {
		return nil, err
	}
	return r.next(int(n))
}

func decodeRecords(plaintext []byte) (map[string]*Record, error) {
	r := &payloadReader{data: plaintext}
	count, err := r.uint32()
	if err != nil {
		return nil, err
	}

	records := make(map[string]*Record)
	fail := func(err error) (map[string]*Record, error) {
		eraseRecords(records)
		return nil, err
	}

	for i := uint32(0); i < count; i++ {
		name, err := r.field()
		if err != nil {
			return fail(err)
		}
		username, err := r.field()
		if err != nil {
			return fail(err)
		}
		password, err := r.field()
		if err != nil {
			return fail(err)
		}
		created, err := r.timestamp()
		if err != nil {
			return fail(err)
		}
		updated, err := r.timestamp()
		if err != nil {
			return fail(err)
		}

		if len(name) == 0 {
			return fail(fmt.Errorf("%w: empty record name", errMalformedPayload))
		}
		if _, ok := records[string(name)]; ok {
			return fail(fmt.Errorf("%w: duplicate record %q", errMalformedPayload, name))
		}

		pw := make([]byte, len(password))
		copy(pw, password)
		records[string(name)] = &Record{
			Name:      string(name),
			Username:  string(username),
			Password:  secret.New(pw),
			CreatedAt: created,
			UpdatedAt: updated,
		}
	}

	if r.off != len(r.data) {
		return fail(fmt.Errorf("%w: trailing bytes", errMalformedPayload))
	}
	return records, nil
}

// seal encodes and encrypts records under header, which is bound into the
// ciphertext as additional data.
func seal(records map[string]*Record, key *secret.Buffer, header storage.Header) (*storage.Envelope, error) {
	plaintext := encodeRecords(records)
	defer crypto.ClearBytes(plaintext)

	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()

	body, err := enc.Encrypt(plaintext, header.AdditionalData())
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt vault: %w", err)
	}
	return &storage.Envelope{Header: header, Body: body}, nil
}

// unseal decrypts and authenticates the body. The caller clears the
// returned plaintext.
func unseal(env *storage.Envelope, key *secret.Buffer) ([]byte, error) {
	enc := crypto.NewEncryptor(key)
	defer enc.Destroy()

	return enc.Decrypt(env.Body, env.Header.AdditionalData())
}
