package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/illarion/lockpass/internal/storage"
)

// decodeFunc turns a decrypted payload of one format version into records
// of the current schema. now fills in timestamps the format did not keep.
type decodeFunc func(plaintext []byte, now time.Time, log *logging.Logger) (map[string]*Record, error)

var decoders = map[uint32]decodeFunc{
	storage.VersionV1:      decodeV1,
	storage.VersionV2:      decodeV2,
	storage.CurrentVersion: decodeCurrent,
}

func supportedVersion(version uint32) bool {
	_, ok := decoders[version]
	return ok
}

// migrate decodes plaintext according to version. It never touches disk.
func migrate(version uint32, plaintext []byte, now time.Time, log *logging.Logger) (map[string]*Record, error) {
	decode, ok := decoders[version]
	if !ok {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, version)
	}

	records, err := decode(plaintext, now, log)
	if err != nil {
		return nil, fmt.Errorf("%w: version %d payload: %v", ErrCorruptVault, version, err)
	}
	return records, nil
}

func decodeCurrent(plaintext []byte, _ time.Time, _ *logging.Logger) (map[string]*Record, error) {
	return decodeRecords(plaintext)
}

// Version 1 kept one flat list of passwords keyed by nothing but the
// app name inside each entry, and no timestamps.
type v1Payload struct {
	Passwords []v1Password `json:"passwords"`
}

type v1Password struct {
	AppName  string `json:"app_name"`
	Username string `json:"username"`
	Password []byte `json:"password"`
}

func decodeV1(plaintext []byte, now time.Time, log *logging.Logger) (map[string]*Record, error) {
	var payload v1Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, err
	}

	records := make(map[string]*Record, len(payload.Passwords))
	for i, p := range payload.Passwords {
		if p.AppName == "" {
			eraseRecords(records)
			for _, rest := range payload.Passwords[i:] {
				clear(rest.Password)
			}
			return nil, fmt.Errorf("%w: entry %d has no app name", errMalformedPayload, i)
		}
		if old, ok := records[p.AppName]; ok {
			log.Warnf("legacy vault has more than one entry for %q, keeping the last one", p.AppName)
			old.Erase()
		}
		records[p.AppName] = &Record{
			Name:      p.AppName,
			Username:  p.Username,
			Password:  secret.New(p.Password),
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return records, nil
}

// Version 2 keyed records by name and kept unix-second timestamps, which
// may be zero for entries imported from version 1.
type v2Payload struct {
	Records map[string]v2Record `json:"records"`
}

type v2Record struct {
	Username  string `json:"username"`
	Password  []byte `json:"password"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func decodeV2(plaintext []byte, now time.Time, _ *logging.Logger) (map[string]*Record, error) {
	var payload v2Payload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, err
	}

	records := make(map[string]*Record, len(payload.Records))
	for name, r := range payload.Records {
		if name == "" {
			eraseRecords(records)
			for _, rest := range payload.Records {
				clear(rest.Password)
			}
			return nil, fmt.Errorf("%w: record with empty name", errMalformedPayload)
		}

		created := now
		if r.CreatedAt > 0 {
			created = time.Unix(r.CreatedAt, 0)
		}
		updated := created
		if r.UpdatedAt > 0 {
			updated = time.Unix(r.UpdatedAt, 0)
		}
		if updated.Before(created) {
			updated = created
		}

		records[name] = &Record{
			Name:      name,
			Username:  r.Username,
			Password:  secret.New(r.Password),
			CreatedAt: created,
			UpdatedAt: updated,
		}
	}
	return records, nil
}
