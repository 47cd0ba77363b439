package core

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/logging"
	"github.com/illarion/lockpass/internal/secret"
	"github.com/illarion/lockpass/internal/storage"
)

// Store is the in-memory authority over one decrypted vault. Every mutating
// method writes the whole vault back to disk before returning and reverts
// the in-memory change if that write fails.
//
// A Store is not safe for concurrent use.
type Store struct {
	path    string
	header  storage.Header
	key     *secret.Buffer
	records map[string]*Record
	closed  bool

	clock  Clock
	log    *logging.Logger
	newKDF func() (*crypto.KDF, error)
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for record and header timestamps.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithKDF sets how fresh key derivation parameters are made, for new
// vaults, upgrades of legacy vaults and master passphrase changes.
func WithKDF(newKDF func() (*crypto.KDF, error)) Option {
	return func(s *Store) { s.newKDF = newKDF }
}

func newStore(path string, opts []Option) *Store {
	s := &Store{
		path:   path,
		clock:  SystemClock{},
		log:    logging.Discard(),
		newKDF: crypto.NewKDF,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create makes a new empty vault at path, sealed with passphrase.
func Create(path string, passphrase *secret.Buffer, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("cannot check %s: %w", path, err)
	}

	s := newStore(path, opts)

	kdf, err := s.newKDF()
	if err != nil {
		return nil, fmt.Errorf("failed to create KDF: %w", err)
	}
	key, err := kdf.DeriveKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	s.header = storage.NewHeader(kdf, s.clock.Now())
	s.key = key
	s.records = make(map[string]*Record)

	if err := s.persist(); err != nil {
		s.Close()
		return nil, err
	}
	s.log.Debugf("created vault %s (%s)", path, s.header.VaultID)
	return s, nil
}

// Open loads, decrypts and migrates the vault at path. A vault in a legacy
// format is rewritten once in the current format before Open returns.
func Open(path string, passphrase *secret.Buffer, opts ...Option) (*Store, error) {
	s := newStore(path, opts)

	env, err := storage.Read(path)
	if err != nil {
		s.log.Debugf("cannot read %s: %v", path, err)
		return nil, readError(path, err)
	}

	version := env.Header.Version
	if !supportedVersion(version) {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedFormat, version)
	}

	key, err := env.Header.KDF.DeriveKey(passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptVault, err)
	}

	plaintext, err := unseal(env, key)
	if err != nil {
		key.Erase()
		// The cause stays in the debug log only.
		s.log.Debugf("cannot unseal %s: %v", path, err)
		return nil, ErrWrongPasswordOrCorrupt
	}
	defer crypto.ClearBytes(plaintext)

	records, err := migrate(version, plaintext, s.clock.Now(), s.log)
	if err != nil {
		key.Erase()
		return nil, err
	}

	s.header = env.Header
	s.key = key
	s.records = records

	if env.Header.IsLegacy() {
		if err := s.upgrade(passphrase); err != nil {
			s.Close()
			return nil, err
		}
	}

	s.log.Debugf("opened vault %s with %d records", path, len(records))
	return s, nil
}

// ReadHeader returns the unencrypted header of the vault at path without
// asking for the passphrase.
func ReadHeader(path string) (*storage.Header, error) {
	header, err := storage.ReadHeader(path)
	if err != nil {
		return nil, readError(path, err)
	}
	return header, nil
}

func readError(path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, storage.ErrUnrecognizedFormat):
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	case errors.Is(err, storage.ErrMalformedHeader):
		return fmt.Errorf("%w: %v", ErrCorruptVault, err)
	default:
		return err
	}
}

// upgrade re-keys a freshly migrated legacy vault with current KDF
// parameters and writes it in the current format.
func (s *Store) upgrade(passphrase *secret.Buffer) error {
	from := s.header.Version

	kdf, err := s.newKDF()
	if err != nil {
		return fmt.Errorf("failed to create KDF: %w", err)
	}
	key, err := kdf.DeriveKey(passphrase)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	oldKey, oldHeader := s.key, s.header
	s.key = key
	s.header = storage.NewHeader(kdf, s.clock.Now())

	if err := s.persist(); err != nil {
		s.key, s.header = oldKey, oldHeader
		key.Erase()
		return err
	}
	oldKey.Erase()

	s.log.Infof("upgraded %s from format version %d to %d", s.path, from, storage.CurrentVersion)
	return nil
}

// persist seals the full record set and atomically replaces the file.
func (s *Store) persist() error {
	header := s.header
	header.Modified = s.clock.Now()

	env, err := seal(s.records, s.key, header)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := storage.Write(s.path, env); err != nil {
		s.log.Debugf("write of %s failed: %v", s.path, err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.header = header
	return nil
}

// Path returns the vault file path.
func (s *Store) Path() string {
	return s.path
}

// Header returns a copy of the current vault header.
func (s *Store) Header() storage.Header {
	h := s.header
	h.KDF.Salt = append([]byte(nil), s.header.KDF.Salt...)
	return h
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.records)
}

// List returns name and username of every record, ordered by name.
func (s *Store) List() []Summary {
	names := sortedNames(s.records)
	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, Summary{Name: name, Username: s.records[name].Username})
	}
	return summaries
}

// Get returns a copy of the record called name. The caller owns the copy
// and must Erase it.
func (s *Store) Get(name string) (*Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	r, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return r.Clone(), nil
}

// Add stores a new record. The store keeps its own copy of password; the
// caller still erases the buffer it passed in.
func (s *Store) Add(name, username string, password *secret.Buffer) error {
	if s.closed {
		return ErrClosed
	}
	if name == "" {
		return ErrInvalidName
	}
	if _, ok := s.records[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	now := s.clock.Now()
	r := &Record{
		Name:      name,
		Username:  username,
		Password:  password.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if r.Password == nil {
		r.Password = secret.New(nil)
	}

	s.records[name] = r
	if err := s.persist(); err != nil {
		delete(s.records, name)
		r.Erase()
		return err
	}
	return nil
}

// Delete removes the record called name and hands it to the caller, who
// must Erase it.
func (s *Store) Delete(name string) (*Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	r, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(s.records, name)
	if err := s.persist(); err != nil {
		s.records[name] = r
		return nil, err
	}
	return r, nil
}

// Change replaces the record called name with transform(record).
//
// transform receives a copy whose password the store erases once transform
// returns; the store keeps its own copy of the password in the result, so a
// buffer the caller put there stays the caller's to erase. Name and CreatedAt
// cannot be changed this way and UpdatedAt is set to now. A copy of the
// stored result is returned for the caller to Erase.
func (s *Store) Change(name string, transform func(Record) Record) (*Record, error) {
	if s.closed {
		return nil, ErrClosed
	}
	old, ok := s.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	input := old.Clone()
	result := transform(*input)

	updated := result
	updated.Password = result.Password.Clone()
	input.Erase()
	if updated.Password == nil {
		updated.Password = secret.New(nil)
	}
	updated.Name = old.Name
	updated.CreatedAt = old.CreatedAt
	updated.UpdatedAt = s.clock.Now()

	s.records[name] = &updated
	if err := s.persist(); err != nil {
		s.records[name] = old
		updated.Erase()
		return nil, err
	}
	old.Erase()
	return updated.Clone(), nil
}

// Rename moves a record to a new name.
func (s *Store) Rename(oldName, newName string) error {
	if s.closed {
		return ErrClosed
	}
	if newName == "" {
		return ErrInvalidName
	}
	r, ok := s.records[oldName]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, oldName)
	}
	if _, ok := s.records[newName]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, newName)
	}

	prevUpdated := r.UpdatedAt
	delete(s.records, oldName)
	r.Name = newName
	r.UpdatedAt = s.clock.Now()
	s.records[newName] = r

	if err := s.persist(); err != nil {
		delete(s.records, newName)
		r.Name = oldName
		r.UpdatedAt = prevUpdated
		s.records[oldName] = r
		return err
	}
	return nil
}

// ChangeMasterPassphrase re-keys the vault with a fresh salt derived from
// passphrase.
func (s *Store) ChangeMasterPassphrase(passphrase *secret.Buffer) error {
	if s.closed {
		return ErrClosed
	}

	kdf, err := s.newKDF()
	if err != nil {
		return fmt.Errorf("failed to create KDF: %w", err)
	}
	key, err := kdf.DeriveKey(passphrase)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	oldKey, oldHeader := s.key, s.header
	s.key = key
	s.header.KDF = *kdf

	if err := s.persist(); err != nil {
		s.key, s.header = oldKey, oldHeader
		key.Erase()
		return err
	}
	oldKey.Erase()
	return nil
}

// Close erases every password and the derived key. The store cannot be
// used afterwards. Close is idempotent.
func (s *Store) Close() {
	if s.closed {
		return
	}
	eraseRecords(s.records)
	s.records = nil
	s.key.Erase()
	s.closed = true
}
