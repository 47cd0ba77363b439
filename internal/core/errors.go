package core

import "errors"

// Open errors.
var (
	// ErrFileNotFound indicates there is no vault at the given path.
	ErrFileNotFound = errors.New("vault file not found")

	// ErrWrongPasswordOrCorrupt indicates the body could not be authenticated.
	// A wrong passphrase and a damaged file are deliberately indistinguishable.
	ErrWrongPasswordOrCorrupt = errors.New("wrong master password or corrupt vault")

	// ErrUnsupportedFormat indicates a format version newer than this build
	// or a file that is not a vault at all.
	ErrUnsupportedFormat = errors.New("unsupported vault format")

	// ErrCorruptVault indicates malformed header or key derivation parameters.
	ErrCorruptVault = errors.New("corrupt vault")

	// ErrAlreadyExists indicates Create found a file at the target path.
	ErrAlreadyExists = errors.New("vault already exists")
)

// Record errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateName = errors.New("record already exists")
	ErrInvalidName   = errors.New("record name must not be empty")
)

// State errors.
var (
	// ErrPersist indicates the vault could not be written. The in-memory
	// change that triggered the write has been reverted.
	ErrPersist = errors.New("failed to save vault")

	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("vault is closed")
)
