package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/illarion/lockpass/internal/secret"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize  = 32 // Salt size in bytes
	KeySize   = 32 // AES-256 key size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM authentication tag size

	DefaultTime    = 3         // Argon2id passes
	DefaultMemory  = 64 * 1024 // Argon2id memory in KiB
	DefaultThreads = 4         // Argon2id lanes

	MinTime             = 1
	MinMemory           = 8 * 1024
	MinThreads          = 1
	MinPBKDF2Iterations = 10000

	// Upper bounds keep a tampered header from exhausting memory or CPU
	// before the body is authenticated.
	MaxTime             = 64
	MaxMemory           = 4 * 1024 * 1024 // 4 GiB in KiB
	MaxPBKDF2Iterations = 10_000_000
)

// Algorithm names a key derivation function as stored in the vault header.
type Algorithm string

const (
	Argon2id     Algorithm = "argon2id"
	PBKDF2SHA256 Algorithm = "pbkdf2-sha256"
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrInvalidParams     = errors.New("invalid key derivation parameters")
)

// KDF handles key derivation from passwords. The parameters are stored
// next to the salt so older vaults stay decryptable when defaults change.
type KDF struct {
	Algorithm  Algorithm
	Salt       []byte
	Iterations uint32 // Argon2id time cost or PBKDF2 iteration count
	Memory     uint32 // KiB, Argon2id only
	Threads    uint8  // Argon2id only
}

// NewKDF creates an Argon2id KDF with a random salt and the default cost
func NewKDF() (*KDF, error) {
	return NewKDFWithCost(DefaultTime, DefaultMemory, DefaultThreads)
}

// NewKDFWithCost creates an Argon2id KDF with a random salt and the given cost
func NewKDFWithCost(time, memory uint32, threads uint8) (*KDF, error) {
	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	kdf := &KDF{
		Algorithm:  Argon2id,
		Salt:       salt,
		Iterations: time,
		Memory:     memory,
		Threads:    threads,
	}
	if err := kdf.Validate(); err != nil {
		return nil, err
	}
	return kdf, nil
}

// Validate rejects parameters that are malformed or outside the allowed cost
func (k *KDF) Validate() error {
	if len(k.Salt) != SaltSize {
		return fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidParams, len(k.Salt), SaltSize)
	}

	switch k.Algorithm {
	case Argon2id:
		if err := ValidateArgon2Cost(k.Iterations, k.Memory, k.Threads); err != nil {
			return err
		}
	case PBKDF2SHA256:
		if k.Iterations < MinPBKDF2Iterations || k.Iterations > MaxPBKDF2Iterations {
			return fmt.Errorf("%w: pbkdf2 iterations=%d", ErrInvalidParams, k.Iterations)
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrInvalidParams, k.Algorithm)
	}
	return nil
}

// ValidateArgon2Cost checks an Argon2id cost against the allowed range
func ValidateArgon2Cost(time, memory uint32, threads uint8) error {
	if time < MinTime || time > MaxTime ||
		memory < MinMemory || memory > MaxMemory ||
		threads < MinThreads {
		return fmt.Errorf("%w: argon2id t=%d m=%d p=%d (allowed t=%d..%d m=%d..%d p>=%d)",
			ErrInvalidParams, time, memory, threads, MinTime, MaxTime, MinMemory, MaxMemory, MinThreads)
	}
	return nil
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password *secret.Buffer) (*secret.Buffer, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}

	var key []byte
	switch k.Algorithm {
	case Argon2id:
		key = argon2.IDKey(password.Bytes(), k.Salt, k.Iterations, k.Memory, k.Threads, KeySize)
	case PBKDF2SHA256:
		key = pbkdf2.Key(password.Bytes(), k.Salt, int(k.Iterations), KeySize, sha256.New)
	}
	return secret.New(key), nil
}

// Encryptor provides authenticated encryption
type Encryptor struct {
	key *secret.Buffer
}

// NewEncryptor creates a new encryptor holding its own copy of key
func NewEncryptor(key *secret.Buffer) *Encryptor {
	return &Encryptor{
		key: key.Clone(),
	}
}

func (e *Encryptor) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Encrypt encrypts plaintext using AES-256-GCM. additionalData is
// authenticated but not encrypted; it may be nil.
func (e *Encryptor) Encrypt(plaintext, additionalData []byte) ([]byte, error) {
	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateRandom(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Seal appends to the nonce so the result is nonce || ciphertext || tag
	return gcm.Seal(nonce, nonce, plaintext, additionalData), nil
}

// Decrypt decrypts ciphertext using AES-256-GCM
func (e *Encryptor) Decrypt(ciphertext, additionalData []byte) ([]byte, error) {
	if len(ciphertext) < NonceSize+TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}

	nonce := ciphertext[:NonceSize]
	ciphertext = ciphertext[NonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	e.key.Erase()
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	clear(b)
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
