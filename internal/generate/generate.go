package generate

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/secret"
)

const (
	DefaultLength = 32
	MaxLength     = 4096

	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = `!"#$%&'()*+,-./:;<=>?@[\]^_{|}~`

	// random bytes requested from the source at a time
	chunkSize = 64
)

var (
	ErrInvalidLength      = errors.New("invalid password length")
	ErrEntropyUnavailable = errors.New("random source unavailable")
)

// Spec describes the password to generate.
type Spec struct {
	Length       int
	AllowSymbols bool
}

// DefaultSpec returns a 32 character spec with symbols allowed.
func DefaultSpec() Spec {
	return Spec{Length: DefaultLength, AllowSymbols: true}
}

// Validate checks the requested length.
func (s Spec) Validate() error {
	if s.Length <= 0 || s.Length > MaxLength {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidLength, s.Length, MaxLength)
	}
	return nil
}

func (s Spec) classes() []string {
	if s.AllowSymbols {
		return []string{lowercase, uppercase, digits, symbols}
	}
	return []string{lowercase, uppercase, digits}
}

// Generator draws passwords from Rand, crypto/rand when nil.
type Generator struct {
	Rand io.Reader
}

// Generate creates a password with the system random source.
func Generate(spec Spec) (*secret.Buffer, error) {
	return (&Generator{}).Generate(spec)
}

// Generate creates a password matching spec. Every character is drawn
// uniformly from the alphabet. When the password is long enough to hold one
// character of each class, candidates missing a class are discarded and
// drawn again.
func (g *Generator) Generate(spec Spec) (*secret.Buffer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	classes := spec.classes()
	alphabet := strings.Join(classes, "")
	enforce := spec.Length >= len(classes)

	for {
		candidate, err := g.draw(alphabet, spec.Length)
		if err != nil {
			return nil, err
		}
		if !enforce || hasEveryClass(candidate, classes) {
			return secret.New(candidate), nil
		}
		crypto.ClearBytes(candidate)
	}
}

func (g *Generator) source() io.Reader {
	if g.Rand == nil {
		return rand.Reader
	}
	return g.Rand
}

// draw fills n characters from alphabet by rejection sampling: random
// bytes at or above the largest multiple of len(alphabet) are skipped so
// that every character is equally likely.
func (g *Generator) draw(alphabet string, n int) ([]byte, error) {
	size := len(alphabet)
	limit := 256 - 256%size

	out := make([]byte, 0, n)
	chunk := make([]byte, chunkSize)
	defer crypto.ClearBytes(chunk)

	for len(out) < n {
		if _, err := io.ReadFull(g.source(), chunk); err != nil {
			crypto.ClearBytes(out)
			return nil, fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
		}
		for _, b := range chunk {
			if int(b) >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%size])
			if len(out) == n {
				break
			}
		}
	}
	return out, nil
}

func hasEveryClass(password []byte, classes []string) bool {
	for _, class := range classes {
		found := false
		for _, c := range password {
			if strings.IndexByte(class, c) >= 0 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
