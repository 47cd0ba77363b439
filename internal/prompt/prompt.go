package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/illarion/lockpass/internal/crypto"
	"github.com/illarion/lockpass/internal/secret"
	"golang.org/x/term"
)

// EnvPassword names the environment variable holding the master passphrase
// for non-interactive use.
const EnvPassword = "LOCKPASS_PASSWORD"

var ErrMismatch = errors.New("entries do not match")

// Port asks the user for secrets.
type Port interface {
	ReadMasterPassphrase() (*secret.Buffer, error)
	ReadSecret(label string) (*secret.Buffer, error)
	ReadConfirmed(label string) (*secret.Buffer, error)
}

// Terminal reads secrets from stdin without echo when stdin is a TTY, and
// line by line otherwise.
type Terminal struct {
	out  io.Writer
	read func() ([]byte, error)
}

// NewTerminal returns a prompt on the process terminal. Prompts go to
// stderr so stdout stays clean for piping.
func NewTerminal() *Terminal {
	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		return &Terminal{
			out: os.Stderr,
			read: func() ([]byte, error) {
				b, err := term.ReadPassword(fd)
				fmt.Fprintln(os.Stderr) // New line after password
				return b, err
			},
		}
	}
	return NewReader(os.Stdin, os.Stderr)
}

// NewReader returns a prompt that reads one line per secret from r.
func NewReader(r io.Reader, out io.Writer) *Terminal {
	br := bufio.NewReader(r)
	return &Terminal{
		out: out,
		read: func() ([]byte, error) {
			line, err := br.ReadBytes('\n')
			if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
				crypto.ClearBytes(line)
				return nil, err
			}
			n := len(line)
			for n > 0 && (line[n-1] == '\n' || line[n-1] == '\r') {
				n--
			}
			pw := make([]byte, n)
			copy(pw, line)
			crypto.ClearBytes(line)
			return pw, nil
		},
	}
}

func (t *Terminal) readSecret(label string) (*secret.Buffer, error) {
	fmt.Fprint(t.out, label)
	b, err := t.read()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return secret.New(b), nil
}

// ReadMasterPassphrase asks for the master passphrase once.
func (t *Terminal) ReadMasterPassphrase() (*secret.Buffer, error) {
	return t.readSecret("Type your master password: ")
}

// ReadSecret asks for a secret described by label.
func (t *Terminal) ReadSecret(label string) (*secret.Buffer, error) {
	return t.readSecret(label + ": ")
}

// ReadConfirmed asks for a secret twice and returns it if both entries match.
func (t *Terminal) ReadConfirmed(label string) (*secret.Buffer, error) {
	first, err := t.readSecret(label + ": ")
	if err != nil {
		return nil, err
	}

	second, err := t.readSecret("Confirm " + label + ": ")
	if err != nil {
		first.Erase()
		return nil, err
	}

	if !first.Equal(second) {
		secret.EraseAll(first, second)
		return nil, ErrMismatch
	}
	second.Erase()
	return first, nil
}

// Env serves the master passphrase from EnvPassword when it is set and
// defers everything else to Next.
type Env struct {
	Next   Port
	Lookup func(string) (string, bool)
}

// WithEnv wraps next with the EnvPassword source read through lookup,
// usually os.LookupEnv.
func WithEnv(next Port, lookup func(string) (string, bool)) *Env {
	return &Env{Next: next, Lookup: lookup}
}

// FromEnv reports whether the master passphrase comes from the environment.
func (e *Env) FromEnv() bool {
	v, ok := e.Lookup(EnvPassword)
	return ok && v != ""
}

func (e *Env) ReadMasterPassphrase() (*secret.Buffer, error) {
	if v, ok := e.Lookup(EnvPassword); ok && v != "" {
		return secret.FromString(v), nil
	}
	return e.Next.ReadMasterPassphrase()
}

func (e *Env) ReadSecret(label string) (*secret.Buffer, error) {
	return e.Next.ReadSecret(label)
}

func (e *Env) ReadConfirmed(label string) (*secret.Buffer, error) {
	return e.Next.ReadConfirmed(label)
}
